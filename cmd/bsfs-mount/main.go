/*
Copyright 2024 The BSFS Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command bsfs-mount opens a BSFS disk image, pre-mounts zero or more
// levels by passphrase, and serves the result over FUSE until
// signaled.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsfs"
	"github.com/ThatFatPat/BSFS-sub000/internal/buildinfo"
	"github.com/ThatFatPat/BSFS-sub000/internal/fuseadapter"
	"github.com/ThatFatPat/BSFS-sub000/internal/passfile"
)

var (
	debug      = flag.Bool("debug", false, "print FUSE debugging messages.")
	passFile   = flag.String("passfile", "", "path to a newline-separated passphrase file; each line is pre-mounted as levelN.")
	version    = flag.Bool("version", false, "print version and exit.")
	unmountArg = flag.String("u", "", "unmount the given mountpoint and exit, instead of mounting anything.")
)

// Logger carries this binary's informational trace messages; set it to
// log.New(io.Discard, "", 0) to run quietly. Fatal startup errors always
// go to stderr regardless, since there would be nothing left to log to.
var Logger = log.New(os.Stderr, "", log.LstdFlags)

func usage() {
	fmt.Fprint(os.Stderr, "usage: bsfs-mount [opts] <disk-image> <mountpoint>\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("bsfs-mount version: %s\n", buildinfo.Summary())
		return
	}
	if *unmountArg != "" {
		if err := unmount(*unmountArg); err != nil {
			log.Fatalf("unmount %s: %v", *unmountArg, err)
		}
		return
	}
	if flag.NArg() != 2 {
		usage()
	}

	diskPath := flag.Arg(0)
	mountPoint := flag.Arg(1)

	f, err := os.OpenFile(diskPath, os.O_RDWR, 0)
	if err != nil {
		log.Fatalf("open %s: %v", diskPath, err)
	}

	fs, err := bsfs.Init(f)
	if err != nil {
		log.Fatalf("bsfs.Init: %v", err)
	}
	defer fs.Close()

	root := fuseadapter.NewRoot()
	if *passFile != "" {
		pf, err := os.Open(*passFile)
		if err != nil {
			log.Fatalf("open %s: %v", *passFile, err)
		}
		passphrases, err := passfile.Read(pf)
		pf.Close()
		if err != nil {
			log.Fatalf("passfile.Read: %v", err)
		}
		for i, pass := range passphrases {
			lvl, err := fs.Mount(pass)
			if err != nil {
				log.Fatalf("mount level %d: %v", i, err)
			}
			root.AddLevel("level"+strconv.Itoa(i), lvl)
		}
	}

	if *debug {
		fuse.Debug = func(msg interface{}) { Logger.Print(msg) }
	}

	conn, err := fuse.Mount(mountPoint, fuse.VolumeName(filepath.Base(mountPoint)))
	if err != nil {
		log.Fatalf("fuse.Mount: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)

	doneServe := make(chan error, 1)
	go func() {
		doneServe <- fusefs.Serve(conn, root)
	}()

	select {
	case err := <-doneServe:
		Logger.Printf("conn.Serve returned %v", err)
	case sig := <-sigc:
		Logger.Printf("signal %s received, shutting down", sig)
	}

	Logger.Printf("unmounting...")
	if err := unmount(mountPoint); err != nil {
		Logger.Printf("unmount: %v", err)
	}
	Logger.Printf("bsfs-mount process ending")
}

func unmount(mountPoint string) error {
	if err := fuse.Unmount(mountPoint); err == nil {
		return nil
	}
	// fuse.Unmount shells out to umount/fusermount on the running
	// platform; retry once more explicitly in case it raced a
	// not-yet-settled mount, matching the original bsfs -u behavior.
	out, err := exec.Command("fusermount", "-u", mountPoint).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
