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

// Command bsfs-format lays out a fresh BSFS disk image from a
// newline-separated passphrase file, one level per passphrase.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsfs"
	"github.com/ThatFatPat/BSFS-sub000/internal/passfile"
)

var (
	flagDisk     = flag.String("disk", "", "path to the disk image to format (must already exist and be sized).")
	flagPassfile = flag.String("passfile", "", "path to a newline-separated passphrase file, one level per line.")
)

// Exit codes match spec.md §6: success, too many passphrases, invalid
// passphrase, I/O error.
const (
	exitSuccess = 0
	exitTooMany = 1
	exitInvalid = 2
	exitIO      = 3
)

func main() {
	flag.Parse()
	if *flagDisk == "" || *flagPassfile == "" {
		exitf(exitInvalid, "--disk and --passfile are both required")
	}

	pf, err := os.Open(*flagPassfile)
	if err != nil {
		exitf(exitIO, "open %s: %v", *flagPassfile, err)
	}
	passphrases, err := passfile.Read(pf)
	pf.Close()
	if err != nil {
		exitf(exitFromError(err), "reading %s: %v", *flagPassfile, err)
	}
	if len(passphrases) == 0 {
		exitf(exitInvalid, "%s contains no passphrases", *flagPassfile)
	}

	f, err := os.OpenFile(*flagDisk, os.O_RDWR, 0)
	if err != nil {
		exitf(exitIO, "open %s: %v", *flagDisk, err)
	}
	defer f.Close()

	if err := bsfs.Format(f, passphrases, rand.Reader); err != nil {
		exitf(exitFromError(err), "format %s: %v", *flagDisk, err)
	}

	fmt.Printf("formatted %s with %d level(s)\n", *flagDisk, len(passphrases))
}

func exitFromError(err error) int {
	switch {
	case bsfs.IsKind(err, bsfs.ErrTooManyLevels):
		return exitTooMany
	case bsfs.IsKind(err, bsfs.ErrInvalid):
		return exitInvalid
	default:
		return exitIO
	}
}

func exitf(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
