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

package fuseadapter

import (
	"context"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsfs"
)

// levelDir is the flat, one-level-deep directory holding every file
// visible under one mounted level. There are no subdirectories.
type levelDir struct {
	level *bsfs.Level
}

func (d *levelDir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0755
	a.Uid = uint32(os.Getuid())
	a.Gid = uint32(os.Getgid())
	return nil
}

func (d *levelDir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	if _, err := d.level.Stat(name); err != nil {
		return nil, errno(err)
	}
	return &fileNode{level: d.level, name: name}, nil
}

func (d *levelDir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := d.level.Readdir()
	if err != nil {
		return nil, errno(err)
	}
	ents := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		ents = append(ents, fuse.Dirent{Name: e.Name, Type: fuse.DT_File})
	}
	return ents, nil
}

func (d *levelDir) Mknod(ctx context.Context, req *fuse.MknodRequest) (fusefs.Node, error) {
	now := uint32(time.Now().Unix())
	if err := d.level.Mknod(req.Name, uint32(req.Mode.Perm()), now); err != nil {
		Logger.Printf("fuseadapter: Mknod(%q): %v", req.Name, err)
		return nil, errno(err)
	}
	return &fileNode{level: d.level, name: req.Name}, nil
}

func (d *levelDir) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	if err := d.level.Unlink(req.Name); err != nil {
		Logger.Printf("fuseadapter: Remove(%q): %v", req.Name, err)
		return errno(err)
	}
	return nil
}

func (d *levelDir) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fusefs.Node) error {
	// No cross-level rename: the new parent must be this same levelDir.
	if nd, ok := newDir.(*levelDir); !ok || nd.level != d.level {
		return fuse.Errno(syscall.EXDEV)
	}
	if err := d.level.Rename(req.OldName, req.NewName); err != nil {
		return errno(err)
	}
	return nil
}
