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
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsfs"
)

// fileNode is one file within a levelDir.
type fileNode struct {
	level *bsfs.Level
	name  string
}

func (n *fileNode) Attr(ctx context.Context, a *fuse.Attr) error {
	entry, err := n.level.Stat(n.name)
	if err != nil {
		return errno(err)
	}
	a.Mode = os.FileMode(entry.Mode)
	a.Size = uint64(entry.Size)
	a.Atime = time.Unix(int64(entry.Atim), 0)
	a.Mtime = time.Unix(int64(entry.Mtim), 0)
	a.Uid = uint32(os.Getuid())
	a.Gid = uint32(os.Getgid())
	return nil
}

func (n *fileNode) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	h, err := n.level.Open(n.name)
	if err != nil {
		return nil, errno(err)
	}
	return &fileHandle{level: n.level, h: h}, nil
}

func (n *fileNode) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	now := uint32(time.Now().Unix())
	if req.Valid.Size() {
		if err := n.level.Truncate(n.name, uint32(req.Size), now); err != nil {
			return errno(err)
		}
	}
	if req.Valid.Mode() {
		if err := n.level.Chmod(n.name, uint32(req.Mode.Perm()), now); err != nil {
			return errno(err)
		}
	}
	return n.Attr(ctx, &resp.Attr)
}

func (n *fileNode) Fsync(ctx context.Context, req *fuse.FsyncRequest) error {
	return errno(n.level.Sync())
}
