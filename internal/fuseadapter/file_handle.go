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
	"time"

	"bazil.org/fuse"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsfs"
)

// fileHandle is an open file, one reference into the level's
// open-file table.
type fileHandle struct {
	level *bsfs.Level
	h     *bsfs.Handle
}

func (fh *fileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	buf := make([]byte, req.Size)
	n, err := fh.level.Read(fh.h, buf, int(req.Offset))
	if err != nil {
		return errno(err)
	}
	resp.Data = buf[:n]
	return nil
}

func (fh *fileHandle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	now := uint32(time.Now().Unix())
	n, err := fh.level.Write(fh.h, req.Data, int(req.Offset), now)
	if err != nil {
		return errno(err)
	}
	resp.Size = n
	return nil
}

func (fh *fileHandle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return errno(fh.level.Release(fh.h))
}
