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
	"log"
	"os"
	"sync"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsfs"
)

// Logger is where every node in this package sends its per-request
// trace messages. It defaults to stderr; set it to
// log.New(io.Discard, "", 0) to silence the adapter entirely.
var Logger = log.New(os.Stderr, "", log.LstdFlags)

// Root is the filesystem root: one directory entry per level currently
// known to this mount, named by whatever label the caller gave it at
// AddLevel time (not the passphrase).
type Root struct {
	mu     sync.Mutex
	levels map[string]*bsfs.Level
}

// NewRoot returns an empty Root. Levels are added with AddLevel before
// the mount is served.
func NewRoot() *Root {
	return &Root{levels: make(map[string]*bsfs.Level)}
}

// AddLevel exposes level under name at the filesystem root.
func (r *Root) AddLevel(name string, level *bsfs.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[name] = level
}

// Root implements fusefs.FS.
func (r *Root) Root() (fusefs.Node, error) {
	return r, nil
}

func (r *Root) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	a.Uid = uint32(os.Getuid())
	a.Gid = uint32(os.Getgid())
	return nil
}

func (r *Root) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	r.mu.Lock()
	lvl, ok := r.levels[name]
	r.mu.Unlock()
	if !ok {
		Logger.Printf("fuseadapter: Root.Lookup(%q): no such level", name)
		return nil, fuse.ENOENT
	}
	return &levelDir{level: lvl}, nil
}

func (r *Root) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ents := make([]fuse.Dirent, 0, len(r.levels))
	for name := range r.levels {
		ents = append(ents, fuse.Dirent{Name: name, Type: fuse.DT_Dir})
	}
	return ents, nil
}
