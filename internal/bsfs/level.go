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

package bsfs

import (
	"sync"

	"github.com/ThatFatPat/BSFS-sub000/internal/bft"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/cluster"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/oft"
	"github.com/ThatFatPat/BSFS-sub000/internal/stego"
)

// Level is one mounted level's open handle: its decoded BFT and
// bitmap, the open-file table tracking live handles into it, and the
// metadata lock guarding both decoded buffers.
type Level struct {
	disk      *diskio.Disk
	key       stego.Key
	index     int
	nClusters int
	bmpSize   int

	metaMu sync.RWMutex
	bftBuf []byte
	bitmap []byte

	oft *oft.Table
}

// Index is the key-table slot this level was mounted from.
func (l *Level) Index() int { return l.index }

func (l *Level) commitBFT() error {
	return bft.WriteTable(l.key, l.disk, l.bftBuf)
}

func (l *Level) commitBitmap() error {
	if l.bmpSize == 0 {
		return nil
	}
	return stego.WriteLevel(l.key, l.disk, l.bitmap, bsconst.BFTSize, l.bmpSize)
}

// Mknod creates a new, empty, zero-length entry named name with the
// given permission mode.
func (l *Level) Mknod(name string, mode uint32, now uint32) error {
	if err := bft.ValidateName(name); err != nil {
		return err
	}

	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	if _, err := bft.Find(l.bftBuf, name); err == nil {
		return newErr(ErrExists, "bsfs.Mknod")
	}

	idx, err := bft.FindFree(l.bftBuf)
	if err != nil {
		return err
	}

	entry := bft.Entry{
		Name:           name,
		InitialCluster: bsconst.ClusterEOF,
		Size:           0,
		Mode:           mode,
		Atim:           now,
		Mtim:           now,
	}
	if err := bft.WriteEntry(l.bftBuf, idx, entry); err != nil {
		return err
	}
	return l.commitBFT()
}

// Unlink removes name, freeing its cluster chain. It fails with
// ErrBusy if the file is currently open.
func (l *Level) Unlink(name string) error {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	idx, err := bft.Find(l.bftBuf, name)
	if err != nil {
		return err
	}
	if l.oft.Contains(idx) {
		return newErr(ErrBusy, "bsfs.Unlink")
	}

	entry, err := bft.ReadEntry(l.bftBuf, idx)
	if err != nil {
		return err
	}

	if _, err := cluster.Truncate(l.key, l.disk, l.bmpSize, l.bitmap, l.nClusters, entry.InitialCluster, 0); err != nil {
		return err
	}
	if err := bft.RemoveEntry(l.bftBuf, idx); err != nil {
		return err
	}
	if err := l.commitBFT(); err != nil {
		return err
	}
	return l.commitBitmap()
}

// Open returns a reference-counted handle for name.
func (l *Level) Open(name string) (*Handle, error) {
	l.metaMu.RLock()
	idx, err := bft.Find(l.bftBuf, name)
	l.metaMu.RUnlock()
	if err != nil {
		return nil, err
	}
	return &Handle{level: l, h: l.oft.Get(idx)}, nil
}

// Release drops h's reference.
func (l *Level) Release(h *Handle) error {
	return l.oft.Release(h.h)
}

// Read fills buf from h's file body starting at logical offset off,
// returning the number of bytes actually read (short of len(buf) at
// EOF).
func (l *Level) Read(h *Handle, buf []byte, off int) (int, error) {
	// Metadata before body, per the lock hierarchy: take the level's
	// metadata lock first and hold it across the body read so entry
	// can't go stale between the two.
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()

	h.h.Body.RLock()
	defer h.h.Body.RUnlock()

	entry, err := bft.ReadEntry(l.bftBuf, h.h.BFTIndex)
	if err != nil {
		return 0, err
	}

	if uint32(off) >= entry.Size {
		return 0, nil
	}
	n := len(buf)
	if remaining := int(entry.Size) - off; n > remaining {
		n = remaining
	}
	if n == 0 {
		return 0, nil
	}

	if err := cluster.Read(l.key, l.disk, l.bmpSize, entry.InitialCluster, buf[:n], off, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Write writes buf to h's file body at logical offset off, extending
// the cluster chain and updating size/mtim as needed.
func (l *Level) Write(h *Handle, buf []byte, off int, now uint32) (int, error) {
	// Metadata before body, per the lock hierarchy.
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	h.h.Body.Lock()
	defer h.h.Body.Unlock()

	entry, err := bft.ReadEntry(l.bftBuf, h.h.BFTIndex)
	if err != nil {
		return 0, err
	}

	newHead, err := cluster.Write(l.key, l.disk, l.bmpSize, l.bitmap, l.nClusters, entry.InitialCluster, buf, off)
	if err != nil {
		return 0, err
	}

	entry.InitialCluster = newHead
	if newSize := off + len(buf); uint32(newSize) > entry.Size {
		entry.Size = uint32(newSize)
	}
	entry.Mtim = now

	if err := bft.WriteEntry(l.bftBuf, h.h.BFTIndex, entry); err != nil {
		return 0, err
	}
	if err := l.commitBFT(); err != nil {
		return 0, err
	}
	if err := l.commitBitmap(); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Truncate resizes name's file body to newSize bytes.
func (l *Level) Truncate(name string, newSize uint32, now uint32) error {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	idx, err := bft.Find(l.bftBuf, name)
	if err != nil {
		return err
	}
	entry, err := bft.ReadEntry(l.bftBuf, idx)
	if err != nil {
		return err
	}

	newHead := entry.InitialCluster
	if newSize == 0 {
		newHead, err = cluster.Truncate(l.key, l.disk, l.bmpSize, l.bitmap, l.nClusters, entry.InitialCluster, 0)
	} else if newSize < entry.Size {
		newHead, err = cluster.Truncate(l.key, l.disk, l.bmpSize, l.bitmap, l.nClusters, entry.InitialCluster, int(newSize))
	} else if newSize > entry.Size {
		pad := make([]byte, newSize-entry.Size)
		newHead, err = cluster.Write(l.key, l.disk, l.bmpSize, l.bitmap, l.nClusters, entry.InitialCluster, pad, int(entry.Size))
	}
	if err != nil {
		return err
	}

	entry.InitialCluster = newHead
	entry.Size = newSize
	entry.Mtim = now
	if err := bft.WriteEntry(l.bftBuf, idx, entry); err != nil {
		return err
	}
	if err := l.commitBFT(); err != nil {
		return err
	}
	return l.commitBitmap()
}

// Rename changes name's directory entry to newName within the same
// level. It fails with ErrExists if newName is already in use.
func (l *Level) Rename(name, newName string) error {
	if err := bft.ValidateName(newName); err != nil {
		return err
	}

	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	idx, err := bft.Find(l.bftBuf, name)
	if err != nil {
		return err
	}
	if _, err := bft.Find(l.bftBuf, newName); err == nil {
		return newErr(ErrExists, "bsfs.Rename")
	}

	entry, err := bft.ReadEntry(l.bftBuf, idx)
	if err != nil {
		return err
	}
	entry.Name = newName
	if err := bft.WriteEntry(l.bftBuf, idx, entry); err != nil {
		return err
	}
	return l.commitBFT()
}

// Chmod updates name's permission bits.
func (l *Level) Chmod(name string, mode uint32, now uint32) error {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	idx, err := bft.Find(l.bftBuf, name)
	if err != nil {
		return err
	}
	entry, err := bft.ReadEntry(l.bftBuf, idx)
	if err != nil {
		return err
	}
	entry.Mode = mode
	entry.Mtim = now
	if err := bft.WriteEntry(l.bftBuf, idx, entry); err != nil {
		return err
	}
	return l.commitBFT()
}

// Stat returns the decoded directory entry for name.
func (l *Level) Stat(name string) (bft.Entry, error) {
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()

	idx, err := bft.Find(l.bftBuf, name)
	if err != nil {
		return bft.Entry{}, err
	}
	return bft.ReadEntry(l.bftBuf, idx)
}

// Readdir returns every non-empty entry in the level.
func (l *Level) Readdir() ([]bft.Entry, error) {
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()

	var entries []bft.Entry
	bft.Iterate(l.bftBuf, func(_ int, e bft.Entry) bool {
		entries = append(entries, e)
		return true
	})
	return entries, nil
}

// Sync forces the in-memory BFT and bitmap to the cover disk without
// unmounting the level.
func (l *Level) Sync() error {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	if err := l.commitBFT(); err != nil {
		return err
	}
	return l.commitBitmap()
}

func newErr(kind ErrKind, op string) error {
	return &Error{Kind: kind, Op: op}
}
