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
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bft"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/cluster"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/keytable"
	"github.com/ThatFatPat/BSFS-sub000/internal/oft"
	"github.com/ThatFatPat/BSFS-sub000/internal/stego"
)

// Filesystem owns one disk's exclusive lock and mmap for the lifetime
// of a mount, plus the set of levels mounted so far by passphrase.
type Filesystem struct {
	disk *diskio.Disk

	mu     sync.Mutex
	levels map[int]*Level

	// mountGroup collapses concurrent Mount calls for the same
	// passphrase into a single key-table lookup and BFT/bitmap decode.
	mountGroup singleflight.Group
}

// Init takes ownership of fd: it exclusively locks and memory-maps it,
// and returns a *Filesystem ready to Mount levels. Init fails fast if
// the lock or mapping cannot be obtained, matching the fatal-at-mount
// policy: a filesystem that cannot safely open its disk must not start.
func Init(fd *os.File) (*Filesystem, error) {
	disk, err := diskio.Create(fd)
	if err != nil {
		return nil, bserr.New(bserr.IO, "bsfs.Init", err)
	}
	return &Filesystem{disk: disk, levels: make(map[int]*Level)}, nil
}

// Close unmaps and unlocks the backing disk. No Level obtained from
// this Filesystem may be used afterward.
func (fs *Filesystem) Close() error {
	if err := fs.disk.Close(); err != nil {
		return bserr.New(bserr.IO, "bsfs.Close", err)
	}
	return nil
}

// Mount looks up passphrase in the key table and returns the *Level it
// names. Re-mounting with a passphrase that resolves to an
// already-mounted level returns the existing *Level rather than
// decoding the BFT and bitmap a second time.
func (fs *Filesystem) Mount(passphrase string) (*Level, error) {
	v, err, _ := fs.mountGroup.Do(passphrase, func() (interface{}, error) {
		index, key, err := keytable.Lookup(fs.disk, []byte(passphrase))
		if err != nil {
			return nil, err
		}

		fs.mu.Lock()
		defer fs.mu.Unlock()

		if lvl, ok := fs.levels[index]; ok {
			return lvl, nil
		}

		lvl, err := newLevel(fs.disk, index, key)
		if err != nil {
			return nil, err
		}
		fs.levels[index] = lvl
		return lvl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Level), nil
}

// newLevel decodes a level's BFT and bitmap off the cover disk into
// in-memory authoritative buffers (the "open-level handle" of the data
// model).
func newLevel(disk *diskio.Disk, index int, key stego.Key) (*Level, error) {
	levelSize := stego.UserLevelSize(disk.Size())
	nClusters := cluster.CountClusters(levelSize)
	bmpSize := cluster.ComputeBitmapSize(nClusters)

	bftBuf := make([]byte, bsconst.BFTSize)
	if err := bft.ReadTable(key, disk, bftBuf); err != nil {
		return nil, err
	}

	bitmap := make([]byte, bmpSize)
	if bmpSize > 0 {
		if err := stego.ReadLevel(key, disk, bitmap, bsconst.BFTSize, bmpSize); err != nil {
			return nil, err
		}
	}

	return &Level{
		disk:      disk,
		key:       key,
		index:     index,
		nClusters: nClusters,
		bmpSize:   bmpSize,
		bftBuf:    bftBuf,
		bitmap:    bitmap,
		oft:       oft.New(),
	}, nil
}
