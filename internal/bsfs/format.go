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
	"io"
	"os"

	"go4.org/syncutil"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bft"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/cluster"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/keytable"
	"github.com/ThatFatPat/BSFS-sub000/internal/stego"
)

// Format lays out a fresh disk image at fd: a key table with uniform
// random filler in every slot, one orthogonal level key per
// passphrase stored in its own slot, and an empty, zero-length BFT and
// bitmap for every resulting level. fd must already be sized to the
// intended disk size.
func Format(fd *os.File, passphrases []string, rng io.Reader) error {
	if len(passphrases) > bsconst.MaxLevels {
		return bserr.New(bserr.TooManyLevels, "bsfs.Format", nil)
	}

	disk, err := diskio.Create(fd)
	if err != nil {
		return bserr.New(bserr.IO, "bsfs.Format", err)
	}
	defer disk.Close()

	if err := keytable.FillRandom(disk, rng); err != nil {
		return err
	}

	keys, err := stego.GenerateKeys(len(passphrases), rng)
	if err != nil {
		return err
	}

	// Each level's slot write and BFT/bitmap init only contends with
	// the others on the disk's write lock, so they run concurrently;
	// syncutil.Group collects the first error, if any.
	var grp syncutil.Group
	for i, pass := range passphrases {
		i, pass := i, pass
		grp.Go(func() error {
			if err := keytable.Store(disk, i, []byte(pass), keys[i]); err != nil {
				return err
			}
			return initEmptyLevel(disk, keys[i])
		})
	}
	return grp.Err()
}

// initEmptyLevel zero-initializes a fresh level's BFT and bitmap so it
// starts as an empty directory with every cluster free.
func initEmptyLevel(disk *diskio.Disk, key stego.Key) error {
	emptyBFT := make([]byte, bsconst.BFTSize)
	if err := bft.WriteTable(key, disk, emptyBFT); err != nil {
		return err
	}

	levelSize := stego.UserLevelSize(disk.Size())
	nClusters := cluster.CountClusters(levelSize)
	bmpSize := cluster.ComputeBitmapSize(nClusters)
	if bmpSize == 0 {
		return nil
	}
	emptyBitmap := make([]byte, bmpSize)
	return stego.WriteLevel(key, disk, emptyBitmap, bsconst.BFTSize, bmpSize)
}
