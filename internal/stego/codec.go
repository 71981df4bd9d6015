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

package stego

import (
	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/gf2"
)

// UserLevelSize returns the number of bytes of logical level data a
// disk of the given total size can carry. The key-table prefix is
// reserved up front; what remains is the cover region, chopped into
// StegoKeyBytes-sized chunks, eight of which (one per bit) are needed
// to hide a single byte of level data.
func UserLevelSize(diskSize int) int {
	coverSize := diskSize - bsconst.MaxLevels*bsconst.KeytabEntrySize
	if coverSize < 0 {
		return 0
	}
	return coverSize / (bsconst.StegoKeyBytes * 8)
}

func coverRegion(view []byte) []byte {
	prefix := bsconst.MaxLevels * bsconst.KeytabEntrySize
	if prefix > len(view) {
		return nil
	}
	return view[prefix:]
}

// chunkAt returns the chunk backing logical bit index bitIdx (counting
// from the start of the cover region, 8 bits per logical byte).
func chunkAt(cover []byte, bitIdx int) []byte {
	start := bitIdx * bsconst.StegoKeyBytes
	return cover[start : start+bsconst.StegoKeyBytes]
}

func checkBounds(disk *diskio.Disk, off, size int) error {
	if off < 0 || size < 0 {
		return bserr.New(bserr.Invalid, "stego", nil)
	}
	if off+size > UserLevelSize(disk.Size()) {
		return bserr.New(bserr.Invalid, "stego", nil)
	}
	return nil
}

// ReadLevel reads size bytes of level data starting at byte offset off
// from the cover disk, decoding each bit as the scalar product of its
// chunk with key.
func ReadLevel(key Key, disk *diskio.Disk, buf []byte, off, size int) error {
	if err := checkBounds(disk, off, size); err != nil {
		return err
	}

	cover := coverRegion(disk.LockRead())
	defer disk.UnlockRead()

	for i := 0; i < size; i++ {
		var b byte
		for bit := 0; bit < 8; bit++ {
			bitIdx := (off+i)*8 + bit
			if gf2.ScalarProduct(chunkAt(cover, bitIdx), key[:]) {
				b |= 1 << uint(7-bit)
			}
		}
		buf[i] = b
	}
	return nil
}

// WriteLevel writes size bytes of level data starting at byte offset
// off. For every chunk whose current scalar product with key does not
// already match the desired bit, the entire key vector is XORed into
// the chunk: because key·key = 1, this flips exactly that level's
// projection, and because key·key' = 0 for every other level's key
// (see GenerateKeys), every other level's projection of the same chunk
// is left untouched.
func WriteLevel(key Key, disk *diskio.Disk, buf []byte, off, size int) error {
	if err := checkBounds(disk, off, size); err != nil {
		return err
	}

	cover := coverRegion(disk.LockWrite())
	defer disk.UnlockWrite()

	for i := 0; i < size; i++ {
		b := buf[i]
		for bit := 0; bit < 8; bit++ {
			bitIdx := (off+i)*8 + bit
			chunk := chunkAt(cover, bitIdx)
			want := (b>>uint(7-bit))&1 != 0
			if gf2.ScalarProduct(chunk, key[:]) != want {
				for j := range chunk {
					chunk[j] ^= key[j]
				}
			}
		}
	}
	return nil
}
