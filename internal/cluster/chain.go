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

package cluster

import (
	"encoding/binary"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/stego"
)

// offset returns the level-relative byte offset of cluster index,
// given the level's bitmap size.
func offset(bmpSize int, index uint32) int {
	return bsconst.BFTSize + bmpSize + bsconst.ClusterSize*int(index)
}

func readRaw(key stego.Key, disk *diskio.Disk, bmpSize int, index uint32) ([]byte, error) {
	raw := make([]byte, bsconst.ClusterSize)
	if err := stego.ReadLevel(key, disk, raw, offset(bmpSize, index), bsconst.ClusterSize); err != nil {
		return nil, err
	}
	return raw, nil
}

func writeRaw(key stego.Key, disk *diskio.Disk, bmpSize int, index uint32, raw []byte) error {
	return stego.WriteLevel(key, disk, raw, offset(bmpSize, index), bsconst.ClusterSize)
}

func next(raw []byte) uint32 {
	return binary.BigEndian.Uint32(raw[bsconst.ClusterDataSize:])
}

func setNext(raw []byte, n uint32) {
	binary.BigEndian.PutUint32(raw[bsconst.ClusterDataSize:], n)
}

// walk returns the index of the clusterIdx-th cluster (0-based) in the
// chain starting at head, and the raw bytes of that cluster.
func walk(key stego.Key, disk *diskio.Disk, bmpSize int, head uint32, clusterIdx int) (uint32, []byte, error) {
	idx := head
	var raw []byte
	for i := 0; i <= clusterIdx; i++ {
		if idx == bsconst.ClusterEOF {
			return 0, nil, bserr.New(bserr.Invalid, "cluster.walk", nil)
		}
		var err error
		raw, err = readRaw(key, disk, bmpSize, idx)
		if err != nil {
			return 0, nil, err
		}
		if i == clusterIdx {
			break
		}
		idx = next(raw)
	}
	return idx, raw, nil
}

// Read reads size bytes of a file body starting at logical offset off,
// following the chain from initialCluster.
func Read(key stego.Key, disk *diskio.Disk, bmpSize int, initialCluster uint32, buf []byte, off, size int) error {
	read := 0
	for read < size {
		clusterIdx := (off + read) / bsconst.ClusterDataSize
		within := (off + read) % bsconst.ClusterDataSize

		_, raw, err := walk(key, disk, bmpSize, initialCluster, clusterIdx)
		if err != nil {
			return err
		}

		n := bsconst.ClusterDataSize - within
		if n > size-read {
			n = size - read
		}
		copy(buf[read:read+n], raw[within:within+n])
		read += n
	}
	return nil
}

// Write writes data to a file body starting at logical offset off,
// allocating and threading new clusters as needed to cover the write.
// If the chain is empty (initialCluster == ClusterEOF), a new chain is
// allocated (whatever off is) and its head index returned; otherwise
// the returned index equals initialCluster.
func Write(key stego.Key, disk *diskio.Disk, bmpSize int, bitmap []byte, nBits int, initialCluster uint32, data []byte, off int) (uint32, error) {
	head := initialCluster
	if head == bsconst.ClusterEOF {
		idx, err := AllocCluster(bitmap, nBits, 0)
		if err != nil {
			return 0, err
		}
		raw := make([]byte, bsconst.ClusterSize)
		setNext(raw, bsconst.ClusterEOF)
		if err := writeRaw(key, disk, bmpSize, uint32(idx), raw); err != nil {
			return 0, err
		}
		head = uint32(idx)
	}

	written := 0
	for written < len(data) {
		clusterIdx := (off + written) / bsconst.ClusterDataSize
		within := (off + written) % bsconst.ClusterDataSize

		idx, raw, err := ensureCluster(key, disk, bmpSize, bitmap, nBits, head, clusterIdx)
		if err != nil {
			return 0, err
		}

		n := bsconst.ClusterDataSize - within
		if n > len(data)-written {
			n = len(data) - written
		}
		copy(raw[within:within+n], data[written:written+n])
		if err := writeRaw(key, disk, bmpSize, idx, raw); err != nil {
			return 0, err
		}
		written += n
	}

	return head, nil
}

// ensureCluster walks to clusterIdx, allocating and threading new
// clusters onto the tail as needed, and returns that cluster's index
// and raw contents.
func ensureCluster(key stego.Key, disk *diskio.Disk, bmpSize int, bitmap []byte, nBits int, head uint32, clusterIdx int) (uint32, []byte, error) {
	idx := head
	var raw []byte
	for i := 0; ; i++ {
		var err error
		raw, err = readRaw(key, disk, bmpSize, idx)
		if err != nil {
			return 0, nil, err
		}
		if i == clusterIdx {
			return idx, raw, nil
		}
		if next(raw) == bsconst.ClusterEOF {
			newIdx, err := AllocCluster(bitmap, nBits, int(idx)+1)
			if err != nil {
				return 0, nil, err
			}
			newRaw := make([]byte, bsconst.ClusterSize)
			setNext(newRaw, bsconst.ClusterEOF)
			if err := writeRaw(key, disk, bmpSize, uint32(newIdx), newRaw); err != nil {
				return 0, nil, err
			}
			setNext(raw, uint32(newIdx))
			if err := writeRaw(key, disk, bmpSize, idx, raw); err != nil {
				return 0, nil, err
			}
		}
		idx = next(raw)
	}
}

// Truncate shrinks the logical chain length to newSize bytes: it walks
// to the new last cluster, writes the EOF sentinel, and deallocates
// every cluster after it. Truncating to zero deallocates the whole
// chain and returns ClusterEOF. It never extends a chain; a newSize
// that lies past the chain's last cluster fails with bserr.Invalid.
func Truncate(key stego.Key, disk *diskio.Disk, bmpSize int, bitmap []byte, nBits int, initialCluster uint32, newSize int) (uint32, error) {
	if newSize == 0 {
		idx := initialCluster
		for idx != bsconst.ClusterEOF {
			raw, err := readRaw(key, disk, bmpSize, idx)
			if err != nil {
				return 0, err
			}
			n := next(raw)
			if err := DeallocCluster(bitmap, nBits, int(idx)); err != nil {
				return 0, err
			}
			idx = n
		}
		return bsconst.ClusterEOF, nil
	}

	lastIdx := (newSize - 1) / bsconst.ClusterDataSize
	idx, raw, err := walk(key, disk, bmpSize, initialCluster, lastIdx)
	if err != nil {
		return 0, err
	}

	toFree := next(raw)
	setNext(raw, bsconst.ClusterEOF)
	if err := writeRaw(key, disk, bmpSize, idx, raw); err != nil {
		return 0, err
	}

	for toFree != bsconst.ClusterEOF {
		freeRaw, err := readRaw(key, disk, bmpSize, toFree)
		if err != nil {
			return 0, err
		}
		n := next(freeRaw)
		if err := DeallocCluster(bitmap, nBits, int(toFree)); err != nil {
			return 0, err
		}
		toFree = n
	}

	return initialCluster, nil
}
