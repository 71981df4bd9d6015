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

// Package cluster implements the per-level bitmap allocator and
// cluster-chain file bodies (component F). A level's decoded byte
// space, after the BFT, is a bitmap of free/used clusters followed by
// the clusters themselves.
package cluster

import (
	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
)

// ComputeBitmapSize returns the smallest multiple of 16 bytes that can
// hold one bit per cluster for nClusters clusters.
func ComputeBitmapSize(nClusters int) int {
	bytes := (nClusters + 7) / 8
	return roundUp16(bytes)
}

func roundUp16(n int) int {
	return (n + 15) / 16 * 16
}

// CountClusters returns the largest n such that the BFT, an n-cluster
// bitmap, and n clusters of bsconst.ClusterSize bytes together fit in
// levelSize bytes.
func CountClusters(levelSize int) int {
	available := levelSize - bsconst.BFTSize
	if available <= 0 {
		return 0
	}

	n := available / bsconst.ClusterSize
	for n > 0 {
		used := bsconst.BFTSize + ComputeBitmapSize(n) + bsconst.ClusterSize*n
		if used <= levelSize {
			return n
		}
		n--
	}
	return 0
}

// AllocCluster scans bitmap (nBits significant bits) starting at
// startHint for the first clear bit, sets it, and returns its index.
// It wraps around once if startHint is not zero.
func AllocCluster(bitmap []byte, nBits, startHint int) (int, error) {
	if startHint < 0 || startHint >= nBits && nBits > 0 {
		startHint = 0
	}

	for offset := 0; offset < nBits; offset++ {
		idx := (startHint + offset) % nBits
		if !getBit(bitmap, idx) {
			setBit(bitmap, idx, true)
			return idx, nil
		}
	}
	return 0, bserr.New(bserr.NoSpace, "cluster.AllocCluster", nil)
}

// DeallocCluster clears bit index in bitmap.
func DeallocCluster(bitmap []byte, nBits, index int) error {
	if index < 0 || index >= nBits {
		return bserr.New(bserr.Invalid, "cluster.DeallocCluster", nil)
	}
	setBit(bitmap, index, false)
	return nil
}

func getBit(bitmap []byte, bit int) bool {
	return bitmap[bit/8]&(1<<uint(bit%8)) != 0
}

func setBit(bitmap []byte, bit int, val bool) {
	mask := byte(1) << uint(bit%8)
	if val {
		bitmap[bit/8] |= mask
	} else {
		bitmap[bit/8] &^= mask
	}
}
