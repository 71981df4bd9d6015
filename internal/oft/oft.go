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

// Package oft is the open-file table (component G): a chained hash
// table, keyed by BFT index, of reference-counted handles shared by
// every concurrent opener of the same file. It hands out exactly one
// *Handle per (level, bft_index) pair for as long as any opener holds
// a reference.
package oft

import (
	"sync"
	"sync/atomic"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
)

// Handle is a reference-counted open-file entry. BFTIndex and Body
// identify and synchronize access to the underlying file; Body is a
// plain RWMutex that callers take before touching the file's cluster
// chain (the "handle body read/write lock" in the lock hierarchy).
type Handle struct {
	BFTIndex int
	Body     sync.RWMutex

	refcount int32
	next     *Handle
}

const initialBucketCount = 16

// Table is a chained hash table of live Handles, keyed by BFTIndex.
type Table struct {
	mu      sync.Mutex
	buckets []*Handle
	count   int
}

// New returns an empty open-file table.
func New() *Table {
	return &Table{buckets: make([]*Handle, initialBucketCount)}
}

func bucketFor(buckets []*Handle, index int) int {
	return index & (len(buckets) - 1)
}

// Get returns the live handle for bftIndex, incrementing its refcount,
// or allocates a fresh handle with refcount 1 if none exists yet.
func (t *Table) Get(bftIndex int) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := bucketFor(t.buckets, bftIndex)
	for h := t.buckets[b]; h != nil; h = h.next {
		if h.BFTIndex == bftIndex {
			atomic.AddInt32(&h.refcount, 1)
			return h
		}
	}

	h := &Handle{BFTIndex: bftIndex, refcount: 1}
	h.next = t.buckets[b]
	t.buckets[b] = h
	t.count++

	if t.count > len(t.buckets) {
		t.rehash()
	}
	return h
}

// Release decrements h's refcount; if it reaches zero, h is unlinked
// from the table and destroyed. Returns bserr.Invalid if h is not
// currently present in the table.
func (t *Table) Release(h *Handle) error {
	if atomic.AddInt32(&h.refcount, -1) > 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-checked: another Get may have raced in and re-incremented
	// refcount between our atomic decrement and taking the table lock.
	if atomic.LoadInt32(&h.refcount) > 0 {
		return nil
	}

	b := bucketFor(t.buckets, h.BFTIndex)
	prev := (*Handle)(nil)
	for cur := t.buckets[b]; cur != nil; cur = cur.next {
		if cur == h {
			if prev == nil {
				t.buckets[b] = cur.next
			} else {
				prev.next = cur.next
			}
			t.count--
			return nil
		}
		prev = cur
	}
	return bserr.New(bserr.Invalid, "oft.Release", nil)
}

// Contains reports whether bftIndex currently has a live handle,
// without affecting its refcount.
func (t *Table) Contains(bftIndex int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := bucketFor(t.buckets, bftIndex)
	for h := t.buckets[b]; h != nil; h = h.next {
		if h.BFTIndex == bftIndex {
			return true
		}
	}
	return false
}

func (t *Table) rehash() {
	newBuckets := make([]*Handle, len(t.buckets)*2)
	for _, head := range t.buckets {
		for h := head; h != nil; {
			next := h.next
			b := bucketFor(newBuckets, h.BFTIndex)
			h.next = newBuckets[b]
			newBuckets[b] = h
			h = next
		}
	}
	t.buckets = newBuckets
}
