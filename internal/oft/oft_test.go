package oft

import (
	"sync"
	"testing"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
)

func TestGetReturnsSameHandleForSameIndex(t *testing.T) {
	tab := New()
	h1 := tab.Get(5)
	h2 := tab.Get(5)
	if h1 != h2 {
		t.Fatalf("Get(5) twice returned different handles")
	}
	if h1.refcount != 2 {
		t.Fatalf("refcount = %d, want 2", h1.refcount)
	}
}

func TestGetDifferentIndicesDistinctHandles(t *testing.T) {
	tab := New()
	h1 := tab.Get(1)
	h2 := tab.Get(2)
	if h1 == h2 {
		t.Fatalf("Get(1) and Get(2) returned the same handle")
	}
}

func TestReleaseDestroysOnLastReference(t *testing.T) {
	tab := New()
	h := tab.Get(3)
	if err := tab.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// A handle released to zero must not be releasable again.
	if err := tab.Release(h); !bserr.Is(err, bserr.Invalid) {
		t.Fatalf("second Release = %v, want Invalid", err)
	}

	// Getting the same index again must allocate a fresh handle.
	h2 := tab.Get(3)
	if h2 == h {
		t.Fatalf("Get after full release reused a destroyed handle")
	}
}

func TestReleaseKeepsHandleAliveWhileReferenced(t *testing.T) {
	tab := New()
	h := tab.Get(4)
	tab.Get(4) // refcount now 2

	if err := tab.Release(h); err != nil {
		t.Fatal(err)
	}
	if h.refcount != 1 {
		t.Fatalf("refcount after one release = %d, want 1", h.refcount)
	}

	h2 := tab.Get(4)
	if h2 != h {
		t.Fatalf("Get while still referenced allocated a new handle")
	}
}

func TestRehashPreservesLookup(t *testing.T) {
	tab := New()
	const n = 64
	handles := make(map[int]*Handle, n)
	for i := 0; i < n; i++ {
		handles[i] = tab.Get(i)
	}
	for i := 0; i < n; i++ {
		if tab.Get(i) != handles[i] {
			t.Fatalf("handle for index %d not preserved across rehash", i)
		}
	}
}

func TestConcurrentGetRelease(t *testing.T) {
	tab := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			h := tab.Get(idx % 8)
			tab.Release(h)
		}(i)
	}
	wg.Wait()
}
