package cluster

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/stego"
)

func TestComputeBitmapSizeRounding(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 16},
		{128, 16},
		{129, 32},
	}
	for _, c := range cases {
		if got := ComputeBitmapSize(c.n); got != c.want {
			t.Errorf("ComputeBitmapSize(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestCountClustersFits(t *testing.T) {
	levelSize := bsconst.BFTSize + 1<<20
	n := CountClusters(levelSize)
	if n <= 0 {
		t.Fatalf("CountClusters = %d, want > 0", n)
	}
	used := bsconst.BFTSize + ComputeBitmapSize(n) + bsconst.ClusterSize*n
	if used > levelSize {
		t.Fatalf("CountClusters overcommitted: used %d > levelSize %d", used, levelSize)
	}
	usedNext := bsconst.BFTSize + ComputeBitmapSize(n+1) + bsconst.ClusterSize*(n+1)
	if usedNext <= levelSize {
		t.Fatalf("CountClusters under-counted: n+1 also fits")
	}
}

func TestAllocDeallocCluster(t *testing.T) {
	bitmap := make([]byte, ComputeBitmapSize(16))
	idx, err := AllocCluster(bitmap, 16, 0)
	if err != nil || idx != 0 {
		t.Fatalf("AllocCluster = (%d, %v), want (0, nil)", idx, err)
	}
	idx2, err := AllocCluster(bitmap, 16, 0)
	if err != nil || idx2 != 1 {
		t.Fatalf("AllocCluster = (%d, %v), want (1, nil)", idx2, err)
	}
	if err := DeallocCluster(bitmap, 16, 0); err != nil {
		t.Fatal(err)
	}
	idx3, err := AllocCluster(bitmap, 16, 0)
	if err != nil || idx3 != 0 {
		t.Fatalf("AllocCluster after dealloc = (%d, %v), want (0, nil)", idx3, err)
	}
}

func TestAllocClusterExhausted(t *testing.T) {
	bitmap := make([]byte, ComputeBitmapSize(2))
	if _, err := AllocCluster(bitmap, 2, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := AllocCluster(bitmap, 2, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := AllocCluster(bitmap, 2, 0); !bserr.Is(err, bserr.NoSpace) {
		t.Fatalf("AllocCluster(exhausted) = %v, want NoSpace", err)
	}
}

func tempDisk(t *testing.T, size int) *diskio.Disk {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		t.Fatal(err)
	}
	d, err := diskio.Create(f)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func testLevel(t *testing.T, nClusters int) (*diskio.Disk, stego.Key, int) {
	t.Helper()
	bmpSize := ComputeBitmapSize(nClusters)
	levelSize := bsconst.BFTSize + bmpSize + bsconst.ClusterSize*nClusters
	diskSize := bsconst.MaxLevels*bsconst.KeytabEntrySize + levelSize*bsconst.StegoKeyBytes*8

	d := tempDisk(t, diskSize)
	keys, err := stego.GenerateKeys(1, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatal(err)
	}
	return d, keys[0], bmpSize
}

func TestWriteReadChainMultiCluster(t *testing.T) {
	nClusters := 4
	d, key, bmpSize := testLevel(t, nClusters)
	bitmap := make([]byte, bmpSize)

	data := bytes.Repeat([]byte("0123456789abcdef"), 300) // spans multiple clusters
	head, err := Write(key, d, bmpSize, bitmap, nClusters, bsconst.ClusterEOF, data, 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, len(data))
	if err := Read(key, d, bmpSize, head, got, 0, len(got)); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestTruncateShrinksAndFrees(t *testing.T) {
	nClusters := 4
	d, key, bmpSize := testLevel(t, nClusters)
	bitmap := make([]byte, bmpSize)

	data := bytes.Repeat([]byte("x"), bsconst.ClusterDataSize*3)
	head, err := Write(key, d, bmpSize, bitmap, nClusters, bsconst.ClusterEOF, data, 0)
	if err != nil {
		t.Fatal(err)
	}

	newHead, err := Truncate(key, d, bmpSize, bitmap, nClusters, head, bsconst.ClusterDataSize)
	if err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if newHead != head {
		t.Fatalf("Truncate changed head unexpectedly: %d vs %d", newHead, head)
	}

	got := make([]byte, bsconst.ClusterDataSize)
	if err := Read(key, d, bmpSize, newHead, got, 0, len(got)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data[:bsconst.ClusterDataSize]) {
		t.Fatalf("truncated data mismatch")
	}

	// the two freed clusters should now be allocatable again
	if _, err := AllocCluster(bitmap, nClusters, 0); err != nil {
		t.Fatalf("AllocCluster after truncate: %v", err)
	}
	if _, err := AllocCluster(bitmap, nClusters, 0); err != nil {
		t.Fatalf("AllocCluster after truncate: %v", err)
	}
}

func TestTruncateToZero(t *testing.T) {
	nClusters := 2
	d, key, bmpSize := testLevel(t, nClusters)
	bitmap := make([]byte, bmpSize)

	head, err := Write(key, d, bmpSize, bitmap, nClusters, bsconst.ClusterEOF, []byte("hi"), 0)
	if err != nil {
		t.Fatal(err)
	}

	newHead, err := Truncate(key, d, bmpSize, bitmap, nClusters, head, 0)
	if err != nil {
		t.Fatal(err)
	}
	if newHead != bsconst.ClusterEOF {
		t.Fatalf("Truncate(0) head = %d, want ClusterEOF", newHead)
	}
}
