package stego

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
)

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

const testDiskSize = bsconst.MaxLevels*bsconst.KeytabEntrySize + 64*bsconst.StegoKeyBytes*8

func TestUserLevelSize(t *testing.T) {
	got := UserLevelSize(testDiskSize)
	if got != 64 {
		t.Fatalf("UserLevelSize = %d, want 64", got)
	}
	if got := UserLevelSize(bsconst.MaxLevels*bsconst.KeytabEntrySize - 1); got != 0 {
		t.Fatalf("UserLevelSize underflow = %d, want 0", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	d := tempDisk(t, testDiskSize)
	keys, err := GenerateKeys(1, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	want := []byte("the quick brown fox jumps")
	if err := WriteLevel(keys[0], d, want, 4, len(want)); err != nil {
		t.Fatalf("WriteLevel: %v", err)
	}

	got := make([]byte, len(want))
	if err := ReadLevel(keys[0], d, got, 4, len(got)); err != nil {
		t.Fatalf("ReadLevel: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, want)
	}
}

func TestNonInterference(t *testing.T) {
	d := tempDisk(t, testDiskSize)
	keys, err := GenerateKeys(3, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}

	payloads := [][]byte{
		[]byte("level zero payload bytes"),
		[]byte("level one payload contents"),
		[]byte("level two payload material"),
	}

	for i, k := range keys {
		if err := WriteLevel(k, d, payloads[i], 0, len(payloads[i])); err != nil {
			t.Fatalf("WriteLevel(level %d): %v", i, err)
		}
	}

	for i, k := range keys {
		got := make([]byte, len(payloads[i]))
		if err := ReadLevel(k, d, got, 0, len(got)); err != nil {
			t.Fatalf("ReadLevel(level %d): %v", i, err)
		}
		if !bytes.Equal(got, payloads[i]) {
			t.Fatalf("level %d corrupted by sibling writes: got %q, want %q", i, got, payloads[i])
		}
	}
}

func TestReadLevelRejectsOutOfBounds(t *testing.T) {
	d := tempDisk(t, testDiskSize)
	keys, err := GenerateKeys(1, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 8)
	if err := ReadLevel(keys[0], d, buf, UserLevelSize(testDiskSize)-4, 8); err == nil {
		t.Fatal("expected out-of-bounds ReadLevel to fail")
	}
}
