package diskio

import (
	"os"
	"path/filepath"
	"testing"
)

func tempDisk(t *testing.T, size int) (*Disk, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	d, err := Create(f)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return d, path
}

func TestCreateAndClose(t *testing.T) {
	d, _ := tempDisk(t, 4096)
	if d.Size() != 4096 {
		t.Fatalf("Size() = %d, want 4096", d.Size())
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestWriteViewPersists(t *testing.T) {
	d, _ := tempDisk(t, 4096)
	defer d.Close()

	view := d.LockWrite()
	view[0] = 0xAB
	view[4095] = 0xCD
	d.UnlockWrite()

	view = d.LockRead()
	if view[0] != 0xAB || view[4095] != 0xCD {
		t.Fatalf("write did not persist into shared view")
	}
	d.UnlockRead()
}

func TestExclusiveLockRejectsSecondOpen(t *testing.T) {
	d, path := tempDisk(t, 4096)
	defer d.Close()

	f2, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		t.Fatalf("open second fd: %v", err)
	}
	defer f2.Close()

	if _, err := Create(f2); err == nil {
		t.Fatalf("expected second Create on an already-locked disk to fail")
	}
}
