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

// Package diskio memory-maps the single backing file that hosts every
// level of a BSFS filesystem and guards it with a reader/writer lock.
// It is the lowest layer of the stack (component A): it knows nothing
// about levels, stego encoding, or files — only sized byte views of one
// exclusively-locked file.
package diskio

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Disk is a memory-mapped backing file, exclusively locked at process
// scope for the lifetime of the mount. A *Disk must not be used after
// Close.
type Disk struct {
	file *os.File
	data []byte

	mu sync.RWMutex
}

// Create takes ownership of f: it exclusively flock(2)s it and
// memory-maps its entire current contents read/write as a shared
// mapping (MAP_SHARED), so writes through a view reach the file. The file is not
// resized; format-time sizing happens before Create is called.
func Create(f *os.File) (*Disk, error) {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, fmt.Errorf("diskio: lock %s: %w", f.Name(), err)
	}

	fi, err := f.Stat()
	if err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return nil, fmt.Errorf("diskio: stat %s: %w", f.Name(), err)
	}
	size := fi.Size()
	if size == 0 {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return nil, fmt.Errorf("diskio: %s is empty", f.Name())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return nil, fmt.Errorf("diskio: mmap %s: %w", f.Name(), err)
	}

	return &Disk{file: f, data: data}, nil
}

// Close unmaps the backing file, releases the exclusive lock, and
// closes the file descriptor. After Close, no view obtained from this
// Disk may be used.
func (d *Disk) Close() error {
	err := unix.Munmap(d.data)
	d.data = nil
	unix.Flock(int(d.file.Fd()), unix.LOCK_UN)
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Size returns the backing file's size in bytes.
func (d *Disk) Size() int {
	return len(d.data)
}

// LockRead acquires the shared read lock and returns a read-only view
// of the whole disk. The view is valid only until the matching
// UnlockRead.
func (d *Disk) LockRead() []byte {
	d.mu.RLock()
	return d.data
}

// UnlockRead releases a lock acquired by LockRead.
func (d *Disk) UnlockRead() {
	d.mu.RUnlock()
}

// LockWrite acquires the exclusive write lock and returns a mutable
// view of the whole disk. The view is valid only until the matching
// UnlockWrite; LockWrite never escalates from a held read lock.
func (d *Disk) LockWrite() []byte {
	d.mu.Lock()
	return d.data
}

// UnlockWrite releases a lock acquired by LockWrite.
func (d *Disk) UnlockWrite() {
	d.mu.Unlock()
}
