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

// Package fuseadapter is the only package that imports bazil.org/fuse:
// it translates kernel callbacks into calls on internal/bsfs and maps
// bsfs error kinds back to syscall.Errno, mirroring the boundary style
// of perkeep's pkg/fs.
package fuseadapter

import (
	"errors"
	"syscall"

	"github.com/ThatFatPat/BSFS-sub000/internal/bsfs"
)

// errno translates a bsfs error into the syscall.Errno FUSE expects,
// never letting an internal error type escape this package.
func errno(err error) error {
	if err == nil {
		return nil
	}
	var e *bsfs.Error
	if !errors.As(err, &e) {
		return syscall.EIO
	}
	switch e.Kind {
	case bsfs.ErrNoSpace:
		return syscall.ENOSPC
	case bsfs.ErrNotFound:
		return syscall.ENOENT
	case bsfs.ErrExists:
		return syscall.EEXIST
	case bsfs.ErrInvalid:
		return syscall.EINVAL
	case bsfs.ErrBusy:
		return syscall.EBUSY
	case bsfs.ErrNoMemory:
		return syscall.ENOMEM
	default:
		return syscall.EIO
	}
}
