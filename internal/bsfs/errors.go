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

// Package bsfs is the filesystem facade (component H): it wires the
// disk, GF(2) kernel, stego codec, key table, BFT, cluster layer and
// open-file table behind a single *Filesystem value.
package bsfs

import "github.com/ThatFatPat/BSFS-sub000/internal/bserr"

// ErrKind is re-exported from bserr so that callers outside the
// internal tree (fuseadapter, the cmd binaries) only ever import
// bsfs, never the lower layers directly.
type ErrKind = bserr.Kind

// Error is re-exported from bserr for the same reason.
type Error = bserr.Error

const (
	ErrNoMemory      = bserr.NoMemory
	ErrNoSpace       = bserr.NoSpace
	ErrNotFound      = bserr.NotFound
	ErrExists        = bserr.Exists
	ErrInvalid       = bserr.Invalid
	ErrIO            = bserr.IO
	ErrBusy          = bserr.Busy
	ErrSingular      = bserr.Singular
	ErrNoEntropy     = bserr.NoEntropy
	ErrTooManyLevels = bserr.TooManyLevels
)

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrKind) bool {
	return bserr.Is(err, kind)
}
