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

// Package bserr defines the error-kind taxonomy shared by the layers
// of BSFS from the stego codec up through the filesystem facade. The
// GF(2) kernel (package gf2) and the disk layer (package diskio) do not
// use it: they return plain errors, which callers above them wrap. It
// is kept separate from package bsfs purely to avoid an import cycle:
// every layer below the facade (bft, cluster, stego, keytable, oft)
// needs to produce these errors, and the facade needs to consume them.
package bserr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories from the design's error
// handling section. Above the gf2 and diskio packages, internal code
// reports a condition that has a Kind as an *Error of that Kind.
type Kind int

const (
	NoMemory Kind = iota
	NoSpace
	NotFound
	Exists
	Invalid
	IO
	Busy
	Singular
	NoEntropy
	TooManyLevels
)

func (k Kind) String() string {
	switch k {
	case NoMemory:
		return "no-memory"
	case NoSpace:
		return "no-space"
	case NotFound:
		return "not-found"
	case Exists:
		return "exists"
	case Invalid:
		return "invalid"
	case IO:
		return "io"
	case Busy:
		return "busy"
	case Singular:
		return "singular"
	case NoEntropy:
		return "no-entropy"
	case TooManyLevels:
		return "too-many-levels"
	default:
		return "unknown"
	}
}

// Error is the typed error every BSFS operation returns in place of a
// plain error. Op names the failing operation (e.g. "bft.FindFree"),
// and Err, if non-nil, is the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error. err may be nil when the kind itself is the
// whole story (e.g. NoSpace).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *Error of the given kind, unwrapping as
// needed.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
