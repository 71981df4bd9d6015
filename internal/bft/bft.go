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

// Package bft decodes and encodes a level's block file table: the
// fixed 8192-entry directory of every file the level holds. Operations
// here act on an in-memory decoded buffer; ReadTable/WriteTable move
// that buffer to and from the cover disk through the stego codec.
package bft

import (
	"encoding/binary"
	"strings"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/stego"
)

const (
	nameOff    = 0
	nameLen    = 64
	clusterOff = nameOff + nameLen
	sizeOff    = clusterOff + 4
	modeOff    = sizeOff + 4
	atimOff    = modeOff + 4
	mtimOff    = atimOff + 4
)

// Entry is the decoded form of one 84-byte BFT record.
type Entry struct {
	Name           string
	InitialCluster uint32
	Size           uint32
	Mode           uint32
	Atim           uint32
	Mtim           uint32
}

// IsEmpty reports whether e is the zero entry (no name).
func (e Entry) IsEmpty() bool {
	return e.Name == ""
}

// ValidateName enforces the on-disk naming constraints: non-empty, no
// path separator, and no longer than MaxFilenameLen bytes.
func ValidateName(name string) error {
	if name == "" {
		return bserr.New(bserr.Invalid, "bft.ValidateName", nil)
	}
	if len(name) > bsconst.MaxFilenameLen {
		return bserr.New(bserr.Invalid, "bft.ValidateName", nil)
	}
	if strings.ContainsRune(name, '/') {
		return bserr.New(bserr.Invalid, "bft.ValidateName", nil)
	}
	return nil
}

func decodeEntry(raw []byte) Entry {
	if raw[nameOff] == 0 {
		return Entry{}
	}
	nameEnd := nameOff + nameLen
	for i := nameOff; i < nameOff+nameLen; i++ {
		if raw[i] == 0 {
			nameEnd = i
			break
		}
	}
	return Entry{
		Name:           string(raw[nameOff:nameEnd]),
		InitialCluster: binary.BigEndian.Uint32(raw[clusterOff:]),
		Size:           binary.BigEndian.Uint32(raw[sizeOff:]),
		Mode:           binary.BigEndian.Uint32(raw[modeOff:]),
		Atim:           binary.BigEndian.Uint32(raw[atimOff:]),
		Mtim:           binary.BigEndian.Uint32(raw[mtimOff:]),
	}
}

func encodeEntry(raw []byte, e Entry) error {
	for i := range raw {
		raw[i] = 0
	}
	if e.IsEmpty() {
		return nil
	}
	if err := ValidateName(e.Name); err != nil {
		return err
	}
	copy(raw[nameOff:nameOff+nameLen], e.Name)
	binary.BigEndian.PutUint32(raw[clusterOff:], e.InitialCluster)
	binary.BigEndian.PutUint32(raw[sizeOff:], e.Size)
	binary.BigEndian.PutUint32(raw[modeOff:], e.Mode)
	binary.BigEndian.PutUint32(raw[atimOff:], e.Atim)
	binary.BigEndian.PutUint32(raw[mtimOff:], e.Mtim)
	return nil
}

func entrySlice(table []byte, index int) []byte {
	off := index * bsconst.BFTEntrySize
	return table[off : off+bsconst.BFTEntrySize]
}

// FindFree returns the index of the first empty entry in table, or
// bserr.NoSpace if every slot is occupied.
func FindFree(table []byte) (int, error) {
	for i := 0; i < bsconst.BFTMaxEntries; i++ {
		if entrySlice(table, i)[nameOff] == 0 {
			return i, nil
		}
	}
	return 0, bserr.New(bserr.NoSpace, "bft.FindFree", nil)
}

// Find returns the index of the entry named name, or bserr.NotFound.
func Find(table []byte, name string) (int, error) {
	for i := 0; i < bsconst.BFTMaxEntries; i++ {
		raw := entrySlice(table, i)
		if raw[nameOff] == 0 {
			continue
		}
		if decodeEntry(raw).Name == name {
			return i, nil
		}
	}
	return 0, bserr.New(bserr.NotFound, "bft.Find", nil)
}

// ReadEntry decodes entry index.
func ReadEntry(table []byte, index int) (Entry, error) {
	if index < 0 || index >= bsconst.BFTMaxEntries {
		return Entry{}, bserr.New(bserr.Invalid, "bft.ReadEntry", nil)
	}
	return decodeEntry(entrySlice(table, index)), nil
}

// WriteEntry encodes e into entry index.
func WriteEntry(table []byte, index int, e Entry) error {
	if index < 0 || index >= bsconst.BFTMaxEntries {
		return bserr.New(bserr.Invalid, "bft.WriteEntry", nil)
	}
	return encodeEntry(entrySlice(table, index), e)
}

// RemoveEntry zeroes entry index.
func RemoveEntry(table []byte, index int) error {
	return WriteEntry(table, index, Entry{})
}

// Iterate visits every non-empty entry in index order, stopping early
// if cb returns false.
func Iterate(table []byte, cb func(index int, e Entry) bool) {
	for i := 0; i < bsconst.BFTMaxEntries; i++ {
		raw := entrySlice(table, i)
		if raw[nameOff] == 0 {
			continue
		}
		if !cb(i, decodeEntry(raw)) {
			return
		}
	}
}

// ReadTable loads the whole BFT region of a level into buf (which must
// be bsconst.BFTSize bytes) through the stego codec.
func ReadTable(key stego.Key, disk *diskio.Disk, buf []byte) error {
	if len(buf) != bsconst.BFTSize {
		return bserr.New(bserr.Invalid, "bft.ReadTable", nil)
	}
	return stego.ReadLevel(key, disk, buf, 0, bsconst.BFTSize)
}

// WriteTable commits buf (bsconst.BFTSize bytes) back to the level's
// BFT region through the stego codec.
func WriteTable(key stego.Key, disk *diskio.Disk, buf []byte) error {
	if len(buf) != bsconst.BFTSize {
		return bserr.New(bserr.Invalid, "bft.WriteTable", nil)
	}
	return stego.WriteLevel(key, disk, buf, 0, bsconst.BFTSize)
}
