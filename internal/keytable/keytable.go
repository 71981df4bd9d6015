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

// Package keytable locates and stores the per-level stego keys at the
// fixed plaintext prefix of the disk (component D). Every slot's
// ciphertext is indistinguishable from random, whether or not it holds
// a real level: occupancy leaks nothing to an observer without the
// passphrase.
package keytable

import (
	"io"

	"github.com/ThatFatPat/BSFS-sub000/internal/aescrypt"
	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/diskio"
	"github.com/ThatFatPat/BSFS-sub000/internal/stego"
)

// magic is the fixed prefix every genuine record decrypts to. Its
// length plus the 16-byte level key (24 bytes) rounds up to two AES
// blocks, which is exactly KeytabEntrySize.
var magic = [8]byte{'B', 'S', 'F', 'S', 'K', 'T', 'A', 'B'}

func slotOffset(index int) int {
	return index * bsconst.KeytabEntrySize
}

// Lookup scans every slot, decrypting it with the key/IV derived from
// passphrase, and returns the first slot whose plaintext begins with
// the magic constant. It returns bserr.NotFound if no slot matches.
func Lookup(disk *diskio.Disk, passphrase []byte) (index int, key stego.Key, err error) {
	key16, iv := aescrypt.DeriveKeyIV(passphrase)

	view := disk.LockRead()
	defer disk.UnlockRead()

	for i := 0; i < bsconst.MaxLevels; i++ {
		off := slotOffset(i)
		record := view[off : off+bsconst.KeytabEntrySize]

		plain, derr := aescrypt.Decrypt(key16, iv, record)
		if derr != nil {
			continue
		}
		if !matchesMagic(plain) {
			continue
		}

		var k stego.Key
		copy(k[:], plain[len(magic):len(magic)+bsconst.StegoKeyBytes])
		return i, k, nil
	}

	return 0, stego.Key{}, bserr.New(bserr.NotFound, "keytable.Lookup", nil)
}

func matchesMagic(plain []byte) bool {
	if len(plain) < len(magic) {
		return false
	}
	for i, b := range magic {
		if plain[i] != b {
			return false
		}
	}
	return true
}

// Store encrypts MAGIC || key under the passphrase-derived key/IV and
// writes it to slot index.
func Store(disk *diskio.Disk, index int, passphrase []byte, key stego.Key) error {
	if index < 0 || index >= bsconst.MaxLevels {
		return bserr.New(bserr.Invalid, "keytable.Store", nil)
	}

	key16, iv := aescrypt.DeriveKeyIV(passphrase)

	plain := make([]byte, len(magic)+bsconst.StegoKeyBytes)
	copy(plain, magic[:])
	copy(plain[len(magic):], key[:])

	record := aescrypt.Encrypt(key16, iv, plain)
	if len(record) != bsconst.KeytabEntrySize {
		return bserr.New(bserr.Invalid, "keytable.Store", nil)
	}

	view := disk.LockWrite()
	defer disk.UnlockWrite()

	off := slotOffset(index)
	copy(view[off:off+bsconst.KeytabEntrySize], record)
	return nil
}

// FillRandom overwrites every slot in [0, bsconst.MaxLevels) with
// uniform random bytes drawn from rng. It is used at format time so
// that unused slots are indistinguishable from slots holding a real,
// not-yet-known-passphrase record.
func FillRandom(disk *diskio.Disk, rng io.Reader) error {
	view := disk.LockWrite()
	defer disk.UnlockWrite()

	total := bsconst.MaxLevels * bsconst.KeytabEntrySize
	if total > len(view) {
		return bserr.New(bserr.Invalid, "keytable.FillRandom", nil)
	}
	if _, err := io.ReadFull(rng, view[:total]); err != nil {
		return bserr.New(bserr.NoEntropy, "keytable.FillRandom", err)
	}
	return nil
}
