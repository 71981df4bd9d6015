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

// Package stego implements the steganographic level codec (component
// C): it maps a level's logical byte stream onto the shared cover disk
// using per-level key vectors, and generates the orthogonal key sets
// the codec requires.
package stego

import (
	"io"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
	"github.com/ThatFatPat/BSFS-sub000/internal/gf2"
)

// Key is one level's encoding basis: a single STEGO_KEY_BITS-long GF(2)
// vector with self scalar product 1, orthogonal (scalar product 0) to
// every other in-use level's key from the same generation.
type Key [bsconst.StegoKeyBytes]byte

const maxGenAttempts = 256

// GenerateKeys produces count level keys satisfying the orthogonality
// invariant: for any two of the returned keys, ScalarProduct is zero,
// and every key's self scalar product is one. It proceeds by an
// incremental Gram-Schmidt-style adjustment in GF(2) — each new
// candidate is corrected against every earlier accepted key until
// orthogonal to all of them — then, since that correction can flip the
// candidate's own self product (GF(2) scalar self-products add under
// XOR, unlike a positive-definite inner product), candidates whose self
// product ends up zero are redrawn.
func GenerateKeys(count int, rng io.Reader) ([]Key, error) {
	keys := make([]Key, 0, count)

	for len(keys) < count {
		accepted := false
		for attempt := 0; attempt < maxGenAttempts && !accepted; attempt++ {
			candidate := make([]byte, bsconst.StegoKeyBytes)
			if _, err := io.ReadFull(rng, candidate); err != nil {
				return nil, bserr.New(bserr.NoEntropy, "stego.GenerateKeys", err)
			}

			for _, prev := range keys {
				if gf2.ScalarProduct(candidate, prev[:]) {
					gf2.LinearCombination(candidate, candidate, prev[:], true)
				}
			}

			if gf2.Norm(candidate) {
				var k Key
				copy(k[:], candidate)
				keys = append(keys, k)
				accepted = true
			}
		}
		if !accepted {
			return nil, bserr.New(bserr.NoEntropy, "stego.GenerateKeys", nil)
		}
	}

	return keys, nil
}
