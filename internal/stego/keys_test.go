package stego

import (
	"math/rand"
	"testing"

	"github.com/ThatFatPat/BSFS-sub000/internal/gf2"
)

func TestGenerateKeysOrthogonality(t *testing.T) {
	keys, err := GenerateKeys(16, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}
	if len(keys) != 16 {
		t.Fatalf("got %d keys, want 16", len(keys))
	}

	for i, k := range keys {
		if !gf2.Norm(k[:]) {
			t.Fatalf("key %d has zero self product", i)
		}
		for j := i + 1; j < len(keys); j++ {
			if gf2.ScalarProduct(k[:], keys[j][:]) {
				t.Fatalf("keys %d and %d are not orthogonal", i, j)
			}
		}
	}
}

func TestGenerateKeysDeterministicFromSeed(t *testing.T) {
	a, err := GenerateKeys(4, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateKeys(4, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("key %d differs across identically-seeded generations", i)
		}
	}
}
