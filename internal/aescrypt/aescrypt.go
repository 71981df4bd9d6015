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

// Package aescrypt is the symmetric cipher black box the key table is
// built on: AES-128-CBC with a key and IV derived from a passphrase by
// the same byte-shuffling routine OpenSSL calls EVP_BytesToKey. The
// spec treats this cipher as an external collaborator specified only by
// its interface, so this package leans on the standard library's
// crypto/aes and crypto/cipher rather than a third-party AES package.
package aescrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"errors"
)

const (
	keySize    = 16
	ivSize     = 16
	bytesToKeyRounds = 5
)

// ErrShortCiphertext is returned by Decrypt when the ciphertext is not
// a whole number of AES blocks.
var ErrShortCiphertext = errors.New("aescrypt: ciphertext is not a multiple of the block size")

// DeriveKeyIV derives a 128-bit AES key and a 128-bit IV from a
// passphrase, following OpenSSL's EVP_BytesToKey(EVP_aes_128_cbc(),
// EVP_sha1(), NULL, passphrase, rounds=5): repeatedly SHA-1 the
// concatenation of the previous digest and the passphrase, accumulating
// digest bytes into key then IV until both are full.
func DeriveKeyIV(passphrase []byte) (key, iv [16]byte) {
	material := make([]byte, 0, keySize+ivSize)
	var prev []byte

	for len(material) < keySize+ivSize {
		h := sha1.New()
		h.Write(prev)
		h.Write(passphrase)
		digest := h.Sum(nil)
		for round := 1; round < bytesToKeyRounds; round++ {
			h.Reset()
			h.Write(digest)
			digest = h.Sum(nil)
		}
		material = append(material, digest...)
		prev = digest
	}

	copy(key[:], material[:keySize])
	copy(iv[:], material[keySize:keySize+ivSize])
	return key, iv
}

// Encrypt AES-128-CBC encrypts plaintext under key/iv, zero-padding it
// up to a whole number of blocks. The returned ciphertext length is
// always a multiple of aes.BlockSize.
func Encrypt(key, iv [16]byte, plaintext []byte) []byte {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		// key is always exactly 16 bytes; NewCipher cannot fail here.
		panic(err)
	}

	padded := make([]byte, roundUpBlock(len(plaintext)))
	copy(padded, plaintext)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out, padded)
	return out
}

// Decrypt AES-128-CBC decrypts ciphertext under key/iv. The returned
// plaintext has the same length as ciphertext (i.e. it includes
// whatever zero padding Encrypt added); callers that know the logical
// length of their payload truncate it themselves.
func Decrypt(key, iv [16]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrShortCiphertext
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out, ciphertext)
	return out, nil
}

func roundUpBlock(n int) int {
	if n%aes.BlockSize == 0 && n > 0 {
		return n
	}
	return (n/aes.BlockSize + 1) * aes.BlockSize
}
