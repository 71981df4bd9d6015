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

// Package passfile reads the newline-separated passphrase file the
// format tool consumes to seed a disk's levels.
package passfile

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
)

// Read splits r on newlines, trims leading/trailing whitespace from
// each line, drops blank lines, and returns the remaining passphrases
// in order. It fails with bserr.TooManyLevels if more than
// bsconst.MaxLevels-1 passphrases are present, reserving one key-table
// slot the way mkbsfs.c's get_passwords does.
func Read(r io.Reader) ([]string, error) {
	var out []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimFunc(scanner.Text(), unicode.IsSpace)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) > bsconst.MaxLevels-1 {
			return nil, bserr.New(bserr.TooManyLevels, "passfile.Read", nil)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, bserr.New(bserr.IO, "passfile.Read", err)
	}

	return out, nil
}
