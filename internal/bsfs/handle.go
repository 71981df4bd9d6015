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

package bsfs

import "github.com/ThatFatPat/BSFS-sub000/internal/oft"

// Handle is an open file: one reference into the level's open-file
// table. Every Open must be matched by exactly one Release.
type Handle struct {
	level *Level
	h     *oft.Handle
}

// BFTIndex is the directory index this handle refers to.
func (h *Handle) BFTIndex() int { return h.h.BFTIndex }
