/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package capnp

import (
	"github.com/cloudwego/capnp/internal/rt"
)

// Pointer tags in the low two bits of a pointer word.
const (
	tagStruct = 0
	tagList   = 1
	tagFar    = 2
	tagOther  = 3
)

// zeroSizedStruct points at a struct with no data and no pointers. Its offset is -1, which
// would otherwise make the pointer target itself, and the upper half is zero.
const zeroSizedStruct uint64 = 0xfffffffc

// rawStructPointer encodes a struct pointer whose target starts off words after the end of
// the pointer.
func rawStructPointer(off int32, sz StructSize) uint64 {
	return tagStruct | uint64(uint32(off)<<2) | uint64(sz.encode())<<32
}

// rawListPointer encodes a list pointer. n is the element count, or the number of words
// after the tag word for composite lists.
func rawListPointer(off int32, class ElementClass, n uint32) uint64 {
	return tagList | uint64(uint32(off)<<2) | uint64(class)<<32 | uint64(n)<<35
}

// rawCompositeTag encodes the tag word that precedes the elements of a composite list.
func rawCompositeTag(count uint32, sz StructSize) uint64 {
	return tagStruct | uint64(count)<<2 | uint64(sz.encode())<<32
}

// rawCapabilityPointer encodes an "other" pointer referencing a capability table entry.
func rawCapabilityPointer(index uint32) uint64 {
	return tagOther | uint64(index)<<32
}

// rawFarPointer encodes a far pointer to a single-word landing pad at word pad of segment seg.
func rawFarPointer(seg uint32, pad uint32) uint64 {
	return tagFar | uint64(pad)<<3 | uint64(seg)<<32
}

// rawDoubleFarPointer encodes a far pointer to a two-word landing pad.
func rawDoubleFarPointer(seg uint32, pad uint32) uint64 {
	return tagFar | 1<<2 | uint64(pad)<<3 | uint64(seg)<<32
}

func rawOffset(w uint64) int32 {
	return rt.ReadInt32(w, 2, 30)
}

func rawStructSize(w uint64) (dataWords uint16, pointers uint16) {
	return uint16(w >> 32), uint16(w >> 48)
}

func rawListShape(w uint64) (class ElementClass, n uint32) {
	return ElementClass((w >> 32) & 7), uint32(w >> 35)
}
