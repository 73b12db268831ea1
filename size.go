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
	"fmt"
	"math"

	"github.com/cloudwego/capnp/internal/rt"
)

// StructSize is the size of a struct's data section in bytes and its pointer section in words.
//
// Data sections are measured in bytes so that a list of primitives can be read as a list of
// single-field structs.
type StructSize struct {
	DataBytes uint32
	Pointers  uint16
}

// EmptyStructSize is the size of a struct with no fields.
var EmptyStructSize = StructSize{}

// NewStructSize checks that the total size of the struct can be expressed in bytes on this
// platform.
func NewStructSize(dataBytes uint32, pointers uint16) (StructSize, error) {
	words := uint64(rt.DivRoundUp32(dataBytes, 8)) + uint64(pointers)
	if _, ok := rt.WordsToBytes64(words); !ok {
		return StructSize{}, ErrSizeOverflow
	}
	return StructSize{DataBytes: dataBytes, Pointers: pointers}, nil
}

// DataWords returns the data section size rounded up to words.
func (s StructSize) DataWords() uint32 {
	return rt.DivRoundUp32(s.DataBytes, 8)
}

// SizeInWords returns the total size of the struct in words.
func (s StructSize) SizeInWords() uint32 {
	return s.DataWords() + uint32(s.Pointers)
}

// SizeInBytes returns the total size of the struct in bytes.
func (s StructSize) SizeInBytes() int {
	return int(s.SizeInWords()) * rt.WordSize
}

// Less orders sizes by data size, then pointer count.
func (s StructSize) Less(o StructSize) bool {
	if s.DataBytes != o.DataBytes {
		return s.DataBytes < o.DataBytes
	}
	return s.Pointers < o.Pointers
}

// words returns the size rounded to whole data words, as it appears on the wire.
func (s StructSize) words() StructSize {
	return StructSize{DataBytes: s.DataWords() * 8, Pointers: s.Pointers}
}

// encode returns the upper half of a struct pointer or composite tag word for this size.
func (s StructSize) encode() uint32 {
	dw := s.DataWords()
	if dw > math.MaxUint16 {
		panic(fmt.Sprintf("capnp: struct data section of %d words cannot be encoded", dw))
	}
	return dw | uint32(s.Pointers)<<16
}

func (s StructSize) String() string {
	return fmt.Sprintf("StructSize{%d bytes, %d pointers}", s.DataBytes, s.Pointers)
}

// ElementClass is the 3-bit element size code of a list pointer.
type ElementClass uint8

const (
	ElementZero ElementClass = iota
	ElementOneBit
	ElementOneByte
	ElementTwoBytes
	ElementFourBytes
	ElementEightBytes
	ElementPointer
	ElementComposite
)

var elementClassBits = [...]uint8{0, 1, 8, 16, 32, 64, 64}

// Bits returns the number of bits of an element, or false for composite elements.
func (c ElementClass) Bits() (uint8, bool) {
	if int(c) < len(elementClassBits) {
		return elementClassBits[c], true
	}
	return 0, false
}

func (c ElementClass) String() string {
	switch c {
	case ElementZero:
		return "void"
	case ElementOneBit:
		return "bit"
	case ElementOneByte:
		return "byte"
	case ElementTwoBytes:
		return "2 bytes"
	case ElementFourBytes:
		return "4 bytes"
	case ElementEightBytes:
		return "8 bytes"
	case ElementPointer:
		return "pointer"
	case ElementComposite:
		return "composite"
	default:
		return fmt.Sprintf("ElementClass(%d)", uint8(c))
	}
}

// ListElementSize is the size of each element of a list. Struct is only meaningful for
// composite lists.
type ListElementSize struct {
	Class  ElementClass
	Struct StructSize
}

var (
	ZeroSize       = ListElementSize{Class: ElementZero}
	OneBitSize     = ListElementSize{Class: ElementOneBit}
	OneByteSize    = ListElementSize{Class: ElementOneByte}
	TwoBytesSize   = ListElementSize{Class: ElementTwoBytes}
	FourBytesSize  = ListElementSize{Class: ElementFourBytes}
	EightBytesSize = ListElementSize{Class: ElementEightBytes}
	PointerSize    = ListElementSize{Class: ElementPointer}
)

// CompositeSize returns the element size of a list of structs of the given size.
func CompositeSize(s StructSize) ListElementSize {
	return ListElementSize{Class: ElementComposite, Struct: s}
}

// Bits returns the number of bits of each element.
func (e ListElementSize) Bits() uint64 {
	if b, ok := e.Class.Bits(); ok {
		return uint64(b)
	}
	return uint64(e.Struct.SizeInWords()) * 64
}

// Stride returns the distance between consecutive elements in bytes. It is 0 for void and
// bit lists, whose elements are not byte addressable.
func (e ListElementSize) Stride() int {
	switch e.Class {
	case ElementZero, ElementOneBit:
		return 0
	case ElementComposite:
		return e.Struct.SizeInBytes()
	default:
		return int(e.Bits() / 8)
	}
}

func (e ListElementSize) String() string {
	if e.Class == ElementComposite {
		return "composite " + e.Struct.String()
	}
	return e.Class.String()
}
