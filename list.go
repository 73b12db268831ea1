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

	"github.com/cloudwego/capnp/internal/rt"
)

// ListPointer addresses the first element of a list. For lists of structs that is the first
// word after the composite tag.
//
// Indexing a list past its length is a programming error and panics, like indexing a slice.
// The zero ListPointer is not valid, but it behaves as an empty list.
type ListPointer struct {
	c     Cursor
	size  ListElementSize
	count uint32
}

// StructElement describes a struct type read out of a list.
type StructElement struct {
	Size StructSize

	// FirstField is the element class of the struct's first field, which allows a list of that
	// primitive to be read as a list of the struct. ElementComposite means no such list exists.
	FirstField ElementClass
}

// Cursor returns the location of the first element.
func (l ListPointer) Cursor() Cursor {
	return l.c
}

// Message returns the message the list lives in, or nil for the zero ListPointer.
func (l ListPointer) Message() *Message {
	return l.c.msg
}

// IsValid reports whether the list lives in a message. Reading a null pointer yields an
// invalid list.
func (l ListPointer) IsValid() bool {
	return l.c.msg != nil
}

// Len returns the number of elements.
func (l ListPointer) Len() int {
	return int(l.count)
}

// ElementSize returns the size of each element.
func (l ListPointer) ElementSize() ListElementSize {
	return l.size
}

// Stride returns the distance between elements in bytes, 0 for void and bit lists.
func (l ListPointer) Stride() int {
	return l.size.Stride()
}

// IsReadOnly reports whether writes to the list fail.
func (l ListPointer) IsReadOnly() bool {
	return l.c.IsReadOnly()
}

// AsReadOnly returns a shallow copy of the list through which nothing can be written.
func (l ListPointer) AsReadOnly() ListPointer {
	l.c = l.c.AsReadOnly()
	return l
}

// Freeze freezes the underlying message; see Message.Freeze.
func (l ListPointer) Freeze() Frozen[ListPointer] {
	l.c = l.c.Freeze().Value()
	return Frozen[ListPointer]{value: l}
}

// IsCompatible reports whether the list can be read as a list of elements of size want. Lists
// of structs are checked with IsStructCompatible.
func (l ListPointer) IsCompatible(want ListElementSize) bool {
	if want.Class == ElementComposite {
		return l.IsStructCompatible(StructElement{Size: want.Struct, FirstField: ElementComposite})
	}
	return l.size.Class == want.Class
}

// IsStructCompatible reports whether the list can be read as a list of structs described by
// elem. A list of structs of any size is compatible, since fields beyond either size read as
// defaults. A list of primitives or pointers is compatible if its elements have the class of
// the struct's first field. Bit lists are never compatible: their elements are not
// byte addressable.
func (l ListPointer) IsStructCompatible(elem StructElement) bool {
	switch l.size.Class {
	case ElementComposite:
		return true
	case ElementOneBit:
		return false
	default:
		return l.size.Class == elem.FirstField
	}
}

// Slice returns elements [i, j) of the list. Bit lists can only be sliced at multiples of 8.
func (l ListPointer) Slice(i int, j int) ListPointer {
	if i < 0 || j < i || j > int(l.count) {
		panic(fmt.Sprintf("capnp: slice bounds [%d:%d] out of range with length %d", i, j, l.count))
	}
	switch l.size.Class {
	case ElementOneBit:
		if i%8 != 0 {
			panic("capnp: bit list sliced at an unaligned index")
		}
		l.c = l.c.advance(i / 8)
	default:
		l.c = l.c.advance(i * l.size.Stride())
	}
	l.count = uint32(j - i)
	return l
}

func (l ListPointer) checkIndex(i int) {
	if i < 0 || i >= int(l.count) {
		panic(fmt.Sprintf("capnp: list index %d out of range with length %d", i, l.count))
	}
}

func (l ListPointer) element(i int) Cursor {
	l.checkIndex(i)
	return l.c.advance(i * l.size.Stride())
}

// elementStructSize is the size of each element seen as a struct.
func (l ListPointer) elementStructSize() StructSize {
	switch l.size.Class {
	case ElementComposite:
		return l.size.Struct
	case ElementPointer:
		return StructSize{Pointers: 1}
	default:
		return StructSize{DataBytes: uint32(l.size.Stride())}
	}
}

// Struct returns element i as a struct. Elements of a list of primitives or pointers are
// structs holding just that value; elements of a bit list are empty structs.
func (l ListPointer) Struct(i int) StructPointer {
	if l.size.Class == ElementOneBit {
		l.checkIndex(i)
		return StructPointer{c: l.c}
	}
	return StructPointer{c: l.element(i), size: l.elementStructSize()}
}

// Pointer returns element i of a list of pointers, or the first pointer of element i of a list
// of structs. It reports false if the elements hold no pointer.
func (l ListPointer) Pointer(i int) (AnyPointer, bool) {
	switch l.size.Class {
	case ElementPointer:
		return AnyPointer{c: l.element(i)}, true
	case ElementComposite:
		return l.Struct(i).pointer(0)
	default:
		l.checkIndex(i)
		return AnyPointer{}, false
	}
}

// IsNull reports whether pointer element i is null.
func (l ListPointer) IsNull(i int) bool {
	p, ok := l.Pointer(i)
	return !ok || p.IsNull()
}

// InitStruct allocates a struct and points pointer element i at it.
func (l ListPointer) InitStruct(i int, size StructSize) (StructPointer, bool) {
	p, ok := l.Pointer(i)
	if !ok || l.c.IsReadOnly() {
		return StructPointer{}, false
	}
	return p.initStruct(size), true
}

// InitList allocates a list and points pointer element i at it.
func (l ListPointer) InitList(i int, count int, size ListElementSize) (ListPointer, bool) {
	p, ok := l.Pointer(i)
	if !ok || l.c.IsReadOnly() {
		return ListPointer{}, false
	}
	if !validListLength(count, size) {
		panic("capnp: invalid list length")
	}
	return p.initList(uint32(count), size), true
}

// bit reads element i of a bit list.
func (l ListPointer) bit(i int) bool {
	l.checkIndex(i)
	b := l.c.bytes(i/8, 1)
	return b != nil && b[0]&(1<<(i%8)) != 0
}

func (l ListPointer) setBit(i int, v bool) bool {
	l.checkIndex(i)
	b := l.c.mutableBytes(i/8, 1)
	if b == nil {
		return false
	}
	if v {
		b[0] |= 1 << (i % 8)
	} else {
		b[0] &^= 1 << (i % 8)
	}
	return true
}

// raw reads element i of a list of primitives as an unsigned integer of its width.
func (l ListPointer) raw(i int) uint64 {
	c := l.element(i)
	switch l.size.Class {
	case ElementOneByte:
		if b := c.bytes(0, 1); b != nil {
			return uint64(rt.Load8(b, 0))
		}
	case ElementTwoBytes:
		if b := c.bytes(0, 2); b != nil {
			return uint64(rt.Load16(b, 0))
		}
	case ElementFourBytes:
		if b := c.bytes(0, 4); b != nil {
			return uint64(rt.Load32(b, 0))
		}
	case ElementEightBytes:
		if b := c.bytes(0, 8); b != nil {
			return rt.Load64(b, 0)
		}
	}
	return 0
}

func (l ListPointer) setRaw(i int, v uint64) bool {
	c := l.element(i)
	switch l.size.Class {
	case ElementOneByte:
		if b := c.mutableBytes(0, 1); b != nil {
			rt.Store8(b, 0, uint8(v))
			return true
		}
	case ElementTwoBytes:
		if b := c.mutableBytes(0, 2); b != nil {
			rt.Store16(b, 0, uint16(v))
			return true
		}
	case ElementFourBytes:
		if b := c.mutableBytes(0, 4); b != nil {
			rt.Store32(b, 0, uint32(v))
			return true
		}
	case ElementEightBytes:
		if b := c.mutableBytes(0, 8); b != nil {
			rt.Store64(b, 0, v)
			return true
		}
	}
	return false
}

// bytes returns the body of a list of bytes, aliasing the message.
func (l ListPointer) bytes() []byte {
	if l.size.Class != ElementOneByte {
		return nil
	}
	return l.c.bytes(0, int(l.count))
}
