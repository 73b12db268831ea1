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
	"math"

	"github.com/cloudwego/capnp/internal/rt"
)

// StructPointer addresses the data section of a struct. Its pointer section follows the data
// section, rounded up to a word.
//
// Field reads and writes are bounds-checked against the struct's size: a read past the end
// yields the field's default and a write past the end does nothing and reports false, so that
// readers and writers built from different versions of a schema interoperate. Every primitive
// is stored XORed with its default, making an all-zero struct hold all default values.
//
// The zero StructPointer is not valid, but it behaves as an empty struct whose fields all read
// as their defaults.
type StructPointer struct {
	c    Cursor
	size StructSize
}

// NewStructPointer returns a struct of the given size whose data starts at c.
func NewStructPointer(c Cursor, size StructSize) StructPointer {
	return StructPointer{c: c, size: size}
}

// NewStruct creates a new message whose root is a struct of the given size.
func NewStruct(size StructSize, options ...Option) StructPointer {
	return NewMessage(options...).InitRoot(size)
}

// ReadOnlyStruct returns the root struct of a read-only message made of words. It is meant for
// default values compiled into accessor code; malformed words yield an empty struct.
func ReadOnlyStruct(words ...uint64) StructPointer {
	s, err := NewReadOnlyMessage(words...).Root()
	if err != nil {
		return StructPointer{}
	}
	return s
}

// Cursor returns the location of the struct's data section.
func (s StructPointer) Cursor() Cursor {
	return s.c
}

// Message returns the message the struct lives in, or nil for the zero StructPointer.
func (s StructPointer) Message() *Message {
	return s.c.msg
}

// Size returns the size of the struct.
func (s StructPointer) Size() StructSize {
	return s.size
}

// IsValid reports whether the struct lives in a message. Reading a null pointer yields an
// invalid struct.
func (s StructPointer) IsValid() bool {
	return s.c.msg != nil
}

// IsReadOnly reports whether writes to the struct fail.
func (s StructPointer) IsReadOnly() bool {
	return s.c.IsReadOnly()
}

// AsReadOnly returns a shallow copy of the struct through which nothing can be written.
func (s StructPointer) AsReadOnly() StructPointer {
	s.c = s.c.AsReadOnly()
	return s
}

// Freeze freezes the underlying message; see Message.Freeze.
func (s StructPointer) Freeze() Frozen[StructPointer] {
	s.c = s.c.Freeze().Value()
	return Frozen[StructPointer]{value: s}
}

func (s StructPointer) dataBytes(off uint32, n uint32) []byte {
	if uint64(off)+uint64(n) > uint64(s.size.DataBytes) {
		return nil
	}
	return s.c.bytes(int(off), int(n))
}

func (s StructPointer) mutableDataBytes(off uint32, n uint32) []byte {
	if s.c.IsReadOnly() {
		return nil
	}
	return s.dataBytes(off, n)
}

// ReadBool reads the boolean at bit offset bit.
func (s StructPointer) ReadBool(bit uint32, def bool) bool {
	b := s.dataBytes(bit/8, 1)
	if b == nil {
		return def
	}
	return (b[0]&(1<<(bit%8)) != 0) != def
}

// WriteBool writes the boolean at bit offset bit.
func (s StructPointer) WriteBool(v bool, bit uint32, def bool) bool {
	b := s.mutableDataBytes(bit/8, 1)
	if b == nil {
		return false
	}
	if v != def {
		b[0] |= 1 << (bit % 8)
	} else {
		b[0] &^= 1 << (bit % 8)
	}
	return true
}

func (s StructPointer) read8(off uint32, def uint8) uint8 {
	if b := s.dataBytes(off, 1); b != nil {
		return rt.Load8(b, 0) ^ def
	}
	return def
}

func (s StructPointer) read16(off uint32, def uint16) uint16 {
	if b := s.dataBytes(off, 2); b != nil {
		return rt.Load16(b, 0) ^ def
	}
	return def
}

func (s StructPointer) read32(off uint32, def uint32) uint32 {
	if b := s.dataBytes(off, 4); b != nil {
		return rt.Load32(b, 0) ^ def
	}
	return def
}

func (s StructPointer) read64(off uint32, def uint64) uint64 {
	if b := s.dataBytes(off, 8); b != nil {
		return rt.Load64(b, 0) ^ def
	}
	return def
}

func (s StructPointer) write8(v uint8, off uint32, def uint8) bool {
	if b := s.mutableDataBytes(off, 1); b != nil {
		rt.Store8(b, 0, v^def)
		return true
	}
	return false
}

func (s StructPointer) write16(v uint16, off uint32, def uint16) bool {
	if b := s.mutableDataBytes(off, 2); b != nil {
		rt.Store16(b, 0, v^def)
		return true
	}
	return false
}

func (s StructPointer) write32(v uint32, off uint32, def uint32) bool {
	if b := s.mutableDataBytes(off, 4); b != nil {
		rt.Store32(b, 0, v^def)
		return true
	}
	return false
}

func (s StructPointer) write64(v uint64, off uint32, def uint64) bool {
	if b := s.mutableDataBytes(off, 8); b != nil {
		rt.Store64(b, 0, v^def)
		return true
	}
	return false
}

func (s StructPointer) ReadUint8(off uint32, def uint8) uint8 { return s.read8(off, def) }
func (s StructPointer) ReadInt8(off uint32, def int8) int8    { return int8(s.read8(off, uint8(def))) }
func (s StructPointer) ReadUint16(off uint32, def uint16) uint16 {
	return s.read16(off, def)
}
func (s StructPointer) ReadInt16(off uint32, def int16) int16 {
	return int16(s.read16(off, uint16(def)))
}
func (s StructPointer) ReadUint32(off uint32, def uint32) uint32 {
	return s.read32(off, def)
}
func (s StructPointer) ReadInt32(off uint32, def int32) int32 {
	return int32(s.read32(off, uint32(def)))
}
func (s StructPointer) ReadUint64(off uint32, def uint64) uint64 {
	return s.read64(off, def)
}
func (s StructPointer) ReadInt64(off uint32, def int64) int64 {
	return int64(s.read64(off, uint64(def)))
}

// ReadFloat32 reads a float stored as its bit pattern XORed with the default's bit pattern.
func (s StructPointer) ReadFloat32(off uint32, def float32) float32 {
	return math.Float32frombits(s.read32(off, math.Float32bits(def)))
}

// ReadFloat64 reads a double stored as its bit pattern XORed with the default's bit pattern.
func (s StructPointer) ReadFloat64(off uint32, def float64) float64 {
	return math.Float64frombits(s.read64(off, math.Float64bits(def)))
}

// ReadEnum reads an enum or union discriminant.
func (s StructPointer) ReadEnum(off uint32, def uint16) EnumValue {
	return EnumValue(s.read16(off, def))
}

func (s StructPointer) WriteUint8(v uint8, off uint32, def uint8) bool {
	return s.write8(v, off, def)
}
func (s StructPointer) WriteInt8(v int8, off uint32, def int8) bool {
	return s.write8(uint8(v), off, uint8(def))
}
func (s StructPointer) WriteUint16(v uint16, off uint32, def uint16) bool {
	return s.write16(v, off, def)
}
func (s StructPointer) WriteInt16(v int16, off uint32, def int16) bool {
	return s.write16(uint16(v), off, uint16(def))
}
func (s StructPointer) WriteUint32(v uint32, off uint32, def uint32) bool {
	return s.write32(v, off, def)
}
func (s StructPointer) WriteInt32(v int32, off uint32, def int32) bool {
	return s.write32(uint32(v), off, uint32(def))
}
func (s StructPointer) WriteUint64(v uint64, off uint32, def uint64) bool {
	return s.write64(v, off, def)
}
func (s StructPointer) WriteInt64(v int64, off uint32, def int64) bool {
	return s.write64(uint64(v), off, uint64(def))
}
func (s StructPointer) WriteFloat32(v float32, off uint32, def float32) bool {
	return s.write32(math.Float32bits(v), off, math.Float32bits(def))
}
func (s StructPointer) WriteFloat64(v float64, off uint32, def float64) bool {
	return s.write64(math.Float64bits(v), off, math.Float64bits(def))
}
func (s StructPointer) WriteEnum(v EnumValue, off uint32, def uint16) bool {
	return s.write16(uint16(v), off, def)
}

// pointer returns the pointer at index i of the pointer section.
func (s StructPointer) pointer(i uint16) (AnyPointer, bool) {
	if i >= s.size.Pointers || s.c.msg == nil {
		return AnyPointer{}, false
	}
	off := (int(s.size.DataWords()) + int(i)) * rt.WordSize
	return AnyPointer{c: s.c.advance(off)}, true
}

// mutablePointer is pointer for writing.
func (s StructPointer) mutablePointer(i uint16) (AnyPointer, bool) {
	if s.c.IsReadOnly() {
		return AnyPointer{}, false
	}
	return s.pointer(i)
}

// ReadAnyPointer returns the unresolved pointer at index i, or false past the pointer section.
func (s StructPointer) ReadAnyPointer(i uint16) (AnyPointer, bool) {
	return s.pointer(i)
}

// ReadPointer resolves the pointer at index i. Indexes past the pointer section read as null.
func (s StructPointer) ReadPointer(i uint16) (ResolvedPointer, error) {
	if p, ok := s.pointer(i); ok {
		return p.Resolve()
	}
	return ResolvedPointer{}, nil
}

// ReadStruct resolves the pointer at index i as a struct. A null pointer yields an invalid
// StructPointer, which reads as all defaults.
func (s StructPointer) ReadStruct(i uint16) (StructPointer, error) {
	p, err := s.ReadPointer(i)
	if err != nil || p.IsNull() {
		return StructPointer{}, err
	}
	return p.ExpectStruct()
}

// ReadStructOr is ReadStruct returning def when the pointer is null.
func (s StructPointer) ReadStructOr(i uint16, def StructPointer) (StructPointer, error) {
	v, err := s.ReadStruct(i)
	if err == nil && !v.IsValid() {
		return def, nil
	}
	return v, err
}

// InitStruct allocates a struct at index i, replacing what the pointer pointed to. It reports
// false if the index is past the pointer section or the struct is read-only.
func (s StructPointer) InitStruct(i uint16, size StructSize) (StructPointer, bool) {
	p, ok := s.mutablePointer(i)
	if !ok {
		return StructPointer{}, false
	}
	return p.initStruct(size), true
}

// ReadList resolves the pointer at index i as a list of the given element size. A null pointer
// yields an invalid, empty ListPointer. A list of another element size is an
// UnexpectedPointerType error.
func (s StructPointer) ReadList(i uint16, size ListElementSize) (ListPointer, error) {
	l, err := s.readList(i)
	if err != nil || !l.IsValid() {
		return l, err
	}
	if !l.IsCompatible(size) {
		return ListPointer{}, pointerError(UnexpectedPointerType, l.c)
	}
	return l, nil
}

// ReadListOr is ReadList returning def when the pointer is null.
func (s StructPointer) ReadListOr(i uint16, size ListElementSize, def ListPointer) (ListPointer, error) {
	l, err := s.ReadList(i, size)
	if err == nil && !l.IsValid() {
		return def, nil
	}
	return l, err
}

// ReadStructList resolves the pointer at index i as a list of structs described by elem.
func (s StructPointer) ReadStructList(i uint16, elem StructElement) (StructList, error) {
	l, err := s.readList(i)
	if err != nil || !l.IsValid() {
		return StructList{elem: elem}, err
	}
	if !l.IsStructCompatible(elem) {
		return StructList{elem: elem}, pointerError(UnexpectedPointerType, l.c)
	}
	return StructList{l: l, elem: elem}, nil
}

func (s StructPointer) readList(i uint16) (ListPointer, error) {
	p, err := s.ReadPointer(i)
	if err != nil || p.IsNull() {
		return ListPointer{}, err
	}
	return p.ExpectList()
}

// InitList allocates a list at index i, replacing what the pointer pointed to. It reports false
// if the index is past the pointer section or the struct is read-only.
func (s StructPointer) InitList(i uint16, count int, size ListElementSize) (ListPointer, bool) {
	p, ok := s.mutablePointer(i)
	if !ok {
		return ListPointer{}, false
	}
	if !validListLength(count, size) {
		panic("capnp: invalid list length")
	}
	return p.initList(uint32(count), size), true
}

// ReadCapability resolves the pointer at index i as a capability. It reports false if the
// pointer is null.
func (s StructPointer) ReadCapability(i uint16) (Capability, bool, error) {
	p, err := s.ReadPointer(i)
	if err != nil || p.IsNull() {
		return Capability{}, false, err
	}
	c, err := p.ExpectCapability()
	return c, err == nil, err
}

// WriteCapability points the pointer at index i at capability table entry index.
func (s StructPointer) WriteCapability(i uint16, index uint32) bool {
	p, ok := s.mutablePointer(i)
	if !ok {
		return false
	}
	p.writeCapability(index)
	return true
}

// ClearPointer sets the pointer at index i to null. The data it pointed to stays in the message.
func (s StructPointer) ClearPointer(i uint16) bool {
	p, ok := s.mutablePointer(i)
	if !ok {
		return false
	}
	p.write(0)
	return true
}

// HasPointer reports whether the pointer at index i is not null.
func (s StructPointer) HasPointer(i uint16) bool {
	p, ok := s.pointer(i)
	return ok && !p.IsNull()
}
