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
	"unsafe"

	"github.com/cloudwego/gopkg/unsafex"
)

// Primitive is the set of types stored in lists of 1, 2, 4 or 8 byte elements.
type Primitive interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

func primitiveClass[T Primitive]() ElementClass {
	var v T
	switch unsafe.Sizeof(v) {
	case 1:
		return ElementOneByte
	case 2:
		return ElementTwoBytes
	case 4:
		return ElementFourBytes
	default:
		return ElementEightBytes
	}
}

func checkClass(l ListPointer, class ElementClass) error {
	if l.IsValid() && l.size.Class != class {
		return pointerError(UnexpectedPointerType, l.c)
	}
	return nil
}

// PrimitiveList is a list of numbers.
type PrimitiveList[T Primitive] struct {
	l ListPointer
}

// EnumList is a list of enum values.
type EnumList = PrimitiveList[EnumValue]

// NewPrimitiveList checks that l holds elements of the width of T.
func NewPrimitiveList[T Primitive](l ListPointer) (PrimitiveList[T], error) {
	if err := checkClass(l, primitiveClass[T]()); err != nil {
		return PrimitiveList[T]{}, err
	}
	return PrimitiveList[T]{l: l}, nil
}

// ReadPrimitiveList resolves the pointer at index i of s as a list of T.
func ReadPrimitiveList[T Primitive](s StructPointer, i uint16) (PrimitiveList[T], error) {
	l, err := s.ReadList(i, ListElementSize{Class: primitiveClass[T]()})
	if err != nil {
		return PrimitiveList[T]{}, err
	}
	return PrimitiveList[T]{l: l}, nil
}

// InitPrimitiveList allocates a list of n values of T at index i of s.
func InitPrimitiveList[T Primitive](s StructPointer, i uint16, n int) (PrimitiveList[T], bool) {
	l, ok := s.InitList(i, n, ListElementSize{Class: primitiveClass[T]()})
	return PrimitiveList[T]{l: l}, ok
}

func (p PrimitiveList[T]) List() ListPointer { return p.l }
func (p PrimitiveList[T]) Len() int          { return p.l.Len() }

// Slice returns elements [i, j) of the list.
func (p PrimitiveList[T]) Slice(i, j int) PrimitiveList[T] {
	return PrimitiveList[T]{l: p.l.Slice(i, j)}
}

// At returns element i.
func (p PrimitiveList[T]) At(i int) T {
	raw := p.l.raw(i)
	var v T
	switch unsafe.Sizeof(v) {
	case 1:
		x := uint8(raw)
		v = *(*T)(unsafe.Pointer(&x))
	case 2:
		x := uint16(raw)
		v = *(*T)(unsafe.Pointer(&x))
	case 4:
		x := uint32(raw)
		v = *(*T)(unsafe.Pointer(&x))
	default:
		v = *(*T)(unsafe.Pointer(&raw))
	}
	return v
}

// Set stores v at element i. It reports false if the list is read-only.
func (p PrimitiveList[T]) Set(i int, v T) bool {
	var raw uint64
	switch unsafe.Sizeof(v) {
	case 1:
		raw = uint64(*(*uint8)(unsafe.Pointer(&v)))
	case 2:
		raw = uint64(*(*uint16)(unsafe.Pointer(&v)))
	case 4:
		raw = uint64(*(*uint32)(unsafe.Pointer(&v)))
	default:
		raw = *(*uint64)(unsafe.Pointer(&v))
	}
	return p.l.setRaw(i, raw)
}

// ToSlice copies the list into a new slice.
func (p PrimitiveList[T]) ToSlice() []T {
	ret := make([]T, p.Len())
	for i := range ret {
		ret[i] = p.At(i)
	}
	return ret
}

// BoolList is a list of booleans packed one per bit.
type BoolList struct {
	l ListPointer
}

// NewBoolList checks that l is a bit list.
func NewBoolList(l ListPointer) (BoolList, error) {
	if err := checkClass(l, ElementOneBit); err != nil {
		return BoolList{}, err
	}
	return BoolList{l: l}, nil
}

func (b BoolList) List() ListPointer      { return b.l }
func (b BoolList) Len() int               { return b.l.Len() }
func (b BoolList) At(i int) bool          { return b.l.bit(i) }
func (b BoolList) Set(i int, v bool) bool { return b.l.setBit(i, v) }

// PointerList is a list of untyped pointers.
type PointerList struct {
	l ListPointer
}

// NewPointerList checks that l is a list of pointers.
func NewPointerList(l ListPointer) (PointerList, error) {
	if err := checkClass(l, ElementPointer); err != nil {
		return PointerList{}, err
	}
	return PointerList{l: l}, nil
}

func (p PointerList) List() ListPointer { return p.l }
func (p PointerList) Len() int          { return p.l.Len() }

// Slice returns elements [i, j) of the list.
func (p PointerList) Slice(i, j int) PointerList {
	return PointerList{l: p.l.Slice(i, j)}
}

// At returns element i, unresolved.
func (p PointerList) At(i int) AnyPointer {
	ap, _ := p.l.Pointer(i)
	return ap
}

// TextList is a list of text.
type TextList struct {
	l ListPointer
}

// NewTextList checks that l is a list of pointers.
func NewTextList(l ListPointer) (TextList, error) {
	if err := checkClass(l, ElementPointer); err != nil {
		return TextList{}, err
	}
	return TextList{l: l}, nil
}

func (t TextList) List() ListPointer { return t.l }
func (t TextList) Len() int          { return t.l.Len() }

// Slice returns elements [i, j) of the list.
func (t TextList) Slice(i, j int) TextList {
	return TextList{l: t.l.Slice(i, j)}
}

// At resolves element i as text.
func (t TextList) At(i int) (Text, error) {
	return readText(t.l.Pointer(i))
}

// Set stores v as text at element i. It reports false if the list is read-only.
func (t TextList) Set(i int, v string) bool {
	p, ok := t.l.Pointer(i)
	if !ok || t.l.IsReadOnly() {
		return false
	}
	writeBytes(p, unsafex.StringToBinary(v), true)
	return true
}

// DataList is a list of blobs.
type DataList struct {
	l ListPointer
}

// NewDataList checks that l is a list of pointers.
func NewDataList(l ListPointer) (DataList, error) {
	if err := checkClass(l, ElementPointer); err != nil {
		return DataList{}, err
	}
	return DataList{l: l}, nil
}

func (d DataList) List() ListPointer { return d.l }
func (d DataList) Len() int          { return d.l.Len() }

// Slice returns elements [i, j) of the list.
func (d DataList) Slice(i, j int) DataList {
	return DataList{l: d.l.Slice(i, j)}
}

// At resolves element i as data.
func (d DataList) At(i int) (Data, error) {
	return readData(d.l.Pointer(i))
}

// Set stores a copy of v at element i. It reports false if the list is read-only.
func (d DataList) Set(i int, v []byte) bool {
	p, ok := d.l.Pointer(i)
	if !ok || d.l.IsReadOnly() {
		return false
	}
	writeBytes(p, v, false)
	return true
}

// StructList is a list of structs of one type.
type StructList struct {
	l    ListPointer
	elem StructElement
}

// NewStructList checks that l can be read as a list of the structs elem describes.
func NewStructList(l ListPointer, elem StructElement) (StructList, error) {
	if l.IsValid() && !l.IsStructCompatible(elem) {
		return StructList{elem: elem}, pointerError(UnexpectedPointerType, l.c)
	}
	return StructList{l: l, elem: elem}, nil
}

// InitStructList allocates a list of n structs at index i of s.
func InitStructList(s StructPointer, i uint16, elem StructElement, n int) (StructList, bool) {
	l, ok := s.InitList(i, n, CompositeSize(elem.Size))
	return StructList{l: l, elem: elem}, ok
}

func (s StructList) List() ListPointer { return s.l }
func (s StructList) Len() int          { return s.l.Len() }

// Slice returns elements [i, j) of the list.
func (s StructList) Slice(i, j int) StructList {
	return StructList{elem: s.elem, l: s.l.Slice(i, j)}
}

// At returns element i.
func (s StructList) At(i int) StructPointer {
	return s.l.Struct(i)
}

// ListList is a list of lists.
type ListList struct {
	l ListPointer
}

// NewListList checks that l is a list of pointers.
func NewListList(l ListPointer) (ListList, error) {
	if err := checkClass(l, ElementPointer); err != nil {
		return ListList{}, err
	}
	return ListList{l: l}, nil
}

func (l ListList) List() ListPointer { return l.l }
func (l ListList) Len() int          { return l.l.Len() }

// Slice returns elements [i, j) of the list.
func (l ListList) Slice(i, j int) ListList {
	return ListList{l: l.l.Slice(i, j)}
}

// At resolves element i as a list of the given element size.
func (l ListList) At(i int, size ListElementSize) (ListPointer, error) {
	ap, _ := l.l.Pointer(i)
	r, err := ap.Resolve()
	if err != nil || r.IsNull() {
		return ListPointer{}, err
	}
	ret, err := r.ExpectList()
	if err != nil {
		return ListPointer{}, err
	}
	if !ret.IsCompatible(size) {
		return ListPointer{}, pointerError(UnexpectedPointerType, ret.c)
	}
	return ret, nil
}

// Init allocates a list of n elements at element i.
func (l ListList) Init(i int, n int, size ListElementSize) (ListPointer, bool) {
	return l.l.InitList(i, n, size)
}
