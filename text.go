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
	"github.com/cloudwego/gopkg/unsafex"
)

// Text is a UTF-8 string stored as a list of bytes ending in a NUL byte, which is not part of
// the text. The zero Text is null and reads as the empty string.
type Text struct {
	l ListPointer
}

// NewText wraps a list of bytes as text.
func NewText(l ListPointer) (Text, error) {
	if l.IsValid() && l.size.Class != ElementOneByte {
		return Text{}, pointerError(UnexpectedPointerType, l.c)
	}
	return Text{l: l}, nil
}

// List returns the underlying list, including the NUL byte.
func (t Text) List() ListPointer {
	return t.l
}

// IsNull reports whether the text was read from a null pointer.
func (t Text) IsNull() bool {
	return !t.l.IsValid()
}

// Bytes returns the text without its NUL terminator. The slice aliases the message.
func (t Text) Bytes() []byte {
	b := t.l.bytes()
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return b
}

// Len returns the length of the text in bytes.
func (t Text) Len() int {
	return len(t.Bytes())
}

// String returns a copy of the text.
func (t Text) String() string {
	return string(t.Bytes())
}

// UnsafeString returns the text without copying it. The string aliases the message and must not
// outlive it, nor be used after the message is written to.
func (t Text) UnsafeString() string {
	return unsafex.BinaryToString(t.Bytes())
}

// Data is a blob stored as a list of bytes. The zero Data is null and empty.
type Data struct {
	l ListPointer
}

// NewData wraps a list of bytes as data.
func NewData(l ListPointer) (Data, error) {
	if l.IsValid() && l.size.Class != ElementOneByte {
		return Data{}, pointerError(UnexpectedPointerType, l.c)
	}
	return Data{l: l}, nil
}

// List returns the underlying list.
func (d Data) List() ListPointer {
	return d.l
}

// IsNull reports whether the data was read from a null pointer.
func (d Data) IsNull() bool {
	return !d.l.IsValid()
}

// Bytes returns the data. The slice aliases the message.
func (d Data) Bytes() []byte {
	return d.l.bytes()
}

// Len returns the length of the data in bytes.
func (d Data) Len() int {
	return d.l.Len()
}

// UnsafeString returns the data as a string without copying it. The string aliases the message.
func (d Data) UnsafeString() string {
	return unsafex.BinaryToString(d.Bytes())
}

func readText(p AnyPointer, ok bool) (Text, error) {
	if !ok {
		return Text{}, nil
	}
	r, err := p.Resolve()
	if err != nil || r.IsNull() {
		return Text{}, err
	}
	l, err := r.ExpectList()
	if err != nil {
		return Text{}, err
	}
	return NewText(l)
}

func readData(p AnyPointer, ok bool) (Data, error) {
	t, err := readText(p, ok)
	return Data(t), err
}

func writeBytes(p AnyPointer, b []byte, nul bool) ListPointer {
	n := len(b)
	if nul {
		n++
	}
	if n > maxListElements {
		panic("capnp: text or data too long")
	}
	l := p.initList(uint32(n), OneByteSize)
	copy(l.c.mutableBytes(0, len(b)), b)
	return l
}

// ReadText resolves the pointer at index i as text. A null pointer yields null text.
func (s StructPointer) ReadText(i uint16) (Text, error) {
	return readText(s.pointer(i))
}

// ReadTextOr returns the text at index i, or def if the pointer is null.
func (s StructPointer) ReadTextOr(i uint16, def string) (string, error) {
	t, err := s.ReadText(i)
	if err != nil || t.IsNull() {
		return def, err
	}
	return t.String(), nil
}

// SetText stores v as text at index i. It reports false if the index is past the pointer
// section or the struct is read-only.
func (s StructPointer) SetText(i uint16, v string) (Text, bool) {
	p, ok := s.mutablePointer(i)
	if !ok {
		return Text{}, false
	}
	return Text{l: writeBytes(p, unsafex.StringToBinary(v), true)}, true
}

// SetTextBytes is SetText for text held in a byte slice.
func (s StructPointer) SetTextBytes(i uint16, v []byte) (Text, bool) {
	p, ok := s.mutablePointer(i)
	if !ok {
		return Text{}, false
	}
	return Text{l: writeBytes(p, v, true)}, true
}

// ReadData resolves the pointer at index i as data. A null pointer yields null data.
func (s StructPointer) ReadData(i uint16) (Data, error) {
	return readData(s.pointer(i))
}

// SetData stores a copy of v as data at index i.
func (s StructPointer) SetData(i uint16, v []byte) (Data, bool) {
	p, ok := s.mutablePointer(i)
	if !ok {
		return Data{}, false
	}
	return Data{l: writeBytes(p, v, false)}, true
}
