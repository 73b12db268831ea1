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
	"github.com/cloudwego/capnp/internal/opts"
	"github.com/cloudwego/capnp/internal/rt"
)

// MaxTraversalLimit is the largest traversal limit a cursor can carry.
const MaxTraversalLimit = opts.MaxTraversalLimit

// DefaultTraversalLimit is the traversal limit used unless configured otherwise.
const DefaultTraversalLimit = 64

// A Cursor addresses a byte in a segment of a message. It carries a read-only flag and the
// number of pointer dereferences still allowed from this position. Every access through a
// Cursor is checked against the words in use in its segment.
//
// The zero Cursor addresses nothing: reads yield zero and writes fail.
type Cursor struct {
	msg      *Message
	seg      uint32
	off      int
	limit    uint16
	readOnly bool
}

// NewCursor returns a cursor to the given byte of a segment, or false if the position is
// outside the words in use.
func NewCursor(m *Message, seg uint32, byteOffset int) (Cursor, bool) {
	s := m.Segment(seg)
	if s == nil || byteOffset < 0 || byteOffset > len(s.Data()) {
		return Cursor{}, false
	}
	return m.cursor(seg, byteOffset), true
}

// Message returns the message the cursor points into.
func (c Cursor) Message() *Message {
	return c.msg
}

// SegmentIndex returns the index of the segment the cursor points into.
func (c Cursor) SegmentIndex() uint32 {
	return c.seg
}

// ByteOffset returns the offset of the cursor from the start of its segment in bytes.
func (c Cursor) ByteOffset() int {
	return c.off
}

// WordOffset returns the offset of the cursor from the start of its segment in words.
func (c Cursor) WordOffset() uint32 {
	return uint32(c.off / rt.WordSize)
}

// TraversalLimit returns the number of pointers that may still be dereferenced from the cursor.
func (c Cursor) TraversalLimit() uint16 {
	return c.limit
}

// WithTraversalLimit returns a copy of the cursor with a different traversal limit, clamped to
// MaxTraversalLimit.
func (c Cursor) WithTraversalLimit(limit uint16) Cursor {
	if limit > MaxTraversalLimit {
		limit = MaxTraversalLimit
	}
	c.limit = limit
	return c
}

// IsReadOnly reports whether writes through the cursor fail.
func (c Cursor) IsReadOnly() bool {
	return c.readOnly || c.msg == nil || c.msg.data.readOnly
}

// AsReadOnly returns a shallow copy of the cursor that refuses writes.
func (c Cursor) AsReadOnly() Cursor {
	c.readOnly = true
	return c
}

// Freeze freezes the underlying message and returns a read-only cursor into it.
func (c Cursor) Freeze() Frozen[Cursor] {
	if c.msg == nil {
		return Frozen[Cursor]{value: c.AsReadOnly()}
	}
	c.msg = c.msg.Freeze().Value()
	return Frozen[Cursor]{value: c.AsReadOnly()}
}

func (c Cursor) segment() *Segment {
	if c.msg == nil {
		return nil
	}
	return c.msg.Segment(c.seg)
}

func (c Cursor) advance(bytes int) Cursor {
	c.off += bytes
	return c
}

// bytes returns n bytes starting at off relative to the cursor, or nil if any of them lies
// outside the words in use.
func (c Cursor) bytes(off int, n int) []byte {
	s := c.segment()
	if s == nil || n < 0 {
		return nil
	}
	start, ok := rt.AddInt(c.off, off)
	if !ok || start < 0 {
		return nil
	}
	end, ok := rt.AddInt(start, n)
	data := s.Data()
	if !ok || end > len(data) {
		return nil
	}
	return data[start:end:end]
}

// mutableBytes is bytes for writing; it returns nil if the cursor is read-only.
func (c Cursor) mutableBytes(off int, n int) []byte {
	if c.IsReadOnly() {
		return nil
	}
	return c.bytes(off, n)
}

func (c Cursor) readWord() (uint64, bool) {
	if b := c.bytes(0, rt.WordSize); b != nil {
		return rt.Load64(b, 0), true
	}
	return 0, false
}

func (c Cursor) writeWord(w uint64) bool {
	if b := c.mutableBytes(0, rt.WordSize); b != nil {
		rt.Store64(b, 0, w)
		return true
	}
	return false
}
