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
	"sync/atomic"

	"github.com/cloudwego/capnp/internal/opts"
	"github.com/cloudwego/capnp/internal/rt"
	"github.com/cloudwego/capnp/internal/stats"
)

// A Message is a tree of structs, lists and capabilities stored in one or more segments. The
// first word of the first segment is the root pointer.
//
// A *Message is a handle. Share returns another handle to the same storage, and the storage is
// copied only when a handle asks for it explicitly through MakeUnique or Freeze. Mutation is not
// synchronized: a message that is written to must be used by one goroutine at a time, and a
// frozen message may be read from any number of goroutines.
type Message struct {
	data *messageData
}

type messageData struct {
	segs     []*Segment
	readOnly bool
	refs     int32
	limit    uint16
	maxWords uint64
}

// NewMessage creates a mutable message with a single segment holding a null root pointer.
func NewMessage(options ...Option) *Message {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	capacity := o.SegmentWords
	if capacity < 1 {
		capacity = 1
	}
	return newMessage([]*Segment{newSegment(capacity, 1)}, &o, false)
}

// NewMessageFromSegments creates a message over caller memory without copying it. Each segment
// must be a whole number of words and at least one segment must be given. See Segment for the
// aliasing contract.
func NewMessageFromSegments(segments [][]byte, options ...Option) *Message {
	if len(segments) == 0 {
		panic("capnp: a message needs at least one segment")
	}
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	segs := make([]*Segment, len(segments))
	for i, b := range segments {
		if len(b)%rt.WordSize != 0 || len(b)/rt.WordSize > maxSegmentWords {
			panic("capnp: segment is not a valid number of words")
		}
		segs[i] = borrowSegment(b)
	}
	return newMessage(segs, &o, false)
}

// NewReadOnlyMessage creates a read-only single-segment message holding a copy of words. It is
// meant for default values compiled into accessor code. An empty word list yields a message
// with a null root.
func NewReadOnlyMessage(words ...uint64) *Message {
	if len(words) == 0 {
		words = []uint64{0}
	}
	buf := make([]byte, len(words)*rt.WordSize)
	for i, w := range words {
		rt.Store64(buf, i*rt.WordSize, w)
	}
	o := opts.GetDefaultOptions()
	return newMessage([]*Segment{ownSegment(buf)}, &o, true)
}

func newMessage(segs []*Segment, o *opts.Options, readOnly bool) *Message {
	return &Message{data: &messageData{
		segs:     segs,
		readOnly: readOnly,
		refs:     1,
		limit:    o.TraversalLimit,
		maxWords: o.MaxMessageWords,
	}}
}

// IsReadOnly reports whether all mutations of the message fail.
func (m *Message) IsReadOnly() bool {
	return m.data.readOnly
}

// SegmentCount returns the number of segments, which is never 0.
func (m *Message) SegmentCount() uint32 {
	return uint32(len(m.data.segs))
}

// Segment returns the segment at index i, or nil if there is none.
func (m *Message) Segment(i uint32) *Segment {
	if int64(i) >= int64(len(m.data.segs)) {
		return nil
	}
	return m.data.segs[i]
}

// FirstSegment returns the segment holding the root pointer.
func (m *Message) FirstSegment() *Segment {
	return m.data.segs[0]
}

// LastSegment returns the segment allocations are tried in first.
func (m *Message) LastSegment() *Segment {
	return m.data.segs[len(m.data.segs)-1]
}

// TraversalLimit returns the traversal limit given to cursors created from this message.
func (m *Message) TraversalLimit() uint16 {
	return m.data.limit
}

// MaxWords returns the largest number of words a deep copy out of this message may take, as set
// by WithMaxMessageWords. It is never more than a single segment can hold.
func (m *Message) MaxWords() uint64 {
	if n := m.data.maxWords; n != 0 && n < maxSegmentWords {
		return n
	}
	return maxSegmentWords
}

func (m *Message) options() opts.Options {
	o := opts.GetDefaultOptions()
	o.TraversalLimit = m.data.limit
	o.MaxMessageWords = m.data.maxWords
	return o
}

// Words returns the total number of words in use across all segments.
func (m *Message) Words() uint64 {
	n := uint64(0)
	for _, s := range m.data.segs {
		n += uint64(s.used)
	}
	return n
}

// RootPointer returns the pointer stored in the first word of the first segment.
func (m *Message) RootPointer() AnyPointer {
	return AnyPointer{c: m.cursor(0, 0)}
}

// Root resolves the root pointer as a struct. A null root yields an empty struct, whose fields
// all read as their defaults.
func (m *Message) Root() (StructPointer, error) {
	p, err := m.RootPointer().Resolve()
	if err != nil || p.IsNull() {
		return StructPointer{}, err
	}
	return p.ExpectStruct()
}

// InitRoot allocates a struct of the given size and points the root pointer at it.
func (m *Message) InitRoot(size StructSize) StructPointer {
	return m.RootPointer().initStruct(size)
}

// Share returns another handle to the same storage. The storage is no longer uniquely owned
// until one of the handles is released or made unique.
func (m *Message) Share() *Message {
	atomic.AddInt32(&m.data.refs, 1)
	return &Message{data: m.data}
}

// Release gives up this handle's claim on the storage. The handle must not be used afterwards.
func (m *Message) Release() {
	atomic.AddInt32(&m.data.refs, -1)
	m.data = &messageData{segs: m.data.segs, readOnly: true, refs: 1, limit: m.data.limit, maxWords: m.data.maxWords}
}

// IsUnique reports whether no other handle shares this message's storage.
func (m *Message) IsUnique() bool {
	return atomic.LoadInt32(&m.data.refs) == 1
}

// MakeUnique gives this handle its own mutable copy of the storage if the storage is shared or
// read-only. Cursors created from this handle see the copy from then on.
func (m *Message) MakeUnique() {
	d := m.data
	if !d.readOnly && atomic.LoadInt32(&d.refs) == 1 {
		return
	}
	segs := make([]*Segment, len(d.segs))
	for i, s := range d.segs {
		segs[i] = s.cloneMutable()
	}
	atomic.AddInt32(&d.refs, -1)
	m.data = &messageData{segs: segs, refs: 1, limit: d.limit, maxWords: d.maxWords}
}

// Freeze returns a read-only message safe for concurrent readers. If this handle owns its
// storage, or the storage is already read-only, it is marked read-only in place and the same
// handle is returned. Otherwise the segments are copied into a new read-only message and this
// handle stays mutable.
func (m *Message) Freeze() Frozen[*Message] {
	d := m.data
	if d.readOnly || atomic.LoadInt32(&d.refs) == 1 {
		d.readOnly = true
		stats.Freeze(false)
		return Frozen[*Message]{value: m}
	}
	segs := make([]*Segment, len(d.segs))
	for i, s := range d.segs {
		segs[i] = s.cloneFrozen()
	}
	stats.Freeze(true)
	o := m.options()
	return Frozen[*Message]{value: newMessage(segs, &o, true)}
}

// allocate reserves words contiguous words, preferring the last segment and creating a new one
// when it is full. The new segment is at least twice as large as the last one.
func (m *Message) allocate(words uint32) Cursor {
	if c, ok := m.tryAllocate(words, m.SegmentCount()-1); ok {
		return c
	}
	if words > maxSegmentWords {
		panic("capnp: allocation exceeds the maximum segment size")
	}
	d := m.data
	d.segs = append(d.segs, newSegment(growCapacity(m.LastSegment().Capacity(), words), words))
	return m.cursor(m.SegmentCount()-1, 0)
}

// tryAllocate reserves words contiguous words in segment seg, or reports false if they do not fit.
func (m *Message) tryAllocate(words uint32, seg uint32) (Cursor, bool) {
	if m.data.readOnly {
		panic("capnp: allocation in a read-only message")
	}
	s := m.Segment(seg)
	if s == nil {
		return Cursor{}, false
	}
	off, ok := s.tryAllocate(words)
	if !ok {
		return Cursor{}, false
	}
	return m.cursor(seg, off), true
}

func (m *Message) cursor(seg uint32, off int) Cursor {
	return Cursor{msg: m, seg: seg, off: off, limit: m.data.limit}
}
