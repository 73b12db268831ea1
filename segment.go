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
	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/cloudwego/capnp/internal/rt"
	"github.com/cloudwego/capnp/internal/stats"
)

const (
	// maxSegmentWords bounds a segment so that every word in it can be named by the 29-bit
	// landing pad offset of a far pointer.
	maxSegmentWords = 1<<29 - 1

	minGrowWords = 512
)

// A Segment is a block of words in a Message. Words in [0, Words()) hold message data; words in
// [Words(), Capacity()) are zeroed and reserved for future allocations. A Segment never moves
// once created, so cursors into it stay valid as the message grows.
//
// A borrowed Segment aliases memory supplied by the caller, who must keep that memory alive and
// unchanged for as long as the message is in use. Writes through a mutable message land in the
// borrowed memory.
type Segment struct {
	buf      []byte
	used     uint32
	borrowed bool
}

func newSegment(capacity uint32, used uint32) *Segment {
	stats.Segment(capacity)
	return &Segment{
		buf:  make([]byte, int(capacity)*rt.WordSize),
		used: used,
	}
}

// ownSegment wraps a buffer that was filled by the caller and is owned by the message.
func ownSegment(buf []byte) *Segment {
	stats.Copied()
	return &Segment{buf: buf, used: uint32(len(buf) / rt.WordSize)}
}

// borrowSegment wraps caller memory without copying it.
func borrowSegment(buf []byte) *Segment {
	stats.Borrowed()
	return &Segment{buf: buf[:len(buf):len(buf)], used: uint32(len(buf) / rt.WordSize), borrowed: true}
}

// Words returns the number of words in use.
func (s *Segment) Words() uint32 {
	return s.used
}

// Capacity returns the number of words the segment can hold.
func (s *Segment) Capacity() uint32 {
	return uint32(len(s.buf) / rt.WordSize)
}

// Data returns the words in use as bytes. The slice aliases the segment.
func (s *Segment) Data() []byte {
	return s.buf[:int(s.used)*rt.WordSize]
}

// IsBorrowed reports whether the segment aliases caller memory.
func (s *Segment) IsBorrowed() bool {
	return s.borrowed
}

// tryAllocate bump-allocates words at the end of the segment and returns the byte offset of the
// first one, or false if the segment is full.
func (s *Segment) tryAllocate(words uint32) (int, bool) {
	n, ok := rt.AddUint32(s.used, words)
	if !ok || n > s.Capacity() {
		return 0, false
	}
	off := int(s.used) * rt.WordSize
	s.used = n
	return off, true
}

// cloneFrozen copies the words in use into a buffer sized exactly to them.
func (s *Segment) cloneFrozen() *Segment {
	data := s.Data()
	buf := dirtmake.Bytes(len(data), len(data))
	copy(buf, data)
	return ownSegment(buf)
}

// cloneMutable copies the segment keeping its spare capacity zeroed for allocations.
func (s *Segment) cloneMutable() *Segment {
	ret := newSegment(s.Capacity(), s.used)
	copy(ret.buf, s.Data())
	return ret
}

func growCapacity(last uint32, words uint32) uint32 {
	sz := uint32(minGrowWords)
	if last > maxSegmentWords/2 {
		sz = maxSegmentWords
	} else if last*2 > sz {
		sz = last * 2
	}
	if p := rt.NextPowerOfTwo(words); p > sz {
		sz = p
	}
	if sz > maxSegmentWords {
		sz = maxSegmentWords
	}
	return sz
}
