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

	"github.com/cloudwego/capnp/internal/opts"
	"github.com/cloudwego/capnp/internal/rt"
	"github.com/cloudwego/capnp/internal/stats"
)

type decodeState uint8

const (
	readSegmentCount decodeState = iota
	readSegmentSize
	readSegmentData
)

// MessageStreamDecoder reassembles messages in stream framing from chunks of any size.
//
// Push consumes bytes up to the end of the next message and reports how many it consumed; the
// caller resubmits the rest. In borrowing mode a segment that arrives whole within one chunk
// aliases that chunk, which must then outlive the message and stay unchanged; segments split
// across chunks are always copied.
type MessageStreamDecoder struct {
	opts    opts.Options
	state   decodeState
	word    [4]byte
	wordLen int
	count   uint32
	sizes   []uint32
	words   uint64
	padding int
	segs    []*Segment
	partial []byte
	filled  int
	pos     int
}

// NewMessageStreamDecoder creates a decoder. WithBorrowSegments enables borrowing mode;
// WithMaxSegments and WithMaxMessageWords bound the messages it accepts.
func NewMessageStreamDecoder(options ...Option) *MessageStreamDecoder {
	d := &MessageStreamDecoder{opts: opts.GetDefaultOptions()}
	for _, fn := range options {
		fn(&d.opts)
	}
	return d
}

// HasIncompleteMessage reports whether bytes of a message have been pushed but the message is
// not complete yet. At the end of a stream this means the stream was truncated.
func (self *MessageStreamDecoder) HasIncompleteMessage() bool {
	return self.state != readSegmentCount || self.wordLen != 0
}

// Reset discards any incomplete message.
func (self *MessageStreamDecoder) Reset() {
	*self = MessageStreamDecoder{opts: self.opts, sizes: self.sizes[:0]}
}

// Push feeds b to the decoder. It returns the next message once its last byte has been pushed,
// along with the number of bytes of b consumed, which is less than len(b) only when a message
// was returned. A nil message means all of b was consumed without completing a message. After
// an error the decoder is reset.
func (self *MessageStreamDecoder) Push(b []byte) (*Message, int, error) {
	m, n, err := self.push(b)
	if m == nil && err == nil {
		self.pos += n
	}
	return m, n, err
}

func (self *MessageStreamDecoder) push(b []byte) (*Message, int, error) {
	n := 0
	for {
		switch self.state {
		case readSegmentCount:
			v, ok := self.readWord(b, &n)
			if !ok {
				return nil, n, nil
			}
			if v == 0xffffffff {
				return nil, n, self.fail(IntegerOverflow, n, "segment count overflows")
			}
			self.count = v + 1
			if !self.opts.CanAcceptSegments(uint64(self.count)) {
				return nil, n, self.fail(IndexOutOfBounds, n, "too many segments")
			}
			self.padding = 0
			if self.count%2 == 0 {
				self.padding = 4
			}
			self.sizes = self.sizes[:0]
			self.words = 0
			self.state = readSegmentSize

		case readSegmentSize:
			for uint32(len(self.sizes)) < self.count {
				v, ok := self.readWord(b, &n)
				if !ok {
					return nil, n, nil
				}
				if _, ok = rt.WordsToBytes64(uint64(v)); !ok {
					return nil, n, self.fail(IntegerOverflow, n, "segment size overflows")
				}
				if v > maxSegmentWords {
					return nil, n, self.fail(IndexOutOfBounds, n, "segment too large")
				}
				self.words += uint64(v)
				if !self.opts.CanAcceptWords(self.words) {
					return nil, n, self.fail(IndexOutOfBounds, n, "message too large")
				}
				self.sizes = append(self.sizes, v)
			}
			if self.padding != 0 {
				k := self.padding
				if rem := len(b) - n; rem < k {
					k = rem
				}
				self.padding -= k
				n += k
				if self.padding != 0 {
					return nil, n, nil
				}
			}
			self.segs = make([]*Segment, 0, self.count)
			self.state = readSegmentData

		case readSegmentData:
			for len(self.segs) < int(self.count) {
				if !self.readSegment(b, &n) {
					return nil, n, nil
				}
			}
			m := newMessage(self.segs, &self.opts, false)
			self.Reset()
			stats.Decoded()
			return m, n, nil
		}
	}
}

// readWord reads a little-endian uint32 that may span calls to Push.
func (self *MessageStreamDecoder) readWord(b []byte, n *int) (uint32, bool) {
	for self.wordLen < 4 {
		if *n >= len(b) {
			return 0, false
		}
		self.word[self.wordLen] = b[*n]
		self.wordLen++
		*n++
	}
	self.wordLen = 0
	return rt.Load32(self.word[:], 0), true
}

// readSegment consumes bytes of the current segment and reports whether it is complete.
func (self *MessageStreamDecoder) readSegment(b []byte, n *int) bool {
	need := int(self.sizes[len(self.segs)]) * rt.WordSize
	rem := b[*n:]

	/* the whole segment is available at once */
	if self.partial == nil && len(rem) >= need {
		*n += need
		if self.opts.BorrowSegments {
			self.segs = append(self.segs, borrowSegment(rem[:need]))
		} else {
			buf := dirtmake.Bytes(need, need)
			copy(buf, rem)
			self.segs = append(self.segs, ownSegment(buf))
		}
		return true
	}

	/* accumulate the segment across chunks */
	if self.partial == nil {
		self.partial = dirtmake.Bytes(need, need)
		self.filled = 0
	}
	k := copy(self.partial[self.filled:], rem)
	self.filled += k
	*n += k
	if self.filled < need {
		return false
	}
	self.segs = append(self.segs, ownSegment(self.partial))
	self.partial = nil
	return true
}

func (self *MessageStreamDecoder) fail(code StreamErrorCode, n int, reason string) error {
	err := streamError(code, self.pos+n, reason)
	self.Reset()
	return err
}
