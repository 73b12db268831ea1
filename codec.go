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
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/oleiade/lane"
)

const (
	_DefaultReadSize = 4096
	_MaxEmptyReads   = 100
)

// Encoder writes messages in stream framing to an io.Writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes m to the underlying writer.
func (self *Encoder) Encode(m *Message) error {
	_, err := m.WriteTo(self.w)
	return err
}

// Decoder reads messages in stream framing from an io.Reader.
//
// Every chunk is read into a fresh buffer, so with WithBorrowSegments the decoded messages may
// alias those buffers safely.
type Decoder struct {
	r    io.Reader
	dec  *MessageStreamDecoder
	rest *lane.Deque
	size int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, options ...Option) *Decoder {
	return &Decoder{
		r:    r,
		dec:  NewMessageStreamDecoder(options...),
		rest: lane.NewDeque(),
		size: _DefaultReadSize,
	}
}

// Decode returns the next message. It returns io.EOF at the end of the stream, an error
// matching ErrNotEnoughData if the stream ends inside a message, and io.ErrNoProgress if the
// reader keeps returning no data and no error.
func (self *Decoder) Decode() (*Message, error) {
	for empty := 0; ; {
		/* bytes left over from the previous message come first */
		for !self.rest.Empty() {
			b := self.rest.Shift().([]byte)
			m, n, err := self.dec.Push(b)
			if err != nil {
				return nil, err
			}
			if n < len(b) {
				self.rest.Prepend(b[n:])
			}
			if m != nil {
				return m, nil
			}
		}

		/* read another chunk */
		buf := dirtmake.Bytes(self.size, self.size)
		n, err := self.r.Read(buf)
		if n > 0 {
			self.rest.Append(buf[:n])
			empty = 0
			continue
		}
		if err == nil {
			if empty++; empty >= _MaxEmptyReads {
				return nil, io.ErrNoProgress
			}
			continue
		}
		if errors.Is(err, io.EOF) && self.dec.HasIncompleteMessage() {
			return nil, fmt.Errorf("capnp: read message: %w", streamError(NotEnoughData, self.dec.pos, "stream ends inside a message"))
		}
		return nil, err
	}
}

// Buffered reports whether bytes read from the underlying reader are waiting to be decoded.
func (self *Decoder) Buffered() bool {
	return !self.rest.Empty() || self.dec.HasIncompleteMessage()
}
