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
	"io"
	"net"

	"github.com/cloudwego/gopkg/gridbuf"
	"github.com/cloudwego/gopkg/protocol/thrift"

	"github.com/cloudwego/capnp/internal/rt"
	"github.com/cloudwego/capnp/internal/stats"
	"github.com/cloudwego/capnp/iovec"
)

// nocopyWriteThreshold is the smallest segment handed to a NocopyWriter instead of copied.
const nocopyWriteThreshold = 4096

// headerSize returns the size of the stream header for n segments: the segment count, one size
// per segment, and padding to a whole word.
func headerSize(n int) int {
	return (n/2 + 1) * rt.WordSize
}

func (m *Message) putHeader(b []byte) {
	segs := m.data.segs
	rt.Store32(b, 0, uint32(len(segs)-1))
	for i, s := range segs {
		rt.Store32(b, 4*(i+1), s.used)
	}
	if len(segs)%2 == 0 {
		rt.Store32(b, 4*(len(segs)+1), 0)
	}
}

// SerializedSize returns the number of bytes Serialize produces.
func (m *Message) SerializedSize() int {
	n := headerSize(len(m.data.segs))
	for _, s := range m.data.segs {
		n += int(s.used) * rt.WordSize
	}
	return n
}

// Serialize returns the message in stream framing.
func (m *Message) Serialize() []byte {
	return m.AppendTo(make([]byte, 0, m.SerializedSize()))
}

// AppendTo appends the message in stream framing to b.
func (m *Message) AppendTo(b []byte) []byte {
	hs := headerSize(len(m.data.segs))
	off := len(b)
	for i := 0; i < hs; i++ {
		b = append(b, 0)
	}
	m.putHeader(b[off:])
	for _, s := range m.data.segs {
		b = append(b, s.Data()...)
	}
	stats.Encoded()
	return b
}

// WriteTo writes the message in stream framing to w. Segments are not copied; a net.Conn
// receives the whole message in a single vectored write.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	hdr := make([]byte, headerSize(len(m.data.segs)))
	m.putHeader(hdr)
	bufs := make(net.Buffers, 0, len(m.data.segs)+1)
	bufs = append(bufs, hdr)
	for _, s := range m.data.segs {
		if s.used != 0 {
			bufs = append(bufs, s.Data())
		}
	}
	stats.Encoded()
	return bufs.WriteTo(w)
}

// SerializeTo writes the message in stream framing to v. The header is written into a buffer
// from v, and the segments are put into v without copying.
func (m *Message) SerializeTo(v iovec.IoVec) {
	hs := headerSize(len(m.data.segs))
	hdr := v.Add(hs, nil)[:hs]
	m.putHeader(hdr)
	v.Cat(hdr, m.data.segs[0].Data())
	for _, s := range m.data.segs[1:] {
		if s.used != 0 {
			v.Put(s.Data())
		}
	}
	stats.Encoded()
}

// GridWrite writes the message in stream framing to b, handing over segments without copying.
// The segments must not be modified until b has been consumed.
func (m *Message) GridWrite(b *gridbuf.WriteBuffer) {
	m.putHeader(b.MallocN(headerSize(len(m.data.segs))))
	for _, s := range m.data.segs {
		if s.used != 0 {
			b.WriteDirect(s.Data())
		}
	}
	stats.Encoded()
}

// EncodedSize returns the size of m in stream framing.
func EncodedSize(m *Message) int {
	return m.SerializedSize()
}

// EncodeObject serializes m into buf in stream framing, with optional zero-copy
// thrift.NocopyWriter: when w is not nil, large segments are handed to w.WriteDirect instead of
// being copied into buf. buf must be large enough to contain the entire serialization result.
// It returns the number of bytes written into buf.
func EncodeObject(buf []byte, w thrift.NocopyWriter, m *Message) (int, error) {
	hs := headerSize(len(m.data.segs))
	if len(buf) < hs {
		return 0, streamError(IndexOutOfBounds, 0, "buffer too small")
	}
	m.putHeader(buf)
	n := hs
	for _, s := range m.data.segs {
		data := s.Data()
		if w != nil && len(data) >= nocopyWriteThreshold {
			if err := w.WriteDirect(data, len(buf)-n); err != nil {
				return n, err
			}
			continue
		}
		if len(buf)-n < len(data) {
			return n, streamError(IndexOutOfBounds, n, "buffer too small")
		}
		n += copy(buf[n:], data)
	}
	stats.Encoded()
	return n, nil
}

// Marshal returns m in stream framing.
func Marshal(m *Message) []byte {
	return m.Serialize()
}

// DecodeObject decodes one message in stream framing from the front of buf, copying its
// segments unless WithBorrowSegments is given. It returns the number of bytes consumed.
func DecodeObject(buf []byte, options ...Option) (*Message, int, error) {
	dec := NewMessageStreamDecoder(options...)
	m, n, err := dec.Push(buf)
	if err != nil {
		return nil, n, err
	}
	if m == nil {
		return nil, n, streamError(NotEnoughData, n, "truncated message")
	}
	return m, n, nil
}

// Unmarshal decodes one message in stream framing from the front of b, copying its segments.
// Bytes after the message are ignored.
func Unmarshal(b []byte, options ...Option) (*Message, error) {
	m, _, err := DecodeObject(b, options...)
	return m, err
}

// UnmarshalBorrow is Unmarshal without copying: the message aliases b, which must outlive it
// and stay unchanged.
func UnmarshalBorrow(b []byte, options ...Option) (*Message, error) {
	return Unmarshal(b, append(options, WithBorrowSegments(true))...)
}
