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

package debug

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/cloudwego/capnp"
)

var config = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// MessageLayout is a printable snapshot of a message's segments.
type MessageLayout struct {
	ReadOnly bool
	Words    uint64
	Segments []SegmentLayout
}

// SegmentLayout is a printable snapshot of one segment, one hex string per word.
type SegmentLayout struct {
	Index    uint32
	Words    uint32
	Capacity uint32
	Borrowed bool
	Data     []string
}

// Layout takes a snapshot of the segments of m.
func Layout(m *capnp.Message) MessageLayout {
	ret := MessageLayout{ReadOnly: m.IsReadOnly(), Words: m.Words()}
	for i := uint32(0); i < m.SegmentCount(); i++ {
		s := m.Segment(i)
		data := s.Data()
		sl := SegmentLayout{
			Index:    i,
			Words:    s.Words(),
			Capacity: s.Capacity(),
			Borrowed: s.IsBorrowed(),
			Data:     make([]string, 0, s.Words()),
		}
		for off := 0; off+8 <= len(data); off += 8 {
			sl.Data = append(sl.Data, fmt.Sprintf("%04x: % x", off/8, data[off:off+8]))
		}
		ret.Segments = append(ret.Segments, sl)
	}
	return ret
}

// Dump writes the segment layout of m to w.
func Dump(w io.Writer, m *capnp.Message) {
	config.Fdump(w, Layout(m))
}

// Sdump returns the segment layout of m as a string.
func Sdump(m *capnp.Message) string {
	return config.Sdump(Layout(m))
}
