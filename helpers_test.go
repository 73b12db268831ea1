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
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/cloudwego/capnp/internal/rt"
)

// segmentOf packs words into the bytes of a segment.
func segmentOf(words ...uint64) []byte {
	b := make([]byte, len(words)*rt.WordSize)
	for i, w := range words {
		rt.Store64(b, i*rt.WordSize, w)
	}
	return b
}

// messageOf builds a message over hand-written segments.
func messageOf(segs ...[]uint64) *Message {
	bufs := make([][]byte, len(segs))
	for i, s := range segs {
		bufs[i] = segmentOf(s...)
	}
	return NewMessageFromSegments(bufs)
}

// segmentsOf returns the bytes of every segment of m.
func segmentsOf(m *Message) [][]byte {
	ret := make([][]byte, m.SegmentCount())
	for i := range ret {
		ret[i] = m.Segment(uint32(i)).Data()
	}
	return ret
}

// dumpOnFailure prints the segments of m if the test failed.
func dumpOnFailure(t *testing.T, m *Message) {
	t.Cleanup(func() {
		if t.Failed() {
			t.Log(spew.Sdump(segmentsOf(m)))
		}
	})
}
