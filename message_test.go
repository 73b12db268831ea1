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

	"github.com/stretchr/testify/require"

	"github.com/cloudwego/capnp/internal/stats"
)

func TestMessage_New(t *testing.T) {
	m := NewMessage(WithSegmentWords(16))
	require.Equal(t, uint32(1), m.SegmentCount())
	require.Equal(t, uint32(1), m.FirstSegment().Words())
	require.Equal(t, uint32(16), m.FirstSegment().Capacity())
	require.False(t, m.FirstSegment().IsBorrowed())
	require.False(t, m.IsReadOnly())
	require.True(t, m.IsUnique())
	require.Equal(t, uint16(DefaultTraversalLimit), m.TraversalLimit())
	require.Nil(t, m.Segment(1))

	s, err := m.Root()
	require.NoError(t, err)
	require.False(t, s.IsValid())

	root := m.InitRoot(StructSize{DataBytes: 8, Pointers: 1})
	require.Equal(t, uint64(3), m.Words())
	w, _ := m.RootPointer().Cursor().readWord()
	require.Equal(t, rawStructPointer(0, StructSize{DataBytes: 8, Pointers: 1}), w)
	require.Equal(t, 8, root.Cursor().ByteOffset())
}

func TestMessage_EmptyRoot(t *testing.T) {
	m := NewMessage()
	root := m.InitRoot(EmptyStructSize)
	require.True(t, root.IsValid())
	require.Equal(t, uint64(1), m.Words())
	require.Equal(t, []byte{0xfc, 0xff, 0xff, 0xff, 0, 0, 0, 0}, m.FirstSegment().Data())

	got, err := Unmarshal(m.Serialize())
	require.NoError(t, err)
	s, err := got.Root()
	require.NoError(t, err)
	require.True(t, s.IsValid())
	require.Equal(t, EmptyStructSize, s.Size())
}

func TestMessage_AllocateAcrossSegments(t *testing.T) {
	m := NewMessage(WithSegmentWords(4))
	dumpOnFailure(t, m)

	root := m.InitRoot(StructSize{Pointers: 8})
	require.Equal(t, uint32(2), m.SegmentCount())
	w, _ := m.RootPointer().Cursor().readWord()
	require.Equal(t, rawFarPointer(1, 0), w)
	require.Equal(t, uint32(1), root.Cursor().SegmentIndex())
	require.Equal(t, 8, root.Cursor().ByteOffset())
	require.Equal(t, uint32(512), m.Segment(1).Capacity())

	// children fitting next to their parent stay in its segment
	child, ok := root.InitStruct(0, StructSize{DataBytes: 8})
	require.True(t, ok)
	require.Equal(t, uint32(1), child.Cursor().SegmentIndex())
	child.WriteUint64(7, 0, 0)

	// larger ones go to a new segment behind a landing pad
	big, ok := root.InitList(1, 600, EightBytesSize)
	require.True(t, ok)
	require.Equal(t, uint32(3), m.SegmentCount())
	require.Equal(t, uint32(1024), m.Segment(2).Capacity())
	require.Equal(t, uint32(2), big.Cursor().SegmentIndex())
	pl, err := NewPrimitiveList[uint64](big)
	require.NoError(t, err)
	pl.Set(599, 42)

	got, err := m.Root()
	require.NoError(t, err)
	require.Equal(t, StructSize{Pointers: 8}, got.Size())
	c, err := got.ReadStruct(0)
	require.NoError(t, err)
	require.Equal(t, uint64(7), c.ReadUint64(0, 0))
	l, err := ReadPrimitiveList[uint64](got, 1)
	require.NoError(t, err)
	require.Equal(t, 600, l.Len())
	require.Equal(t, uint64(42), l.At(599))
}

func TestMessage_GrowCapacity(t *testing.T) {
	require.Equal(t, uint32(512), growCapacity(256, 10))
	require.Equal(t, uint32(1024), growCapacity(512, 10))
	require.Equal(t, uint32(8192), growCapacity(1000, 5000))
	require.Equal(t, uint32(maxSegmentWords), growCapacity(maxSegmentWords, 1))
	require.Equal(t, uint32(maxSegmentWords), growCapacity(1, maxSegmentWords))
}

func TestMessage_Panics(t *testing.T) {
	require.Panics(t, func() { NewMessageFromSegments(nil) })
	require.Panics(t, func() { NewMessageFromSegments([][]byte{make([]byte, 7)}) })
	require.Panics(t, func() { NewMessage().allocate(maxSegmentWords + 1) })
	require.Panics(t, func() { NewReadOnlyMessage().InitRoot(StructSize{DataBytes: 8}) })
	root := NewStruct(StructSize{Pointers: 1})
	require.Panics(t, func() { root.InitList(0, -1, OneByteSize) })
	require.Panics(t, func() { root.InitList(0, maxListElements+1, OneByteSize) })
	require.Panics(t, func() { root.InitList(0, 1<<20, CompositeSize(StructSize{DataBytes: 1 << 12})) })
	require.Panics(t, func() { root.InitList(0, maxCompositeElements+1, CompositeSize(EmptyStructSize)) })
	require.Panics(t, func() { WithTraversalLimit(0) })
	require.Panics(t, func() { WithTraversalLimit(MaxTraversalLimit + 1) })
	require.Panics(t, func() { WithSegmentWords(0) })
}

func TestMessage_LongCompositeList(t *testing.T) {
	root := NewStruct(StructSize{Pointers: 2})
	l, ok := root.InitList(0, maxListElements+1, CompositeSize(EmptyStructSize))
	require.True(t, ok)
	require.Equal(t, maxListElements+1, l.Len())

	ptrs, ok := root.InitList(1, 1, PointerSize)
	require.True(t, ok)
	l, ok = ptrs.InitList(0, maxCompositeElements, CompositeSize(EmptyStructSize))
	require.True(t, ok)
	require.Equal(t, maxCompositeElements, l.Len())

	got, err := root.ReadList(0, CompositeSize(EmptyStructSize))
	require.NoError(t, err)
	require.Equal(t, maxListElements+1, got.Len())
}

func TestMessage_ReadOnly(t *testing.T) {
	m := NewReadOnlyMessage()
	require.True(t, m.IsReadOnly())
	s, err := m.Root()
	require.NoError(t, err)
	require.False(t, s.IsValid())

	m = NewReadOnlyMessage(rawStructPointer(0, StructSize{DataBytes: 8}), 5)
	m.MakeUnique()
	require.False(t, m.IsReadOnly())
	s, err = m.Root()
	require.NoError(t, err)
	require.True(t, s.WriteUint64(6, 0, 0))
}

func TestMessage_Share(t *testing.T) {
	m := NewMessage()
	root := m.InitRoot(StructSize{DataBytes: 8})
	root.WriteInt64(1, 0, 0)

	m2 := m.Share()
	require.False(t, m.IsUnique())
	require.False(t, m2.IsUnique())

	// both handles see the same storage until one of them is made unique
	r2, err := m2.Root()
	require.NoError(t, err)
	require.Equal(t, int64(1), r2.ReadInt64(0, 0))
	root.WriteInt64(2, 0, 0)
	require.Equal(t, int64(2), r2.ReadInt64(0, 0))

	m2.MakeUnique()
	require.True(t, m.IsUnique())
	require.True(t, m2.IsUnique())
	r2, err = m2.Root()
	require.NoError(t, err)
	require.True(t, r2.WriteInt64(3, 0, 0))
	require.Equal(t, int64(2), root.ReadInt64(0, 0))
	require.Equal(t, int64(3), r2.ReadInt64(0, 0))

	m3 := m.Share()
	m3.Release()
	require.True(t, m.IsUnique())
	require.True(t, m3.IsReadOnly())
}

func TestMessage_Freeze(t *testing.T) {
	inPlace := stats.Load(&stats.FrozenInPlace)
	byCopy := stats.Load(&stats.FrozenByCopy)

	m := NewMessage()
	root := m.InitRoot(StructSize{DataBytes: 8})
	root.WriteInt64(5, 0, 0)

	// a shared message is copied
	m2 := m.Share()
	f := m.Freeze().Value()
	require.NotSame(t, m, f)
	require.True(t, f.IsReadOnly())
	require.False(t, m.IsReadOnly())
	require.Equal(t, uint32(m.FirstSegment().Words()), f.FirstSegment().Capacity())
	require.True(t, root.WriteInt64(6, 0, 0))
	fr, err := f.Root()
	require.NoError(t, err)
	require.Equal(t, int64(5), fr.ReadInt64(0, 0))
	require.Equal(t, byCopy+1, stats.Load(&stats.FrozenByCopy))

	// a unique message is frozen in place
	m2.Release()
	g := m.Freeze().Value()
	require.Same(t, m, g)
	require.True(t, m.IsReadOnly())
	require.False(t, root.WriteInt64(7, 0, 0))
	require.Equal(t, inPlace+1, stats.Load(&stats.FrozenInPlace))

	// freezing a frozen message is free
	require.Same(t, g, g.Freeze().Value())

	fs := NewStruct(StructSize{DataBytes: 8}).Freeze().Value()
	require.True(t, fs.IsReadOnly())
	require.False(t, fs.WriteInt64(1, 0, 0))
	fc := NewMessage().RootPointer().Cursor().Freeze().Value()
	require.True(t, fc.IsReadOnly())
}

func TestMessage_Borrowed(t *testing.T) {
	buf := segmentOf(rawStructPointer(0, StructSize{DataBytes: 8}), 1)
	m := NewMessageFromSegments([][]byte{buf})
	require.True(t, m.FirstSegment().IsBorrowed())
	s, err := m.Root()
	require.NoError(t, err)

	// writes land in the caller's memory
	require.True(t, s.WriteUint64(9, 0, 0))
	require.Equal(t, byte(9), buf[8])
}
