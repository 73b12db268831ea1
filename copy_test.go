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

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/capnp/internal/stats"
)

var (
	treeSize = StructSize{DataBytes: 16, Pointers: 6}
	leafSize = StructSize{DataBytes: 8, Pointers: 1}
	itemElem = StructElement{Size: leafSize, FirstField: ElementEightBytes}
)

type tree struct {
	ID        int64
	Score     float64
	ChildN    uint32
	ChildText string
	Name      string
	Nums      []int16
	Items     []int64
	ItemNames []string
	Cap       uint32
	Blob      []byte
}

func buildTree(t *testing.T, options ...Option) StructPointer {
	root := NewStruct(treeSize, options...)
	root.WriteInt64(gofakeit.Int64(), 0, 0)
	root.WriteFloat64(gofakeit.Float64(), 8, 0)

	child, ok := root.InitStruct(0, leafSize)
	require.True(t, ok)
	child.WriteUint32(gofakeit.Uint32(), 0, 0)
	child.SetText(0, gofakeit.Sentence(4))
	root.SetText(1, gofakeit.Name())

	nums, ok := InitPrimitiveList[int16](root, 2, 5)
	require.True(t, ok)
	for i := 0; i < nums.Len(); i++ {
		nums.Set(i, gofakeit.Int16())
	}

	items, ok := InitStructList(root, 3, itemElem, 3)
	require.True(t, ok)
	for i := 0; i < items.Len(); i++ {
		items.At(i).WriteInt64(gofakeit.Int64(), 0, 0)
		if i != 1 {
			items.At(i).SetText(0, gofakeit.Word())
		}
	}

	require.True(t, root.WriteCapability(4, 3))
	root.SetData(5, []byte(gofakeit.LetterN(5000)))
	return root
}

func readTree(t *testing.T, s StructPointer) tree {
	var ret tree
	var err error
	ret.ID = s.ReadInt64(0, 0)
	ret.Score = s.ReadFloat64(8, 0)

	child, err := s.ReadStruct(0)
	require.NoError(t, err)
	ret.ChildN = child.ReadUint32(0, 0)
	ret.ChildText, err = child.ReadTextOr(0, "")
	require.NoError(t, err)
	ret.Name, err = s.ReadTextOr(1, "")
	require.NoError(t, err)

	nums, err := ReadPrimitiveList[int16](s, 2)
	require.NoError(t, err)
	ret.Nums = nums.ToSlice()

	items, err := s.ReadStructList(3, itemElem)
	require.NoError(t, err)
	for i := 0; i < items.Len(); i++ {
		ret.Items = append(ret.Items, items.At(i).ReadInt64(0, 0))
		name, err := items.At(i).ReadTextOr(0, "")
		require.NoError(t, err)
		ret.ItemNames = append(ret.ItemNames, name)
	}

	c, ok, err := s.ReadCapability(4)
	require.NoError(t, err)
	require.True(t, ok)
	ret.Cap = c.Index

	blob, err := s.ReadData(5)
	require.NoError(t, err)
	ret.Blob = blob.Bytes()
	return ret
}

func TestCopy_Tree(t *testing.T) {
	root := buildTree(t, WithSegmentWords(1))
	dumpOnFailure(t, root.Message())
	require.Equal(t, uint32(3), root.Message().SegmentCount())
	want := readTree(t, root)

	n, err := root.WordSize()
	require.NoError(t, err)
	copies := stats.Load(&stats.DeepCopies)

	cp, err := root.Copy()
	require.NoError(t, err)
	require.Equal(t, copies+1, stats.Load(&stats.DeepCopies))
	require.Equal(t, uint32(1), cp.SegmentCount())
	require.Equal(t, n, cp.Words())
	require.Equal(t, uint32(n), cp.FirstSegment().Capacity())

	got, err := cp.Root()
	require.NoError(t, err)
	require.Equal(t, want, readTree(t, got))

	// the copy is canonical: copying it again, or copying through the root pointer, gives the
	// same bytes
	again, err := cp.Copy()
	require.NoError(t, err)
	require.Equal(t, cp.Serialize(), again.Serialize())
	viaRoot, err := root.Message().Copy()
	require.NoError(t, err)
	require.Equal(t, cp.Serialize(), viaRoot.Serialize())

	// and independent of the source
	require.True(t, root.WriteInt64(want.ID+1, 0, 0))
	require.Equal(t, want.ID, got.ReadInt64(0, 0))
}

func TestCopy_WordSize(t *testing.T) {
	s := NewStruct(leafSize)
	s.SetText(0, "ab")
	n, err := s.WordSize()
	require.NoError(t, err)
	require.Equal(t, uint64(4), n)

	root := NewStruct(StructSize{Pointers: 3})
	_, ok := root.InitList(0, 2, CompositeSize(leafSize))
	require.True(t, ok)
	_, ok = root.InitList(1, 65, OneBitSize)
	require.True(t, ok)
	_, ok = root.InitStruct(2, EmptyStructSize)
	require.True(t, ok)

	l, err := root.ReadList(0, CompositeSize(leafSize))
	require.NoError(t, err)
	n, err = l.WordSize()
	require.NoError(t, err)
	require.Equal(t, uint64(6), n)

	l, err = root.ReadList(1, OneBitSize)
	require.NoError(t, err)
	n, err = l.WordSize()
	require.NoError(t, err)
	require.Equal(t, uint64(3), n)

	p, ok := root.ReadAnyPointer(2)
	require.True(t, ok)
	n, err = p.WordSize()
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)

	n, err = root.WordSize()
	require.NoError(t, err)
	require.Equal(t, uint64(1+6+3+1), n)

	cp, err := root.Copy()
	require.NoError(t, err)
	require.Equal(t, n, cp.Words())
	w := cp.FirstSegment().Data()
	require.Equal(t, []byte{0xfc, 0xff, 0xff, 0xff, 0, 0, 0, 0}, w[24:32])
}

func TestCopy_FarPointers(t *testing.T) {
	m := messageOf(
		[]uint64{rawDoubleFarPointer(1, 0)},
		[]uint64{rawFarPointer(2, 0), rawStructPointer(0, StructSize{DataBytes: 8})},
		[]uint64{42},
	)
	cp, err := m.Copy()
	require.NoError(t, err)
	require.Equal(t, [][]byte{segmentOf(rawStructPointer(0, StructSize{DataBytes: 8}), 42)}, segmentsOf(cp))
}

func TestCopy_Special(t *testing.T) {
	cp, err := NewMessage().Copy()
	require.NoError(t, err)
	require.Equal(t, [][]byte{segmentOf(0)}, segmentsOf(cp))

	cp, err = messageOf([]uint64{rawCapabilityPointer(7)}).Copy()
	require.NoError(t, err)
	require.Equal(t, [][]byte{segmentOf(rawCapabilityPointer(7))}, segmentsOf(cp))

	_, err = messageOf([]uint64{
		rawListPointer(0, ElementComposite, 2),
		rawCompositeTag(3, StructSize{DataBytes: 8}),
		0, 0,
	}).Copy()
	require.ErrorIs(t, err, ErrInvalidCompositeList)

	m := messageOf([]uint64{rawStructPointer(0, StructSize{Pointers: 1}), rawStructPointer(5, leafSize)})
	_, err = m.Copy()
	require.ErrorIs(t, err, ErrPointerOutOfRange)
}

// sharedChain returns a segment holding a chain of depth structs after the root, each with two
// pointers to the next one, so every level doubles the size of a deep copy.
func sharedChain(depth int) []byte {
	sz := StructSize{Pointers: 2}
	w := []uint64{rawStructPointer(0, sz)}
	for i := 0; i < depth; i++ {
		w = append(w, rawStructPointer(1, sz), rawStructPointer(0, sz))
	}
	return segmentOf(append(w, 0, 0)...)
}

func TestCopy_SharedTargets(t *testing.T) {
	m := NewMessageFromSegments([][]byte{sharedChain(3)})
	require.Equal(t, uint64(9), m.Words())
	n, err := m.RootPointer().WordSize()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<5-1), n)
	cp, err := m.Copy()
	require.NoError(t, err)
	require.Equal(t, n, cp.Words())

	// the limit travels with the message and its copies
	m = NewMessageFromSegments([][]byte{sharedChain(3)}, WithMaxMessageWords(int(n)))
	cp, err = m.Copy()
	require.NoError(t, err)
	require.Equal(t, n, cp.MaxWords())
	m = NewMessageFromSegments([][]byte{sharedChain(3)}, WithMaxMessageWords(int(n)-1))
	_, err = m.Copy()
	require.ErrorIs(t, err, ErrSizeOverflow)

	// a few hundred bytes describing a copy of 2^42 words
	m = NewMessageFromSegments([][]byte{sharedChain(40)}, WithMaxMessageWords(1<<10))
	_, err = m.RootPointer().WordSize()
	require.ErrorIs(t, err, ErrSizeOverflow)
	root, err := m.Root()
	require.NoError(t, err)
	_, err = root.WordSize()
	require.ErrorIs(t, err, ErrSizeOverflow)
	_, err = root.Copy()
	require.ErrorIs(t, err, ErrSizeOverflow)
	require.ErrorIs(t, NewStruct(StructSize{Pointers: 1}).SetStruct(0, root), ErrSizeOverflow)

	got, err := Unmarshal(m.Serialize(), WithMaxMessageWords(1<<10))
	require.NoError(t, err)
	require.Equal(t, uint64(1<<10), got.MaxWords())
	_, err = got.Copy()
	require.ErrorIs(t, err, ErrSizeOverflow)
}

func TestCopy_EmptyElements(t *testing.T) {
	const count = 1<<30 - 1
	m := messageOf([]uint64{
		rawListPointer(0, ElementComposite, 0),
		rawCompositeTag(count, EmptyStructSize),
	})
	n, err := m.RootPointer().WordSize()
	require.NoError(t, err)
	require.Equal(t, uint64(2), n)

	cp, err := m.Copy()
	require.NoError(t, err)
	require.Equal(t, segmentsOf(m), segmentsOf(cp))
	l, err := cp.RootPointer().Resolve()
	require.NoError(t, err)
	ls, err := l.ExpectList()
	require.NoError(t, err)
	require.Equal(t, count, ls.Len())
}

func TestCopy_Set(t *testing.T) {
	src := buildTree(t)
	want := readTree(t, src)

	dst := NewStruct(StructSize{Pointers: 3})
	require.NoError(t, dst.SetStruct(0, src))
	got, err := dst.ReadStruct(0)
	require.NoError(t, err)
	require.Equal(t, want, readTree(t, got))
	require.NotSame(t, src.Message(), got.Message())

	nums, err := src.ReadList(2, TwoBytesSize)
	require.NoError(t, err)
	require.NoError(t, dst.SetList(1, nums.Slice(1, 4)))
	pl, err := ReadPrimitiveList[int16](dst, 1)
	require.NoError(t, err)
	require.Equal(t, want.Nums[1:4], pl.ToSlice())

	p, ok := src.ReadAnyPointer(1)
	require.True(t, ok)
	require.NoError(t, dst.SetPointer(2, p))
	name, err := dst.ReadTextOr(2, "")
	require.NoError(t, err)
	require.Equal(t, want.Name, name)

	require.ErrorIs(t, dst.SetStruct(3, src), ErrPointerOutOfRange)
	require.Error(t, dst.AsReadOnly().SetStruct(0, src))
}
