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
)

func TestList_Primitive(t *testing.T) {
	root := NewStruct(StructSize{Pointers: 4})
	dumpOnFailure(t, root.Message())

	n := gofakeit.Number(1, 64)
	i16 := make([]int16, n)
	f64 := make([]float64, n)
	for i := range i16 {
		i16[i] = gofakeit.Int16()
		f64[i] = gofakeit.Float64()
	}

	l16, ok := InitPrimitiveList[int16](root, 0, n)
	require.True(t, ok)
	lf, ok := InitPrimitiveList[float64](root, 1, n)
	require.True(t, ok)
	for i := 0; i < n; i++ {
		require.True(t, l16.Set(i, i16[i]))
		require.True(t, lf.Set(i, f64[i]))
	}
	le, ok := InitPrimitiveList[EnumValue](root, 2, 2)
	require.True(t, ok)
	le.Set(1, 0xbeef)

	got16, err := ReadPrimitiveList[int16](root, 0)
	require.NoError(t, err)
	require.Equal(t, i16, got16.ToSlice())
	gotf, err := ReadPrimitiveList[float64](root, 1)
	require.NoError(t, err)
	require.Equal(t, f64, gotf.ToSlice())
	var ge EnumList
	ge, err = ReadPrimitiveList[EnumValue](root, 2)
	require.NoError(t, err)
	require.Equal(t, []EnumValue{0, 0xbeef}, ge.ToSlice())

	// element width is checked
	_, err = ReadPrimitiveList[int32](root, 0)
	require.ErrorIs(t, err, ErrUnexpectedPointerType)
	_, err = NewPrimitiveList[uint64](got16.List())
	require.ErrorIs(t, err, ErrUnexpectedPointerType)

	// null lists are empty
	empty, err := ReadPrimitiveList[int16](root, 3)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Len())

	if n > 2 {
		sl := got16.Slice(1, n-1)
		require.Equal(t, i16[1:n-1], sl.ToSlice())
	}
	require.Panics(t, func() { got16.At(n) })
	require.Panics(t, func() { got16.At(-1) })
	require.Panics(t, func() { got16.Slice(0, n+1) })
}

func TestList_Bool(t *testing.T) {
	root := NewStruct(StructSize{Pointers: 1})
	l, ok := root.InitList(0, 13, OneBitSize)
	require.True(t, ok)
	bl, err := NewBoolList(l)
	require.NoError(t, err)
	for i := 0; i < bl.Len(); i += 3 {
		require.True(t, bl.Set(i, true))
	}
	require.True(t, bl.Set(3, false))

	l, err = root.ReadList(0, OneBitSize)
	require.NoError(t, err)
	bl, err = NewBoolList(l)
	require.NoError(t, err)
	want := []bool{true, false, false, false, false, false, true, false, false, true, false, false, true}
	for i, v := range want {
		require.Equal(t, v, bl.At(i), "element %d", i)
	}
	require.Equal(t, []byte{0x41, 0x12}, l.Cursor().bytes(0, 2))
	require.Equal(t, 5, l.Slice(8, 13).Len())
	require.Panics(t, func() { l.Slice(3, 5) })
	require.Equal(t, StructSize{}, l.Struct(2).Size())
}

func TestList_TextAndData(t *testing.T) {
	root := NewStruct(StructSize{Pointers: 2})
	words := []string{gofakeit.Word(), gofakeit.Sentence(4), ""}

	l, ok := root.InitList(0, len(words), PointerSize)
	require.True(t, ok)
	tl, err := NewTextList(l)
	require.NoError(t, err)
	for i, w := range words {
		require.True(t, tl.Set(i, w))
	}
	l, ok = root.InitList(1, 2, PointerSize)
	require.True(t, ok)
	dl, err := NewDataList(l)
	require.NoError(t, err)
	require.True(t, dl.Set(0, []byte{0, 1, 2}))

	for i, w := range words {
		txt, err := tl.At(i)
		require.NoError(t, err)
		require.Equal(t, w, txt.String())
	}
	d, err := dl.At(0)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2}, d.Bytes())
	d, err = dl.At(1)
	require.NoError(t, err)
	require.True(t, d.IsNull())
	require.True(t, l.IsNull(1))
	require.False(t, l.IsNull(0))

	// a text without a NUL terminator reads as is
	m := messageOf([]uint64{rawListPointer(0, ElementOneByte, 2), 0x6968})
	r, err := m.RootPointer().Resolve()
	require.NoError(t, err)
	raw, err := r.ExpectList()
	require.NoError(t, err)
	txt, err := NewText(raw)
	require.NoError(t, err)
	require.Equal(t, "hi", txt.String())
	_, err = NewText(l)
	require.ErrorIs(t, err, ErrUnexpectedPointerType)
}

func TestList_Struct(t *testing.T) {
	elem := StructElement{Size: StructSize{DataBytes: 8, Pointers: 1}, FirstField: ElementEightBytes}
	root := NewStruct(StructSize{Pointers: 1})
	sl, ok := InitStructList(root, 0, elem, 3)
	require.True(t, ok)
	for i := 0; i < sl.Len(); i++ {
		require.True(t, sl.At(i).WriteInt64(int64(i*10), 0, 0))
		_, ok = sl.At(i).SetText(0, gofakeit.Name())
		require.True(t, ok)
	}

	got, err := root.ReadStructList(0, elem)
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	for i := 0; i < got.Len(); i++ {
		require.Equal(t, int64(i*10), got.At(i).ReadInt64(0, 0))
		require.True(t, got.At(i).HasPointer(0))
	}
	require.Equal(t, int64(20), got.Slice(1, 3).At(1).ReadInt64(0, 0))

	// a newer reader with a larger struct sees defaults past the old size
	bigger := StructElement{Size: StructSize{DataBytes: 16, Pointers: 2}, FirstField: ElementEightBytes}
	got, err = root.ReadStructList(0, bigger)
	require.NoError(t, err)
	require.Equal(t, int64(-1), got.At(0).ReadInt64(8, -1))
	require.False(t, got.At(0).HasPointer(1))
}

func TestList_StructFromPrimitives(t *testing.T) {
	root := NewStruct(StructSize{Pointers: 2})
	pl, ok := InitPrimitiveList[int32](root, 0, 3)
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		pl.Set(i, int32(i+1)*-100)
	}
	bits, ok := root.InitList(1, 4, OneBitSize)
	require.True(t, ok)

	sl, err := root.ReadStructList(0, StructElement{Size: StructSize{DataBytes: 8}, FirstField: ElementFourBytes})
	require.NoError(t, err)
	require.Equal(t, 3, sl.Len())
	require.Equal(t, int32(-300), sl.At(2).ReadInt32(0, 0))
	require.Equal(t, int32(5), sl.At(2).ReadInt32(4, 5))

	_, err = root.ReadStructList(0, StructElement{Size: StructSize{DataBytes: 8}, FirstField: ElementEightBytes})
	require.ErrorIs(t, err, ErrUnexpectedPointerType)
	_, err = root.ReadStructList(0, StructElement{Size: StructSize{DataBytes: 8}, FirstField: ElementComposite})
	require.ErrorIs(t, err, ErrUnexpectedPointerType)
	require.False(t, bits.IsStructCompatible(StructElement{Size: StructSize{DataBytes: 1}, FirstField: ElementOneBit}))
}

func TestList_Lists(t *testing.T) {
	root := NewStruct(StructSize{Pointers: 1})
	l, ok := root.InitList(0, 2, PointerSize)
	require.True(t, ok)
	ll, err := NewListList(l)
	require.NoError(t, err)
	inner, ok := ll.Init(1, 4, OneByteSize)
	require.True(t, ok)
	pl, err := NewPrimitiveList[uint8](inner)
	require.NoError(t, err)
	pl.Set(3, 9)

	got, err := ll.At(1, OneByteSize)
	require.NoError(t, err)
	require.Equal(t, 4, got.Len())
	pl, err = NewPrimitiveList[uint8](got)
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 0, 0, 9}, pl.ToSlice())
	_, err = ll.At(1, TwoBytesSize)
	require.ErrorIs(t, err, ErrUnexpectedPointerType)
	null, err := ll.At(0, OneByteSize)
	require.NoError(t, err)
	require.False(t, null.IsValid())

	ptrs, err := NewPointerList(l)
	require.NoError(t, err)
	require.True(t, ptrs.At(0).IsNull())
	require.False(t, ptrs.At(1).IsNull())
	_, err = NewPointerList(inner)
	require.ErrorIs(t, err, ErrUnexpectedPointerType)
}

func TestList_ReadOnly(t *testing.T) {
	root := NewStruct(StructSize{Pointers: 1})
	l, _ := root.InitList(0, 2, EightBytesSize)
	pl, _ := NewPrimitiveList[uint64](l.AsReadOnly())
	require.False(t, pl.Set(0, 1))
	bl, _ := root.InitList(0, 2, OneBitSize)
	require.False(t, bl.AsReadOnly().setBit(0, true))
	tl, _ := root.InitList(0, 2, PointerSize)
	txt, _ := NewTextList(tl.AsReadOnly())
	require.False(t, txt.Set(0, "x"))
	_, ok := tl.AsReadOnly().InitStruct(0, StructSize{DataBytes: 8})
	require.False(t, ok)
}

func TestList_Compatibility(t *testing.T) {
	l := ListPointer{size: TwoBytesSize}
	require.True(t, l.IsCompatible(TwoBytesSize))
	require.False(t, l.IsCompatible(FourBytesSize))
	require.False(t, l.IsCompatible(CompositeSize(StructSize{DataBytes: 8})))

	c := ListPointer{size: CompositeSize(StructSize{DataBytes: 8})}
	require.True(t, c.IsCompatible(CompositeSize(StructSize{DataBytes: 64, Pointers: 3})))
	require.True(t, c.IsStructCompatible(StructElement{Size: StructSize{Pointers: 1}}))
	require.False(t, c.IsCompatible(EightBytesSize))
}
