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
	"github.com/oleiade/lane"

	"github.com/cloudwego/capnp/internal/opts"
	"github.com/cloudwego/capnp/internal/rt"
	"github.com/cloudwego/capnp/internal/stats"
)

// WordSize returns the number of words a deep copy of the pointer occupies, counting the pointer
// word itself and everything reachable from it. It fails with the same errors as Resolve when
// the subtree is malformed.
//
// Targets shared by several pointers are counted once per pointer, so a small message can
// describe a huge copy. The walk stops with ErrSizeOverflow as soon as the size passes the
// message's MaxWords.
func (p AnyPointer) WordSize() (uint64, error) {
	st := lane.NewStack()
	st.Push(p)
	return wordSize(st, 0, maxWordsOf(p.c.msg))
}

// WordSize returns the number of words a deep copy of the struct occupies, including a pointer
// to it.
func (s StructPointer) WordSize() (uint64, error) {
	st := lane.NewStack()
	return wordSize(st, 1+structBodySize(st, s), maxWordsOf(s.c.msg))
}

// WordSize returns the number of words a deep copy of the list occupies, including a pointer to
// it.
func (l ListPointer) WordSize() (uint64, error) {
	st := lane.NewStack()
	return wordSize(st, 1+listBodySize(st, l), maxWordsOf(l.c.msg))
}

func maxWordsOf(m *Message) uint64 {
	if m == nil {
		return maxSegmentWords
	}
	return m.MaxWords()
}

// wordSize adds up the pointers queued on st and everything they reach to n. Each pointer adds
// at least one word, so the number of pointers visited is bounded by limit.
func wordSize(st *lane.Stack, n uint64, limit uint64) (uint64, error) {
	for ; !st.Empty(); n++ {
		if n > limit {
			return 0, ErrSizeOverflow
		}

		/* resolve the pointer, null and capability pointers are a single word */
		r, err := st.Pop().(AnyPointer).Resolve()
		if err != nil {
			return 0, err
		}

		/* add the target and queue up its pointers */
		switch r.kind {
		case StructKind:
			n += structBodySize(st, r.st)
		case ListKind:
			n += listBodySize(st, r.ls)
		}
	}
	if n > limit {
		return 0, ErrSizeOverflow
	}
	return n, nil
}

// structBodySize returns the size of a struct's data section and pushes its pointers.
func structBodySize(st *lane.Stack, s StructPointer) uint64 {
	for i := uint16(0); i < s.size.Pointers; i++ {
		p, _ := s.pointer(i)
		st.Push(p)
	}
	return uint64(s.size.DataWords())
}

// listBodySize returns the size of a list body excluding the words of its pointers, which are
// pushed.
func listBodySize(st *lane.Stack, l ListPointer) uint64 {
	switch l.size.Class {
	case ElementPointer:
		for i := 0; i < l.Len(); i++ {
			p, _ := l.Pointer(i)
			st.Push(p)
		}
		return 0
	case ElementComposite:
		if l.size.Struct.Pointers == 0 {
			return 1 + uint64(l.size.Struct.DataWords())*uint64(l.count)
		}
		n := uint64(1)
		for i := 0; i < l.Len(); i++ {
			n += structBodySize(st, l.Struct(i))
		}
		return n
	default:
		return rt.DivRoundUp64(l.size.Bits()*uint64(l.count), 64)
	}
}

// Copy deep-copies whatever the pointer points to into a new single-segment message, sized
// exactly to WordSize, whose root pointer points to the copy. Far pointers in the source are
// resolved, so the copy holds only near pointers, and copying a copy yields identical bytes.
// It fails with ErrSizeOverflow if the copy is larger than the source message's MaxWords.
func (p AnyPointer) Copy() (*Message, error) {
	n, err := p.WordSize()
	if err != nil {
		return nil, err
	}
	m, err := newCopyMessage(n, p.c.msg)
	if err != nil {
		return nil, err
	}
	if err = copyPointer(m.RootPointer(), p); err != nil {
		return nil, err
	}
	stats.DeepCopy(uint32(n))
	return m, nil
}

// Copy deep-copies the struct into the root of a new single-segment message.
func (s StructPointer) Copy() (*Message, error) {
	n, err := s.WordSize()
	if err != nil {
		return nil, err
	}
	m, err := newCopyMessage(n, s.c.msg)
	if err != nil {
		return nil, err
	}
	if err = copyStruct(m.RootPointer(), s); err != nil {
		return nil, err
	}
	stats.DeepCopy(uint32(n))
	return m, nil
}

// Copy deep-copies the list into a new single-segment message whose root pointer points to it.
func (l ListPointer) Copy() (*Message, error) {
	n, err := l.WordSize()
	if err != nil {
		return nil, err
	}
	m, err := newCopyMessage(n, l.c.msg)
	if err != nil {
		return nil, err
	}
	if err = copyList(m.RootPointer(), l); err != nil {
		return nil, err
	}
	stats.DeepCopy(uint32(n))
	return m, nil
}

// Copy deep-copies the message's root into a new single-segment message.
func (m *Message) Copy() (*Message, error) {
	return m.RootPointer().Copy()
}

func newCopyMessage(words uint64, src *Message) (*Message, error) {
	if words > maxSegmentWords {
		return nil, ErrSizeOverflow
	}
	o := opts.GetDefaultOptions()
	if src != nil {
		o = src.options()
	}
	return newMessage([]*Segment{newSegment(uint32(words), 1)}, &o, false), nil
}

// SetStruct replaces the pointer at index i with a deep copy of src. src is measured with
// WordSize first, so a malformed or oversized src fails before anything is written.
func (s StructPointer) SetStruct(i uint16, src StructPointer) error {
	p, ok := s.mutablePointer(i)
	if !ok {
		return pointerError(PointerOutOfRange, s.c)
	}
	if _, err := src.WordSize(); err != nil {
		return err
	}
	return copyStruct(p, src)
}

// SetList replaces the pointer at index i with a deep copy of src.
func (s StructPointer) SetList(i uint16, src ListPointer) error {
	p, ok := s.mutablePointer(i)
	if !ok {
		return pointerError(PointerOutOfRange, s.c)
	}
	if _, err := src.WordSize(); err != nil {
		return err
	}
	return copyList(p, src)
}

// SetPointer replaces the pointer at index i with a deep copy of what src points to.
func (s StructPointer) SetPointer(i uint16, src AnyPointer) error {
	p, ok := s.mutablePointer(i)
	if !ok {
		return pointerError(PointerOutOfRange, s.c)
	}
	if _, err := src.WordSize(); err != nil {
		return err
	}
	return copyPointer(p, src)
}

func copyPointer(dst AnyPointer, src AnyPointer) error {
	r, err := src.Resolve()
	if err != nil {
		return err
	}
	switch r.kind {
	case StructKind:
		return copyStruct(dst, r.st)
	case ListKind:
		return copyList(dst, r.ls)
	case CapabilityKind:
		dst.writeCapability(r.cp.Index)
	default:
		dst.write(0)
	}
	return nil
}

func copyStruct(dst AnyPointer, src StructPointer) error {
	return copyStructBody(dst.initStruct(src.size), src)
}

func copyStructBody(dst StructPointer, src StructPointer) error {
	n := int(src.size.DataBytes)
	if b := src.c.bytes(0, n); b != nil {
		copy(dst.c.mutableBytes(0, n), b)
	}
	for i := uint16(0); i < src.size.Pointers; i++ {
		sp, _ := src.pointer(i)
		dp, _ := dst.pointer(i)
		if err := copyPointer(dp, sp); err != nil {
			return err
		}
	}
	return nil
}

func copyList(dst AnyPointer, src ListPointer) error {
	ret := dst.initList(src.count, src.size)
	switch src.size.Class {
	case ElementPointer:
		for i := 0; i < src.Len(); i++ {
			sp, _ := src.Pointer(i)
			dp, _ := ret.Pointer(i)
			if err := copyPointer(dp, sp); err != nil {
				return err
			}
		}
	case ElementComposite:
		if src.size.Struct.Pointers == 0 {
			n := src.size.Struct.SizeInBytes() * src.Len()
			if b := src.c.bytes(0, n); b != nil {
				copy(ret.c.mutableBytes(0, n), b)
			}
			return nil
		}
		for i := 0; i < src.Len(); i++ {
			if err := copyStructBody(ret.Struct(i), src.Struct(i)); err != nil {
				return err
			}
		}
	default:
		n := int(rt.DivRoundUp64(src.size.Bits()*uint64(src.count), 8))
		if b := src.c.bytes(0, n); b != nil {
			copy(ret.c.mutableBytes(0, n), b)
		}
	}
	return nil
}
