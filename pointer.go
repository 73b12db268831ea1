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
	"fmt"

	"github.com/cloudwego/capnp/internal/rt"
)

// maxListElements is the largest element count (or composite body size) a list pointer holds.
const maxListElements = 1<<29 - 1

// maxCompositeElements is the largest element count of a composite tag word.
const maxCompositeElements = 1<<30 - 1

// AnyPointer is the location of a pointer word, before it is resolved to what it points to.
// The zero AnyPointer is null.
type AnyPointer struct {
	c Cursor
}

// NewAnyPointer returns the pointer stored at the word c addresses.
func NewAnyPointer(c Cursor) AnyPointer {
	return AnyPointer{c: c}
}

// Cursor returns the location of the pointer word.
func (p AnyPointer) Cursor() Cursor {
	return p.c
}

// IsNull reports whether the pointer word is zero or cannot be read.
func (p AnyPointer) IsNull() bool {
	w, _ := p.c.readWord()
	return w == 0
}

// AsReadOnly returns a copy of the pointer through which nothing can be written.
func (p AnyPointer) AsReadOnly() AnyPointer {
	return AnyPointer{c: p.c.AsReadOnly()}
}

// Freeze freezes the underlying message; see Message.Freeze.
func (p AnyPointer) Freeze() Frozen[AnyPointer] {
	return Frozen[AnyPointer]{value: AnyPointer{c: p.c.Freeze().Value()}}
}

// Resolve decodes the pointer, following far pointers. It consumes one unit of the traversal
// limit, and fails with TraversalLimitExceeded once the limit is spent. The resolved value
// carries the decremented limit, so a chain of reads starting from one pointer can make at most
// as many hops as that pointer's limit.
func (p AnyPointer) Resolve() (ResolvedPointer, error) {
	if p.c.msg == nil {
		return ResolvedPointer{}, nil
	}
	if p.c.limit == 0 {
		return ResolvedPointer{}, pointerError(TraversalLimitExceeded, p.c)
	}
	p.c.limit--
	return p.ResolveIgnoringTraversalLimit()
}

// ResolveIgnoringTraversalLimit is Resolve without the traversal limit check.
func (p AnyPointer) ResolveIgnoringTraversalLimit() (ResolvedPointer, error) {
	if p.c.msg == nil {
		return ResolvedPointer{}, nil
	}
	w, ok := p.c.readWord()
	if !ok {
		return ResolvedPointer{}, pointerError(PointerOutOfRange, p.c)
	}
	switch {
	case w&3 == tagFar:
		return p.resolveFar(w)
	case w != 0:
		return p.resolveNear(w)
	default:
		return ResolvedPointer{}, nil
	}
}

// resolveNear decodes a struct, list or capability pointer whose offset is relative to the end
// of the pointer word.
func (p AnyPointer) resolveNear(w uint64) (ResolvedPointer, error) {
	off := rawOffset(w)
	if w&3 == tagOther {
		if off != 0 {
			return ResolvedPointer{}, pointerError(UnknownPointerType, p.c)
		}
		return resolvedCapability(Capability{Index: uint32(w >> 32)}), nil
	}
	if off == -1 {
		if w == zeroSizedStruct {
			return resolvedStruct(StructPointer{c: p.c, size: EmptyStructSize}), nil
		}
		return ResolvedPointer{}, pointerError(TraversalLimitExceeded, p.c)
	}
	return p.resolveTarget(p.c, w, int64(off)+1)
}

// resolveTarget decodes a struct or list whose first word is off words from base.
func (p AnyPointer) resolveTarget(base Cursor, w uint64, off int64) (ResolvedPointer, error) {
	switch w & 3 {
	case tagStruct:
		dw, pw := rawStructSize(w)
		target, err := p.checkRange(base, off, uint64(dw)+uint64(pw))
		if err != nil {
			return ResolvedPointer{}, err
		}
		return resolvedStruct(StructPointer{
			c:    target,
			size: StructSize{DataBytes: uint32(dw) * 8, Pointers: pw},
		}), nil

	case tagList:
		class, n := rawListShape(w)
		if bits, ok := class.Bits(); ok {
			words := rt.DivRoundUp64(uint64(n)*uint64(bits), 64)
			target, err := p.checkRange(base, off, words)
			if err != nil {
				return ResolvedPointer{}, err
			}
			return resolvedList(ListPointer{
				c:     target,
				size:  ListElementSize{Class: class},
				count: n,
			}), nil
		}
		return p.resolveComposite(base, off, n)

	case tagOther:
		// Only reachable through a two-word landing pad, whose tag offset is already zero.
		return resolvedCapability(Capability{Index: uint32(w >> 32)}), nil

	default:
		return ResolvedPointer{}, pointerError(InvalidFarPointer, p.c)
	}
}

// resolveComposite decodes a list of structs: a tag word shaped like a struct pointer, whose
// offset field holds the element count, followed by the elements.
func (p AnyPointer) resolveComposite(base Cursor, off int64, words uint32) (ResolvedPointer, error) {
	target, err := p.checkRange(base, off, uint64(words)+1)
	if err != nil {
		return ResolvedPointer{}, err
	}
	tag, _ := target.readWord()
	if tag&3 != tagStruct {
		return ResolvedPointer{}, pointerError(InvalidCompositeList, p.c)
	}
	count := rt.ReadUint32(tag, 2, 30)
	dw, pw := rawStructSize(tag)
	if (uint64(dw)+uint64(pw))*uint64(count) != uint64(words) {
		return ResolvedPointer{}, pointerError(InvalidCompositeList, p.c)
	}
	return resolvedList(ListPointer{
		c:     target.advance(rt.WordSize),
		size:  CompositeSize(StructSize{DataBytes: uint32(dw) * 8, Pointers: pw}),
		count: count,
	}), nil
}

// resolveFar follows a far pointer to its landing pad in another segment.
func (p AnyPointer) resolveFar(w uint64) (ResolvedPointer, error) {
	double := (w>>2)&1 == 1
	pad := rt.ReadUint32(w, 3, 29)
	sid := uint32(w >> 32)

	m := p.c.msg
	seg := m.Segment(sid)
	if seg == nil {
		return ResolvedPointer{}, pointerError(SegmentOutOfRange, p.c)
	}
	padWords := uint64(1)
	if double {
		padWords = 2
	}
	if uint64(pad)+padWords > uint64(seg.used) {
		return ResolvedPointer{}, pointerError(PointerOutOfRange, p.c)
	}

	at := Cursor{msg: m, seg: sid, off: int(pad) * rt.WordSize, limit: p.c.limit, readOnly: p.c.readOnly}
	pw, _ := at.readWord()

	if !double {
		// A single-word landing pad is an ordinary pointer relative to itself.
		if pw&3 == tagFar {
			return ResolvedPointer{}, pointerError(InvalidFarPointer, p.c)
		}
		if pw == 0 {
			return ResolvedPointer{}, nil
		}
		return AnyPointer{c: at}.resolveNear(pw)
	}

	// A two-word landing pad is a far pointer to the start of the content, followed by a tag
	// describing the content with a zero offset.
	if pw&7 != tagFar {
		return ResolvedPointer{}, pointerError(InvalidFarPointer, p.c)
	}
	tag, _ := at.advance(rt.WordSize).readWord()
	if tag&3 == tagFar || rt.ReadUint32(tag, 2, 30) != 0 {
		return ResolvedPointer{}, pointerError(InvalidFarPointer, p.c)
	}
	content := rt.ReadUint32(pw, 3, 29)
	cid := uint32(pw >> 32)
	cseg := m.Segment(cid)
	if cseg == nil {
		return ResolvedPointer{}, pointerError(SegmentOutOfRange, p.c)
	}
	if content >= cseg.used {
		return ResolvedPointer{}, pointerError(PointerOutOfRange, p.c)
	}
	base := Cursor{msg: m, seg: cid, off: 0, limit: p.c.limit, readOnly: p.c.readOnly}
	return p.resolveTarget(base, tag, int64(content))
}

// checkRange returns a cursor to the word off words from base, checking that words words
// starting there lie within the segment.
func (p AnyPointer) checkRange(base Cursor, off int64, words uint64) (Cursor, error) {
	seg := base.segment()
	start := int64(base.off/rt.WordSize) + off
	if start < 0 || uint64(start)+words > uint64(seg.used) {
		return Cursor{}, pointerError(PointerOutOfRange, p.c)
	}
	base.off = int(start) * rt.WordSize
	return base, nil
}

// initStruct allocates a struct and points the pointer at it.
func (p AnyPointer) initStruct(size StructSize) StructPointer {
	size = size.words()
	if size.SizeInWords() == 0 {
		p.write(zeroSizedStruct)
		return StructPointer{c: p.c, size: size}
	}
	return StructPointer{c: p.allocate(size.SizeInWords(), func(off int32) uint64 {
		return rawStructPointer(off, size)
	}), size: size}
}

// validListLength reports whether a list pointer can hold count elements of the given size.
// Composite lists keep their count in the 30-bit tag word.
func validListLength(count int, size ListElementSize) bool {
	if size.Class == ElementComposite {
		return count >= 0 && count <= maxCompositeElements
	}
	return count >= 0 && count <= maxListElements
}

// initList allocates a list and points the pointer at it.
func (p AnyPointer) initList(count uint32, size ListElementSize) ListPointer {
	if size.Class == ElementComposite {
		return p.initCompositeList(count, size.Struct)
	}
	if count > maxListElements {
		panic(fmt.Sprintf("capnp: list of %d elements cannot be encoded", count))
	}
	words := rt.DivRoundUp64(size.Bits()*uint64(count), 64)
	return ListPointer{c: p.allocate(uint32(words), func(off int32) uint64 {
		return rawListPointer(off, size.Class, count)
	}), size: ListElementSize{Class: size.Class}, count: count}
}

func (p AnyPointer) initCompositeList(count uint32, size StructSize) ListPointer {
	size = size.words()
	words := uint64(size.SizeInWords()) * uint64(count)
	if count > maxCompositeElements || words > maxListElements {
		panic(fmt.Sprintf("capnp: list of %d structs of %d words cannot be encoded", count, size.SizeInWords()))
	}
	c := p.allocate(uint32(words)+1, func(off int32) uint64 {
		return rawListPointer(off, ElementComposite, uint32(words))
	})
	c.writeWord(rawCompositeTag(count, size))
	return ListPointer{c: c.advance(rt.WordSize), size: CompositeSize(size), count: count}
}

// allocate reserves words for the pointer's target and writes the pointer. The target goes in
// the pointer's own segment when it fits there. Otherwise it goes after a single-word landing
// pad in the last or a new segment, and the pointer becomes a far pointer to that pad.
func (p AnyPointer) allocate(words uint32, encode func(off int32) uint64) Cursor {
	if p.c.IsReadOnly() {
		panic("capnp: write through a read-only pointer")
	}
	m := p.c.msg
	if target, ok := m.tryAllocate(words, p.c.seg); ok {
		p.write(encode(int32((target.off-p.c.off)/rt.WordSize - 1)))
		return target
	}
	pad := m.allocate(words + 1)
	pad.writeWord(encode(0))
	p.write(rawFarPointer(pad.seg, pad.WordOffset()))
	return pad.advance(rt.WordSize)
}

func (p AnyPointer) writeCapability(index uint32) {
	p.write(rawCapabilityPointer(index))
}

func (p AnyPointer) write(w uint64) {
	if !p.c.writeWord(w) {
		panic("capnp: write through a read-only or out of range pointer")
	}
}
