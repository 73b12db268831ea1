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
)

// PointerKind is the kind of value a pointer resolves to.
type PointerKind uint8

const (
	NullPointer PointerKind = iota
	StructKind
	ListKind
	CapabilityKind
)

func (k PointerKind) String() string {
	switch k {
	case NullPointer:
		return "null"
	case StructKind:
		return "struct"
	case ListKind:
		return "list"
	case CapabilityKind:
		return "capability"
	default:
		return fmt.Sprintf("PointerKind(%d)", uint8(k))
	}
}

// Capability is an index into the capability table of a message.
type Capability struct {
	Index uint32
}

// ResolvedPointer is what a pointer word denotes after following far pointers: nothing, a
// struct, a list or a capability.
type ResolvedPointer struct {
	kind PointerKind
	st   StructPointer
	ls   ListPointer
	cp   Capability
}

func resolvedStruct(s StructPointer) ResolvedPointer {
	return ResolvedPointer{kind: StructKind, st: s}
}

func resolvedList(l ListPointer) ResolvedPointer {
	return ResolvedPointer{kind: ListKind, ls: l}
}

func resolvedCapability(c Capability) ResolvedPointer {
	return ResolvedPointer{kind: CapabilityKind, cp: c}
}

// Kind returns the kind of the resolved value.
func (p ResolvedPointer) Kind() PointerKind {
	return p.kind
}

// IsNull reports whether the pointer was null.
func (p ResolvedPointer) IsNull() bool {
	return p.kind == NullPointer
}

// ExpectStruct returns the struct, or UnexpectedPointerType if the pointer is not one.
func (p ResolvedPointer) ExpectStruct() (StructPointer, error) {
	if p.kind != StructKind {
		return StructPointer{}, ErrUnexpectedPointerType
	}
	return p.st, nil
}

// ExpectList returns the list, or UnexpectedPointerType if the pointer is not one.
func (p ResolvedPointer) ExpectList() (ListPointer, error) {
	if p.kind != ListKind {
		return ListPointer{}, ErrUnexpectedPointerType
	}
	return p.ls, nil
}

// ExpectCapability returns the capability, or UnexpectedPointerType if the pointer is not one.
func (p ResolvedPointer) ExpectCapability() (Capability, error) {
	if p.kind != CapabilityKind {
		return Capability{}, ErrUnexpectedPointerType
	}
	return p.cp, nil
}
