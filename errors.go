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

// PointerErrorCode identifies the invariant a pointer violated.
type PointerErrorCode uint8

const (
	SegmentOutOfRange PointerErrorCode = iota + 1
	PointerOutOfRange
	TraversalLimitExceeded
	UnknownPointerType
	InvalidCompositeList
	InvalidFarPointer
	UnexpectedPointerType
	SizeOverflow
)

var pointerErrorText = [...]string{
	SegmentOutOfRange:      "segment out of range",
	PointerOutOfRange:      "pointer out of range",
	TraversalLimitExceeded: "traversal limit exceeded",
	UnknownPointerType:     "unknown pointer type",
	InvalidCompositeList:   "invalid composite list",
	InvalidFarPointer:      "invalid far pointer",
	UnexpectedPointerType:  "unexpected pointer type",
	SizeOverflow:           "size overflow",
}

func (self PointerErrorCode) String() string {
	if int(self) < len(pointerErrorText) && pointerErrorText[self] != "" {
		return pointerErrorText[self]
	}
	return fmt.Sprintf("PointerErrorCode(%d)", uint8(self))
}

// PointerError occurs when a pointer word cannot be decoded or dereferenced. Segment and
// Word locate the offending pointer; Word is negative when the location is unknown.
type PointerError struct {
	Code    PointerErrorCode
	Segment uint32
	Word    int
}

func (self PointerError) Error() string {
	if self.Word < 0 {
		return "capnp: " + self.Code.String()
	} else {
		return fmt.Sprintf("capnp: %s (segment %d, word %d)", self.Code, self.Segment, self.Word)
	}
}

// Is reports whether target is a PointerError with the same code.
func (self PointerError) Is(target error) bool {
	if e, ok := target.(PointerError); ok {
		return e.Code == self.Code
	}
	return false
}

var (
	ErrSegmentOutOfRange      error = PointerError{Code: SegmentOutOfRange, Word: -1}
	ErrPointerOutOfRange      error = PointerError{Code: PointerOutOfRange, Word: -1}
	ErrTraversalLimitExceeded error = PointerError{Code: TraversalLimitExceeded, Word: -1}
	ErrUnknownPointerType     error = PointerError{Code: UnknownPointerType, Word: -1}
	ErrInvalidCompositeList   error = PointerError{Code: InvalidCompositeList, Word: -1}
	ErrInvalidFarPointer      error = PointerError{Code: InvalidFarPointer, Word: -1}
	ErrUnexpectedPointerType  error = PointerError{Code: UnexpectedPointerType, Word: -1}
	ErrSizeOverflow           error = PointerError{Code: SizeOverflow, Word: -1}
)

// StreamErrorCode identifies why a stream frame was rejected.
type StreamErrorCode uint8

const (
	NotEnoughData StreamErrorCode = iota + 1
	IndexOutOfBounds
	IntegerOverflow
)

func (self StreamErrorCode) String() string {
	switch self {
	case NotEnoughData:
		return "not enough data"
	case IndexOutOfBounds:
		return "index out of bounds"
	case IntegerOverflow:
		return "size integer overflow"
	default:
		return fmt.Sprintf("StreamErrorCode(%d)", uint8(self))
	}
}

// StreamError occurs when a message cannot be decoded from its stream framing. Pos is the
// byte position in the stream at which the problem was detected.
type StreamError struct {
	Code   StreamErrorCode
	Pos    int
	Reason string
}

func (self StreamError) Error() string {
	if self.Reason != "" {
		return fmt.Sprintf("capnp: %s at position %d: %s", self.Code, self.Pos, self.Reason)
	} else {
		return fmt.Sprintf("capnp: %s at position %d", self.Code, self.Pos)
	}
}

// Is reports whether target is a StreamError with the same code.
func (self StreamError) Is(target error) bool {
	if e, ok := target.(StreamError); ok {
		return e.Code == self.Code
	}
	return false
}

var (
	ErrNotEnoughData    error = StreamError{Code: NotEnoughData}
	ErrIndexOutOfBounds error = StreamError{Code: IndexOutOfBounds}
	ErrIntegerOverflow  error = StreamError{Code: IntegerOverflow}
)

func pointerError(code PointerErrorCode, c Cursor) error {
	return PointerError{Code: code, Segment: c.seg, Word: c.off / 8}
}

func streamError(code StreamErrorCode, pos int, reason string) error {
	return StreamError{Code: code, Pos: pos, Reason: reason}
}
