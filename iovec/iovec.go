/*
 * Copyright 2021 ByteDance Inc.
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

// Package iovec collects the pieces of a serialized message without joining
// them. Message.SerializeTo fills the stream header into a buffer taken from
// Add, and hands over segments as they are.
package iovec

// IoVec is the sink of Message.SerializeTo.
type IoVec interface {
	// Put appends v. Segments are passed through Put by reference, so an
	// implementation that keeps v must not see it change until the vector
	// has been consumed.
	Put(v []byte)

	// Cat appends v then w. SerializeTo uses it for the header and the first
	// segment.
	Cat(v []byte, w []byte)

	// Add appends v, which must be nil or a buffer returned by an earlier
	// call to Add, and returns an empty buffer with room for at least n
	// bytes for the caller to fill.
	Add(n int, v []byte) []byte
}
