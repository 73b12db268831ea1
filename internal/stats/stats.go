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

package stats

import (
	"sync/atomic"
)

var (
	SegmentCount     uint64 = 0
	SegmentWords     uint64 = 0
	BorrowedSegments uint64 = 0
	CopiedSegments   uint64 = 0
	DecodedMessages  uint64 = 0
	EncodedMessages  uint64 = 0
	DeepCopies       uint64 = 0
	CopiedWords      uint64 = 0
	FrozenInPlace    uint64 = 0
	FrozenByCopy     uint64 = 0
)

// Segment records a freshly allocated segment of the given capacity.
func Segment(words uint32) {
	atomic.AddUint64(&SegmentCount, 1)
	atomic.AddUint64(&SegmentWords, uint64(words))
}

func Borrowed() { atomic.AddUint64(&BorrowedSegments, 1) }
func Copied()   { atomic.AddUint64(&CopiedSegments, 1) }
func Decoded()  { atomic.AddUint64(&DecodedMessages, 1) }
func Encoded()  { atomic.AddUint64(&EncodedMessages, 1) }

// DeepCopy records a completed deep copy of the given size.
func DeepCopy(words uint32) {
	atomic.AddUint64(&DeepCopies, 1)
	atomic.AddUint64(&CopiedWords, uint64(words))
}

// Freeze records a freeze, either in place or through a copy.
func Freeze(copied bool) {
	if copied {
		atomic.AddUint64(&FrozenByCopy, 1)
	} else {
		atomic.AddUint64(&FrozenInPlace, 1)
	}
}

// Load reads a counter.
func Load(p *uint64) int {
	return int(atomic.LoadUint64(p))
}
