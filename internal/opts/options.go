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

package opts

type Options struct {
	TraversalLimit  uint16
	SegmentWords    uint32
	MaxSegments     uint32
	MaxMessageWords uint64
	BorrowSegments  bool
}

// CanAcceptSegments reports whether a stream header declaring n segments is acceptable.
func (self *Options) CanAcceptSegments(n uint64) bool {
	return self.MaxSegments == 0 || n <= uint64(self.MaxSegments)
}

// CanAcceptWords reports whether a message holding w words of segment data is acceptable.
func (self *Options) CanAcceptWords(w uint64) bool {
	return self.MaxMessageWords == 0 || w <= self.MaxMessageWords
}

func GetDefaultOptions() Options {
	return Options{
		TraversalLimit:  uint16(TraversalLimit),
		SegmentWords:    uint32(SegmentWords),
		MaxSegments:     uint32(MaxSegments),
		MaxMessageWords: uint64(MaxMessageWords),
		BorrowSegments:  false,
	}
}
