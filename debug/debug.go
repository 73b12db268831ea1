/*
 * Copyright 2022 CloudWeGo Authors
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

package debug

import (
	"github.com/cloudwego/capnp/internal/stats"
)

// A Stats records statistics about the message runtime.
type Stats struct {
	Memory MemStats
	Stream StreamStats
	Copy   CopyStats
}

// A MemStats records statistics about segment allocation.
type MemStats struct {
	Alloc    int
	Count    int
	Borrowed int
	Copied   int
}

// A StreamStats records statistics about stream framing.
type StreamStats struct {
	Encoded int
	Decoded int
}

// A CopyStats records statistics about deep copies and freezes.
type CopyStats struct {
	Count         int
	Words         int
	FrozenInPlace int
	FrozenByCopy  int
}

// GetStats returns statistics of the message runtime.
func GetStats() Stats {
	return Stats{
		Memory: MemStats{
			Count:    stats.Load(&stats.SegmentCount),
			Alloc:    stats.Load(&stats.SegmentWords) * 8,
			Borrowed: stats.Load(&stats.BorrowedSegments),
			Copied:   stats.Load(&stats.CopiedSegments),
		},
		Stream: StreamStats{
			Encoded: stats.Load(&stats.EncodedMessages),
			Decoded: stats.Load(&stats.DecodedMessages),
		},
		Copy: CopyStats{
			Count:         stats.Load(&stats.DeepCopies),
			Words:         stats.Load(&stats.CopiedWords),
			FrozenInPlace: stats.Load(&stats.FrozenInPlace),
			FrozenByCopy:  stats.Load(&stats.FrozenByCopy),
		},
	}
}
