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

	"github.com/cloudwego/capnp/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithTraversalLimit sets the number of pointers that may be dereferenced along any path from
// the root of a message.
//
// Every resolved pointer consumes one unit of the limit, so a chain of pointers longer than the
// limit fails with TraversalLimitExceeded. This bounds the work done on hostile messages whose
// pointers form cycles.
//
// The default value of this option is "64", and it can not exceed MaxTraversalLimit.
func WithTraversalLimit(limit int) Option {
	if limit <= 0 || limit > MaxTraversalLimit {
		panic(fmt.Sprintf("capnp: invalid traversal limit: %d", limit))
	} else {
		return func(o *opts.Options) { o.TraversalLimit = uint16(limit) }
	}
}

// WithSegmentWords sets the capacity in words of the first segment of a new message.
//
// Messages that outgrow it get additional segments, each at least twice as large as the one
// before.
//
// The default value of this option is "256".
func WithSegmentWords(words int) Option {
	if words < opts.MinSegmentWords || words > maxSegmentWords {
		panic(fmt.Sprintf("capnp: invalid segment size: %d", words))
	} else {
		return func(o *opts.Options) { o.SegmentWords = uint32(words) }
	}
}

// WithMaxSegments sets the largest number of segments a decoded message may declare.
//
// Set this option to "0" disables this limit.
//
// The default value of this option is "512".
func WithMaxSegments(n int) Option {
	if n < 0 || uint64(n) > 1<<32-1 {
		panic(fmt.Sprintf("capnp: invalid segment count limit: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxSegments = uint32(n) }
	}
}

// WithMaxMessageWords sets the largest number of words a decoded message may declare across all
// of its segments. The decoder rejects larger messages before allocating anything for them.
//
// The message keeps the limit: deep copies out of it (Copy, WordSize) fail with ErrSizeOverflow
// once they grow past it.
//
// Set this option to "0" disables this limit, leaving copies bounded by the largest segment.
//
// The default value of this option is "8388608" (64MiB).
func WithMaxMessageWords(words int) Option {
	if words < 0 {
		panic(fmt.Sprintf("capnp: invalid message size limit: %d", words))
	} else {
		return func(o *opts.Options) { o.MaxMessageWords = uint64(words) }
	}
}

// WithBorrowSegments makes decoders alias the bytes they are given instead of copying them,
// whenever a whole segment arrives in one piece.
//
// The caller must keep those bytes alive and unchanged for as long as the decoded message is
// in use.
func WithBorrowSegments(borrow bool) Option {
	return func(o *opts.Options) { o.BorrowSegments = borrow }
}

// SetTraversalLimit sets the default traversal limit for all messages from now on.
//
// This value can also be configured with the `CAPNP_TRAVERSAL_LIMIT` environment variable.
//
// The default value of this option is "64".
//
// Returns the old opts.TraversalLimit value.
func SetTraversalLimit(limit int) int {
	if limit <= 0 || limit > MaxTraversalLimit {
		panic(fmt.Sprintf("capnp: invalid traversal limit: %d", limit))
	}
	limit, opts.TraversalLimit = opts.TraversalLimit, limit
	return limit
}

// SetSegmentWords sets the default first segment capacity for all messages from now on.
//
// This value can also be configured with the `CAPNP_SEGMENT_WORDS` environment variable.
//
// The default value of this option is "256".
//
// Returns the old opts.SegmentWords value.
func SetSegmentWords(words int) int {
	if words < opts.MinSegmentWords || words > maxSegmentWords {
		panic(fmt.Sprintf("capnp: invalid segment size: %d", words))
	}
	words, opts.SegmentWords = opts.SegmentWords, words
	return words
}
