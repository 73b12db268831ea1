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

import (
	"os"
	"strconv"
)

const (
	MaxTraversalLimit = 1<<15 - 1 // limits are 15-bit counters
	MinSegmentWords   = 1
)

const (
	_DefaultTraversalLimit  = 64
	_DefaultSegmentWords    = 256
	_DefaultMaxSegments     = 512
	_DefaultMaxMessageWords = 8 << 20 // 64MiB of segment data
)

var (
	TraversalLimit  = parseOrDefault("CAPNP_TRAVERSAL_LIMIT", _DefaultTraversalLimit, 0, MaxTraversalLimit)
	SegmentWords    = parseOrDefault("CAPNP_SEGMENT_WORDS", _DefaultSegmentWords, MinSegmentWords-1, 1<<29-1)
	MaxSegments     = parseOrDefault("CAPNP_MAX_SEGMENTS", _DefaultMaxSegments, 0, 1<<32-1)
	MaxMessageWords = parseOrDefault("CAPNP_MAX_MESSAGE_WORDS", _DefaultMaxMessageWords, 0, 1<<61-1)
)

func parseOrDefault(key string, def int, min int, max uint64) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("capnp: invalid value for " + key)
	} else if val > max {
		panic("capnp: value too large for " + key)
	} else if ret := int(val); ret <= min {
		panic("capnp: value too small for " + key)
	} else {
		return ret
	}
}
