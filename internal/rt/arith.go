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

package rt

import (
	"math"
	"math/bits"
)

// AddInt returns a + b and whether the result did not overflow.
func AddInt(a, b int) (int, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return c, false
	}
	return c, true
}

// AddUint32 returns a + b and whether the result did not overflow.
func AddUint32(a, b uint32) (uint32, bool) {
	c, carry := bits.Add32(a, b, 0)
	return c, carry == 0
}

// WordsToBytes64 converts a 64-bit word count to a byte count.
func WordsToBytes64(w uint64) (int, bool) {
	if w > math.MaxInt/WordSize {
		return 0, false
	}
	return int(w) * WordSize, true
}
