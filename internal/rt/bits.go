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

// OneBits returns a mask with the lowest n bits set.
func OneBits(n uint) uint64 {
	if n >= 64 {
		return math.MaxUint64
	}
	return (1 << n) - 1
}

// ReadUint32 extracts an unsigned bit field of the given width starting at bit off.
func ReadUint32(w uint64, off uint, width uint) uint32 {
	return uint32((w >> off) & OneBits(width))
}

// ReadInt32 extracts a signed bit field of the given width starting at bit off,
// sign-extending it to 32 bits.
func ReadInt32(w uint64, off uint, width uint) int32 {
	v := ReadUint32(w, off, width)
	m := uint32(1) << (width - 1)
	return int32((v ^ m) - m)
}

// DivRoundUp32 returns ceil(a / b).
func DivRoundUp32(a, b uint32) uint32 {
	q, r := a/b, a%b
	if r != 0 {
		q++
	}
	return q
}

// DivRoundUp64 returns ceil(a / b).
func DivRoundUp64(a, b uint64) uint64 {
	q, r := a/b, a%b
	if r != 0 {
		q++
	}
	return q
}

// NextPowerOfTwo returns the smallest power of two >= v, with 0 and 1 mapping to 1.
// Values above 1<<31 wrap to 0.
func NextPowerOfTwo(v uint32) uint32 {
	if v <= 1 {
		return 1
	}
	return uint32(1) << (32 - bits.LeadingZeros32(v-1))
}
