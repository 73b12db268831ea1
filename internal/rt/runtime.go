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
	"encoding/binary"
)

// WordSize is the size of a word in bytes.
const WordSize = 8

// Load8 reads a byte at offset off.
func Load8(b []byte, off int) uint8 {
	return b[off]
}

// Load16 reads a little-endian uint16 at offset off.
func Load16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

// Load32 reads a little-endian uint32 at offset off.
func Load32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

// Load64 reads a little-endian uint64 at offset off.
func Load64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off:])
}

func Store8(b []byte, off int, v uint8) {
	b[off] = v
}

func Store16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:], v)
}

func Store32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:], v)
}

func Store64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:], v)
}
