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

// Package capnp is a zero-copy runtime for Cap'n Proto messages.
//
// A Message is a list of segments of 64-bit words. Structs, lists and capabilities inside it are
// reached through pointer words holding offsets relative to themselves, or through far pointers
// into other segments. Field accessors read and write those words in place: nothing is decoded
// into Go values up front, and every access is checked against the bounds of its segment, so
// malformed input surfaces as a PointerError instead of a crash.
//
//	msg := capnp.NewMessage()
//	root := msg.InitRoot(capnp.StructSize{DataBytes: 8, Pointers: 1})
//	root.WriteInt64(456, 0, 123)
//	root.SetText(0, "hello")
//
//	buf := capnp.Marshal(msg)
//	dup, err := capnp.Unmarshal(buf)
//
// Messages travel over byte streams in the standard stream framing. MessageStreamDecoder
// reassembles them from chunks of any size, optionally aliasing the caller's bytes instead of
// copying them.
package capnp
