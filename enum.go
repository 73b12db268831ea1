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

// EnumValue is the raw 16-bit value of an enum or union discriminant. Values unknown to the
// reader are preserved as is.
type EnumValue uint16

// Is reports whether the value is v, for comparing against generated enum constants.
func (e EnumValue) Is(v uint16) bool {
	return uint16(e) == v
}
