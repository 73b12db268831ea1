/*
 * Copyright 2021 ByteDance Inc.
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

package iovec

import (
	"bytes"
	"io"
	"net"
)

// SimpleIoVec provides a very basic implementation of IoVec using bytes.Buffer.
// Every buffer put into it is copied.
type SimpleIoVec struct {
	bytes.Buffer
}

func (self *SimpleIoVec) Put(v []byte) {
	_, _ = self.Write(v)
}

func (self *SimpleIoVec) Cat(v []byte, w []byte) {
	self.Put(v)
	self.Put(w)
}

func (self *SimpleIoVec) Add(n int, v []byte) []byte {
	self.Put(v)
	self.Grow(n)
	return self.Bytes()[self.Len():]
}

// BufferIoVec collects buffers without copying them, for a single vectored
// write with WriteTo.
type BufferIoVec struct {
	bufs net.Buffers
	size int
}

func (self *BufferIoVec) Put(v []byte) {
	if len(v) != 0 {
		self.bufs = append(self.bufs, v)
		self.size += len(v)
	}
}

func (self *BufferIoVec) Cat(v []byte, w []byte) {
	self.Put(v)
	self.Put(w)
}

func (self *BufferIoVec) Add(n int, v []byte) []byte {
	self.Put(v)
	return make([]byte, 0, n)
}

// Len returns the total number of bytes put into the vector.
func (self *BufferIoVec) Len() int {
	return self.size
}

// Bytes returns the buffers put into the vector.
func (self *BufferIoVec) Bytes() [][]byte {
	return self.bufs
}

// WriteTo writes all buffers to w and empties the vector.
func (self *BufferIoVec) WriteTo(w io.Writer) (int64, error) {
	bufs := self.bufs
	self.bufs, self.size = nil, 0
	return bufs.WriteTo(w)
}
