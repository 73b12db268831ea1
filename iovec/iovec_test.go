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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimpleIoVec(t *testing.T) {
	var v SimpleIoVec
	v.Put([]byte("ab"))
	b := v.Add(4, nil)[:4]
	copy(b, "cdef")
	v.Put(b)
	v.Cat([]byte("g"), []byte("h"))
	require.Equal(t, "abcdefgh", v.String())
}

func TestBufferIoVec(t *testing.T) {
	var v BufferIoVec
	x := []byte("ab")
	v.Put(x)
	v.Put(nil)
	b := v.Add(2, nil)[:2]
	copy(b, "cd")
	v.Cat(b, []byte("ef"))
	require.Equal(t, 6, v.Len())
	require.Len(t, v.Bytes(), 3)

	// buffers are kept by reference
	x[0] = 'A'
	var out bytes.Buffer
	n, err := v.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
	require.Equal(t, "Abcdef", out.String())
	require.Zero(t, v.Len())
	require.Empty(t, v.Bytes())
}
