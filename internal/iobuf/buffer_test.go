// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package iobuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_RefUnref(t *testing.T) {
	b := New([]byte("hello"))
	assert.Equal(t, int32(1), b.RefCount())

	b.Ref()
	assert.Equal(t, int32(2), b.RefCount())

	b.Unref()
	assert.Equal(t, int32(1), b.RefCount())
	assert.Equal(t, []byte("hello"), b.Bytes())

	b.Unref()
	assert.Nil(t, b.Bytes())
}

func TestSegment_Bytes(t *testing.T) {
	b := New([]byte("0123456789"))
	seg := Segment{Buf: b, Off: 2, Len: 4}

	assert.Equal(t, []byte("2345"), seg.Bytes())
}

func TestVector_TotalLenAndFlatten(t *testing.T) {
	b1 := New([]byte("abc"))
	b2 := New([]byte("defgh"))
	v := Vector{
		{Buf: b1, Off: 0, Len: 3},
		{Buf: b2, Off: 1, Len: 3},
	}

	assert.Equal(t, 6, v.TotalLen())
	assert.Equal(t, []byte("abcefg"), v.Flatten())
}

func TestVector_UnrefAllDeduplicatesSharedBuffer(t *testing.T) {
	b := New([]byte("shared"))
	b.Ref()
	v := Vector{
		{Buf: b, Off: 0, Len: 3},
		{Buf: b, Off: 3, Len: 3},
	}

	v.UnrefAll()

	assert.Equal(t, int32(1), b.RefCount())
}
