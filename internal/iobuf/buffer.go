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

// Package iobuf provides a small reference-counted byte buffer. The engine
// hands the same backing buffer to several requests at once (a request's
// payload stays alive as a liability, and the fulfiller builds a batched
// iovec referencing the payloads of every request in the batch) and needs a
// lifetime signal independent of any one of them finishing first.
package iobuf

import "sync/atomic"

// Buffer is a reference-counted wrapper around a byte slice. The zero value
// is not usable; construct one with New.
type Buffer struct {
	data []byte
	ref  int32
}

// New wraps data with an initial reference count of 1. The Buffer takes
// ownership of data — callers must not mutate it afterward.
func New(data []byte) *Buffer {
	return &Buffer{data: data, ref: 1}
}

// Ref increments the reference count and returns the same Buffer, so it can
// be chained at the call site that hands the buffer to a new owner:
//
//	req.iobref = buf.Ref()
func (b *Buffer) Ref() *Buffer {
	atomic.AddInt32(&b.ref, 1)
	return b
}

// Unref decrements the reference count. Once it reaches zero the backing
// slice is released (set to nil) so it can be garbage collected without
// waiting on whatever last held the *Buffer pointer.
func (b *Buffer) Unref() {
	if atomic.AddInt32(&b.ref, -1) <= 0 {
		b.data = nil
	}
}

// RefCount reports the current reference count. Exposed for tests and
// observability dumps, not for lifetime decisions by callers.
func (b *Buffer) RefCount() int32 {
	return atomic.LoadInt32(&b.ref)
}

// Bytes returns the backing slice. The result is only valid as long as the
// caller holds a reference.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the length of the backing slice.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Segment is one piece of a scatter/gather vector: a byte range into a
// reference-counted Buffer. Multiple Segments may reference the same Buffer
// at disjoint offsets. A coalescing holder's Vector holds one Segment per
// contributing request, each over that request's own Buffer.
type Segment struct {
	Buf *Buffer
	Off int
	Len int
}

// Bytes returns the Segment's byte range.
func (s Segment) Bytes() []byte {
	return s.Buf.Bytes()[s.Off : s.Off+s.Len]
}

// Vector is a scatter/gather list of Segments, the iovec analogue passed to
// Writev/Readv.
type Vector []Segment

// TotalLen sums the length of every Segment in the vector.
func (v Vector) TotalLen() int {
	n := 0
	for _, s := range v {
		n += s.Len
	}
	return n
}

// Flatten copies every Segment's bytes into one contiguous slice. Used when
// handing a batch to a transport that only accepts a single []byte (tests,
// simple in-memory backends); real downward transports should prefer
// iterating the Vector directly to avoid the copy.
func (v Vector) Flatten() []byte {
	out := make([]byte, 0, v.TotalLen())
	for _, s := range v {
		out = append(out, s.Bytes()...)
	}
	return out
}

// UnrefAll releases every distinct Buffer referenced by the vector exactly
// once, even if multiple Segments share a Buffer.
func (v Vector) UnrefAll() {
	seen := make(map[*Buffer]bool, len(v))
	for _, s := range v {
		if !seen[s.Buf] {
			seen[s.Buf] = true
			s.Buf.Unref()
		}
	}
}
