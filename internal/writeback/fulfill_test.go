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

package writeback

import (
	"context"
	"testing"

	"github.com/amarts/writeback/cfg"
	"github.com/amarts/writeback/internal/iobuf"
	"github.com/amarts/writeback/internal/transport"
)

// newLiability builds a lied-about write Request ready to hand to fulfill,
// bypassing the engine's own enqueue path for a focused unit test of batch
// grouping.
func newLiability(fd transport.Handle, offset int64, data []byte) *Request {
	buf := iobuf.New(data)
	return &Request{
		Kind:      KindWrite,
		Call:      noopCall{},
		Fd:        fd,
		Offset:    offset,
		WriteSize: int64(len(data)),
		OrigSize:  int64(len(data)),
		IOBuf:     buf,
		Segs:      iobuf.Vector{{Buf: buf, Off: 0, Len: len(data)}},
		Tempted:   true,
		Lied:      true,
	}
}

type noopCall struct{}

func (noopCall) Complete(int64, error) {}

func TestFulfill_ContiguousLiabilitiesOneBatch(t *testing.T) {
	e, fake := newTestEngine(t, nil)
	s := newInodeState("/f", int64(e.cfg.Window.CacheSize), false)

	a := newLiability(1, 0, []byte("hello"))
	b := newLiability(1, 5, []byte("world"))
	for _, r := range []*Request{a, b} {
		s.addToLiability(r)
	}

	e.fulfill(context.Background(), s, []*Request{a, b})
	waitForWritevCalls(t, fake, 1)

	if got := string(fake.Contents(1)); got != "helloworld" {
		t.Fatalf("contiguous liabilities should merge into one writev, got %q", got)
	}
	if n := fake.WritevCallCount(); n != 1 {
		t.Fatalf("contiguous liabilities should go out as one writev, saw %d", n)
	}
}

func TestFulfill_GapBreaksBatch(t *testing.T) {
	e, fake := newTestEngine(t, nil)
	s := newInodeState("/f", int64(e.cfg.Window.CacheSize), false)

	a := newLiability(1, 0, []byte("hello"))
	b := newLiability(1, 100, []byte("world"))
	for _, r := range []*Request{a, b} {
		s.addToLiability(r)
	}

	e.fulfill(context.Background(), s, []*Request{a, b})
	waitForWritevCalls(t, fake, 2)
}

func TestFulfill_AggregateSizeCapBreaksBatch(t *testing.T) {
	e, fake := newTestEngine(t, func(c *cfg.Config) {
		c.Window.AggregateSize = 8
	})
	s := newInodeState("/f", int64(e.cfg.Window.CacheSize), false)

	a := newLiability(1, 0, []byte("hello")) // 5 bytes
	b := newLiability(1, 5, []byte("world")) // 5 more, 10 total > cap of 8
	for _, r := range []*Request{a, b} {
		s.addToLiability(r)
	}

	e.fulfill(context.Background(), s, []*Request{a, b})
	waitForWritevCalls(t, fake, 2)
}
