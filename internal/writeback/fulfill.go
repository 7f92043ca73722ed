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

	"github.com/amarts/writeback/common"
	"github.com/amarts/writeback/internal/transport"
)

// maxVectorCount bounds how many distinct requests one batched writev may
// span, independent of the aggregate byte cap.
const maxVectorCount = 8

// batch is a run of liabilities the fulfiller dispatches as one writev.
type batch struct {
	fd        transport.Handle
	lockOwner uint64
	flags     transport.OpenFlag
	offset    int64
	size      int64
	members   []*Request
}

// fulfill groups liabilities (already detached from todo, already lied
// about) into batches and dispatches each on the background pool. A
// member's own caller was already told it succeeded; this is purely the
// real write actually landing.
func (e *Engine) fulfill(ctx context.Context, s *InodeState, liabilities []*Request) {
	aggregateSize := int64(e.cfg.Window.AggregateSize)

	var batches []*batch
	var cur *batch
	for _, r := range liabilities {
		if cur != nil && cur.fd == r.Fd && cur.lockOwner == r.LockOwner &&
			cur.offset+cur.size == r.Offset &&
			cur.size+r.WriteSize <= aggregateSize &&
			len(cur.members) < maxVectorCount {
			cur.size += r.WriteSize
			cur.members = append(cur.members, r)
			continue
		}
		cur = &batch{fd: r.Fd, lockOwner: r.LockOwner, flags: r.Flags, offset: r.Offset, size: r.WriteSize, members: []*Request{r}}
		batches = append(batches, cur)
	}

	for _, b := range batches {
		s.mu.Lock()
		s.transit += b.size
		s.mu.Unlock()
		e.schedule(false, func(b *batch) func() {
			return func() { e.dispatchBatch(ctx, s, b) }
		}(b))
	}
}

func (e *Engine) dispatchBatch(ctx context.Context, s *InodeState, b *batch) {
	iov := make([][]byte, 0, len(b.members))
	for _, m := range b.members {
		for _, seg := range m.Segs {
			iov = append(iov, seg.Bytes())
		}
	}

	start := e.clk.Now()
	n, errno, _, _ := e.down.Writev(ctx, b.fd, iov, b.offset, b.flags, b)
	latency := e.clk.Now().Sub(start)
	if latency < 0 {
		latency = 0
	}

	if errno == nil && n < b.size {
		errno = ErrShortWrite
	}

	s.mu.Lock()
	s.transit -= b.size
	if errno != nil {
		s.latchError(n, errno)
		e.metrics.LatchedErrorCount(ctx, 1, []common.MetricAttr{{Key: common.RequestKindKey, Value: KindWrite.String()}})
	}
	for _, m := range b.members {
		m.Fulfilled = true
		s.removeFromLiability(m)
	}
	s.mu.Unlock()

	common.CaptureFulfillMetrics(ctx, e.metrics, latency, b.size, len(b.members))
	e.processQueue(ctx, s)
}
