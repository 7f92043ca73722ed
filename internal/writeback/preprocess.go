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
	"container/list"
	"context"

	"github.com/amarts/writeback/common"
)

// preprocess walks todo once, coalescing adjacent small tempted writes into
// a single growing holder and sealing holders that can no longer accept
// more. s.mu must be held.
func (e *Engine) preprocess(s *InodeState) {
	pageSize := int64(e.cfg.Window.PageSize)

	var holder *Request
	var next *list.Element
	for el := s.todo.Front(); el != nil; el = next {
		next = el.Next()
		r := el.Value.(*Request)

		if r.Kind != KindWrite || !r.Tempted {
			// A read or metadata op (or a direct write) can't be merged and
			// forces the current holder closed: anything arriving after it
			// must not be silently folded into a holder the picker might
			// already have dispatched ahead of this barrier.
			if holder != nil {
				holder.Go = true
				holder = nil
			}
			continue
		}

		if holder != nil && canCoalesce(holder, r, pageSize) {
			e.coalesce(s, holder, r)
			continue
		}

		if holder != nil {
			holder.Go = true
		}
		holder = r
	}

	if holder != nil && e.cfg.Behavior.TricklingWrites && !holder.trickleScheduled {
		holder.trickleScheduled = true
		e.armTrickle(s, holder)
	}
}

// canCoalesce reports whether req may be folded into holder: same
// descriptor and lock owner (coalescing two different lockers' writes would
// change their mutual ordering), immediately contiguous, and not pushing
// the holder past the configured page size.
func canCoalesce(holder, req *Request, pageSize int64) bool {
	if holder.Go {
		return false
	}
	if holder.Fd != req.Fd || holder.LockOwner != req.LockOwner {
		return false
	}
	if req.Offset != holder.Offset+holder.WriteSize {
		return false
	}
	if pageSize > 0 && holder.WriteSize+req.WriteSize > pageSize {
		return false
	}
	return true
}

// coalesce absorbs req's payload into holder and detaches req from todo.
// req keeps its place on temptation (it still needs its own lie) but is
// marked Absorbed so unwind skips window/liability accounting for it.
func (e *Engine) coalesce(s *InodeState, holder, req *Request) {
	for _, seg := range req.Segs {
		seg.Buf.Ref()
	}
	holder.Segs = append(holder.Segs, req.Segs...)
	holder.WriteSize += req.WriteSize
	if holder.liabilityElem != nil {
		// The holder was already lied about and counted in the window at
		// its old size; count the absorbed bytes too.
		s.windowCurrent += req.WriteSize
	}
	req.Absorbed = true
	s.removeFromTodo(req)
	e.metrics.CoalesceMergeCount(context.Background(), 1, []common.MetricAttr{{Key: common.RequestKindKey, Value: KindWrite.String()}})
}

// armTrickle schedules holder to be sealed for dispatch once no traffic has
// been in flight for a short debounce window, so a dispatch decision isn't
// made while a burst of contiguous writes is still arriving.
func (e *Engine) armTrickle(s *InodeState, holder *Request) {
	go func() {
		<-e.clk.After(e.trickleDelay)

		s.mu.Lock()
		holder.trickleScheduled = false
		seal := s.transit == 0 && !holder.Go && holder.todoElem != nil
		if seal {
			holder.Go = true
		}
		s.mu.Unlock()

		if seal {
			e.processQueue(context.Background(), s)
		}
	}()
}
