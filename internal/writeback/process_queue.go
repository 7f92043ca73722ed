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
)

// processQueue arms exactly one background pass over s: preprocess, then
// unwind (lying), then pick (splitting todo into ready tasks/liabilities),
// then dispatch. At most one pass per inode is ever running or queued, so
// back-to-back Enqueue calls from a burst of callers collapse into
// whichever pass actually gets to run first, which is what lets
// independently-arriving contiguous writes land in the same batch instead
// of each being dispatched alone.
func (e *Engine) processQueue(ctx context.Context, s *InodeState) {
	s.mu.Lock()
	if s.queueScheduled {
		s.mu.Unlock()
		return
	}
	s.queueScheduled = true
	s.mu.Unlock()

	e.schedule(false, func() { e.runQueue(ctx, s) })
}

// runQueue repeats one pass for as long as each pass makes forward
// progress, so a single Enqueue's processQueue call fully drains whatever
// became dispatchable as a result (rather than leaving it for some later
// caller to discover).
func (e *Engine) runQueue(ctx context.Context, s *InodeState) {
	for {
		s.mu.Lock()
		e.preprocess(s)
		lies := s.unwind()
		tasks, liabilities := e.pick(s)

		if len(lies) == 0 && len(tasks) == 0 && len(liabilities) == 0 {
			s.queueScheduled = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		for _, lie := range lies {
			if !lie.Absorbed {
				e.metrics.LieCount(ctx, 1, []common.MetricAttr{{Key: common.RequestKindKey, Value: KindWrite.String()}})
			}
			lie.Call.Complete(lie.OpRet, nil)
		}
		for _, t := range tasks {
			e.resumeTask(ctx, s, t)
		}
		if len(liabilities) > 0 {
			e.fulfill(ctx, s, liabilities)
		}
	}
}
