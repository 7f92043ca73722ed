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

import "container/list"

// unwind walks temptation front-to-back, lying to every request the
// window still has room for. A request already absorbed into a holder by
// preprocess needs no window accounting of its own — the holder carries its
// bytes — so it is always lied about immediately. Processing stops at the
// first request that genuinely doesn't fit, preserving arrival order rather
// than letting later, smaller writes jump ahead of a blocked larger one.
// gen is bumped exactly once per request that actually joins liability — the
// moment it becomes a hazard later requests must order behind, not when it
// was enqueued.
func (s *InodeState) unwind() []*Request {
	var lies []*Request
	var next *list.Element
	for el := s.temptation.Front(); el != nil; el = next {
		next = el.Next()
		r := el.Value.(*Request)

		if !r.Absorbed {
			if s.windowCurrent+r.WriteSize > s.windowConf {
				break
			}
			s.gen++
			s.addToLiability(r)
		}

		r.Lied = true
		s.removeFromTemptation(r)
		lies = append(lies, r)
	}
	return lies
}
