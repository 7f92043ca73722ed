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

// pick walks todo once, splitting it into requests ready to be dispatched
// now: tempted writes become liabilities to fulfill, everything else
// becomes a task to resume. A request is left in todo, untouched, if it
// conflicts with an older outstanding liability or (being a tempted write)
// hasn't been sealed for dispatch yet. s.mu must be held.
func (e *Engine) pick(s *InodeState) (tasks, liabilities []*Request) {
	liabs := s.liabilities()
	strict := e.cfg.Behavior.StrictWriteOrdering

	var next *list.Element
	for el := s.todo.Front(); el != nil; el = next {
		next = el.Next()
		r := el.Value.(*Request)

		if conflictsWithAny(r, liabs, strict) {
			continue
		}
		if r.Kind == KindWrite && r.Tempted && (!r.Lied || !r.Go) {
			continue
		}

		if r.Kind == KindWrite && r.Tempted {
			s.removeFromTodo(r)
			liabilities = append(liabilities, r)
		} else {
			// Hold an extra reference across the gap between leaving todo
			// and resumeTask's own cleanup, so a request with no other
			// list membership (a non-tempted write/read/metadata op)
			// doesn't get destroyed — and its payload freed — before it is
			// actually dispatched.
			s.ref(r)
			s.removeFromTodo(r)
			tasks = append(tasks, r)
		}
	}
	return tasks, liabilities
}
