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

import "testing"

// A read that overlaps an older, still-outstanding liability is left in
// todo rather than picked as a task.
func TestPick_SkipsRequestConflictingWithLiability(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	s := newInodeState("/f", int64(e.cfg.Window.CacheSize), false)

	liab := newLiability(1, 0, []byte("hello"))
	liab.Gen = 1
	s.addToLiability(liab)

	read := &Request{Kind: KindRead, Call: noopCall{}, Fd: 1, Offset: 0, Size: 5, Gen: 2}
	s.addToTodo(read)

	s.mu.Lock()
	tasks, liabilities := e.pick(s)
	s.mu.Unlock()

	if len(tasks) != 0 || len(liabilities) != 0 {
		t.Fatalf("conflicting read must not be picked, got tasks=%d liabilities=%d", len(tasks), len(liabilities))
	}
	if read.todoElem == nil {
		t.Fatal("the conflicting read should remain on todo")
	}
}

// A request that doesn't conflict with anything outstanding is picked as a
// task immediately.
func TestPick_SelectsNonConflictingTask(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	s := newInodeState("/f", int64(e.cfg.Window.CacheSize), false)

	read := &Request{Kind: KindRead, Call: noopCall{}, Fd: 1, Offset: 1000, Size: 5, Gen: 1}
	s.addToTodo(read)

	s.mu.Lock()
	tasks, liabilities := e.pick(s)
	s.mu.Unlock()

	if len(tasks) != 1 || len(liabilities) != 0 {
		t.Fatalf("expected exactly one task, got tasks=%d liabilities=%d", len(tasks), len(liabilities))
	}
	if read.todoElem != nil {
		t.Fatal("a picked task should be detached from todo")
	}
	if read.refcount != 1 {
		t.Fatalf("pick should hold exactly one extra reference for a picked task, got %d", read.refcount)
	}
}

// A tempted write that has been lied about but not yet sealed (Go) is left
// in todo until sealed.
func TestPick_SkipsUnsealedTemptedWrite(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	s := newInodeState("/f", int64(e.cfg.Window.CacheSize), false)

	w := &Request{Kind: KindWrite, Call: noopCall{}, Fd: 1, Offset: 0, WriteSize: 5, Gen: 1, Tempted: true, Lied: true}
	s.addToTodo(w)

	s.mu.Lock()
	tasks, liabilities := e.pick(s)
	s.mu.Unlock()

	if len(tasks) != 0 || len(liabilities) != 0 {
		t.Fatal("an unsealed holder must not be picked for dispatch yet")
	}
}

// Once sealed (Go), a lied write is picked into the liabilities-to-fulfill
// slice, not the tasks slice.
func TestPick_SelectsSealedLiedWriteAsLiability(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	s := newInodeState("/f", int64(e.cfg.Window.CacheSize), false)

	w := &Request{Kind: KindWrite, Call: noopCall{}, Fd: 1, Offset: 0, WriteSize: 5, Gen: 1, Tempted: true, Lied: true, Go: true}
	s.addToTodo(w)

	s.mu.Lock()
	tasks, liabilities := e.pick(s)
	s.mu.Unlock()

	if len(liabilities) != 1 || len(tasks) != 0 {
		t.Fatalf("expected exactly one liability, got tasks=%d liabilities=%d", len(tasks), len(liabilities))
	}
}
