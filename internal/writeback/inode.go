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
	"fmt"
	"sync"
)

// InodeState is the per-inode write-back bookkeeping: every Request touching
// this inode lives on one or more of its four lists, and every mutation of
// those lists, the generation counter, or the window gauges happens while
// mu is held.
//
// Invariants (relied upon; only the windowCurrent half of 6 is checked, by
// resetOrAssertEmpty):
//  1. A Request is on all iff its refcount > 0.
//  2. A Request is on todo iff it has not yet been picked for dispatch.
//  3. A Request is on liability iff it has been lied about and not yet
//     fulfilled.
//  4. A Request is on temptation iff it is Tempted and not yet Lied.
//  5. windowCurrent equals the sum of WriteSize over every liability.
//  6. windowCurrent is zero whenever all is empty, and gen is reset to zero
//     at that moment.
type InodeState struct {
	mu sync.Mutex

	path string

	all        *list.List
	todo       *list.List
	liability  *list.List
	temptation *list.List

	gen uint64

	windowConf    int64
	windowCurrent int64
	transit       int64

	// opRet/opErrno latch the first real failure this inode has seen;
	// writev/flush/fsync/setattr callers consume and clear it, everything
	// else (reads, stat) ignores it.
	opRet   int64
	opErrno error

	// queueScheduled is true while a processQueue pass for this inode is
	// either running or queued to run, so Enqueue never arms more than one
	// concurrently outstanding pass.
	queueScheduled bool

	debugExitOnViolation bool
}

func newInodeState(path string, windowConf int64, debugExit bool) *InodeState {
	return &InodeState{
		path:                 path,
		all:                  list.New(),
		todo:                 list.New(),
		liability:            list.New(),
		temptation:           list.New(),
		windowConf:           windowConf,
		debugExitOnViolation: debugExit,
	}
}

func (s *InodeState) addToAll(r *Request) {
	r.allElem = s.all.PushBack(r)
}

func (s *InodeState) removeFromAll(r *Request) {
	if r.allElem != nil {
		s.all.Remove(r.allElem)
		r.allElem = nil
	}
}

func (s *InodeState) addToTodo(r *Request) {
	r.todoElem = s.todo.PushBack(r)
	s.ref(r)
}

func (s *InodeState) removeFromTodo(r *Request) {
	if r.todoElem != nil {
		s.todo.Remove(r.todoElem)
		r.todoElem = nil
		s.unref(r)
	}
}

func (s *InodeState) addToLiability(r *Request) {
	r.liabilityElem = s.liability.PushBack(r)
	s.windowCurrent += r.WriteSize
	s.ref(r)
}

func (s *InodeState) removeFromLiability(r *Request) {
	if r.liabilityElem != nil {
		s.liability.Remove(r.liabilityElem)
		r.liabilityElem = nil
		s.windowCurrent -= r.WriteSize
		s.unref(r)
	}
}

func (s *InodeState) addToTemptation(r *Request) {
	r.temptationElem = s.temptation.PushBack(r)
	s.ref(r)
}

func (s *InodeState) removeFromTemptation(r *Request) {
	if r.temptationElem != nil {
		s.temptation.Remove(r.temptationElem)
		r.temptationElem = nil
		s.unref(r)
	}
}

// ref/unref manage a Request's membership on all: the request is attached
// the first time it gains a counted reference and destroyed once the last
// one is dropped.
func (s *InodeState) ref(r *Request) {
	if r.refcount == 0 {
		s.addToAll(r)
	}
	r.refcount++
}

func (s *InodeState) unref(r *Request) {
	r.refcount--
	if r.refcount <= 0 {
		s.destroy(r)
	}
}

func (s *InodeState) destroy(r *Request) {
	s.removeFromAll(r)
	if len(r.Segs) > 0 {
		r.Segs.UnrefAll()
		r.Segs = nil
	}
	r.IOBuf = nil
	if s.all.Len() == 0 {
		s.resetOrAssertEmpty()
	}
}

// resetOrAssertEmpty enforces invariant 6 once every request has drained.
// gen counts liabilities and is simply reset to zero. windowCurrent must
// already be zero: in debug mode a non-zero value panics (matching the
// engine's preference for a loud invariant failure over silently papering
// over a bookkeeping bug); otherwise it is forced back to zero so the inode
// can be reused.
func (s *InodeState) resetOrAssertEmpty() {
	if s.windowCurrent != 0 && s.debugExitOnViolation {
		panic(fmt.Sprintf("writeback: invariant violated for empty inode %q: windowCurrent=%d gen=%d", s.path, s.windowCurrent, s.gen))
	}
	s.windowCurrent = 0
	s.gen = 0
}

// liabilities returns every Request currently on the liability list, used by
// the conflict oracle during preprocessing/picking.
func (s *InodeState) liabilities() []*Request {
	out := make([]*Request, 0, s.liability.Len())
	for e := s.liability.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Request))
	}
	return out
}

// latchError records the first real failure seen on this inode, if one has
// not already been recorded.
func (s *InodeState) latchError(ret int64, err error) {
	if err != nil && s.opErrno == nil {
		s.opRet, s.opErrno = ret, err
	}
}

// takeLatchedError returns and clears the latched error, for ops that
// consume it (writev/flush/fsync/setattr).
func (s *InodeState) takeLatchedError() error {
	err := s.opErrno
	s.opRet, s.opErrno = 0, nil
	return err
}
