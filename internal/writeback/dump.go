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

// RequestSnapshot is a read-only, point-in-time view of one Request, for
// observability dumps.
type RequestSnapshot struct {
	Kind      string
	Refcount  int32
	Offset    int64
	Size      int64
	WriteSize int64
	Tempted   bool
	Lied      bool
	Fulfilled bool
	Go        bool
	Append    bool
}

// InodeSnapshot is a point-in-time view of one inode's write-behind state.
type InodeSnapshot struct {
	Path          string
	WindowConf    int64
	WindowCurrent int64
	Transit       int64
	OpErrno       error
	Requests      []RequestSnapshot
}

// Dump returns a snapshot of every inode the engine currently tracks, for
// diagnostics (e.g. an admin endpoint or a test assertion on internal
// state) rather than for the engine's own operation.
func (e *Engine) Dump() map[InodeID]InodeSnapshot {
	e.mu.Lock()
	ids := make([]InodeID, 0, len(e.inodes))
	states := make([]*InodeState, 0, len(e.inodes))
	for id, s := range e.inodes {
		ids = append(ids, id)
		states = append(states, s)
	}
	e.mu.Unlock()

	out := make(map[InodeID]InodeSnapshot, len(ids))
	for i, s := range states {
		out[ids[i]] = s.snapshot()
	}
	return out
}

func (s *InodeState) snapshot() InodeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := InodeSnapshot{
		Path:          s.path,
		WindowConf:    s.windowConf,
		WindowCurrent: s.windowCurrent,
		Transit:       s.transit,
		OpErrno:       s.opErrno,
		Requests:      make([]RequestSnapshot, 0, s.all.Len()),
	}
	for el := s.all.Front(); el != nil; el = el.Next() {
		r := el.Value.(*Request)
		snap.Requests = append(snap.Requests, RequestSnapshot{
			Kind:      r.Kind.String(),
			Refcount:  r.refcount,
			Offset:    r.Offset,
			Size:      r.Size,
			WriteSize: r.WriteSize,
			Tempted:   r.Tempted,
			Lied:      r.Lied,
			Fulfilled: r.Fulfilled,
			Go:        r.Go,
			Append:    r.Append,
		})
	}
	return snap
}
