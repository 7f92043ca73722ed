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

import "context"

// consumesLatch reports whether a kind observes (and clears) an inode's
// latched error, the way writev/flush/fsync/setattr do; reads and plain
// stat calls ignore it. The entry points (Write, barrierOp) check and clear
// the latch up front, before a request is even enqueued, and barrierOp
// checks it once more after the request has run — resumeTask itself never
// looks at it for the request it is resuming.
func consumesLatch(k Kind) bool {
	switch k {
	case KindWrite, KindFlush, KindFsync, KindSetattr, KindFsetattr:
		return true
	default:
		return false
	}
}

// resumeTask is "do winds": it forwards a request that was never (or is no
// longer) eligible to be lied about straight through to the downstream
// transport, synchronously, before delivering its result upward. Running it
// inline (rather than handing it to the background pool) keeps it a true
// ordering barrier — the next pick() pass for this inode only runs once
// this call has fully completed, so later conflicting requests correctly
// observe it as finished rather than merely "in flight".
func (e *Engine) resumeTask(ctx context.Context, s *InodeState, r *Request) {
	switch r.Kind {
	case KindWrite:
		iov := make([][]byte, len(r.Segs))
		for i, seg := range r.Segs {
			iov[i] = seg.Bytes()
		}
		n, errno, _, _ := e.down.Writev(ctx, r.Fd, iov, r.Offset, r.Flags, r.IOBuf)
		if errno == nil && n < r.WriteSize {
			errno = ErrShortWrite
		}
		if errno != nil {
			s.mu.Lock()
			s.latchError(n, errno)
			s.mu.Unlock()
		}
		r.Call.Complete(n, errno)

	case KindRead:
		n, errno, _, _ := e.down.Readv(ctx, r.Fd, [][]byte{r.ReadBuf}, r.Offset, r.Flags)
		r.Call.Complete(n, errno)

	case KindFlush:
		errno, _, _ := e.down.Flush(ctx, r.Fd)
		if errno != nil {
			s.mu.Lock()
			s.latchError(0, errno)
			s.mu.Unlock()
		}
		r.Call.Complete(0, errno)

	case KindFsync:
		errno, _, _ := e.down.Fsync(ctx, r.Fd)
		if errno != nil {
			s.mu.Lock()
			s.latchError(0, errno)
			s.mu.Unlock()
		}
		r.Call.Complete(0, errno)

	case KindStat:
		attr, errno := e.down.Stat(ctx, r.Path)
		r.Attr = attr
		r.Call.Complete(0, errno)

	case KindFstat:
		attr, errno := e.down.Fstat(ctx, r.Fd)
		r.Attr = attr
		r.Call.Complete(0, errno)

	case KindTruncate:
		_, post, errno := e.down.Truncate(ctx, r.Path, r.TruncSize)
		r.Attr = post
		r.Call.Complete(0, errno)

	case KindFtruncate:
		_, post, errno := e.down.Ftruncate(ctx, r.Fd, r.TruncSize)
		r.Attr = post
		r.Call.Complete(0, errno)

	case KindSetattr:
		_, post, errno := e.down.Setattr(ctx, r.Path, r.Attr, r.AttrMask)
		if errno != nil {
			s.mu.Lock()
			s.latchError(0, errno)
			s.mu.Unlock()
		}
		r.Attr = post
		r.Call.Complete(0, errno)

	case KindFsetattr:
		_, post, errno := e.down.Fsetattr(ctx, r.Fd, r.Attr, r.AttrMask)
		if errno != nil {
			s.mu.Lock()
			s.latchError(0, errno)
			s.mu.Unlock()
		}
		r.Attr = post
		r.Call.Complete(0, errno)
	}

	s.mu.Lock()
	s.unref(r)
	s.mu.Unlock()
}
