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
	"github.com/amarts/writeback/internal/iobuf"
	"github.com/amarts/writeback/internal/transport"
)

// Write admits a write. Any latched error from an earlier failure is
// checked and cleared first; a latched failure fails this write immediately,
// without enqueueing it. Otherwise, a request eligible to be buffered
// ("tempted") is acknowledged as soon as it has been lied about (or, once
// the window fills up, once capacity frees again); everything else blocks
// until the write has actually reached the downstream transport.
func (e *Engine) Write(ctx context.Context, id InodeID, path string, fd transport.Handle, lockOwner uint64, data []byte, offset int64, appendWrite bool, flags transport.OpenFlag) (int64, error) {
	s, err := e.inodeState(id, path)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	latched := s.takeLatchedError()
	s.mu.Unlock()
	if latched != nil {
		return 0, latched
	}

	call := newChanCall()

	r := &Request{
		Kind:      KindWrite,
		Call:      call,
		Offset:    offset,
		Size:      int64(len(data)),
		Append:    appendWrite,
		WriteSize: int64(len(data)),
		OrigSize:  int64(len(data)),
		LockOwner: lockOwner,
		Fd:        fd,
		Flags:     flags,
		IOBuf:     iobuf.New(append([]byte(nil), data...)),
	}
	r.Segs = iobuf.Vector{{Buf: r.IOBuf, Off: 0, Len: len(data)}}
	r.Tempted = e.isTempted(r)
	if appendWrite {
		// An append's real offset isn't known until it lands, so it must be
		// ordered behind everything outstanding on this inode.
		r.Offset, r.Size = 0, 0
	}

	s.mu.Lock()
	r.Gen = s.gen
	s.addToTodo(r)
	if r.Tempted {
		r.OpRet = r.OrigSize
		s.addToTemptation(r)
	}
	s.mu.Unlock()

	common.CaptureEnqueueMetrics(ctx, e.metrics, KindWrite.String())
	e.processQueue(ctx, s)

	return call.Wait(ctx)
}

// isTempted decides whether a write is eligible to be buffered at all: a
// direct or sync-flagged descriptor, or a strict-O_DIRECT policy applied to
// a direct descriptor, always goes straight through. An append is never
// tempted either — two outstanding appends would otherwise both become
// liabilities in the same unwind pass with nothing pairwise-ordering their
// real dispatch, since the conflict oracle only gates todo entries against
// liabilities, not liabilities against each other. Resuming it as a task
// keeps it on the single serialized per-inode dispatch path instead.
func (e *Engine) isTempted(r *Request) bool {
	if r.Append {
		return false
	}
	if r.Flags&(transport.ODirect|transport.OSync) != 0 {
		return false
	}
	if e.cfg.Behavior.StrictODirect && r.Flags&transport.ODirect != 0 {
		return false
	}
	return true
}

// Read drains any writes ordered before it, then reads through the engine.
func (e *Engine) Read(ctx context.Context, id InodeID, path string, fd transport.Handle, buf []byte, offset int64, flags transport.OpenFlag) (int64, error) {
	s, err := e.inodeState(id, path)
	if err != nil {
		return 0, err
	}
	call := newChanCall()
	r := &Request{
		Kind:    KindRead,
		Call:    call,
		Offset:  offset,
		Size:    int64(len(buf)),
		ReadBuf: buf,
		Fd:      fd,
		Flags:   flags,
	}

	s.mu.Lock()
	r.Gen = s.gen
	s.addToTodo(r)
	s.mu.Unlock()

	e.processQueue(ctx, s)
	return call.Wait(ctx)
}

// Flush forces every older write to drain and consumes any latched error.
func (e *Engine) Flush(ctx context.Context, id InodeID, path string, fd transport.Handle) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindFlush, Fd: fd})
}

// Fsync behaves like Flush; write-behind treats them identically since both
// require every outstanding write to have actually landed.
func (e *Engine) Fsync(ctx context.Context, id InodeID, path string, fd transport.Handle) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindFsync, Fd: fd})
}

// Stat drains ordered writes (it must see their effect) but does not
// consume the latched error, matching the rule that only writev/flush/
// fsync/setattr observe a prior failure.
func (e *Engine) Stat(ctx context.Context, id InodeID, path string) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindStat, Path: path})
}

// Fstat is the descriptor-addressed analogue of Stat.
func (e *Engine) Fstat(ctx context.Context, id InodeID, path string, fd transport.Handle) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindFstat, Fd: fd})
}

// Truncate, like Setattr, always orders against every outstanding write (it
// has no natural byte range to compare against, so it is modeled as an
// infinite-range request). Unlike Setattr it does not consume the latched
// error.
func (e *Engine) Truncate(ctx context.Context, id InodeID, path string, size int64) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindTruncate, Path: path, TruncSize: size})
}

func (e *Engine) Ftruncate(ctx context.Context, id InodeID, path string, fd transport.Handle, size int64) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindFtruncate, Fd: fd, TruncSize: size})
}

func (e *Engine) Setattr(ctx context.Context, id InodeID, path string, attr *transport.Attr, mask transport.AttrMask) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindSetattr, Path: path, Attr: attr, AttrMask: mask})
}

func (e *Engine) Fsetattr(ctx context.Context, id InodeID, path string, fd transport.Handle, attr *transport.Attr, mask transport.AttrMask) (*transport.Attr, error) {
	return e.barrierOp(ctx, id, path, &Request{Kind: KindFsetattr, Fd: fd, Attr: attr, AttrMask: mask})
}

// barrierOp enqueues a non-write request that orders against everything
// outstanding on the inode, then waits for it to be resumed and returns
// whatever attribute the downstream call reported. For a kind that
// consumes the latched error, that error is checked and cleared up front
// (a latched failure fails the call immediately, without enqueueing it),
// and checked and cleared again once the call has run, so a failure of an
// older write that this call drained is returned by this call.
func (e *Engine) barrierOp(ctx context.Context, id InodeID, path string, r *Request) (*transport.Attr, error) {
	s, err := e.inodeState(id, path)
	if err != nil {
		return nil, err
	}

	if consumesLatch(r.Kind) {
		s.mu.Lock()
		latched := s.takeLatchedError()
		s.mu.Unlock()
		if latched != nil {
			return nil, latched
		}
	}

	call := newChanCall()
	r.Call = call

	s.mu.Lock()
	r.Gen = s.gen
	s.addToTodo(r)
	s.mu.Unlock()

	e.processQueue(ctx, s)
	if _, err := call.Wait(ctx); err != nil {
		return nil, err
	}
	if consumesLatch(r.Kind) {
		s.mu.Lock()
		latched := s.takeLatchedError()
		s.mu.Unlock()
		if latched != nil {
			return nil, latched
		}
	}
	return r.Attr, nil
}
