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

// Package transport defines the downward interface the write-behind engine
// dispatches real I/O through. It is deliberately not FUSE-shaped: the
// engine core only ever calls this interface, never a kernel type, so it
// can sit above any backing store a concrete implementation wires it to.
package transport

import (
	"context"
	"time"
)

// Handle identifies an open file at the downward layer.
type Handle uint64

// OpenFlag mirrors the POSIX open(2) flags the engine cares about.
type OpenFlag uint32

const (
	ODirect OpenFlag = 1 << iota
	OAppend
	OSync
)

// Attr is the subset of file metadata the engine threads through as
// pre/post-operation snapshots, the way the wrapped protocol reports an
// attribute pair alongside every write/truncate/setattr reply.
type Attr struct {
	Size  int64
	Mtime time.Time
	Ctime time.Time
	Mode  uint32
}

// AttrMask selects which Attr fields Setattr/Fsetattr should apply.
type AttrMask uint32

const (
	AttrSize AttrMask = 1 << iota
	AttrMtime
	AttrMode
)

// Downstream is the engine's view of the real filesystem beneath it. Every
// method may be invoked from any goroutine, and the engine requires that
// completion — whether synchronous or delivered via a later callback some
// implementations may choose to use internally — may re-enter the engine
// (e.g. to resume a suspended Call). Implementations must honor ctx
// cancellation/deadline; the engine itself implements no retry or timeout
// logic of its own.
type Downstream interface {
	// Writev dispatches a scatter/gather write at the given offset and
	// flags. iobref is an opaque token the caller associates with the
	// request for deduplication/accounting purposes; transports that don't
	// need it may ignore it.
	Writev(ctx context.Context, fd Handle, iov [][]byte, off int64, flags OpenFlag, iobref any) (ret int64, errno error, preAttr, postAttr *Attr)

	// Readv reads into iov at the given offset.
	Readv(ctx context.Context, fd Handle, iov [][]byte, off int64, flags OpenFlag) (ret int64, errno error, preAttr, postAttr *Attr)

	Flush(ctx context.Context, fd Handle) (errno error, preAttr, postAttr *Attr)
	Fsync(ctx context.Context, fd Handle) (errno error, preAttr, postAttr *Attr)

	Stat(ctx context.Context, path string) (attr *Attr, errno error)
	Fstat(ctx context.Context, fd Handle) (attr *Attr, errno error)

	Truncate(ctx context.Context, path string, size int64) (preAttr, postAttr *Attr, errno error)
	Ftruncate(ctx context.Context, fd Handle, size int64) (preAttr, postAttr *Attr, errno error)

	Setattr(ctx context.Context, path string, attr *Attr, mask AttrMask) (preAttr, postAttr *Attr, errno error)
	Fsetattr(ctx context.Context, fd Handle, attr *Attr, mask AttrMask) (preAttr, postAttr *Attr, errno error)
}
