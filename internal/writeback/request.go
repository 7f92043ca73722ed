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
	"math"

	"github.com/amarts/writeback/internal/iobuf"
	"github.com/amarts/writeback/internal/transport"
)

// Request is one suspended operation against an inode: a write waiting to be
// lied about and later fulfilled, or a read/metadata op waiting for the
// writes ordered before it to drain. Every field below is only ever touched
// while the owning InodeState's mutex is held.
type Request struct {
	Kind Kind
	Call Call

	// Offset/Size/Append form the ordering key every conflict check is
	// computed from. Size == 0 denotes "through end of file" (flush, fsync,
	// truncate-like ops that must order against everything).
	Offset int64
	Size   int64
	Append bool

	// WriteSize is the payload length currently held by this request: it
	// starts as the size the caller asked to write and grows as later
	// requests are coalesced into it as a holder.
	WriteSize int64
	// OrigSize is the size the caller originally asked to write, fixed at
	// enqueue time, used to answer the lie with the right byte count even
	// after the request has absorbed neighbors or been absorbed itself.
	OrigSize int64

	// OpRet/OpErrno is the outcome this request will be completed with.
	// For a tempted write this is seeded optimistically at enqueue time;
	// for everything else it is filled in once the real result is known.
	OpRet   int64
	OpErrno error

	// refcount counts the lists this request is on as a counted member
	// (todo as a "wind" slot, temptation as an "unwind" slot, and
	// liability), plus the hold pick takes on a task until it has run; once it
	// drops to zero the request is fully retired and detached from all.
	refcount int32

	// Tempted marks a write eligible to be lied about (buffered) at all;
	// Lied marks one that has actually been acknowledged to its caller
	// already. Fulfilled marks one whose payload has actually reached the
	// downstream transport. Go marks a holder sealed for dispatch.
	Tempted   bool
	Lied      bool
	Fulfilled bool
	Go        bool

	// Absorbed marks a write whose payload has been coalesced into an
	// earlier holder: it still needs its own lie (its caller is blocked on
	// it independently) but never occupies window budget or liability
	// membership on its own, since the holder already accounts for its
	// bytes.
	Absorbed bool

	// Gen stamps the inode generation counter at the moment this request
	// was appended; the conflict oracle only ever considers an older
	// generation a hazard to a younger one.
	Gen uint64

	LockOwner uint64
	Fd        transport.Handle
	Flags     transport.OpenFlag

	// IOBuf backs the OrigSize bytes this request's own caller wrote. Segs
	// lists every segment of the WriteSize bytes the request holds: its own
	// segment, then the segments of each request coalesced into it as a
	// holder (each over that request's own Buffer), so the fulfiller can
	// build one iovec without copying.
	IOBuf *iobuf.Buffer
	Segs  iobuf.Vector

	// ReadBuf is the caller-supplied destination for a read.
	ReadBuf []byte

	// Attr/AttrMask/TruncSize carry metadata-op arguments.
	Attr      *transport.Attr
	AttrMask  transport.AttrMask
	TruncSize int64

	// Path is used for path-addressed metadata ops (Stat/Truncate/Setattr)
	// when no open file descriptor is available.
	Path string

	allElem, todoElem, liabilityElem, temptationElem *list.Element

	// trickleScheduled guards against re-arming a pending trickle timer
	// for the same holder on every preprocess pass.
	trickleScheduled bool
}

// rangeEnd returns the exclusive end of a request's ordering range; size 0
// means "to infinity" (flush/fsync/whole-file truncate order against
// everything after them).
func rangeEnd(offset, size int64) int64 {
	if size == 0 {
		return math.MaxInt64
	}
	return offset + size
}

// overlaps reports whether a and b's byte ranges intersect.
func overlaps(a, b *Request) bool {
	aEnd := rangeEnd(a.Offset, a.Size)
	bEnd := rangeEnd(b.Offset, b.Size)
	return a.Offset < bEnd && b.Offset < aEnd
}
