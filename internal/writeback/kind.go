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

// Package writeback implements a per-inode write-back caching engine: writes
// are optimistically acknowledged ("lied" about) up to a configured window,
// coalesced into larger batches, and dispatched downward out of order subject
// to a conflict oracle that preserves the order the caller actually needs.
package writeback

// Kind identifies the operation a Request represents.
type Kind int

const (
	KindWrite Kind = iota
	KindRead
	KindFlush
	KindFsync
	KindStat
	KindFstat
	KindTruncate
	KindFtruncate
	KindSetattr
	KindFsetattr
)

func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "WRITE"
	case KindRead:
		return "READ"
	case KindFlush:
		return "FLUSH"
	case KindFsync:
		return "FSYNC"
	case KindStat:
		return "STAT"
	case KindFstat:
		return "FSTAT"
	case KindTruncate:
		return "TRUNCATE"
	case KindFtruncate:
		return "FTRUNCATE"
	case KindSetattr:
		return "SETATTR"
	case KindFsetattr:
		return "FSETATTR"
	default:
		return "UNKNOWN"
	}
}
