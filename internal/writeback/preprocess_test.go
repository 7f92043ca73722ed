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

func TestCanCoalesce_Contiguous(t *testing.T) {
	holder := &Request{Fd: 1, Offset: 0, WriteSize: 10}
	req := &Request{Fd: 1, Offset: 10, WriteSize: 10}
	if !canCoalesce(holder, req, 4096) {
		t.Fatal("contiguous same-fd writes should coalesce")
	}
}

func TestCanCoalesce_Gap(t *testing.T) {
	holder := &Request{Fd: 1, Offset: 0, WriteSize: 10}
	req := &Request{Fd: 1, Offset: 20, WriteSize: 10}
	if canCoalesce(holder, req, 4096) {
		t.Fatal("a gap must not coalesce")
	}
}

func TestCanCoalesce_DifferentFd(t *testing.T) {
	holder := &Request{Fd: 1, Offset: 0, WriteSize: 10}
	req := &Request{Fd: 2, Offset: 10, WriteSize: 10}
	if canCoalesce(holder, req, 4096) {
		t.Fatal("different descriptors must not coalesce")
	}
}

func TestCanCoalesce_DifferentLockOwner(t *testing.T) {
	holder := &Request{Fd: 1, LockOwner: 1, Offset: 0, WriteSize: 10}
	req := &Request{Fd: 1, LockOwner: 2, Offset: 10, WriteSize: 10}
	if canCoalesce(holder, req, 4096) {
		t.Fatal("different lock owners must not coalesce")
	}
}

func TestCanCoalesce_PageSizeCap(t *testing.T) {
	holder := &Request{Fd: 1, Offset: 0, WriteSize: 4000}
	req := &Request{Fd: 1, Offset: 4000, WriteSize: 200}
	if canCoalesce(holder, req, 4096) {
		t.Fatal("a merge pushing the holder past page size must be rejected")
	}
}

func TestCanCoalesce_SealedHolder(t *testing.T) {
	holder := &Request{Fd: 1, Offset: 0, WriteSize: 10, Go: true}
	req := &Request{Fd: 1, Offset: 10, WriteSize: 10}
	if canCoalesce(holder, req, 4096) {
		t.Fatal("a holder already sealed (Go) must not accept more merges")
	}
}
