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

import "errors"

var (
	// ErrShortWrite is latched when a downstream Writev reports fewer bytes
	// written than were asked for; it is surfaced to callers as EIO since a
	// short write leaves the backing file in an indeterminate state.
	ErrShortWrite = errors.New("writeback: short write")

	// ErrForgetWithOutstanding is returned by Forget when the inode still
	// has requests in flight.
	ErrForgetWithOutstanding = errors.New("writeback: forget called with outstanding requests")

	// ErrEngineClosed is returned by any entry point called after Close.
	ErrEngineClosed = errors.New("writeback: engine is closed")
)
