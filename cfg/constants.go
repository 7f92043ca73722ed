// Copyright 2024 Google Inc. All Rights Reserved.
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

package cfg

const (
	// MinCacheSize and MaxCacheSize bound the per-inode write-behind
	// window (the cache-size / window-size option).
	MinCacheSize = 512 * KiB
	MaxCacheSize = 1 * GiB

	// MaxVectorCount is the iovec-count cap applied when building a
	// batched writev: a batch head absorbs at most this many coalesced
	// liability members.
	MaxVectorCount = 8
)
