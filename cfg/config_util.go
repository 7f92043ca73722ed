// Copyright 2024 Google LLC
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

import "runtime"

// DefaultWorkerCount returns a worker-pool size proportional to the
// available CPUs, mirroring the teacher's parallel-download sizing
// heuristic for a pool that dispatches downward writev/flush calls instead.
func DefaultWorkerCount() int {
	return max(8, 2*runtime.NumCPU())
}

// IsLoggingToFile reports whether logging has been configured to rotate to
// a file rather than stay on stderr.
func IsLoggingToFile(c *Config) bool {
	return string(c.Logging.LogRotate.FilePath) != ""
}
