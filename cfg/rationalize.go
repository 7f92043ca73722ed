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

// Rationalize updates config fields based on the values of other fields,
// before validation runs. It never rejects a configuration; Validate does
// that.
func Rationalize(c *Config) error {
	// page-size only bounds holder growth during coalescing; it can never
	// usefully exceed the batch cap it feeds into.
	if c.Window.PageSize > c.Window.AggregateSize {
		c.Window.PageSize = c.Window.AggregateSize
	}

	if c.Concurrency.WorkerCount <= 0 {
		c.Concurrency.WorkerCount = DefaultWorkerCount()
	}

	if c.Logging.Severity == "" {
		c.Logging.Severity = InfoLogSeverity
	}
	if c.Logging.Format == "" {
		c.Logging.Format = TextLogFormat
	}

	return nil
}
