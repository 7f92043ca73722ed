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

import "fmt"

const (
	CacheSizeOutOfRangeError    = "cache-size/window-size must be between 512KiB and 1GiB"
	AggregateSizeInvalidError   = "aggregate-size must be positive"
	AggregateExceedsWindowError = "aggregate-size must not exceed cache-size/window-size"
	PageSizeInvalidError        = "page-size must be positive"
	MaxInFlightInvalidError     = "max-in-flight must be positive"
	WorkerCountInvalidError     = "worker-count must be positive"
)

func isValidLogRotateConfig(config *LogRotateConfig) error {
	if config.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max-file-size-mb should be at least 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidWindowConfig(w *WindowConfig) error {
	if w.CacheSize < MinCacheSize || w.CacheSize > MaxCacheSize {
		return fmt.Errorf(CacheSizeOutOfRangeError)
	}
	if w.AggregateSize <= 0 {
		return fmt.Errorf(AggregateSizeInvalidError)
	}
	if w.AggregateSize > w.CacheSize {
		return fmt.Errorf(AggregateExceedsWindowError)
	}
	if w.PageSize <= 0 {
		return fmt.Errorf(PageSizeInvalidError)
	}
	return nil
}

func isValidConcurrencyConfig(c *ConcurrencyConfig) error {
	if c.MaxInFlight <= 0 {
		return fmt.Errorf(MaxInFlightInvalidError)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf(WorkerCountInvalidError)
	}
	return nil
}

// Validate returns a non-nil error if the config is invalid. It is run
// after Rationalize, so cross-field normalization has already happened.
func Validate(c *Config) error {
	if err := isValidWindowConfig(&c.Window); err != nil {
		return fmt.Errorf("error parsing window config: %w", err)
	}
	if err := isValidConcurrencyConfig(&c.Concurrency); err != nil {
		return fmt.Errorf("error parsing concurrency config: %w", err)
	}
	if err := isValidLogRotateConfig(&c.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing log-rotate config: %w", err)
	}
	return nil
}
