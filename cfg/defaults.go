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

// DefaultConfig returns the configuration used during startup before flags,
// environment and config file have been parsed, and by tests that don't
// care about a particular option.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			CacheSize:     1 * MiB,
			AggregateSize: 128 * KiB,
			PageSize:      128 * KiB,
		},
		Behavior: BehaviorConfig{
			FlushBehind:         true,
			TricklingWrites:     true,
			StrictODirect:       false,
			StrictWriteOrdering: false,
		},
		Concurrency: ConcurrencyConfig{
			MaxInFlight: 64,
			WorkerCount: DefaultWorkerCount(),
		},
		Logging: GetDefaultLoggingConfig(),
	}
}

// GetDefaultLoggingConfig returns the default configuration that is to be
// used during application startup, before the provided configuration has
// been parsed.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity: InfoLogSeverity,
		Format:   TextLogFormat,
		LogRotate: LogRotateConfig{
			BackupFileCount: 10,
			Compress:        true,
			MaxFileSizeMB:   512,
		},
	}
}
