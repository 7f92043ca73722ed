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

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully-resolved, validated configuration for a write-behind
// engine instance. It is bound from flags, environment variables and an
// optional YAML file, in that order of decreasing precedence as viper
// resolves them.
type Config struct {
	Window      WindowConfig      `yaml:"window" mapstructure:"window"`
	Behavior    BehaviorConfig    `yaml:"behavior" mapstructure:"behavior"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Debug       DebugConfig       `yaml:"debug" mapstructure:"debug"`
}

// WindowConfig bounds the per-inode liability window and dispatch batching.
type WindowConfig struct {
	// CacheSize (a.k.a. window-size) is the per-inode byte budget of
	// unfulfilled lies.
	CacheSize ByteSize `yaml:"cache-size" mapstructure:"cache-size"`
	// AggregateSize is the maximum payload size of one batched writev.
	AggregateSize ByteSize `yaml:"aggregate-size" mapstructure:"aggregate-size"`
	// PageSize bounds how large a single coalescing holder may grow.
	PageSize ByteSize `yaml:"page-size" mapstructure:"page-size"`
}

// BehaviorConfig toggles the optional write-behind behaviors.
type BehaviorConfig struct {
	// FlushBehind is carried in the config but not read by the engine: a
	// flush always waits for the older writes and the downstream flush.
	FlushBehind         bool `yaml:"flush-behind" mapstructure:"flush-behind"`
	TricklingWrites     bool `yaml:"trickling-writes" mapstructure:"trickling-writes"`
	StrictODirect       bool `yaml:"strict-o-direct" mapstructure:"strict-o-direct"`
	StrictWriteOrdering bool `yaml:"strict-write-ordering" mapstructure:"strict-write-ordering"`
}

// ConcurrencyConfig bounds background dispatch resources.
type ConcurrencyConfig struct {
	// MaxInFlight must be positive (Validate rejects anything else). The
	// engine does not read it, so it places no cap on concurrently
	// dispatched downward calls.
	MaxInFlight int `yaml:"max-in-flight" mapstructure:"max-in-flight"`
	// WorkerCount sizes the background dispatch pool.
	WorkerCount int `yaml:"worker-count" mapstructure:"worker-count"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Severity  LogSeverity     `yaml:"severity" mapstructure:"severity"`
	Format    LogFormat       `yaml:"format" mapstructure:"format"`
	LogRotate LogRotateConfig `yaml:"log-rotate" mapstructure:"log-rotate"`
}

// LogRotateConfig configures lumberjack-backed log file rotation. An empty
// FilePath means log output stays on stdout with no rotation.
type LogRotateConfig struct {
	FilePath        ResolvedPath `yaml:"file" mapstructure:"file"`
	MaxFileSizeMB   int          `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`
	BackupFileCount int          `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress        bool         `yaml:"compress" mapstructure:"compress"`
}

// DebugConfig controls internal-invariant enforcement.
type DebugConfig struct {
	// ExitOnInvariantViolation makes the engine panic when an inode whose
	// requests have all drained still shows a non-zero window, instead of
	// silently forcing the window back to zero.
	ExitOnInvariantViolation bool `yaml:"exit-on-invariant-violation" mapstructure:"exit-on-invariant-violation"`
}

// BindFlags registers the command-line flags for every Config field and
// binds each one to its viper key, so that flag, environment and config
// file values are all resolved through the same lookup.
func BindFlags(flagSet *pflag.FlagSet) error {
	bind := func(key, flag string) error {
		return viper.BindPFlag(key, flagSet.Lookup(flag))
	}

	flagSet.String("cache-size", "1MiB", "Per-inode write-behind window bound (512KiB-1GiB).")
	flagSet.String("aggregate-size", "128KiB", "Max payload of a single batched writev.")
	flagSet.String("page-size", "128KiB", "Bounds single-holder growth during coalescing.")

	flagSet.Bool("flush-behind", true, "Accepted but not acted on: flush always waits for the downstream flush.")
	flagSet.Bool("trickling-writes", true, "Dispatch the trailing holder when no traffic is in flight.")
	flagSet.Bool("strict-o-direct", false, "Disable write-behind for direct-opened file descriptors.")
	flagSet.Bool("strict-write-ordering", false, "Force conflict between any two generations regardless of overlap.")

	flagSet.Int("max-in-flight", 64, "Must be positive; not read by the engine, so it caps nothing.")
	flagSet.Int("worker-count", 8, "Size of the background dispatch pool.")

	flagSet.String("log-severity", "INFO", "Minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	flagSet.String("log-format", "text", "Log output format: text or json.")
	flagSet.String("log-file", "", "Destination for rotated log output; empty means stdout only.")
	flagSet.Int("log-max-size-mb", 512, "Rotation threshold in MiB for log-file.")
	flagSet.Int("log-backups", 10, "Retained rotated log files.")
	flagSet.Bool("log-compress", true, "Gzip-compress rotated log files.")

	flagSet.Bool("debug-exit-on-invariant-violation", false, "Assert internal invariants instead of silently repairing them.")

	binds := [][2]string{
		{"window.cache-size", "cache-size"},
		{"window.aggregate-size", "aggregate-size"},
		{"window.page-size", "page-size"},
		{"behavior.flush-behind", "flush-behind"},
		{"behavior.trickling-writes", "trickling-writes"},
		{"behavior.strict-o-direct", "strict-o-direct"},
		{"behavior.strict-write-ordering", "strict-write-ordering"},
		{"concurrency.max-in-flight", "max-in-flight"},
		{"concurrency.worker-count", "worker-count"},
		{"logging.severity", "log-severity"},
		{"logging.format", "log-format"},
		{"logging.log-rotate.file", "log-file"},
		{"logging.log-rotate.max-file-size-mb", "log-max-size-mb"},
		{"logging.log-rotate.backup-file-count", "log-backups"},
		{"logging.log-rotate.compress", "log-compress"},
		{"debug.exit-on-invariant-violation", "debug-exit-on-invariant-violation"},
	}
	for _, b := range binds {
		if err := bind(b[0], b[1]); err != nil {
			return err
		}
	}
	return nil
}

// Load resolves a Config from whatever flags, environment variables and
// config file viper has already been pointed at, then rationalizes and
// validates it. The flags are registered and bound only if flagSet does not
// already carry them, so Load may follow an earlier BindFlags call.
func Load(flagSet *pflag.FlagSet) (*Config, error) {
	if flagSet.Lookup("cache-size") == nil {
		if err := BindFlags(flagSet); err != nil {
			return nil, err
		}
	}

	var c Config
	decoder := viper.DecodeHook(DecodeHook())
	if err := viper.Unmarshal(&c, decoder); err != nil {
		return nil, err
	}

	if err := Rationalize(&c); err != nil {
		return nil, err
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
