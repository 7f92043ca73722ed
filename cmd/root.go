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

// Package cmd wires the write-behind engine into a runnable mount command:
// flag/env/file configuration via cfg, structured logging via
// internal/logger, and a FUSE mount via internal/fuseadapter.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amarts/writeback/cfg"
)

var bindErr error

var rootCmd = &cobra.Command{
	Use:   "writeback-mount [flags] source mount_point",
	Short: "Mount a directory behind the write-behind caching engine",
	Long: `writeback-mount exposes a local directory through a FUSE mount point,
buffering and coalescing writes through the write-behind caching engine
before they reach the underlying directory.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}

		var c cfg.Config
		if err := viper.Unmarshal(&c, viper.DecodeHook(cfg.DecodeHook())); err != nil {
			return fmt.Errorf("unmarshalling configuration: %w", err)
		}
		if err := cfg.Rationalize(&c); err != nil {
			return fmt.Errorf("rationalizing configuration: %w", err)
		}
		if err := cfg.Validate(&c); err != nil {
			return fmt.Errorf("validating configuration: %w", err)
		}

		source, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving source directory: %w", err)
		}
		mountPoint, err := filepath.Abs(args[1])
		if err != nil {
			return fmt.Errorf("resolving mount point: %w", err)
		}

		return mount(cmd.Context(), source, mountPoint, &c)
	},
}

// Execute runs the root command, printing any error to stderr and exiting
// non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	bindErr = cfg.BindFlags(rootCmd.Flags())
}
