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

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/amarts/writeback/cfg"
	"github.com/amarts/writeback/common"
	"github.com/amarts/writeback/internal/fuseadapter"
	"github.com/amarts/writeback/internal/logger"
	"github.com/amarts/writeback/internal/transport"
	"github.com/amarts/writeback/internal/workerpool"
	"github.com/amarts/writeback/internal/writeback"
)

// mount builds the engine and its FUSE binding over source, and blocks until
// the mount at mountPoint is unmounted.
func mount(ctx context.Context, source, mountPoint string, c *cfg.Config) error {
	if err := logger.InitLogFile(c.Logging); err != nil {
		return fmt.Errorf("initializing log output: %w", err)
	}
	logger.SetLogFormat(c.Logging.Format)

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %q is not a directory", source)
	}

	pool, err := workerpool.NewStaticWorkerPool(uint32(c.Concurrency.WorkerCount/4+1), uint32(c.Concurrency.WorkerCount))
	if err != nil {
		return fmt.Errorf("starting dispatch pool: %w", err)
	}
	defer pool.Stop()

	metrics, err := common.NewOTelMetrics()
	if err != nil {
		logger.Warnf("otel metrics unavailable, falling back to a no-op handle: %v", err)
		metrics = common.NewNoopMetrics()
	}

	local := transport.NewLocal()
	engine := writeback.NewEngine(*c, local, metrics, pool, nil)
	defer engine.Close()

	adapter := fuseadapter.New(engine, local)
	if err := registerTree(adapter, source); err != nil {
		return fmt.Errorf("walking source directory: %w", err)
	}

	server := fuseutil.NewFileSystemServer(adapter)
	mountCfg := &fuse.MountConfig{
		FSName:     "writeback",
		Subtype:    "writeback",
		VolumeName: filepath.Base(source),
	}

	mfs, err := fuse.Mount(mountPoint, server, mountCfg)
	if err != nil {
		return fmt.Errorf("mounting %s: %w", mountPoint, err)
	}
	logger.Infof("mounted %s at %s", source, mountPoint)

	return mfs.Join(ctx)
}

// registerTree pre-registers every regular file under source with the
// adapter's inode table. This adapter does not implement a namespace layer
// (no LookUpInode/MkDir/CreateFile), so every inode a mount will ever serve
// must be known up front; a real deployment would register lazily from its
// own directory layer instead.
func registerTree(adapter *fuseadapter.Adapter, source string) error {
	var nextInode uint64 = 2 // 1 is fuseops.RootInodeID
	return filepath.WalkDir(source, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		nextInode++
		adapter.Register(fuseops.InodeID(nextInode), path)
		return nil
	})
}
