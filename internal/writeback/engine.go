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

import (
	"fmt"
	"sync"
	"time"

	"github.com/amarts/writeback/cfg"
	"github.com/amarts/writeback/clock"
	"github.com/amarts/writeback/common"
	"github.com/amarts/writeback/internal/logger"
	"github.com/amarts/writeback/internal/transport"
	"github.com/amarts/writeback/internal/workerpool"
)

// InodeID identifies an inode to the engine. Adapters own the mapping from
// their own inode numbering to this type.
type InodeID uint64

// Engine is the write-behind caching engine: one per mount, holding one
// InodeState per inode currently referenced.
type Engine struct {
	cfg     cfg.Config
	down    transport.Downstream
	metrics common.MetricHandle
	pool    *workerpool.StaticWorkerPool
	clk     clock.Clock

	mu     sync.Mutex
	inodes map[InodeID]*InodeState
	closed bool

	trickleDelay time.Duration
}

// defaultTrickleDelay is how long the preprocessor waits, once it finds an
// unsealed trailing holder with nothing currently in flight, before sealing
// it for dispatch on its own. A short delay lets a burst of back-to-back
// writes from the same caller finish landing in todo before the holder they
// formed is shipped, without starving a genuinely idle file.
const defaultTrickleDelay = 2 * time.Millisecond

// NewEngine constructs an Engine. metrics may be nil (a no-op handle is used
// instead); clk may be nil (the real clock is used instead).
func NewEngine(c cfg.Config, down transport.Downstream, metrics common.MetricHandle, pool *workerpool.StaticWorkerPool, clk clock.Clock) *Engine {
	if metrics == nil {
		metrics = common.NewNoopMetrics()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Engine{
		cfg:          c,
		down:         down,
		metrics:      metrics,
		pool:         pool,
		clk:          clk,
		inodes:       make(map[InodeID]*InodeState),
		trickleDelay: defaultTrickleDelay,
	}
}

func (e *Engine) inodeState(id InodeID, path string) (*InodeState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}
	s, ok := e.inodes[id]
	if !ok {
		s = newInodeState(path, int64(e.cfg.Window.CacheSize), e.cfg.Debug.ExitOnInvariantViolation)
		e.inodes[id] = s
	}
	return s, nil
}

// Forget releases the engine's bookkeeping for id. It fails if the inode
// still has requests in flight, the way dropping a kernel inode reference
// while writeback is outstanding would corrupt accounting.
func (e *Engine) Forget(id InodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.inodes[id]
	if !ok {
		return nil
	}
	s.mu.Lock()
	outstanding := s.all.Len()
	s.mu.Unlock()
	if outstanding != 0 {
		return fmt.Errorf("%w: inode %d has %d outstanding request(s)", ErrForgetWithOutstanding, id, outstanding)
	}
	delete(e.inodes, id)
	return nil
}

// Close marks the engine closed (every entry point starts failing with
// ErrEngineClosed) and stops the background worker pool.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.pool.Stop()
}

func (e *Engine) schedule(priority bool, task func()) {
	if e.pool == nil {
		task()
		return
	}
	e.pool.Schedule(priority, task)
}

func (e *Engine) logTrace(format string, v ...interface{}) {
	logger.Tracef(format, v...)
}
