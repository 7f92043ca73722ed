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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amarts/writeback/cfg"
	"github.com/amarts/writeback/clock"
	"github.com/amarts/writeback/common"
	"github.com/amarts/writeback/internal/transport"
	"github.com/amarts/writeback/internal/workerpool"
)

// newTestEngine wires an Engine against an in-memory Fake transport with a
// near-instant fake clock, so trickling-writes timers fire deterministically
// fast instead of forcing every coalescing test to sleep for real.
func newTestEngine(t *testing.T, configure func(*cfg.Config)) (*Engine, *transport.Fake) {
	t.Helper()

	c := cfg.Config{}
	c.Window.CacheSize = 1 << 20
	c.Window.AggregateSize = 128 << 10
	c.Window.PageSize = 4 << 10
	c.Behavior.TricklingWrites = true
	if configure != nil {
		configure(&c)
	}

	pool, err := workerpool.NewStaticWorkerPool(2, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Stop)

	fake := transport.NewFake()
	e := NewEngine(c, fake, common.NewNoopMetrics(), pool, &clock.FakeClock{WaitTime: time.Millisecond})
	return e, fake
}

func waitForWritevCalls(t *testing.T, fake *transport.Fake, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fake.WritevCallCount() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d writev call(s), saw %d", n, fake.WritevCallCount())
}
