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

package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

type ShutdownFn func(ctx context.Context) error

// The default time buckets for latency metrics, in microseconds.
var defaultLatencyDistribution = metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000, 10000, 20000, 50000, 100000)

// The default size buckets for batch/payload size metrics, in bytes.
var defaultSizeDistribution = metric.WithExplicitBucketBoundaries(128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536, 131072, 262144, 524288, 1048576)

// JoinShutdownFunc combines the provided shutdown functions into a single function.
func JoinShutdownFunc(shutdownFns ...ShutdownFn) ShutdownFn {
	return func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFns {
			if fn == nil {
				continue
			}
			err = errors.Join(err, fn(ctx))
		}
		return err
	}
}

// MetricAttr represents the attributes associated with a metric.
type MetricAttr struct {
	Key, Value string
}

func (a *MetricAttr) String() string {
	return fmt.Sprintf("Key: %s, Value: %s", a.Key, a.Value)
}

// QueueMetricHandle instruments the admission and coalescing path.
type QueueMetricHandle interface {
	EnqueueCount(ctx context.Context, inc int64, attrs []MetricAttr)
	LieCount(ctx context.Context, inc int64, attrs []MetricAttr)
	CoalesceMergeCount(ctx context.Context, inc int64, attrs []MetricAttr)
}

// FulfillMetricHandle instruments the batched-dispatch path.
type FulfillMetricHandle interface {
	FulfillLatency(ctx context.Context, latency time.Duration, attrs []MetricAttr)
	BatchSize(ctx context.Context, sizeBytes int64, attrs []MetricAttr)
	LatchedErrorCount(ctx context.Context, inc int64, attrs []MetricAttr)
}

// WindowMetricHandle instruments the per-inode window/flow-control gauges.
type WindowMetricHandle interface {
	WindowCurrentBytes(ctx context.Context, value int64, attrs []MetricAttr)
	TransitBytes(ctx context.Context, value int64, attrs []MetricAttr)
}

// MetricHandle is the full metrics surface the write-behind engine
// instruments itself with. Every method is safe to call from any goroutine.
type MetricHandle interface {
	QueueMetricHandle
	FulfillMetricHandle
	WindowMetricHandle
}

// CaptureEnqueueMetrics records a single admitted operation of the given
// request kind.
func CaptureEnqueueMetrics(ctx context.Context, metricHandle MetricHandle, kind string) {
	metricHandle.EnqueueCount(ctx, 1, []MetricAttr{{Key: RequestKindKey, Value: kind}})
}

// CaptureFulfillMetrics records one completed batch dispatch.
func CaptureFulfillMetrics(ctx context.Context, metricHandle MetricHandle, latency time.Duration, batchSizeBytes int64, memberCount int) {
	attrs := []MetricAttr{{Key: RequestKindKey, Value: "WRITE"}}
	metricHandle.FulfillLatency(ctx, latency, attrs)
	metricHandle.BatchSize(ctx, batchSizeBytes, attrs)
}
