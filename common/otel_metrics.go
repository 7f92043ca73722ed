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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RequestKindKey annotates a metric with the write-behind request kind:
	// WRITE, READ, FLUSH, FSYNC, STAT, FSTAT, TRUNCATE, FTRUNCATE, SETATTR,
	// FSETATTR.
	RequestKindKey = "request_kind"

	// InodeKey annotates a metric with the owning inode's identity.
	InodeKey = "inode"

	// ReadType annotates a read-path metric with Sequential/Random.
	ReadType = "read_type"
)

var (
	requestKindAttributeSet sync.Map
)

func getRequestKindAttributeSet(kind string) metric.MeasurementOption {
	attrSet, ok := requestKindAttributeSet.Load(kind)
	if ok {
		return attrSet.(metric.MeasurementOption)
	}
	v, _ := requestKindAttributeSet.LoadOrStore(kind, metric.WithAttributeSet(attribute.NewSet(attribute.String(RequestKindKey, kind))))
	return v.(metric.MeasurementOption)
}

func attrsToOption(attrs []MetricAttr) metric.MeasurementOption {
	if len(attrs) == 1 && attrs[0].Key == RequestKindKey {
		return getRequestKindAttributeSet(attrs[0].Value)
	}
	kv := make([]attribute.KeyValue, len(attrs))
	for i, a := range attrs {
		kv[i] = attribute.String(a.Key, a.Value)
	}
	return metric.WithAttributes(kv...)
}

// otelMetrics is the OpenTelemetry-backed MetricHandle implementation.
type otelMetrics struct {
	enqueueCount       metric.Int64Counter
	lieCount           metric.Int64Counter
	coalesceMergeCount metric.Int64Counter

	fulfillLatency    metric.Float64Histogram
	batchSize         metric.Int64Histogram
	latchedErrorCount metric.Int64Counter

	windowCurrentBytes metric.Int64UpDownCounter
	transitBytes       metric.Int64UpDownCounter
}

func (o *otelMetrics) EnqueueCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.enqueueCount.Add(ctx, inc, attrsToOption(attrs))
}

func (o *otelMetrics) LieCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.lieCount.Add(ctx, inc, attrsToOption(attrs))
}

func (o *otelMetrics) CoalesceMergeCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.coalesceMergeCount.Add(ctx, inc, attrsToOption(attrs))
}

func (o *otelMetrics) FulfillLatency(ctx context.Context, latency time.Duration, attrs []MetricAttr) {
	o.fulfillLatency.Record(ctx, float64(latency.Microseconds()), attrsToOption(attrs))
}

func (o *otelMetrics) BatchSize(ctx context.Context, sizeBytes int64, attrs []MetricAttr) {
	o.batchSize.Record(ctx, sizeBytes, attrsToOption(attrs))
}

func (o *otelMetrics) LatchedErrorCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.latchedErrorCount.Add(ctx, inc, attrsToOption(attrs))
}

func (o *otelMetrics) WindowCurrentBytes(ctx context.Context, value int64, attrs []MetricAttr) {
	o.windowCurrentBytes.Add(ctx, value, attrsToOption(attrs))
}

func (o *otelMetrics) TransitBytes(ctx context.Context, value int64, attrs []MetricAttr) {
	o.transitBytes.Add(ctx, value, attrsToOption(attrs))
}

// NewOTelMetrics builds the MetricHandle backed by whatever global
// MeterProvider has been installed by the process (otel.SetMeterProvider).
func NewOTelMetrics() (MetricHandle, error) {
	queueMeter := otel.Meter("writeback/queue")
	fulfillMeter := otel.Meter("writeback/fulfill")
	windowMeter := otel.Meter("writeback/window")

	enqueueCount, err1 := queueMeter.Int64Counter("writeback/enqueue_count", metric.WithDescription("Operations admitted into an inode's write-behind queue."))
	lieCount, err2 := queueMeter.Int64Counter("writeback/lie_count", metric.WithDescription("Buffered writes acknowledged optimistically."))
	coalesceMergeCount, err3 := queueMeter.Int64Counter("writeback/coalesce_merge_count", metric.WithDescription("Small writes absorbed into a coalescing holder."))

	fulfillLatency, err4 := fulfillMeter.Float64Histogram("writeback/fulfill_latency", metric.WithDescription("Time from batch submission to completion."), metric.WithUnit("us"), defaultLatencyDistribution)
	batchSize, err5 := fulfillMeter.Int64Histogram("writeback/batch_size", metric.WithDescription("Payload size of a dispatched writev batch."), metric.WithUnit("By"), defaultSizeDistribution)
	latchedErrorCount, err6 := fulfillMeter.Int64Counter("writeback/latched_error_count", metric.WithDescription("Errors latched onto an inode by the fulfiller."))

	windowCurrentBytes, err7 := windowMeter.Int64UpDownCounter("writeback/window_current_bytes", metric.WithDescription("Current liability-set byte usage."), metric.WithUnit("By"))
	transitBytes, err8 := windowMeter.Int64UpDownCounter("writeback/transit_bytes", metric.WithDescription("Bytes currently in flight downward."), metric.WithUnit("By"))

	if err := errors.Join(err1, err2, err3, err4, err5, err6, err7, err8); err != nil {
		return nil, err
	}

	return &otelMetrics{
		enqueueCount:       enqueueCount,
		lieCount:           lieCount,
		coalesceMergeCount: coalesceMergeCount,
		fulfillLatency:     fulfillLatency,
		batchSize:          batchSize,
		latchedErrorCount:  latchedErrorCount,
		windowCurrentBytes: windowCurrentBytes,
		transitBytes:       transitBytes,
	}, nil
}
