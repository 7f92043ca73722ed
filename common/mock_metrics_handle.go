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
	"time"

	"github.com/stretchr/testify/mock"
)

// MockMetricHandle is a testify mock satisfying MetricHandle.
type MockMetricHandle struct {
	mock.Mock
}

func (m *MockMetricHandle) EnqueueCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockMetricHandle) LieCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockMetricHandle) CoalesceMergeCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockMetricHandle) FulfillLatency(ctx context.Context, latency time.Duration, attrs []MetricAttr) {
	m.Called(ctx, latency, attrs)
}

func (m *MockMetricHandle) BatchSize(ctx context.Context, sizeBytes int64, attrs []MetricAttr) {
	m.Called(ctx, sizeBytes, attrs)
}

func (m *MockMetricHandle) LatchedErrorCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockMetricHandle) WindowCurrentBytes(ctx context.Context, value int64, attrs []MetricAttr) {
	m.Called(ctx, value, attrs)
}

func (m *MockMetricHandle) TransitBytes(ctx context.Context, value int64, attrs []MetricAttr) {
	m.Called(ctx, value, attrs)
}
