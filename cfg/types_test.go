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

package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteSize_UnmarshalText(t *testing.T) {
	cases := []struct {
		in   string
		want ByteSize
	}{
		{"512", 512},
		{"512KiB", 512 * KiB},
		{"1MiB", 1 * MiB},
		{"1GiB", 1 * GiB},
		{"2gib", 2 * GiB},
	}

	for _, tc := range cases {
		var b ByteSize
		require.NoError(t, b.UnmarshalText([]byte(tc.in)), tc.in)
		assert.Equal(t, tc.want, b, tc.in)
	}
}

func TestByteSize_UnmarshalText_Invalid(t *testing.T) {
	var b ByteSize
	assert.Error(t, b.UnmarshalText([]byte("not-a-size")))
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "1MiB", ByteSize(1*MiB).String())
	assert.Equal(t, "512KiB", ByteSize(512*KiB).String())
	assert.Equal(t, "10B", ByteSize(10).String())
}

func TestLogSeverity_Rank(t *testing.T) {
	assert.Less(t, TraceLogSeverity.Rank(), DebugLogSeverity.Rank())
	assert.Less(t, ErrorLogSeverity.Rank(), OffLogSeverity.Rank())
	assert.Equal(t, -1, LogSeverity("bogus").Rank())
}

func TestLogSeverity_UnmarshalText_Invalid(t *testing.T) {
	var l LogSeverity
	assert.Error(t, l.UnmarshalText([]byte("bogus")))
}
