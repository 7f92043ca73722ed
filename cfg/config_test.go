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
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)

	c, err := Load(flagSet)

	require.NoError(t, err)
	assert.Equal(t, 1*MiB, c.Window.CacheSize)
	assert.Equal(t, 128*KiB, c.Window.AggregateSize)
	assert.True(t, c.Behavior.FlushBehind)
	assert.True(t, c.Behavior.TricklingWrites)
	assert.False(t, c.Behavior.StrictODirect)
	assert.Equal(t, 64, c.Concurrency.MaxInFlight)
	assert.Equal(t, InfoLogSeverity, c.Logging.Severity)
}

func TestLoad_FlagOverride(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(flagSet))
	require.NoError(t, flagSet.Set("cache-size", "2MiB"))
	require.NoError(t, flagSet.Set("strict-write-ordering", "true"))

	c, err := Load(flagSet)

	require.NoError(t, err)
	assert.Equal(t, 2*MiB, c.Window.CacheSize)
	assert.True(t, c.Behavior.StrictWriteOrdering)
}

func TestLoad_RejectsAggregateLargerThanWindow(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(flagSet))
	require.NoError(t, flagSet.Set("cache-size", "512KiB"))
	require.NoError(t, flagSet.Set("aggregate-size", "1MiB"))

	_, err := Load(flagSet)

	assert.Error(t, err)
}
