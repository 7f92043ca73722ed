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

	"github.com/stretchr/testify/assert"
)

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()

	assert.NoError(t, Validate(&c))
}

func TestValidate_CacheSizeOutOfRange(t *testing.T) {
	c := DefaultConfig()
	c.Window.CacheSize = 1

	err := Validate(&c)

	assert.ErrorContains(t, err, CacheSizeOutOfRangeError)
}

func TestValidate_AggregateExceedsWindow(t *testing.T) {
	c := DefaultConfig()
	c.Window.AggregateSize = c.Window.CacheSize + 1

	err := Validate(&c)

	assert.ErrorContains(t, err, AggregateExceedsWindowError)
}

func TestValidate_WorkerCountMustBePositive(t *testing.T) {
	c := DefaultConfig()
	c.Concurrency.WorkerCount = 0

	err := Validate(&c)

	assert.ErrorContains(t, err, WorkerCountInvalidError)
}
