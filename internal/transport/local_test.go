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

package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_WritevThenReadvRoundTrips(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal()
	ctx := context.Background()

	fd, err := l.Open(filepath.Join(dir, "f"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close(fd) })

	n, errno, _, post := l.Writev(ctx, fd, [][]byte{[]byte("hello"), []byte(" world")}, 0, 0, nil)
	require.NoError(t, errno)
	assert.EqualValues(t, 11, n)
	assert.EqualValues(t, 11, post.Size)

	buf := make([]byte, 11)
	n, errno, _, _ = l.Readv(ctx, fd, [][]byte{buf}, 0, 0)
	require.NoError(t, errno)
	assert.EqualValues(t, 11, n)
	assert.Equal(t, "hello world", string(buf))
}

func TestLocal_FtruncateShrinksFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal()
	ctx := context.Background()

	fd, err := l.Open(filepath.Join(dir, "f"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close(fd) })

	_, errno, _, _ := l.Writev(ctx, fd, [][]byte{[]byte("0123456789")}, 0, 0, nil)
	require.NoError(t, errno)

	pre, post, err := l.Ftruncate(ctx, fd, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 10, pre.Size)
	assert.EqualValues(t, 4, post.Size)
}

func TestLocal_StatUnknownPathErrors(t *testing.T) {
	l := NewLocal()
	_, err := l.Stat(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLocal_ClosedHandleErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal()
	ctx := context.Background()

	fd, err := l.Open(filepath.Join(dir, "f"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	require.NoError(t, l.Close(fd))

	_, errno, _, _ := l.Writev(ctx, fd, [][]byte{[]byte("x")}, 0, 0, nil)
	assert.ErrorIs(t, errno, os.ErrClosed)
}
