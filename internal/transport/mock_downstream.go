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

	"github.com/stretchr/testify/mock"
)

// MockDownstream is a testify mock satisfying Downstream, for tests that
// need to assert on call arguments/ordering rather than observe real state
// changes (use Fake for that).
type MockDownstream struct {
	mock.Mock
}

func (m *MockDownstream) Writev(ctx context.Context, fd Handle, iov [][]byte, off int64, flags OpenFlag, iobref any) (int64, error, *Attr, *Attr) {
	args := m.Called(ctx, fd, iov, off, flags, iobref)
	return args.Get(0).(int64), args.Error(1), attrOrNil(args.Get(2)), attrOrNil(args.Get(3))
}

func (m *MockDownstream) Readv(ctx context.Context, fd Handle, iov [][]byte, off int64, flags OpenFlag) (int64, error, *Attr, *Attr) {
	args := m.Called(ctx, fd, iov, off, flags)
	return args.Get(0).(int64), args.Error(1), attrOrNil(args.Get(2)), attrOrNil(args.Get(3))
}

func (m *MockDownstream) Flush(ctx context.Context, fd Handle) (error, *Attr, *Attr) {
	args := m.Called(ctx, fd)
	return args.Error(0), attrOrNil(args.Get(1)), attrOrNil(args.Get(2))
}

func (m *MockDownstream) Fsync(ctx context.Context, fd Handle) (error, *Attr, *Attr) {
	args := m.Called(ctx, fd)
	return args.Error(0), attrOrNil(args.Get(1)), attrOrNil(args.Get(2))
}

func (m *MockDownstream) Stat(ctx context.Context, path string) (*Attr, error) {
	args := m.Called(ctx, path)
	return attrOrNil(args.Get(0)), args.Error(1)
}

func (m *MockDownstream) Fstat(ctx context.Context, fd Handle) (*Attr, error) {
	args := m.Called(ctx, fd)
	return attrOrNil(args.Get(0)), args.Error(1)
}

func (m *MockDownstream) Truncate(ctx context.Context, path string, size int64) (*Attr, *Attr, error) {
	args := m.Called(ctx, path, size)
	return attrOrNil(args.Get(0)), attrOrNil(args.Get(1)), args.Error(2)
}

func (m *MockDownstream) Ftruncate(ctx context.Context, fd Handle, size int64) (*Attr, *Attr, error) {
	args := m.Called(ctx, fd, size)
	return attrOrNil(args.Get(0)), attrOrNil(args.Get(1)), args.Error(2)
}

func (m *MockDownstream) Setattr(ctx context.Context, path string, attr *Attr, mask AttrMask) (*Attr, *Attr, error) {
	args := m.Called(ctx, path, attr, mask)
	return attrOrNil(args.Get(0)), attrOrNil(args.Get(1)), args.Error(2)
}

func (m *MockDownstream) Fsetattr(ctx context.Context, fd Handle, attr *Attr, mask AttrMask) (*Attr, *Attr, error) {
	args := m.Called(ctx, fd, attr, mask)
	return attrOrNil(args.Get(0)), attrOrNil(args.Get(1)), args.Error(2)
}

func attrOrNil(v any) *Attr {
	if v == nil {
		return nil
	}
	return v.(*Attr)
}
