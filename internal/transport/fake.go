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
	"sync"
	"time"
)

// Fake is an in-memory Downstream backed by a plain byte slice per handle,
// for use in engine tests that need a real (if trivial) backing store
// rather than a mock asserting call expectations. It is safe for
// concurrent use.
type Fake struct {
	mu    sync.Mutex
	files map[Handle]*fakeFile

	// WritevErr, when set, is returned as errno by every Writev call
	// instead of performing the write — used to exercise the engine's
	// latched-error path.
	WritevErr error

	// WritevDelay, when set, is slept before every Writev completes —
	// used to widen the window for conflict/in-flight races in tests.
	WritevDelay time.Duration

	writevCalls int
}

type fakeFile struct {
	data []byte
}

// NewFake returns an empty Fake transport.
func NewFake() *Fake {
	return &Fake{files: make(map[Handle]*fakeFile)}
}

func (f *Fake) file(fd Handle) *fakeFile {
	ff, ok := f.files[fd]
	if !ok {
		ff = &fakeFile{}
		f.files[fd] = ff
	}
	return ff
}

// Contents returns a copy of the bytes currently stored for fd, for test
// assertions.
func (f *Fake) Contents(fd Handle) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	ff := f.file(fd)
	out := make([]byte, len(ff.data))
	copy(out, ff.data)
	return out
}

// WritevCallCount reports how many Writev calls the fake has seen, for
// tests asserting on fulfiller batching behavior.
func (f *Fake) WritevCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writevCalls
}

func (f *Fake) Writev(_ context.Context, fd Handle, iov [][]byte, off int64, _ OpenFlag, _ any) (int64, error, *Attr, *Attr) {
	if f.WritevDelay > 0 {
		time.Sleep(f.WritevDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writevCalls++

	if f.WritevErr != nil {
		return 0, f.WritevErr, nil, nil
	}

	ff := f.file(fd)
	var n int64
	cursor := off
	for _, buf := range iov {
		end := cursor + int64(len(buf))
		if end > int64(len(ff.data)) {
			grown := make([]byte, end)
			copy(grown, ff.data)
			ff.data = grown
		}
		copy(ff.data[cursor:end], buf)
		cursor = end
		n += int64(len(buf))
	}

	pre := &Attr{Size: int64(len(ff.data)) - n, Mtime: time.Now()}
	post := &Attr{Size: int64(len(ff.data)), Mtime: time.Now()}
	return n, nil, pre, post
}

func (f *Fake) Readv(_ context.Context, fd Handle, iov [][]byte, off int64, _ OpenFlag) (int64, error, *Attr, *Attr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ff := f.file(fd)

	var n int64
	cursor := off
	for _, buf := range iov {
		if cursor >= int64(len(ff.data)) {
			break
		}
		end := cursor + int64(len(buf))
		if end > int64(len(ff.data)) {
			end = int64(len(ff.data))
		}
		copied := copy(buf, ff.data[cursor:end])
		n += int64(copied)
		cursor += int64(copied)
		if copied < len(buf) {
			break
		}
	}

	attr := &Attr{Size: int64(len(ff.data))}
	return n, nil, attr, attr
}

func (f *Fake) Flush(_ context.Context, fd Handle) (error, *Attr, *Attr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attr := &Attr{Size: int64(len(f.file(fd).data))}
	return nil, attr, attr
}

func (f *Fake) Fsync(ctx context.Context, fd Handle) (error, *Attr, *Attr) {
	return f.Flush(ctx, fd)
}

func (f *Fake) Stat(_ context.Context, _ string) (*Attr, error) {
	return &Attr{}, nil
}

func (f *Fake) Fstat(_ context.Context, fd Handle) (*Attr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Attr{Size: int64(len(f.file(fd).data))}, nil
}

func (f *Fake) Truncate(_ context.Context, _ string, size int64) (*Attr, *Attr, error) {
	return &Attr{}, &Attr{Size: size}, nil
}

func (f *Fake) Ftruncate(_ context.Context, fd Handle, size int64) (*Attr, *Attr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ff := f.file(fd)
	pre := &Attr{Size: int64(len(ff.data))}

	if size <= int64(len(ff.data)) {
		ff.data = ff.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, ff.data)
		ff.data = grown
	}

	post := &Attr{Size: size}
	return pre, post, nil
}

func (f *Fake) Setattr(_ context.Context, _ string, attr *Attr, _ AttrMask) (*Attr, *Attr, error) {
	return &Attr{}, attr, nil
}

func (f *Fake) Fsetattr(_ context.Context, _ Handle, attr *Attr, _ AttrMask) (*Attr, *Attr, error) {
	return &Attr{}, attr, nil
}
