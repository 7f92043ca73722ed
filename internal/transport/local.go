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
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

// Local is a Downstream backed by real files on a local directory tree. It
// stands in for the remote-brick transport the engine is ultimately meant
// to sit in front of: every downward call here is the same shape
// (writev/readv/flush/fsync/stat/truncate/setattr) a brick-protocol client
// would expose, but dispatched against plain *os.File instead of a wire
// connection.
type Local struct {
	mu    sync.Mutex
	files map[Handle]*os.File
	next  Handle
}

// NewLocal returns a Local transport with no open handles.
func NewLocal() *Local {
	return &Local{files: make(map[Handle]*os.File)}
}

// Open opens path and mints a Handle for it. The caller (the FUSE adapter)
// owns the mapping from kernel inode/handle IDs to the Handle returned here.
func (l *Local) Open(path string, flag int, perm os.FileMode) (Handle, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	h := l.next
	l.files[h] = f
	return h, nil
}

// Close releases the local file backing fd. It is a no-op if fd is unknown.
func (l *Local) Close(fd Handle) error {
	l.mu.Lock()
	f, ok := l.files[fd]
	if ok {
		delete(l.files, fd)
	}
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return f.Close()
}

func (l *Local) file(fd Handle) (*os.File, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.files[fd]
	return f, ok
}

func attrFromInfo(info os.FileInfo) *Attr {
	return &Attr{Size: info.Size(), Mtime: info.ModTime(), Mode: uint32(info.Mode())}
}

func (l *Local) statFd(f *os.File) *Attr {
	info, err := f.Stat()
	if err != nil {
		return &Attr{}
	}
	return attrFromInfo(info)
}

func (l *Local) Writev(_ context.Context, fd Handle, iov [][]byte, off int64, _ OpenFlag, _ any) (int64, error, *Attr, *Attr) {
	f, ok := l.file(fd)
	if !ok {
		return 0, os.ErrClosed, nil, nil
	}

	pre := l.statFd(f)
	var n int64
	cursor := off
	for _, buf := range iov {
		written, err := f.WriteAt(buf, cursor)
		n += int64(written)
		cursor += int64(written)
		if err != nil {
			return n, err, pre, l.statFd(f)
		}
	}
	return n, nil, pre, l.statFd(f)
}

func (l *Local) Readv(_ context.Context, fd Handle, iov [][]byte, off int64, _ OpenFlag) (int64, error, *Attr, *Attr) {
	f, ok := l.file(fd)
	if !ok {
		return 0, os.ErrClosed, nil, nil
	}

	attr := l.statFd(f)
	var n int64
	cursor := off
	for _, buf := range iov {
		read, err := f.ReadAt(buf, cursor)
		n += int64(read)
		cursor += int64(read)
		if err != nil {
			// EOF partway through a vector is success at the protocol level;
			// anything else is a real read failure.
			if errors.Is(err, io.EOF) {
				break
			}
			return n, err, attr, attr
		}
	}
	return n, nil, attr, attr
}

func (l *Local) Flush(_ context.Context, fd Handle) (error, *Attr, *Attr) {
	f, ok := l.file(fd)
	if !ok {
		return os.ErrClosed, nil, nil
	}
	attr := l.statFd(f)
	return nil, attr, attr
}

func (l *Local) Fsync(_ context.Context, fd Handle) (error, *Attr, *Attr) {
	f, ok := l.file(fd)
	if !ok {
		return os.ErrClosed, nil, nil
	}
	err := f.Sync()
	attr := l.statFd(f)
	return err, attr, attr
}

func (l *Local) Stat(_ context.Context, path string) (*Attr, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return attrFromInfo(info), nil
}

func (l *Local) Fstat(_ context.Context, fd Handle) (*Attr, error) {
	f, ok := l.file(fd)
	if !ok {
		return nil, os.ErrClosed
	}
	return l.statFd(f), nil
}

func (l *Local) Truncate(_ context.Context, path string, size int64) (*Attr, *Attr, error) {
	pre, _ := l.Stat(context.Background(), path)
	if err := os.Truncate(path, size); err != nil {
		return pre, nil, err
	}
	post, err := l.Stat(context.Background(), path)
	return pre, post, err
}

func (l *Local) Ftruncate(_ context.Context, fd Handle, size int64) (*Attr, *Attr, error) {
	f, ok := l.file(fd)
	if !ok {
		return nil, nil, os.ErrClosed
	}
	pre := l.statFd(f)
	if err := f.Truncate(size); err != nil {
		return pre, nil, err
	}
	return pre, l.statFd(f), nil
}

func applyAttr(path string, attr *Attr, mask AttrMask) error {
	if mask&AttrSize != 0 {
		if err := os.Truncate(path, attr.Size); err != nil {
			return err
		}
	}
	if mask&AttrMode != 0 {
		if err := os.Chmod(path, os.FileMode(attr.Mode)); err != nil {
			return err
		}
	}
	if mask&AttrMtime != 0 {
		if err := os.Chtimes(path, time.Now(), attr.Mtime); err != nil {
			return err
		}
	}
	return nil
}

func (l *Local) Setattr(_ context.Context, path string, attr *Attr, mask AttrMask) (*Attr, *Attr, error) {
	pre, _ := l.Stat(context.Background(), path)
	if err := applyAttr(path, attr, mask); err != nil {
		return pre, nil, err
	}
	post, err := l.Stat(context.Background(), path)
	return pre, post, err
}

func (l *Local) Fsetattr(_ context.Context, fd Handle, attr *Attr, mask AttrMask) (*Attr, *Attr, error) {
	f, ok := l.file(fd)
	if !ok {
		return nil, nil, os.ErrClosed
	}
	pre := l.statFd(f)
	if mask&AttrSize != 0 {
		if err := f.Truncate(attr.Size); err != nil {
			return pre, nil, err
		}
	}
	if mask&AttrMode != 0 {
		if err := f.Chmod(os.FileMode(attr.Mode)); err != nil {
			return pre, nil, err
		}
	}
	return pre, l.statFd(f), nil
}

var _ Downstream = (*Local)(nil)
