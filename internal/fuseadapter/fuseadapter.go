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

// Package fuseadapter is the one place kernel-specific (fuseops) types are
// visible. It translates the handful of kernel file-data operations the
// write-behind engine cares about into calls against writeback.Engine, and
// leaves namespace operations (lookup, mkdir, rename, ...) to whatever
// directory layer is mounted alongside it; Register is the seam such a
// layer uses to tell the adapter which local path backs an inode.
package fuseadapter

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/amarts/writeback/internal/logger"
	"github.com/amarts/writeback/internal/transport"
	"github.com/amarts/writeback/internal/writeback"
)

// Opener opens a local path and mints a transport.Handle for it, and closes
// one back. transport.Local satisfies this; tests can substitute a fake.
type Opener interface {
	Open(path string, flag int, perm os.FileMode) (transport.Handle, error)
	Close(fd transport.Handle) error
}

type openHandle struct {
	inode fuseops.InodeID
	fd    transport.Handle
	flags transport.OpenFlag
}

// Adapter implements fuseutil.FileSystem's file-data operations on top of a
// writeback.Engine. It embeds no default-ENOSYS helper from the kernel
// binding library, since the set of ops it intentionally leaves unsupported
// is itself part of its documented scope.
type Adapter struct {
	engine *writeback.Engine
	open   Opener

	mu         sync.Mutex
	paths      map[fuseops.InodeID]string
	handles    map[fuseops.HandleID]openHandle
	nextHandle fuseops.HandleID
}

// New constructs an Adapter dispatching file data operations through engine,
// opening/closing local files through open.
func New(engine *writeback.Engine, open Opener) *Adapter {
	return &Adapter{
		engine:  engine,
		open:    open,
		paths:   make(map[fuseops.InodeID]string),
		handles: make(map[fuseops.HandleID]openHandle),
	}
}

// Register tells the adapter which local path backs inode. A namespace
// layer (LookUpInode, MkDir, CreateFile, Rename, ...) calls this whenever it
// mints or renames an inode; the adapter itself never walks a directory
// tree.
func (a *Adapter) Register(inode fuseops.InodeID, path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paths[inode] = path
}

func (a *Adapter) pathFor(inode fuseops.InodeID) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.paths[inode]
	return p, ok
}

func toTransportFlags(flags uint32) (transport.OpenFlag, int) {
	var tf transport.OpenFlag
	osFlags := os.O_RDWR
	if flags&syscall.O_DIRECT != 0 {
		tf |= transport.ODirect
	}
	if flags&syscall.O_APPEND != 0 {
		tf |= transport.OAppend
		osFlags |= os.O_APPEND
	}
	if flags&syscall.O_SYNC != 0 {
		tf |= transport.OSync
		osFlags |= os.O_SYNC
	}
	return tf, osFlags
}

// OpenFile opens the local file backing op.Inode and mints a HandleID the
// kernel will echo on every subsequent ReadFile/WriteFile/FlushFile/
// SyncFile/ReleaseFileHandle for this open instance.
func (a *Adapter) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}

	tf, osFlags := toTransportFlags(uint32(op.Flags))
	fd, err := a.open.Open(path, osFlags, 0o644)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.nextHandle++
	h := a.nextHandle
	a.handles[h] = openHandle{inode: op.Inode, fd: fd, flags: tf}
	a.mu.Unlock()

	op.Handle = h
	return nil
}

func (a *Adapter) handleFor(h fuseops.HandleID) (openHandle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	oh, ok := a.handles[h]
	return oh, ok
}

// ReadFile drains writes ordered before it (per the engine's read-after-
// write guarantee) and then reads through the engine.
func (a *Adapter) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	oh, ok := a.handleFor(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	path, _ := a.pathFor(op.Inode)

	buf := make([]byte, op.Size)
	n, err := a.engine.Read(ctx, writeback.InodeID(op.Inode), path, oh.fd, buf, op.Offset, oh.flags)
	if err != nil {
		return err
	}
	op.Data = buf[:n]
	return nil
}

// WriteFile admits a write. A buffered write is acknowledged once lied
// about; anything else blocks until the engine has actually dispatched it.
func (a *Adapter) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	oh, ok := a.handleFor(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	path, _ := a.pathFor(op.Inode)

	appendWrite := oh.flags&transport.OAppend != 0
	_, err := a.engine.Write(ctx, writeback.InodeID(op.Inode), path, oh.fd, uint64(op.Handle), op.Data, op.Offset, appendWrite, oh.flags)
	return err
}

// SyncFile forces every outstanding write to drain and surfaces any latched
// transport failure.
func (a *Adapter) SyncFile(ctx context.Context, op *fuseops.SyncFileOp) error {
	oh, ok := a.handleFor(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	path, _ := a.pathFor(op.Inode)
	_, err := a.engine.Fsync(ctx, writeback.InodeID(op.Inode), path, oh.fd)
	return err
}

// FlushFile behaves like SyncFile; the engine treats the two identically.
func (a *Adapter) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	oh, ok := a.handleFor(op.Handle)
	if !ok {
		return syscall.EBADF
	}
	path, _ := a.pathFor(op.Inode)
	_, err := a.engine.Flush(ctx, writeback.InodeID(op.Inode), path, oh.fd)
	return err
}

// ReleaseFileHandle closes the local file backing a handle. It deliberately
// does not forget the inode; ForgetInode is a separate kernel event.
func (a *Adapter) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	a.mu.Lock()
	oh, ok := a.handles[op.Handle]
	delete(a.handles, op.Handle)
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return a.open.Close(oh.fd)
}

func attrToInode(attr *transport.Attr) fuseops.InodeAttributes {
	if attr == nil {
		return fuseops.InodeAttributes{}
	}
	return fuseops.InodeAttributes{
		Size:  uint64(attr.Size),
		Mode:  os.FileMode(attr.Mode),
		Mtime: attr.Mtime,
		Ctime: attr.Ctime,
	}
}

// GetInodeAttributes drains ordered writes (it must observe their effect)
// without consuming a latched error.
func (a *Adapter) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}
	attr, err := a.engine.Stat(ctx, writeback.InodeID(op.Inode), path)
	if err != nil {
		return err
	}
	op.Attributes = attrToInode(attr)
	op.AttributesExpiration = time.Now().Add(time.Second)
	return nil
}

// SetInodeAttributes orders against every outstanding write and consumes a
// latched error, the same as a downstream setattr would.
func (a *Adapter) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	path, ok := a.pathFor(op.Inode)
	if !ok {
		return syscall.ENOENT
	}

	var mask transport.AttrMask
	attr := &transport.Attr{}
	if op.Size != nil {
		mask |= transport.AttrSize
		attr.Size = int64(*op.Size)
	}
	if op.Mode != nil {
		mask |= transport.AttrMode
		attr.Mode = uint32(*op.Mode)
	}
	if op.Mtime != nil {
		mask |= transport.AttrMtime
		attr.Mtime = *op.Mtime
	}

	result, err := a.engine.Setattr(ctx, writeback.InodeID(op.Inode), path, attr, mask)
	if err != nil {
		return err
	}
	op.Attributes = attrToInode(result)
	op.AttributesExpiration = time.Now().Add(time.Second)
	return nil
}

// ForgetInode tears down the engine's bookkeeping for an inode the kernel is
// dropping from its cache, and releases the adapter's path registration.
func (a *Adapter) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	if err := a.engine.Forget(writeback.InodeID(op.ID)); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.paths, op.ID)
	a.mu.Unlock()
	return nil
}

// Destroy stops the engine's background dispatch pool. The kernel calls
// this once, when the file system is being unmounted.
func (a *Adapter) Destroy() {
	a.engine.Close()
}

// Everything below is namespace/directory territory this adapter does not
// own. StatFS succeeds with zeroed statistics; every other operation is
// logged at TRACE and rejected with ENOSYS so a caller wiring this
// adapter in without a namespace layer gets a clear, cheap failure instead
// of a silent no-op.

func (a *Adapter) notImplemented(name string) error {
	logger.Tracef("fuseadapter: %s not implemented", name)
	return syscall.ENOSYS
}

func (a *Adapter) StatFS(ctx context.Context, op *fuseops.StatFSOp) error { return nil }

func (a *Adapter) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	return a.notImplemented("LookUpInode")
}

func (a *Adapter) BatchForget(ctx context.Context, op *fuseops.BatchForgetOp) error {
	return a.notImplemented("BatchForget")
}

func (a *Adapter) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	return a.notImplemented("MkDir")
}

func (a *Adapter) MkNode(ctx context.Context, op *fuseops.MkNodeOp) error {
	return a.notImplemented("MkNode")
}

func (a *Adapter) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	return a.notImplemented("CreateFile")
}

func (a *Adapter) CreateLink(ctx context.Context, op *fuseops.CreateLinkOp) error {
	return a.notImplemented("CreateLink")
}

func (a *Adapter) CreateSymlink(ctx context.Context, op *fuseops.CreateSymlinkOp) error {
	return a.notImplemented("CreateSymlink")
}

func (a *Adapter) Rename(ctx context.Context, op *fuseops.RenameOp) error {
	return a.notImplemented("Rename")
}

func (a *Adapter) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	return a.notImplemented("RmDir")
}

func (a *Adapter) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	return a.notImplemented("Unlink")
}

func (a *Adapter) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	return a.notImplemented("OpenDir")
}

func (a *Adapter) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	return a.notImplemented("ReadDir")
}

func (a *Adapter) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	return a.notImplemented("ReleaseDirHandle")
}

func (a *Adapter) ReadSymlink(ctx context.Context, op *fuseops.ReadSymlinkOp) error {
	return a.notImplemented("ReadSymlink")
}

func (a *Adapter) RemoveXattr(ctx context.Context, op *fuseops.RemoveXattrOp) error {
	return a.notImplemented("RemoveXattr")
}

func (a *Adapter) GetXattr(ctx context.Context, op *fuseops.GetXattrOp) error {
	return a.notImplemented("GetXattr")
}

func (a *Adapter) ListXattr(ctx context.Context, op *fuseops.ListXattrOp) error {
	return a.notImplemented("ListXattr")
}

func (a *Adapter) SetXattr(ctx context.Context, op *fuseops.SetXattrOp) error {
	return a.notImplemented("SetXattr")
}

func (a *Adapter) Fallocate(ctx context.Context, op *fuseops.FallocateOp) error {
	return a.notImplemented("Fallocate")
}
