// Package fidtable implements the per-session FID registry: a mapping
// from a client-chosen 32-bit identifier to the host path and optional
// open file handle it currently names.
package fidtable

import (
	"os"
	"sync"

	"unpfs.dev/p9/wire"
)

// Fid holds the mutable state attached to one client FID. realpath is
// guarded by a many-reader/one-writer lock since walk, create, and
// attach are the only writers and getattr-style handlers only read it
// concurrently; file is guarded by a plain mutex since open/read/write/
// fsync/clunk all need exclusive access to avoid racing on the
// underlying descriptor's offset and close state.
type Fid struct {
	pathMu   sync.RWMutex
	realpath string

	fileMu sync.Mutex
	file   *os.File
	isDir  bool
}

// RealPath returns the host path fid currently names.
func (f *Fid) RealPath() string {
	f.pathMu.RLock()
	defer f.pathMu.RUnlock()
	return f.realpath
}

// SetRealPath rebinds fid to a new host path, as done by walk, attach,
// and lcreate's directory-fid rebind.
func (f *Fid) SetRealPath(p string) {
	f.pathMu.Lock()
	f.realpath = p
	f.pathMu.Unlock()
}

// File returns the open handle for fid, or nil if it hasn't been
// opened (or has since been clunked).
func (f *Fid) File() *os.File {
	f.fileMu.Lock()
	defer f.fileMu.Unlock()
	return f.file
}

// SetFile installs h as fid's open handle; isDir records whether h was
// opened for directory traversal, since readdir and read/write use
// different host primitives on the same Fid.
func (f *Fid) SetFile(h *os.File, isDir bool) {
	f.fileMu.Lock()
	f.file = h
	f.isDir = isDir
	f.fileMu.Unlock()
}

// IsDir reports whether fid's open handle (if any) was opened as a directory.
func (f *Fid) IsDir() bool {
	f.fileMu.Lock()
	defer f.fileMu.Unlock()
	return f.isDir
}

// CloseFile closes and clears fid's open handle, if any. Safe to call
// on a never-opened or already-closed Fid.
func (f *Fid) CloseFile() error {
	f.fileMu.Lock()
	defer f.fileMu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Table is a per-session registry of live FIDs. Distinct entries never
// serialize against each other; the table's own lock is held only for
// the brief map operation, never across a Fid's own locks or any I/O.
type Table struct {
	mu sync.Mutex
	m  map[uint32]*Fid
}

// New returns an empty Table.
func New() *Table {
	return &Table{m: make(map[uint32]*Fid)}
}

// Insert creates and registers a new Fid bound to realpath. It fails
// with EBADF if fid is NOFID or already registered.
func (t *Table) Insert(fid uint32, realpath string) (*Fid, error) {
	if fid == wire.NOFID {
		return nil, errBadFid
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.m[fid]; ok {
		return nil, errBadFid
	}
	f := &Fid{realpath: realpath}
	t.m[fid] = f
	return f, nil
}

// Get returns the live Fid for fid, or EBADF if it is not registered.
func (t *Table) Get(fid uint32) (*Fid, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.m[fid]
	if !ok {
		return nil, errBadFid
	}
	return f, nil
}

// Remove drops fid from the table and returns its Fid, or EBADF if
// fid was not registered. The caller is responsible for closing any
// open handle on the returned Fid.
func (t *Table) Remove(fid uint32) (*Fid, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.m[fid]
	if !ok {
		return nil, errBadFid
	}
	delete(t.m, fid)
	return f, nil
}

// Each calls fn for every currently-registered Fid; used at connection
// teardown to close all open handles.
func (t *Table) Each(fn func(fid uint32, f *Fid)) {
	t.mu.Lock()
	snapshot := make(map[uint32]*Fid, len(t.m))
	for fid, f := range t.m {
		snapshot[fid] = f
	}
	t.mu.Unlock()
	for fid, f := range snapshot {
		fn(fid, f)
	}
}
