package unpfs

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"unpfs.dev/p9/attrcache"
	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

// hostFlags translates a 9P2000.L OpenFlag into the os.OpenFile flags
// the host understands: the access mode and the create/excl/trunc/append
// bits are each mapped to their os.O_* counterpart; every other bit of
// f is dropped.
func hostFlags(f wire.OpenFlag) int {
	var flags int
	switch f.Accmode() {
	case wire.OpenWronly:
		flags = os.O_WRONLY
	case wire.OpenRdwr:
		flags = os.O_RDWR
	default:
		flags = os.O_RDONLY
	}
	if f&wire.OpenCreate != 0 {
		flags |= os.O_CREATE
	}
	if f&wire.OpenExcl != 0 {
		flags |= os.O_EXCL
	}
	if f&wire.OpenTrunc != 0 {
		flags |= os.O_TRUNC
	}
	if f&wire.OpenAppend != 0 {
		flags |= os.O_APPEND
	}
	return flags
}

// Open implements Tlopen: it opens fid's current path and installs the
// resulting handle on the Fid so Read/Write/Fsync/Clunk can reach it.
// ReadDir lists the directory by path and does not use the handle.
func (u *Unpfs) Open(fid *fidtable.Fid, flags wire.OpenFlag) (wire.Qid, uint32, error) {
	path := fid.RealPath()
	va, err := u.Cache.GetOrCreate(path)
	if err != nil {
		return wire.Qid{}, 0, err
	}

	isDir := va.FileType == attrcache.TypeDir
	var f *os.File
	if isDir {
		f, err = os.Open(path)
	} else {
		f, err = os.OpenFile(path, hostFlags(flags), 0)
	}
	if err != nil {
		return wire.Qid{}, 0, err
	}
	fid.SetFile(f, isDir)
	return qidFor(path, va), 0, nil
}

// Create implements Tlcreate: name is created under fid's directory,
// opened with flags, and fid itself is rebound to the new file — the
// caller must stop treating fid as the parent directory, matching the
// surprising but standard 9P2000.L lcreate contract.
func (u *Unpfs) Create(fid *fidtable.Fid, name string, flags wire.OpenFlag, mode uint32, gid uint32) (wire.Qid, uint32, error) {
	dir := fid.RealPath()
	path := filepath.Join(dir, name)

	hf := hostFlags(flags) | os.O_CREATE | os.O_EXCL
	f, err := os.OpenFile(path, hf, os.FileMode(mode&0o7777))
	if err != nil {
		return wire.Qid{}, 0, err
	}

	va, err := u.Cache.GetOrCreate(path)
	if err != nil {
		f.Close()
		return wire.Qid{}, 0, err
	}
	fid.SetRealPath(path)
	fid.SetFile(f, false)
	return qidFor(path, va), 0, nil
}

// Read implements Tread against fid's open handle.
func (u *Unpfs) Read(fid *fidtable.Fid, offset uint64, count uint32) ([]byte, error) {
	f := fid.File()
	if f == nil {
		return nil, errNotOpen
	}
	buf := make([]byte, count)
	n, err := f.ReadAt(buf, int64(offset))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// Write implements Twrite against fid's open handle.
func (u *Unpfs) Write(fid *fidtable.Fid, offset uint64, data []byte) (uint32, error) {
	f := fid.File()
	if f == nil {
		return 0, errNotOpen
	}
	n, err := f.WriteAt(data, int64(offset))
	if err != nil {
		return uint32(n), err
	}
	return uint32(n), nil
}

// Fsync implements Tfsync against fid's open handle.
func (u *Unpfs) Fsync(fid *fidtable.Fid) error {
	f := fid.File()
	if f == nil {
		return errNotOpen
	}
	return f.Sync()
}

// ReadLink implements Treadlink.
func (u *Unpfs) ReadLink(fid *fidtable.Fid) (string, error) {
	return os.Readlink(fid.RealPath())
}
