package unpfs

import (
	"os"
	"path/filepath"
	"sort"

	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

// Linux dirent d_type values, used for DirEntry.Type.
const (
	dtDir = 4
	dtReg = 8
	dtLnk = 10
)

func directoryEntrySize(name string) uint32 {
	return uint32(wire.QidLen + 8 + 1 + 2 + len(name))
}

// ReadDir implements Treaddir's cookie convention: cookie 0 names the
// synthetic "." entry, cookie 1 names "..", and cookie N>=2 names the
// (N-2)th entry of the host directory in name-sorted order. A first
// call passes offset 0 and gets the dot entries plus as many real
// entries as fit; every later call passes the Offset of the last entry
// it received, which skips the dot entries and resumes the real
// listing at index offset-1. Packing stops before exceeding count
// bytes; if count is too small to hold even the first candidate
// entry, ReadDir returns zero entries and the next call at the same
// offset makes progress once given a larger count.
func (u *Unpfs) ReadDir(fid *fidtable.Fid, offset uint64, count uint32) ([]wire.DirEntry, error) {
	path := fid.RealPath()
	hostEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(hostEntries, func(i, j int) bool { return hostEntries[i].Name() < hostEntries[j].Name() })

	var out []wire.DirEntry
	var size uint32

	add := func(e wire.DirEntry) bool {
		n := directoryEntrySize(e.Name)
		if size+n > count {
			return false
		}
		out = append(out, e)
		size += n
		return true
	}

	if offset == 0 {
		selfVa, err := u.Cache.GetOrCreate(path)
		if err != nil {
			return nil, err
		}
		parentVa := selfVa
		if parent := filepath.Dir(path); u.within(parent) {
			if va, err := u.Cache.GetOrCreate(parent); err == nil {
				parentVa = va
			}
		}
		if !add(wire.DirEntry{Qid: qidFor(path, selfVa), Offset: 0, Type: dtDir, Name: "."}) {
			return out, nil
		}
		if !add(wire.DirEntry{Qid: qidFor(filepath.Dir(path), parentVa), Offset: 1, Type: dtDir, Name: ".."}) {
			return out, nil
		}
	}

	skip := 0
	if offset >= 1 {
		skip = int(offset - 1)
	}
	for i := skip; i < len(hostEntries); i++ {
		de := hostEntries[i]
		childPath := filepath.Join(path, de.Name())
		va, err := u.Cache.GetOrCreate(childPath)
		if err != nil {
			continue
		}
		typ := dtReg
		if de.IsDir() {
			typ = dtDir
		} else if de.Type()&os.ModeSymlink != 0 {
			typ = dtLnk
		}
		if !add(wire.DirEntry{Qid: qidFor(childPath, va), Offset: uint64(i + 2), Type: uint8(typ), Name: de.Name()}) {
			break
		}
	}
	return out, nil
}

// Mkdir creates name as a directory under dirfid.
func (u *Unpfs) Mkdir(dirfid *fidtable.Fid, name string, mode uint32, gid uint32) (wire.Qid, error) {
	path := filepath.Join(dirfid.RealPath(), name)
	if err := os.Mkdir(path, os.FileMode(mode&0o7777)); err != nil {
		return wire.Qid{}, err
	}
	va, err := u.Cache.GetOrCreate(path)
	if err != nil {
		return wire.Qid{}, err
	}
	return qidFor(path, va), nil
}

// RenameAt moves oldname under olddirfid to newname under newdirfid,
// preserving the moved file's cached identity across the host rename.
func (u *Unpfs) RenameAt(olddirfid *fidtable.Fid, oldname string, newdirfid *fidtable.Fid, newname string) error {
	oldpath := filepath.Join(olddirfid.RealPath(), oldname)
	newpath := filepath.Join(newdirfid.RealPath(), newname)
	if err := os.Rename(oldpath, newpath); err != nil {
		return err
	}
	u.Cache.Rename(oldpath, newpath)
	return nil
}

// UnlinkAt removes name under dirfid. flags is accepted for protocol
// compatibility (AT_REMOVEDIR) but unneeded: os.Remove already refuses
// a non-empty directory with ENOTEMPTY and works for files unmodified.
func (u *Unpfs) UnlinkAt(dirfid *fidtable.Fid, name string, flags uint32) error {
	path := filepath.Join(dirfid.RealPath(), name)
	if err := os.Remove(path); err != nil {
		return err
	}
	u.Cache.Forget(path)
	return nil
}

// StatFS reports host filesystem statistics for fid's path.
func (u *Unpfs) StatFS(fid *fidtable.Fid) (wire.Statfs, error) {
	return hostStatfs(fid.RealPath())
}
