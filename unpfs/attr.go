package unpfs

import (
	"os"
	"time"

	"unpfs.dev/p9/attrcache"
	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

// POSIX file-type bits for st_mode, combined with the cached
// permission bits to build the Mode field Rgetattr reports; the Linux
// 9P client inspects these to classify the file without a separate
// lookup.
const (
	modeFmt  = 0o170000
	modeDir  = 0o040000
	modeReg  = 0o100000
	modeLink = 0o120000
)

func fileTypeBits(va attrcache.VirtualAttributes, symlink bool) uint32 {
	switch {
	case symlink:
		return modeLink
	case va.FileType == attrcache.TypeDir:
		return modeDir
	default:
		return modeReg
	}
}

func isSymlink(path string) bool {
	fi, err := os.Lstat(path)
	return err == nil && fi.Mode()&os.ModeSymlink != 0
}

// GetAttr returns fid's full attribute set. mask is advisory; this
// server always populates GetattrBasic and echoes the requested mask
// back unchanged, as spec.md §4.4 permits.
func (u *Unpfs) GetAttr(fid *fidtable.Fid, mask wire.GetattrMask) (wire.Stat, error) {
	path := fid.RealPath()
	va, err := u.Cache.GetOrCreate(path)
	if err != nil {
		return wire.Stat{}, err
	}
	symlink := isSymlink(path)

	return wire.Stat{
		Valid:   mask,
		Qid:     qidFor(path, va),
		Mode:    fileTypeBits(va, symlink) | va.Mode,
		Nlink:   1,
		Size:    va.Size,
		Blksize: 4096,
		Blocks:  (va.Size + 511) / 512,
		Atime:   unixToTimespec(va.Atime),
		Mtime:   unixToTimespec(va.Mtime),
		Ctime:   unixToTimespec(va.Ctime),
	}, nil
}

func unixToTimespec(nsec int64) wire.Timespec {
	if nsec < 0 {
		nsec = 0
	}
	return wire.Timespec{Sec: uint64(nsec / int64(time.Second)), Nsec: uint64(nsec % int64(time.Second))}
}

// SetAttr applies the subset of attr indicated by valid. MODE updates
// both the cache and, unlike the source this is grounded on, the host
// file's permission bits (see SPEC_FULL.md's resolution of the
// corresponding Open Question): a 9P2000.L server backed by a real
// Unix tree should make chmod visible to other local readers. UID/GID
// are accepted but never applied, matching the original.
func (u *Unpfs) SetAttr(fid *fidtable.Fid, valid wire.SetattrMask, attr wire.SetAttr) error {
	path := fid.RealPath()

	if valid&wire.SetattrMode != 0 {
		if _, err := u.Cache.Update(path, func(va *attrcache.VirtualAttributes) {
			va.Mode = attr.Mode &^ modeFmt
		}); err != nil {
			return err
		}
		if err := os.Chmod(path, os.FileMode(attr.Mode&0o7777)); err != nil {
			return err
		}
	}

	if valid&wire.SetattrSize != 0 {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.Truncate(int64(attr.Size)); err != nil {
			return err
		}
	}

	if valid&(wire.SetattrAtimeSet|wire.SetattrMtimeSet|wire.SetattrAtime|wire.SetattrMtime) != 0 {
		va, err := u.Cache.GetOrCreate(path)
		if err != nil {
			return err
		}
		atime := time.Unix(0, va.Atime)
		mtime := time.Unix(0, va.Mtime)
		now := u.Clock.Now()

		if valid&wire.SetattrAtimeSet != 0 {
			atime = time.Unix(int64(attr.Atime.Sec), int64(attr.Atime.Nsec))
		} else if valid&wire.SetattrAtime != 0 {
			atime = now
		}
		if valid&wire.SetattrMtimeSet != 0 {
			mtime = time.Unix(int64(attr.Mtime.Sec), int64(attr.Mtime.Nsec))
		} else if valid&wire.SetattrMtime != 0 {
			mtime = now
		}

		if err := os.Chtimes(path, atime, mtime); err != nil {
			return err
		}
		if _, err := u.Cache.Update(path, func(va *attrcache.VirtualAttributes) {
			va.Atime = atime.UnixNano()
			va.Mtime = mtime.UnixNano()
		}); err != nil {
			return err
		}
	}

	return nil
}
