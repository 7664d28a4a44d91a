package wire

import "unpfs.dev/p9/internal/util"

// Timespec is a POSIX-style (seconds, nanoseconds) timestamp, used for
// every time field carried in Rgetattr and Tsetattr.
type Timespec struct {
	Sec  uint64
	Nsec uint64
}

func putTimespec(w *util.ErrWriter, t Timespec) {
	puint64(w, t.Sec)
	puint64(w, t.Nsec)
}

func getTimespec(b []byte) (Timespec, []byte, error) {
	sec, b, err := getU64(b)
	if err != nil {
		return Timespec{}, b, err
	}
	nsec, b, err := getU64(b)
	if err != nil {
		return Timespec{}, b, err
	}
	return Timespec{Sec: sec, Nsec: nsec}, b, nil
}

// Stat is the full attribute set returned by Rgetattr. The Valid mask
// tells the client which of these fields the server actually
// populated; this server always populates GetattrBasic and echoes the
// requested mask back unchanged.
type Stat struct {
	Valid     GetattrMask
	Qid       Qid
	Mode      uint32
	UID       uint32
	GID       uint32
	Nlink     uint64
	Rdev      uint64
	Size      uint64
	Blksize   uint64
	Blocks    uint64
	Atime     Timespec
	Mtime     Timespec
	Ctime     Timespec
	Btime     Timespec
	Gen       uint64
	DataVersion uint64
}

func (s Stat) encodedSize() int {
	return 8 + QidLen + 4*3 + 8*5 + 8*2*4 + 8*2
}

func putStat(w *util.ErrWriter, s Stat) {
	puint64(w, uint64(s.Valid))
	putQid(w, s.Qid)
	puint32(w, s.Mode)
	puint32(w, s.UID)
	puint32(w, s.GID)
	puint64(w, s.Nlink)
	puint64(w, s.Rdev)
	puint64(w, s.Size)
	puint64(w, s.Blksize)
	puint64(w, s.Blocks)
	putTimespec(w, s.Atime)
	putTimespec(w, s.Mtime)
	putTimespec(w, s.Ctime)
	putTimespec(w, s.Btime)
	puint64(w, s.Gen)
	puint64(w, s.DataVersion)
}

func getStat(b []byte) (Stat, []byte, error) {
	var s Stat
	var err error
	var v64 uint64
	var v32 uint32

	if v64, b, err = getU64(b); err != nil {
		return s, b, err
	}
	s.Valid = GetattrMask(v64)
	if s.Qid, b, err = getQid(b); err != nil {
		return s, b, err
	}
	if v32, b, err = getU32(b); err != nil {
		return s, b, err
	}
	s.Mode = v32
	if v32, b, err = getU32(b); err != nil {
		return s, b, err
	}
	s.UID = v32
	if v32, b, err = getU32(b); err != nil {
		return s, b, err
	}
	s.GID = v32
	if s.Nlink, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Rdev, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Size, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Blksize, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Blocks, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Atime, b, err = getTimespec(b); err != nil {
		return s, b, err
	}
	if s.Mtime, b, err = getTimespec(b); err != nil {
		return s, b, err
	}
	if s.Ctime, b, err = getTimespec(b); err != nil {
		return s, b, err
	}
	if s.Btime, b, err = getTimespec(b); err != nil {
		return s, b, err
	}
	if s.Gen, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.DataVersion, b, err = getU64(b); err != nil {
		return s, b, err
	}
	return s, b, nil
}

// SetAttr carries the fields a client wants to change via Tsetattr.
// Valid indicates which fields are meaningful; fields outside the mask
// are zero and must be ignored by the server.
type SetAttr struct {
	Valid SetattrMask
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  uint64
	Atime Timespec
	Mtime Timespec
}

func putSetAttr(w *util.ErrWriter, s SetAttr) {
	puint32(w, uint32(s.Valid))
	puint32(w, s.Mode)
	puint32(w, s.UID)
	puint32(w, s.GID)
	puint64(w, s.Size)
	putTimespec(w, s.Atime)
	putTimespec(w, s.Mtime)
}

func getSetAttr(b []byte) (SetAttr, []byte, error) {
	var s SetAttr
	var err error
	var v32 uint32

	if v32, b, err = getU32(b); err != nil {
		return s, b, err
	}
	s.Valid = SetattrMask(v32)
	if s.Mode, b, err = getU32(b); err != nil {
		return s, b, err
	}
	if s.UID, b, err = getU32(b); err != nil {
		return s, b, err
	}
	if s.GID, b, err = getU32(b); err != nil {
		return s, b, err
	}
	if s.Size, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Atime, b, err = getTimespec(b); err != nil {
		return s, b, err
	}
	if s.Mtime, b, err = getTimespec(b); err != nil {
		return s, b, err
	}
	return s, b, nil
}

// Statfs mirrors struct statfs, returned by Tstatfs for df-style
// clients. Values for type/bsize/blocks/bfree/bavail/files/ffree/fsid
// follow statvfs(2) field order and meaning.
type Statfs struct {
	Type    uint32
	Bsize   uint32
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Fsid    uint64
	Namelen uint32
}

func putStatfs(w *util.ErrWriter, s Statfs) {
	puint32(w, s.Type)
	puint32(w, s.Bsize)
	puint64(w, s.Blocks)
	puint64(w, s.Bfree)
	puint64(w, s.Bavail)
	puint64(w, s.Files)
	puint64(w, s.Ffree)
	puint64(w, s.Fsid)
	puint32(w, s.Namelen)
}

func getStatfs(b []byte) (Statfs, []byte, error) {
	var s Statfs
	var err error

	if s.Type, b, err = getU32(b); err != nil {
		return s, b, err
	}
	if s.Bsize, b, err = getU32(b); err != nil {
		return s, b, err
	}
	if s.Blocks, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Bfree, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Bavail, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Files, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Ffree, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Fsid, b, err = getU64(b); err != nil {
		return s, b, err
	}
	if s.Namelen, b, err = getU32(b); err != nil {
		return s, b, err
	}
	return s, b, nil
}
