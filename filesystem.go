package p9

import (
	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

// Filesystem is the capability the session dispatcher consumes to
// service every 9P2000.L operation. It does not manage the FID table
// itself — the dispatcher owns fid lifetime (insert on attach/walk,
// remove on clunk) — but each method mutates the realpath or
// open-file fields of the *fidtable.Fid it is given, under that Fid's
// own locks.
//
// A method must return an error from the taxonomy in package p9
// (an Errno, or any error ToErrno can classify); the dispatcher never
// interprets errors itself.
type Filesystem interface {
	// Attach binds a new session root, returning its qid and the host
	// path the root fid should start at.
	Attach(uname, aname string) (wire.Qid, string, error)

	// Walk resolves names in order starting from fid's current path.
	// It returns a qid per successfully resolved component; if the
	// returned slice is shorter than names, the walk stopped early and
	// newPath must be ignored by the caller (no fid rebinding).
	Walk(fid *fidtable.Fid, names []string) (qids []wire.Qid, newPath string, err error)

	GetAttr(fid *fidtable.Fid, mask wire.GetattrMask) (wire.Stat, error)
	SetAttr(fid *fidtable.Fid, valid wire.SetattrMask, attr wire.SetAttr) error
	ReadLink(fid *fidtable.Fid) (string, error)

	// ReadDir returns entries starting after the cookie offset, never
	// exceeding count bytes once packed.
	ReadDir(fid *fidtable.Fid, offset uint64, count uint32) ([]wire.DirEntry, error)

	Open(fid *fidtable.Fid, flags wire.OpenFlag) (wire.Qid, uint32, error)

	// Create makes name under fid's directory, opens it, and rebinds
	// fid itself to the new file — the caller must not continue to
	// treat fid as the directory afterward.
	Create(fid *fidtable.Fid, name string, flags wire.OpenFlag, mode uint32, gid uint32) (wire.Qid, uint32, error)

	Read(fid *fidtable.Fid, offset uint64, count uint32) ([]byte, error)
	Write(fid *fidtable.Fid, offset uint64, data []byte) (uint32, error)

	Mkdir(dirfid *fidtable.Fid, name string, mode uint32, gid uint32) (wire.Qid, error)
	RenameAt(olddirfid *fidtable.Fid, oldname string, newdirfid *fidtable.Fid, newname string) error
	UnlinkAt(dirfid *fidtable.Fid, name string, flags uint32) error

	Fsync(fid *fidtable.Fid) error
	StatFS(fid *fidtable.Fid) (wire.Statfs, error)
}
