package unpfs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jacobsa/timeutil"

	"unpfs.dev/p9/attrcache"
	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

// Unpfs serves a single host directory as a 9P2000.L tree. Root must
// be an absolute, cleaned path; every fid's realpath is always either
// Root itself or a descendant of it, enforced by resolve.
type Unpfs struct {
	Root  string
	Cache *attrcache.Cache
	Clock timeutil.Clock
}

// New returns an Unpfs rooted at root, backed by a fresh attribute
// cache driven by clock (used for the ctime stamped on newly seen
// paths and for setattr's ATIME/MTIME "now" semantics).
func New(root string, clock timeutil.Clock) (*Unpfs, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Unpfs{
		Root:  filepath.Clean(abs),
		Cache: attrcache.New(clock),
		Clock: clock,
	}, nil
}

// resolve joins name onto base the way the host shell would, while
// refusing to let ".." walk the session above u.Root: at the root,
// ".." resolves to the root itself, exactly as a chrooted tree would
// behave. This is the walk-time escape guard spec.md §4.4 requires of
// the capability.
func (u *Unpfs) resolve(base, name string) string {
	switch name {
	case "", ".":
		return base
	case "..":
		parent := filepath.Dir(base)
		if !u.within(parent) {
			return base
		}
		return parent
	default:
		if strings.ContainsRune(name, filepath.Separator) {
			p := base
			for _, part := range strings.Split(name, string(filepath.Separator)) {
				p = u.resolve(p, part)
			}
			return p
		}
		return filepath.Join(base, name)
	}
}

// within reports whether p is u.Root or a descendant of it.
func (u *Unpfs) within(p string) bool {
	p = filepath.Clean(p)
	if p == u.Root {
		return true
	}
	return strings.HasPrefix(p, u.Root+string(filepath.Separator))
}

// Attach binds a new session to the mount root.
func (u *Unpfs) Attach(uname, aname string) (wire.Qid, string, error) {
	va, err := u.Cache.GetOrCreate(u.Root)
	if err != nil {
		return wire.Qid{}, "", err
	}
	return qidFor(u.Root, va), u.Root, nil
}

// Walk resolves names in order starting from fid's current path,
// stopping at the first name that fails to stat. See
// p9.Filesystem.Walk for the partial-walk contract this implements.
func (u *Unpfs) Walk(fid *fidtable.Fid, names []string) ([]wire.Qid, string, error) {
	path := fid.RealPath()
	qids := make([]wire.Qid, 0, len(names))

	for i, name := range names {
		next := u.resolve(path, name)
		va, err := u.Cache.GetOrCreate(next)
		if err != nil {
			if i == 0 {
				return nil, "", err
			}
			return qids, "", nil
		}
		qids = append(qids, qidFor(next, va))
		path = next
	}
	return qids, path, nil
}

// qidFor derives a Qid from a cached attribute record. Version is the
// low 32 bits of the file's mtime in nanoseconds, which changes
// whenever the file's contents are modified, as spec.md §3 requires;
// it has no meaning beyond "did this change since I last saw it".
func qidFor(path string, va attrcache.VirtualAttributes) wire.Qid {
	typ := wire.QTFILE
	if va.FileType == attrcache.TypeDir {
		typ = wire.QTDIR
	}
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		typ |= wire.QTSYMLINK
	}
	return wire.Qid{
		Type:    typ,
		Version: uint32(va.Mtime),
		Path:    va.Inode,
	}
}
