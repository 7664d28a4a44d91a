// Package attrcache maps host paths to stable 9P identity: a 64-bit
// inode assigned once per path and refreshed attributes read from the
// host on every lookup. It exists because 9P demands a qid.path that
// stays stable for as long as a session references a file, while the
// host filesystem may not supply a stable inode (Windows) or the
// server may simply prefer not to trust the host's numbering.
package attrcache

import (
	"os"
	"sync"

	"github.com/jacobsa/timeutil"
)

// FileType distinguishes the two kinds of node this server hands out
// qids for.
type FileType int

const (
	TypeFile FileType = iota
	TypeDir
)

// VirtualAttributes is the cached record for one host path: a stable
// inode plus the mutable metadata getattr needs, refreshed from the
// host on every GetOrCreate call.
type VirtualAttributes struct {
	Inode    uint64
	FileType FileType
	Mode     uint32
	Size     uint64
	Atime    int64 // unix nanoseconds
	Mtime    int64
	Ctime    int64
}

// Cache is a process-wide path -> VirtualAttributes map scoped to one
// mounted subtree. The zero value is not usable; use New.
type Cache struct {
	clock timeutil.Clock

	mu      sync.RWMutex
	entries map[string]*VirtualAttributes
	nextIno uint64
}

// New returns an empty Cache. Where the host supplies an inode
// (statInode), that number is recorded as is; otherwise inode numbers
// come from a counter starting at 100, leaving the low range free for
// any synthetic/reserved entries a Filesystem implementation wants to
// carve out.
func New(clock timeutil.Clock) *Cache {
	return &Cache{
		clock:   clock,
		entries: make(map[string]*VirtualAttributes),
		nextIno: 100,
	}
}

// statHost is overridden in tests to avoid touching the real filesystem.
var statHost = os.Lstat

// GetOrCreate stats path on the host, then either creates a new entry
// (assigning the next inode) or refreshes the mutable fields of an
// existing one while preserving its inode. The returned value is a
// copy; callers must not mutate cached state directly.
func (c *Cache) GetOrCreate(path string) (VirtualAttributes, error) {
	fi, err := statHost(path)
	if err != nil {
		return VirtualAttributes{}, err
	}

	ft := TypeFile
	if fi.IsDir() {
		ft = TypeDir
	}
	mtime := fi.ModTime().UnixNano()
	now := c.clock.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		inode := c.nextIno
		if hostIno, ok := statInode(path); ok {
			inode = hostIno
		} else {
			c.nextIno++
		}
		entry = &VirtualAttributes{
			Inode: inode,
			Ctime: now,
		}
		c.entries[path] = entry
	}
	entry.FileType = ft
	entry.Mode = uint32(fi.Mode().Perm())
	entry.Size = uint64(fi.Size())
	entry.Mtime = mtime
	entry.Atime = mtime
	return *entry, nil
}

// Update applies f to the cached entry for path, returning its updated
// copy. It fails if no entry exists yet; callers must GetOrCreate
// first, as walk, attach and create already do for every path a fid
// is bound to.
func (c *Cache) Update(path string, f func(*VirtualAttributes)) (VirtualAttributes, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[path]
	if !ok {
		return VirtualAttributes{}, errNotCached
	}
	f(entry)
	return *entry, nil
}

// Rename moves the cached entry (if any) from oldpath to newpath,
// preserving its inode across the host rename so getattr on the moved
// file's fid still reports a stable qid.path.
func (c *Cache) Rename(oldpath, newpath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[oldpath]
	if !ok {
		return
	}
	delete(c.entries, oldpath)
	c.entries[newpath] = entry
}

// Forget drops the cached entry for path, if any, used after an unlink.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}
