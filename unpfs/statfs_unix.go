//go:build unix

package unpfs

import (
	"golang.org/x/sys/unix"

	"unpfs.dev/p9/wire"
)

// hostStatfs reports the real host statvfs(2) data for path, resolving
// the gap the source this package is grounded on left open.
func hostStatfs(path string) (wire.Statfs, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return wire.Statfs{}, err
	}
	return wire.Statfs{
		Type:    uint32(st.Type),
		Bsize:   uint32(st.Bsize),
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Fsid:    uint64(uint32(st.Fsid.Val[0]))<<32 | uint64(uint32(st.Fsid.Val[1])),
		Namelen: uint32(st.Namelen),
	}, nil
}
