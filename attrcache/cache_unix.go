//go:build unix

package attrcache

import "golang.org/x/sys/unix"

// statInode reads the host's real st_ino for path, so two 9P sessions
// walking the same file see the same qid.path a real Unix inode would
// also guarantee, rather than relying solely on allocation order.
func statInode(path string) (uint64, bool) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, false
	}
	return uint64(st.Ino), true
}
