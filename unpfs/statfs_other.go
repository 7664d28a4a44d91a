//go:build !unix

package unpfs

import "unpfs.dev/p9/wire"

// hostStatfs has no statvfs(2) equivalent to call on non-Unix hosts;
// callers get a zeroed-but-valid result rather than a hard failure.
func hostStatfs(path string) (wire.Statfs, error) {
	return wire.Statfs{Namelen: 255}, nil
}
