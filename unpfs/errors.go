package unpfs

import "unpfs.dev/p9"

// errNotOpen is returned when Read, Write, or Fsync is attempted
// against a fid that was never opened with Tlopen.
var errNotOpen = p9.EBADF
