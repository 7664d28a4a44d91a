package p9

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	"unpfs.dev/p9/fidtable"
)

// Errno is a Linux errno value, the only error representation 9P2000.L
// carries on the wire (Rlerror). Values match include/uapi/asm-generic/errno*.h.
type Errno uint32

const (
	EPERM      Errno = 1
	ENOENT     Errno = 2
	EINTR      Errno = 4
	EIO        Errno = 5
	EBADF      Errno = 9
	EAGAIN     Errno = 11
	EACCES     Errno = 13
	EEXIST     Errno = 17
	EXDEV      Errno = 18
	ENOTDIR    Errno = 20
	EISDIR     Errno = 21
	EINVAL     Errno = 22
	EPIPE      Errno = 32
	ENOSYS     Errno = 38
	ENOTEMPTY  Errno = 39
	EPROTO     Errno = 71
	EOPNOTSUPP Errno = 95
)

func (e Errno) Error() string {
	if s, ok := errnoStrings[e]; ok {
		return s
	}
	return "unknown errno"
}

var errnoStrings = map[Errno]string{
	EPERM:      "operation not permitted",
	ENOENT:     "no such file or directory",
	EINTR:      "interrupted system call",
	EIO:        "input/output error",
	EBADF:      "bad file descriptor",
	EAGAIN:     "resource temporarily unavailable",
	EACCES:     "permission denied",
	EEXIST:     "file exists",
	EXDEV:      "invalid cross-device link",
	ENOTDIR:    "not a directory",
	EISDIR:     "is a directory",
	EINVAL:     "invalid argument",
	EPIPE:      "broken pipe",
	ENOSYS:     "function not implemented",
	ENOTEMPTY:  "directory not empty",
	EPROTO:     "protocol error",
	EOPNOTSUPP: "operation not supported",
}

// ToErrno maps err to the Linux errno that best describes it. An error
// that is already an Errno passes through unchanged; a *wire.DecodeError
// or any other unrecognized error becomes EIO, the taxonomy's catch-all
// for host/protocol failures with no better fit.
func ToErrno(err error) Errno {
	if err == nil {
		return 0
	}
	var errno Errno
	if errors.As(err, &errno) {
		return errno
	}

	switch {
	case errors.Is(err, fidtable.ErrBadFid):
		return EBADF
	case errors.Is(err, fs.ErrNotExist):
		return ENOENT
	case errors.Is(err, fs.ErrPermission):
		return EACCES
	case errors.Is(err, fs.ErrExist):
		return EEXIST
	case errors.Is(err, fs.ErrClosed):
		return EBADF
	case errors.Is(err, os.ErrDeadlineExceeded):
		return EAGAIN
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return ToErrno(linkErr.Err)
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return ToErrno(pathErr.Err)
	}
	// syscall.Errno values on Linux share numbering with the Linux errno
	// table this package targets, so a direct numeric conversion is valid
	// for the handful of codes the taxonomy names (EXDEV, ENOTEMPTY, ...).
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		if _, ok := errnoStrings[Errno(sysErr)]; ok {
			return Errno(sysErr)
		}
	}

	return EIO
}
