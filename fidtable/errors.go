package fidtable

import "errors"

// ErrBadFid is returned by Insert for a duplicate or NOFID request, and
// by Get/Remove for an fid not currently registered. Package p9 maps
// it to EBADF.
var ErrBadFid = errors.New("fidtable: bad fid")

var errBadFid = ErrBadFid
