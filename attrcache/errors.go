package attrcache

import "errors"

// errNotCached is returned by Update for a path with no existing entry.
var errNotCached = errors.New("attrcache: path not cached")
