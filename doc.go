// Package p9 implements the server side of 9P2000.L, the Linux-extended
// variant of the Plan 9 file protocol used by the in-kernel 9p client.
//
// A p9.Server drives the protocol lifecycle (version negotiation, attach,
// per-request dispatch, teardown) over any transport presenting a framed
// byte stream, and delegates all filesystem operations to an implementation
// of the Filesystem interface. The unpfs subpackage implements Filesystem
// over a host directory tree; other implementations can serve synthetic
// trees.
package p9
