// Package unpfs implements p9.Filesystem over a host directory tree.
// It is the one capability of this kind shipped with this module;
// every method here is grounded directly on the corresponding method
// of the original Unpfs filesystem it replaces, translated from an
// async Rust implementation into synchronous Go with explicit error
// returns.
package unpfs
