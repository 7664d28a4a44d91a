// Package transport supplies the net.Listener implementations this
// server can be wired to: a thin TCP helper for the usual deployment,
// and an in-process PipeListener for tests and same-binary mounts
// that would rather not open a real socket.
package transport
