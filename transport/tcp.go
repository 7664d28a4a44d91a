package transport

import "net"

// Listen opens a listener of the given network ("tcp", "tcp4", "tcp6",
// or "unix") at addr, the usual production transport for this server.
// The retry policy for transient Accept errors lives in
// dispatch.Server.Serve, not here; this is a thin wrapper so callers
// have one place to swap in a different protocol/address form.
func Listen(network, addr string) (net.Listener, error) {
	return net.Listen(network, addr)
}
