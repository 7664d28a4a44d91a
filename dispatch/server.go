// Package dispatch implements the 9P2000.L session dispatcher: version
// negotiation, the per-connection fid table, concurrent per-request
// handling, and Tflush cancellation described in spec.md §4.4 and §5.
package dispatch

import (
	"io"
	"net"
	"time"

	"aqwari.net/retry"
	"github.com/prometheus/client_golang/prometheus"

	"unpfs.dev/p9"
	"unpfs.dev/p9/internal/util"
	"unpfs.dev/p9/wire"
)

// Server serves 9P2000.L connections against a single Filesystem. The
// zero value is not usable; construct with NewServer.
type Server struct {
	// FS is the capability every session dispatches requests to.
	FS p9.Filesystem

	// Logger receives diagnostics. Defaults to p9.NopLogger.
	Logger p9.Logger

	// MaxMsize caps the msize this server will ever negotiate down to,
	// regardless of what a client offers. Zero means wire.DefaultMaxSize.
	MaxMsize uint32

	metrics *serverMetrics
}

// NewServer returns a Server backed by fs with metrics registered and
// ready to serve.
func NewServer(fs p9.Filesystem) *Server {
	return &Server{
		FS:      fs,
		metrics: newServerMetrics(),
	}
}

// Registry exposes the Server's Prometheus registry so an embedder
// can serve it over /metrics; this package does not open an HTTP
// listener of its own.
func (s *Server) Registry() *prometheus.Registry {
	if s.metrics == nil {
		s.metrics = newServerMetrics()
	}
	return s.metrics.registry
}

func (s *Server) logf(format string, v ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(format, v...)
		return
	}
	p9.NopLogger.Printf(format, v...)
}

func (s *Server) maxMsize() uint32 {
	if s.MaxMsize != 0 {
		return s.MaxMsize
	}
	return wire.DefaultMaxSize
}

// ServeConn runs the session protocol over one already-accepted
// connection until it closes. It blocks until the session ends.
func (s *Server) ServeConn(rwc io.ReadWriteCloser) {
	if s.metrics == nil {
		s.metrics = newServerMetrics()
	}
	c := newConn(s, rwc)
	c.serve()
}

// Serve accepts connections from l until it returns an error,
// spawning one goroutine per connection. Transient Accept errors (as
// reported by a net.Error's Temporary method) are retried with
// exponential backoff rather than ending the loop, mirroring the
// retry policy in the teacher's own draft server loop.
func (s *Server) Serve(l net.Listener) error {
	if s.metrics == nil {
		s.metrics = newServerMetrics()
	}
	backoff := retry.Exponential(5 * time.Millisecond).Max(time.Second)
	try := 0
	for {
		rwc, err := l.Accept()
		if err != nil {
			if util.IsTempErr(err) {
				try++
				wait := backoff(try)
				s.logf("p9: accept error: %v; retrying in %v", err, wait)
				time.Sleep(wait)
				continue
			}
			return err
		}
		try = 0
		s.logf("p9: accepted connection from %v", rwc.RemoteAddr())
		go s.ServeConn(rwc)
	}
}
