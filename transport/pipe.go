package transport

import (
	"errors"
	"net"
	"sync"
)

var errClosed = errors.New("transport: pipe listener closed")

// PipeListener is a net.Listener backed by net.Pipe instead of a real
// socket. It lets a test or an in-process embedder run Server.Serve
// against a client dialed in the same binary, without the permission
// or portability concerns of binding a real address.
type PipeListener struct {
	once     sync.Once
	incoming chan net.Conn
	shutdown chan struct{}
}

func (l *PipeListener) init() {
	l.once.Do(func() {
		l.incoming = make(chan net.Conn)
		l.shutdown = make(chan struct{})
	})
}

// Accept blocks until Dial is called or the listener is closed.
func (l *PipeListener) Accept() (net.Conn, error) {
	l.init()
	select {
	case c := <-l.incoming:
		return c, nil
	case <-l.shutdown:
		return nil, errClosed
	}
}

// Dial hands the server side of a fresh net.Pipe to a waiting Accept
// and returns the client side.
func (l *PipeListener) Dial() (net.Conn, error) {
	l.init()
	server, client := net.Pipe()
	select {
	case <-l.shutdown:
		server.Close()
		client.Close()
		return nil, errClosed
	case l.incoming <- server:
		return client, nil
	}
}

// Close unblocks every pending and future Accept/Dial with errClosed.
// It is safe to call more than once.
func (l *PipeListener) Close() error {
	l.init()
	select {
	case <-l.shutdown:
	default:
		close(l.shutdown)
	}
	return nil
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }

// Addr returns a placeholder net.Addr; a pipe has no real address.
func (l *PipeListener) Addr() net.Addr {
	l.init()
	return pipeAddr{}
}
