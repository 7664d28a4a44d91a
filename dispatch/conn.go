package dispatch

import (
	"context"
	"io"
	"runtime"
	"sync"

	"unpfs.dev/p9"
	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

type connState int

const (
	stateNew connState = iota
	stateActive
)

// outgoing is one reply frame waiting for the single writer goroutine.
type outgoing struct {
	tag uint16
	msg wire.Msg
}

// txn tracks one in-flight request so a later Tflush can cancel it.
// Removal of the map entry (by either the handler finishing first or
// a Tflush arriving first) is what decides whether the handler's own
// reply is actually sent; see conn.dispatch.
type txn struct {
	cancel context.CancelFunc
}

// conn is the per-connection session state: one fid table, one
// pending-transaction map, and one outbound writer goroutine draining
// a channel that every handler goroutine feeds. Nothing here is
// shared across connections except, indirectly, the Filesystem and
// its attrcache.
type conn struct {
	srv *Server
	rwc io.ReadWriteCloser

	fids *fidtable.Table

	state   connState
	msize   uint32
	decoder *wire.Decoder

	out chan outgoing

	mu      sync.Mutex
	pending map[uint16]txn

	wg sync.WaitGroup
}

func newConn(srv *Server, rwc io.ReadWriteCloser) *conn {
	return &conn{
		srv:     srv,
		rwc:     rwc,
		fids:    fidtable.New(),
		msize:   wire.DefaultMaxSize,
		decoder: newDecoder(rwc, wire.DefaultMaxSize),
		out:     make(chan outgoing, 32),
		pending: make(map[uint16]txn),
	}
}

// serve drives one connection end to end: read loop on the calling
// goroutine, one writer goroutine, one goroutine per request. It
// returns once the transport is closed or a protocol error ends the
// session.
func (c *conn) serve() {
	c.srv.metrics.sessionOpened()
	defer c.srv.metrics.sessionClosed()

	bw := newBufioWriter(c.rwc)
	enc := wire.NewEncoder(bw)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for item := range c.out {
			if err := enc.Encode(item.tag, item.msg); err != nil {
				c.srv.logf("p9: write error: %v", err)
				continue
			}
			if err := bw.Flush(); err != nil {
				c.srv.logf("p9: flush error: %v", err)
			}
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			c.srv.logf("p9: panic serving connection: %v\n%s", r, buf)
		}
		c.wg.Wait()
		close(c.out)
		<-writerDone
		putBufioWriter(bw)
		putDecoder(c.decoder)
		c.teardown()
		c.rwc.Close()
	}()

	for {
		frame, err := c.decoder.Decode()
		if err != nil {
			if err != io.EOF {
				c.srv.logf("p9: decode error: %v", err)
				if _, ok := err.(*wire.DecodeError); ok {
					c.reply(frame.Tag, wire.Rlerror{Errno: uint32(p9.EPROTO)})
				}
			}
			return
		}
		c.handleFrame(frame)
	}
}

// teardown drops every fid still registered to this session, closing
// any open handle, as required at end-of-stream.
func (c *conn) teardown() {
	c.fids.Each(func(_ uint32, f *fidtable.Fid) {
		f.CloseFile()
	})
}

func (c *conn) reply(tag uint16, m wire.Msg) {
	if rl, ok := m.(wire.Rlerror); ok {
		c.srv.metrics.observeError(rl.Errno)
	}
	c.out <- outgoing{tag: tag, msg: m}
}

// handleFrame processes one decoded request. Tversion gates the rest
// of the protocol and is handled inline; Tflush must observe the
// pending-transaction map synchronously with respect to the read loop
// so it can't race a handler's own completion, so it is also handled
// inline. Every other request is dispatched to its own goroutine so
// requests on one connection can proceed concurrently.
func (c *conn) handleFrame(f wire.Frame) {
	tag := f.Tag

	if v, ok := f.Msg.(wire.Tversion); ok {
		c.handleVersion(tag, v)
		return
	}
	if c.state != stateActive {
		c.reply(tag, wire.Rlerror{Errno: uint32(p9.EPROTO)})
		return
	}

	if fl, ok := f.Msg.(wire.Tflush); ok {
		c.handleFlush(tag, fl)
		return
	}

	c.srv.metrics.observeRequest(verbName(f.Msg))

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.pending[tag] = txn{cancel: cancel}
	c.mu.Unlock()

	c.wg.Add(1)
	go c.dispatch(ctx, tag, f.Msg)
}

// handleVersion resets the connection per spec.md §4.4: every prior
// fid is invalidated and any in-flight handler is cancelled before the
// reply goes out, whether or not this is the first Tversion seen.
func (c *conn) handleVersion(tag uint16, v wire.Tversion) {
	c.mu.Lock()
	for _, t := range c.pending {
		t.cancel()
	}
	c.pending = make(map[uint16]txn)
	c.mu.Unlock()
	c.wg.Wait()

	c.teardown()
	c.fids = fidtable.New()

	msize := v.Msize
	if msize > c.srv.maxMsize() {
		msize = c.srv.maxMsize()
	}
	c.msize = msize
	decMsize := msize
	if decMsize < wire.MinMsize {
		decMsize = wire.MinMsize
	}
	c.decoder.Msize = decMsize

	version := "unknown"
	if len(v.Version) >= 6 && v.Version[:6] == "9P2000" {
		version = wire.Version
	} else {
		c.srv.logf("p9: unsupported version %q", v.Version)
	}
	c.state = stateActive
	c.reply(tag, wire.Rversion{Msize: msize, Version: version})
}

// handleFlush implements Tflush: if the target transaction is still
// pending, it is removed from the map and cancelled, which tells its
// handler goroutine (once it eventually finishes) to suppress its own
// reply. Rflush is always sent for the Tflush's own tag.
func (c *conn) handleFlush(tag uint16, fl wire.Tflush) {
	c.mu.Lock()
	t, ok := c.pending[fl.Oldtag]
	if ok {
		delete(c.pending, fl.Oldtag)
	}
	c.mu.Unlock()
	if ok {
		t.cancel()
	}
	c.reply(tag, wire.Rflush{})
}

// dispatch runs one request's handler to completion (or until flushed)
// and, unless it was flushed, sends the reply. The handler itself runs
// in its own inner goroutine because the Filesystem interface has no
// cancellation hook of its own; ctx.Done firing here only means this
// dispatch call stops waiting, not that the inner call stops running
// (see spec.md §5, "cancellation is cooperative at suspension points").
func (c *conn) dispatch(ctx context.Context, tag uint16, req wire.Msg) {
	defer c.wg.Done()

	replyCh := make(chan wire.Msg, 1)
	go func() {
		replyCh <- c.handle(req)
	}()

	select {
	case reply := <-replyCh:
		c.mu.Lock()
		_, stillPending := c.pending[tag]
		delete(c.pending, tag)
		c.mu.Unlock()
		if stillPending {
			c.reply(tag, reply)
		}
	case <-ctx.Done():
		go func() { <-replyCh }()
	}
}

func errReply(err error) wire.Msg {
	return wire.Rlerror{Errno: uint32(p9.ToErrno(err))}
}
