package dispatch_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"unpfs.dev/p9"
	"unpfs.dev/p9/dispatch"
	"unpfs.dev/p9/fidtable"
	"unpfs.dev/p9/wire"
)

// fakeFS is a minimal p9.Filesystem double: every call that isn't
// exercised by a given test returns ENOSYS.
type fakeFS struct {
	mu       sync.Mutex
	attached int

	// walkBlock, if non-nil, makes Walk block until the channel is
	// closed before returning its canned result. Used to exercise
	// Tflush cancellation against a still-in-flight handler.
	walkBlock chan struct{}
}

func (f *fakeFS) Attach(uname, aname string) (wire.Qid, string, error) {
	f.mu.Lock()
	f.attached++
	f.mu.Unlock()
	return wire.Qid{Type: wire.QTDIR, Path: 1}, "/", nil
}
func (f *fakeFS) Walk(fid *fidtable.Fid, names []string) ([]wire.Qid, string, error) {
	if f.walkBlock != nil {
		<-f.walkBlock
	}
	return nil, "", p9.ENOSYS
}
func (f *fakeFS) GetAttr(fid *fidtable.Fid, mask wire.GetattrMask) (wire.Stat, error) {
	return wire.Stat{}, p9.ENOSYS
}
func (f *fakeFS) SetAttr(fid *fidtable.Fid, valid wire.SetattrMask, attr wire.SetAttr) error {
	return p9.ENOSYS
}
func (f *fakeFS) ReadLink(fid *fidtable.Fid) (string, error)      { return "", p9.ENOSYS }
func (f *fakeFS) ReadDir(fid *fidtable.Fid, offset uint64, count uint32) ([]wire.DirEntry, error) {
	return nil, p9.ENOSYS
}
func (f *fakeFS) Open(fid *fidtable.Fid, flags wire.OpenFlag) (wire.Qid, uint32, error) {
	return wire.Qid{}, 0, p9.ENOSYS
}
func (f *fakeFS) Create(fid *fidtable.Fid, name string, flags wire.OpenFlag, mode, gid uint32) (wire.Qid, uint32, error) {
	return wire.Qid{}, 0, p9.ENOSYS
}
func (f *fakeFS) Read(fid *fidtable.Fid, offset uint64, count uint32) ([]byte, error) {
	return nil, p9.ENOSYS
}
func (f *fakeFS) Write(fid *fidtable.Fid, offset uint64, data []byte) (uint32, error) {
	return 0, p9.ENOSYS
}
func (f *fakeFS) Mkdir(dirfid *fidtable.Fid, name string, mode, gid uint32) (wire.Qid, error) {
	return wire.Qid{}, p9.ENOSYS
}
func (f *fakeFS) RenameAt(olddirfid *fidtable.Fid, oldname string, newdirfid *fidtable.Fid, newname string) error {
	return p9.ENOSYS
}
func (f *fakeFS) UnlinkAt(dirfid *fidtable.Fid, name string, flags uint32) error { return p9.ENOSYS }
func (f *fakeFS) Fsync(fid *fidtable.Fid) error                                 { return p9.ENOSYS }
func (f *fakeFS) StatFS(fid *fidtable.Fid) (wire.Statfs, error)                 { return wire.Statfs{}, p9.ENOSYS }

func newTestSession(t *testing.T, fs p9.Filesystem) (*wire.Encoder, *wire.Decoder, func()) {
	t.Helper()
	enc, dec, _, closeFn := newTestSessionConn(t, fs)
	return enc, dec, closeFn
}

// newTestSessionConn is newTestSession but also returns the raw client
// conn, for tests that need a read deadline to assert something is
// never sent.
func newTestSessionConn(t *testing.T, fs p9.Filesystem) (*wire.Encoder, *wire.Decoder, net.Conn, func()) {
	t.Helper()
	server, client := net.Pipe()
	srv := dispatch.NewServer(fs)
	go srv.ServeConn(server)

	enc := wire.NewEncoder(client)
	dec := wire.NewDecoder(client, wire.DefaultMaxSize)
	return enc, dec, client, func() { client.Close() }
}

func versionHandshake(t *testing.T, enc *wire.Encoder, dec *wire.Decoder, msize uint32) wire.Rversion {
	t.Helper()
	if err := enc.Encode(wire.NOTAG, wire.Tversion{Msize: msize, Version: wire.Version}); err != nil {
		t.Fatalf("encode Tversion: %v", err)
	}
	frame, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode Rversion: %v", err)
	}
	rv, ok := frame.Msg.(wire.Rversion)
	if !ok {
		t.Fatalf("expected Rversion, got %T", frame.Msg)
	}
	return rv
}

func TestVersionNegotiationClampsMsize(t *testing.T) {
	enc, dec, closeFn := newTestSession(t, &fakeFS{})
	defer closeFn()

	rv := versionHandshake(t, enc, dec, 4096)
	if rv.Msize != 4096 {
		t.Fatalf("Msize: got %d, want 4096", rv.Msize)
	}
	if rv.Version != wire.Version {
		t.Fatalf("Version: got %q, want %q", rv.Version, wire.Version)
	}
}

func TestVersionNegotiationUnknownDialect(t *testing.T) {
	enc, dec, closeFn := newTestSession(t, &fakeFS{})
	defer closeFn()

	if err := enc.Encode(wire.NOTAG, wire.Tversion{Msize: 8192, Version: "9P1999"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rv := frame.Msg.(wire.Rversion)
	if rv.Version != "unknown" {
		t.Fatalf("Version: got %q, want %q", rv.Version, "unknown")
	}
}

func TestRequestBeforeVersionIsProtocolError(t *testing.T) {
	enc, dec, closeFn := newTestSession(t, &fakeFS{})
	defer closeFn()

	if err := enc.Encode(1, wire.Tattach{Fid: 1, Afid: wire.NOFID, Uname: "u"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rl, ok := frame.Msg.(wire.Rlerror)
	if !ok {
		t.Fatalf("expected Rlerror, got %T", frame.Msg)
	}
	if rl.Errno != uint32(p9.EPROTO) {
		t.Fatalf("Errno: got %d, want EPROTO", rl.Errno)
	}
}

func TestAttachAfterVersion(t *testing.T) {
	fs := &fakeFS{}
	enc, dec, closeFn := newTestSession(t, fs)
	defer closeFn()

	versionHandshake(t, enc, dec, wire.DefaultMaxSize)

	if err := enc.Encode(1, wire.Tattach{Fid: 1, Afid: wire.NOFID, Uname: "u"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ra, ok := frame.Msg.(wire.Rattach)
	if !ok {
		t.Fatalf("expected Rattach, got %T", frame.Msg)
	}
	if ra.Qid.Path != 1 {
		t.Fatalf("Qid.Path: got %d, want 1", ra.Qid.Path)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.attached != 1 {
		t.Fatalf("Attach called %d times, want 1", fs.attached)
	}
}

func TestRemoveIsNotSupported(t *testing.T) {
	enc, dec, closeFn := newTestSession(t, &fakeFS{})
	defer closeFn()

	versionHandshake(t, enc, dec, wire.DefaultMaxSize)

	if err := enc.Encode(2, wire.Tremove{Fid: 1}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rl, ok := frame.Msg.(wire.Rlerror)
	if !ok {
		t.Fatalf("expected Rlerror, got %T", frame.Msg)
	}
	if rl.Errno != uint32(p9.EOPNOTSUPP) {
		t.Fatalf("Errno: got %d, want EOPNOTSUPP", rl.Errno)
	}
}

func TestSecondVersionResetsSession(t *testing.T) {
	fs := &fakeFS{}
	enc, dec, closeFn := newTestSession(t, fs)
	defer closeFn()

	versionHandshake(t, enc, dec, wire.DefaultMaxSize)
	if err := enc.Encode(1, wire.Tattach{Fid: 1, Afid: wire.NOFID, Uname: "u"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := dec.Decode(); err != nil {
		t.Fatalf("decode Rattach: %v", err)
	}

	versionHandshake(t, enc, dec, wire.DefaultMaxSize)

	// The fid table was reset by the second Tversion, so walking fid 1
	// again must fail as an unregistered fid rather than succeed.
	if err := enc.Encode(2, wire.Twalk{Fid: 1, Newfid: 1, Names: nil}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rl, ok := frame.Msg.(wire.Rlerror)
	if !ok {
		t.Fatalf("expected Rlerror for stale fid, got %T", frame.Msg)
	}
	if rl.Errno != uint32(p9.EBADF) {
		t.Fatalf("Errno: got %d, want EBADF", rl.Errno)
	}
}

func TestServerRegistryIsStable(t *testing.T) {
	srv := dispatch.NewServer(&fakeFS{})
	r1 := srv.Registry()
	r2 := srv.Registry()
	if r1 != r2 {
		t.Fatal("Registry() should return the same registry across calls")
	}
}

func TestServeAcceptsConnections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no loopback network available: %v", err)
	}
	srv := dispatch.NewServer(&fakeFS{})
	go srv.Serve(ln)
	defer ln.Close()

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	enc := wire.NewEncoder(conn)
	dec := wire.NewDecoder(conn, wire.DefaultMaxSize)
	rv := versionHandshake(t, enc, dec, wire.DefaultMaxSize)
	if rv.Version != wire.Version {
		t.Fatalf("Version: got %q", rv.Version)
	}
}

// TestFlushSuppressesReplyForStillPendingRequest exercises spec.md
// §4.4/§5's Tflush contract: a request still in flight when Tflush
// arrives is cancelled, Rflush is sent for the Tflush's own tag, and
// no reply is ever produced for the flushed tag, even once the
// underlying handler eventually finishes.
func TestFlushSuppressesReplyForStillPendingRequest(t *testing.T) {
	fs := &fakeFS{walkBlock: make(chan struct{})}
	enc, dec, client, closeFn := newTestSessionConn(t, fs)
	defer closeFn()

	versionHandshake(t, enc, dec, wire.DefaultMaxSize)

	if err := enc.Encode(1, wire.Tattach{Fid: 1, Afid: wire.NOFID, Uname: "u"}); err != nil {
		t.Fatalf("encode Tattach: %v", err)
	}
	if _, err := dec.Decode(); err != nil {
		t.Fatalf("decode Rattach: %v", err)
	}

	if err := enc.Encode(5, wire.Twalk{Fid: 1, Newfid: 2, Names: []string{"x"}}); err != nil {
		t.Fatalf("encode Twalk: %v", err)
	}

	// Give the handler goroutine a chance to actually enter the blocking
	// fakeFS.Walk call before it is flushed.
	time.Sleep(20 * time.Millisecond)

	if err := enc.Encode(6, wire.Tflush{Oldtag: 5}); err != nil {
		t.Fatalf("encode Tflush: %v", err)
	}

	frame, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := frame.Msg.(wire.Rflush); !ok {
		t.Fatalf("expected Rflush, got %T", frame.Msg)
	}
	if frame.Tag != 6 {
		t.Fatalf("Rflush tag: got %d, want 6", frame.Tag)
	}

	// Unblock the handler; it must not emit a reply for the flushed tag.
	close(fs.walkBlock)

	if err := client.SetReadDeadline(time.Now().Add(50 * time.Millisecond)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	_, err = dec.Decode()
	if err == nil {
		t.Fatal("expected no further reply after Rflush, but one arrived")
	}
	if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
		t.Fatalf("expected a read timeout confirming silence, got: %v", err)
	}
}
