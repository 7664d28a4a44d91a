package wire

import (
	"fmt"

	"unpfs.dev/p9/internal/util"
)

// Msg is implemented by every 9P2000.L message body. Type returns the
// wire type byte so a generic encoder can write the frame header
// without a type switch at the call site.
type Msg interface {
	Type() uint8
	marshal(w *util.ErrWriter)
}

// Tversion negotiates the protocol dialect and maximum frame size.
type Tversion struct {
	Msize   uint32
	Version string
}

func (Tversion) Type() uint8 { return tagTversion }
func (m Tversion) marshal(w *util.ErrWriter) {
	puint32(w, m.Msize)
	pstring(w, m.Version)
}

// Rversion is the server's reply: the msize actually in effect (never
// larger than the client's offer) and the negotiated dialect string,
// or "unknown" if the client's version wasn't recognized.
type Rversion struct {
	Msize   uint32
	Version string
}

func (Rversion) Type() uint8 { return tagRversion }
func (m Rversion) marshal(w *util.ErrWriter) {
	puint32(w, m.Msize)
	pstring(w, m.Version)
}

// Tauth requests an afid for authentication. This server has no
// authentication method, so every Tauth is answered with Rlerror{EOPNOTSUPP}.
type Tauth struct {
	Afid     uint32
	Uname    string
	Aname    string
	NUname   uint32
}

func (Tauth) Type() uint8 { return tagTauth }
func (m Tauth) marshal(w *util.ErrWriter) {
	puint32(w, m.Afid)
	pstring(w, m.Uname)
	pstring(w, m.Aname)
	puint32(w, m.NUname)
}

// Rauth carries the afid's qid. Never produced by this server.
type Rauth struct {
	Aqid Qid
}

func (Rauth) Type() uint8 { return tagRauth }
func (m Rauth) marshal(w *util.ErrWriter) { putQid(w, m.Aqid) }

// Tattach establishes the root fid of a session.
type Tattach struct {
	Fid    uint32
	Afid   uint32
	Uname  string
	Aname  string
	NUname uint32
}

func (Tattach) Type() uint8 { return tagTattach }
func (m Tattach) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	puint32(w, m.Afid)
	pstring(w, m.Uname)
	pstring(w, m.Aname)
	puint32(w, m.NUname)
}

// Rattach returns the qid of the attached root.
type Rattach struct {
	Qid Qid
}

func (Rattach) Type() uint8 { return tagRattach }
func (m Rattach) marshal(w *util.ErrWriter) { putQid(w, m.Qid) }

// Rlerror is 9P2000.L's sole error reply: a Linux errno, in place of
// the plain-9P Rerror's free-text string.
type Rlerror struct {
	Errno uint32
}

func (Rlerror) Type() uint8 { return tagRlerror }
func (m Rlerror) marshal(w *util.ErrWriter) { puint32(w, m.Errno) }

// Tflush asks the server to cancel a pending request (Oldtag) and
// suppress its reply, if it hasn't been sent yet.
type Tflush struct {
	Oldtag uint16
}

func (Tflush) Type() uint8 { return tagTflush }
func (m Tflush) marshal(w *util.ErrWriter) { puint16(w, m.Oldtag) }

// Rflush acknowledges a Tflush. It is always sent, whether or not the
// flushed request's own reply made it out first.
type Rflush struct{}

func (Rflush) Type() uint8            { return tagRflush }
func (m Rflush) marshal(w *util.ErrWriter) {}

// Twalk walks Fid through Names, binding the result to Newfid.
type Twalk struct {
	Fid    uint32
	Newfid uint32
	Names  []string
}

func (Twalk) Type() uint8 { return tagTwalk }
func (m Twalk) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	puint32(w, m.Newfid)
	puint16(w, uint16(len(m.Names)))
	for _, n := range m.Names {
		pstring(w, n)
	}
}

// Rwalk returns a qid per path component successfully walked. Fewer
// Qids than requested Names means the walk stopped partway and Newfid
// was left unbound.
type Rwalk struct {
	Qids []Qid
}

func (Rwalk) Type() uint8 { return tagRwalk }
func (m Rwalk) marshal(w *util.ErrWriter) {
	puint16(w, uint16(len(m.Qids)))
	for _, q := range m.Qids {
		putQid(w, q)
	}
}

// Tgetattr requests the attributes of Fid, advisory-filtered by RequestMask.
type Tgetattr struct {
	Fid         uint32
	RequestMask GetattrMask
}

func (Tgetattr) Type() uint8 { return tagTgetattr }
func (m Tgetattr) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	puint64(w, uint64(m.RequestMask))
}

// Rgetattr is the full attribute reply.
type Rgetattr struct {
	Stat Stat
}

func (Rgetattr) Type() uint8 { return tagRgetattr }
func (m Rgetattr) marshal(w *util.ErrWriter) { putStat(w, m.Stat) }

// Tsetattr changes attributes of Fid per the Valid mask in Attr.
type Tsetattr struct {
	Fid  uint32
	Attr SetAttr
}

func (Tsetattr) Type() uint8 { return tagTsetattr }
func (m Tsetattr) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	putSetAttr(w, m.Attr)
}

// Rsetattr has no body; success is the reply itself.
type Rsetattr struct{}

func (Rsetattr) Type() uint8            { return tagRsetattr }
func (m Rsetattr) marshal(w *util.ErrWriter) {}

// Treadlink requests the target of a symlink fid.
type Treadlink struct {
	Fid uint32
}

func (Treadlink) Type() uint8 { return tagTreadlink }
func (m Treadlink) marshal(w *util.ErrWriter) { puint32(w, m.Fid) }

// Rreadlink returns the link target, unterminated.
type Rreadlink struct {
	Target string
}

func (Rreadlink) Type() uint8 { return tagRreadlink }
func (m Rreadlink) marshal(w *util.ErrWriter) { pstring(w, m.Target) }

// DirEntry is one record inside an Rreaddir body. Offset is the cookie
// identifying the position for a subsequent Treaddir continuation: offset 0 begins at
// cookie 0 (the synthetic "." entry); see the readdir cookie
// convention in the directory-listing operation.
type DirEntry struct {
	Qid    Qid
	Offset uint64
	Type   uint8
	Name   string
}

func (e DirEntry) encodedLen() int {
	return QidLen + 8 + 1 + 2 + len(e.Name)
}

func putDirEntry(w *util.ErrWriter, e DirEntry) {
	putQid(w, e.Qid)
	puint64(w, e.Offset)
	w.WriteByte(e.Type)
	pstring(w, e.Name)
}

func getDirEntry(b []byte) (DirEntry, []byte, error) {
	var e DirEntry
	var err error
	if e.Qid, b, err = getQid(b); err != nil {
		return e, b, err
	}
	if e.Offset, b, err = getU64(b); err != nil {
		return e, b, err
	}
	if e.Type, b, err = getU8(b); err != nil {
		return e, b, err
	}
	if e.Name, b, err = getString(b); err != nil {
		return e, b, err
	}
	return e, b, nil
}

// Treaddir requests up to Count bytes of directory entries starting
// after Offset (a cookie from a prior entry, or 0 to start over).
type Treaddir struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

func (Treaddir) Type() uint8 { return tagTreaddir }
func (m Treaddir) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	puint64(w, m.Offset)
	puint32(w, m.Count)
}

// Rreaddir carries as many whole DirEntry records as fit within the
// requested byte count; it never truncates a record mid-way.
type Rreaddir struct {
	Entries []DirEntry
}

func (Rreaddir) Type() uint8 { return tagRreaddir }
func (m Rreaddir) marshal(w *util.ErrWriter) {
	n := 0
	for _, e := range m.Entries {
		n += e.encodedLen()
	}
	puint32(w, uint32(n))
	for _, e := range m.Entries {
		putDirEntry(w, e)
	}
}

// Tlopen opens Fid with Linux open(2)-style Flags, replacing any
// Tattach/Twalk-only state with a live file (or directory) handle.
type Tlopen struct {
	Fid   uint32
	Flags OpenFlag
}

func (Tlopen) Type() uint8 { return tagTlopen }
func (m Tlopen) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	puint32(w, uint32(m.Flags))
}

// Rlopen returns the qid of the now-open file plus a server-chosen IO
// unit hint (0 meaning "no preference, use msize").
type Rlopen struct {
	Qid    Qid
	Iounit uint32
}

func (Rlopen) Type() uint8 { return tagRlopen }
func (m Rlopen) marshal(w *util.ErrWriter) {
	putQid(w, m.Qid)
	puint32(w, m.Iounit)
}

// Tlcreate creates Name under the directory fid and, on success,
// rebinds Fid itself to the new file — there is no separate child fid.
type Tlcreate struct {
	Fid   uint32
	Name  string
	Flags OpenFlag
	Mode  uint32
	Gid   uint32
}

func (Tlcreate) Type() uint8 { return tagTlcreate }
func (m Tlcreate) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	pstring(w, m.Name)
	puint32(w, uint32(m.Flags))
	puint32(w, m.Mode)
	puint32(w, m.Gid)
}

// Rlcreate mirrors Rlopen: the rebound fid's new qid and an IO unit hint.
type Rlcreate struct {
	Qid    Qid
	Iounit uint32
}

func (Rlcreate) Type() uint8 { return tagRlcreate }
func (m Rlcreate) marshal(w *util.ErrWriter) {
	putQid(w, m.Qid)
	puint32(w, m.Iounit)
}

// Tread requests up to Count bytes from Fid starting at Offset.
type Tread struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

func (Tread) Type() uint8 { return tagTread }
func (m Tread) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	puint64(w, m.Offset)
	puint32(w, m.Count)
}

// Rread carries the bytes actually read; fewer than Count means EOF.
type Rread struct {
	Data []byte
}

func (Rread) Type() uint8 { return tagRread }
func (m Rread) marshal(w *util.ErrWriter) { pbytes(w, m.Data) }

// Twrite writes Data to Fid at Offset.
type Twrite struct {
	Fid    uint32
	Offset uint64
	Data   []byte
}

func (Twrite) Type() uint8 { return tagTwrite }
func (m Twrite) marshal(w *util.ErrWriter) {
	puint32(w, m.Fid)
	puint64(w, m.Offset)
	pbytes(w, m.Data)
}

// Rwrite reports the number of bytes actually written.
type Rwrite struct {
	Count uint32
}

func (Rwrite) Type() uint8 { return tagRwrite }
func (m Rwrite) marshal(w *util.ErrWriter) { puint32(w, m.Count) }

// Tmkdir creates a directory Name under Dfid.
type Tmkdir struct {
	Dfid uint32
	Name string
	Mode uint32
	Gid  uint32
}

func (Tmkdir) Type() uint8 { return tagTmkdir }
func (m Tmkdir) marshal(w *util.ErrWriter) {
	puint32(w, m.Dfid)
	pstring(w, m.Name)
	puint32(w, m.Mode)
	puint32(w, m.Gid)
}

// Rmkdir returns the qid of the new directory.
type Rmkdir struct {
	Qid Qid
}

func (Rmkdir) Type() uint8 { return tagRmkdir }
func (m Rmkdir) marshal(w *util.ErrWriter) { putQid(w, m.Qid) }

// Trenameat moves Oldname under Olddirfid to Newname under Newdirfid,
// atomically, without requiring either endpoint be opened.
type Trenameat struct {
	Olddirfid uint32
	Oldname   string
	Newdirfid uint32
	Newname   string
}

func (Trenameat) Type() uint8 { return tagTrenameat }
func (m Trenameat) marshal(w *util.ErrWriter) {
	puint32(w, m.Olddirfid)
	pstring(w, m.Oldname)
	puint32(w, m.Newdirfid)
	pstring(w, m.Newname)
}

// Rrenameat has no body.
type Rrenameat struct{}

func (Rrenameat) Type() uint8            { return tagRrenameat }
func (m Rrenameat) marshal(w *util.ErrWriter) {}

// Tunlinkat removes Name under Dirfid. Flags carries AT_REMOVEDIR-style
// bits; a directory removal fails with ENOTEMPTY unless it's empty.
type Tunlinkat struct {
	Dirfid uint32
	Name   string
	Flags  uint32
}

func (Tunlinkat) Type() uint8 { return tagTunlinkat }
func (m Tunlinkat) marshal(w *util.ErrWriter) {
	puint32(w, m.Dirfid)
	pstring(w, m.Name)
	puint32(w, m.Flags)
}

// Runlinkat has no body.
type Runlinkat struct{}

func (Runlinkat) Type() uint8            { return tagRunlinkat }
func (m Runlinkat) marshal(w *util.ErrWriter) {}

// Tfsync flushes Fid's buffered writes to stable storage.
type Tfsync struct {
	Fid uint32
}

func (Tfsync) Type() uint8 { return tagTfsync }
func (m Tfsync) marshal(w *util.ErrWriter) { puint32(w, m.Fid) }

// Rfsync has no body.
type Rfsync struct{}

func (Rfsync) Type() uint8            { return tagRfsync }
func (m Rfsync) marshal(w *util.ErrWriter) {}

// Tclunk retires Fid. The fid number becomes free for reuse once the
// reply is sent, whether or not the clunk itself succeeded.
type Tclunk struct {
	Fid uint32
}

func (Tclunk) Type() uint8 { return tagTclunk }
func (m Tclunk) marshal(w *util.ErrWriter) { puint32(w, m.Fid) }

// Rclunk has no body.
type Rclunk struct{}

func (Rclunk) Type() uint8            { return tagRclunk }
func (m Rclunk) marshal(w *util.ErrWriter) {}

// Tremove clunks Fid and removes the file it names.
type Tremove struct {
	Fid uint32
}

func (Tremove) Type() uint8 { return tagTremove }
func (m Tremove) marshal(w *util.ErrWriter) { puint32(w, m.Fid) }

// Rremove has no body.
type Rremove struct{}

func (Rremove) Type() uint8            { return tagRremove }
func (m Rremove) marshal(w *util.ErrWriter) {}

// Tstatfs requests filesystem-wide statistics for the file Fid resides on.
type Tstatfs struct {
	Fid uint32
}

func (Tstatfs) Type() uint8 { return tagTstatfs }
func (m Tstatfs) marshal(w *util.ErrWriter) { puint32(w, m.Fid) }

// Rstatfs is the statvfs(2)-shaped reply.
type Rstatfs struct {
	Stat Statfs
}

func (Rstatfs) Type() uint8 { return tagRstatfs }
func (m Rstatfs) marshal(w *util.ErrWriter) { putStatfs(w, m.Stat) }

// Decode parses one message body of the given wire type from b, which
// must hold exactly the body bytes (the caller has already stripped
// the size/type/tag header). Unknown types produce an error rather
// than being silently dropped.
func Decode(typ uint8, b []byte) (Msg, error) {
	switch typ {
	case tagTversion:
		msize, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		v, _, err := getString(b)
		if err != nil {
			return nil, err
		}
		return Tversion{Msize: msize, Version: v}, nil
	case tagRversion:
		msize, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		v, _, err := getString(b)
		if err != nil {
			return nil, err
		}
		return Rversion{Msize: msize, Version: v}, nil
	case tagTauth:
		afid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		uname, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		aname, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		nuname, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tauth{Afid: afid, Uname: uname, Aname: aname, NUname: nuname}, nil
	case tagRauth:
		q, _, err := getQid(b)
		if err != nil {
			return nil, err
		}
		return Rauth{Aqid: q}, nil
	case tagTattach:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		afid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		uname, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		aname, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		nuname, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tattach{Fid: fid, Afid: afid, Uname: uname, Aname: aname, NUname: nuname}, nil
	case tagRattach:
		q, _, err := getQid(b)
		if err != nil {
			return nil, err
		}
		return Rattach{Qid: q}, nil
	case tagRlerror:
		errno, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Rlerror{Errno: errno}, nil
	case tagTflush:
		oldtag, _, err := getU16(b)
		if err != nil {
			return nil, err
		}
		return Tflush{Oldtag: oldtag}, nil
	case tagRflush:
		return Rflush{}, nil
	case tagTwalk:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		newfid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		nwname, b, err := getU16(b)
		if err != nil {
			return nil, err
		}
		var names []string
		for i := 0; i < int(nwname); i++ {
			var n string
			n, b, err = getString(b)
			if err != nil {
				return nil, err
			}
			names = append(names, n)
		}
		return Twalk{Fid: fid, Newfid: newfid, Names: names}, nil
	case tagRwalk:
		nwqid, b, err := getU16(b)
		if err != nil {
			return nil, err
		}
		var qids []Qid
		for i := 0; i < int(nwqid); i++ {
			var q Qid
			q, b, err = getQid(b)
			if err != nil {
				return nil, err
			}
			qids = append(qids, q)
		}
		return Rwalk{Qids: qids}, nil
	case tagTgetattr:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		mask, _, err := getU64(b)
		if err != nil {
			return nil, err
		}
		return Tgetattr{Fid: fid, RequestMask: GetattrMask(mask)}, nil
	case tagRgetattr:
		s, _, err := getStat(b)
		if err != nil {
			return nil, err
		}
		return Rgetattr{Stat: s}, nil
	case tagTsetattr:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		attr, _, err := getSetAttr(b)
		if err != nil {
			return nil, err
		}
		return Tsetattr{Fid: fid, Attr: attr}, nil
	case tagRsetattr:
		return Rsetattr{}, nil
	case tagTreadlink:
		fid, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Treadlink{Fid: fid}, nil
	case tagRreadlink:
		target, _, err := getString(b)
		if err != nil {
			return nil, err
		}
		return Rreadlink{Target: target}, nil
	case tagTreaddir:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		offset, b, err := getU64(b)
		if err != nil {
			return nil, err
		}
		count, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Treaddir{Fid: fid, Offset: offset, Count: count}, nil
	case tagRreaddir:
		count, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		if uint32(len(b)) < count {
			return nil, errShort("readdir entries")
		}
		body := b[:count]
		var entries []DirEntry
		for len(body) > 0 {
			var e DirEntry
			e, body, err = getDirEntry(body)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
		return Rreaddir{Entries: entries}, nil
	case tagTlopen:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		flags, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tlopen{Fid: fid, Flags: OpenFlag(flags)}, nil
	case tagRlopen:
		q, b, err := getQid(b)
		if err != nil {
			return nil, err
		}
		iounit, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Rlopen{Qid: q, Iounit: iounit}, nil
	case tagTlcreate:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		name, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		flags, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		mode, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		gid, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tlcreate{Fid: fid, Name: name, Flags: OpenFlag(flags), Mode: mode, Gid: gid}, nil
	case tagRlcreate:
		q, b, err := getQid(b)
		if err != nil {
			return nil, err
		}
		iounit, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Rlcreate{Qid: q, Iounit: iounit}, nil
	case tagTread:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		offset, b, err := getU64(b)
		if err != nil {
			return nil, err
		}
		count, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tread{Fid: fid, Offset: offset, Count: count}, nil
	case tagRread:
		data, _, err := getBytes(b)
		if err != nil {
			return nil, err
		}
		return Rread{Data: data}, nil
	case tagTwrite:
		fid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		offset, b, err := getU64(b)
		if err != nil {
			return nil, err
		}
		data, _, err := getBytes(b)
		if err != nil {
			return nil, err
		}
		return Twrite{Fid: fid, Offset: offset, Data: data}, nil
	case tagRwrite:
		count, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Rwrite{Count: count}, nil
	case tagTmkdir:
		dfid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		name, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		mode, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		gid, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tmkdir{Dfid: dfid, Name: name, Mode: mode, Gid: gid}, nil
	case tagRmkdir:
		q, _, err := getQid(b)
		if err != nil {
			return nil, err
		}
		return Rmkdir{Qid: q}, nil
	case tagTrenameat:
		olddirfid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		oldname, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		newdirfid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		newname, _, err := getString(b)
		if err != nil {
			return nil, err
		}
		return Trenameat{Olddirfid: olddirfid, Oldname: oldname, Newdirfid: newdirfid, Newname: newname}, nil
	case tagRrenameat:
		return Rrenameat{}, nil
	case tagTunlinkat:
		dirfid, b, err := getU32(b)
		if err != nil {
			return nil, err
		}
		name, b, err := getString(b)
		if err != nil {
			return nil, err
		}
		flags, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tunlinkat{Dirfid: dirfid, Name: name, Flags: flags}, nil
	case tagRunlinkat:
		return Runlinkat{}, nil
	case tagTfsync:
		fid, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tfsync{Fid: fid}, nil
	case tagRfsync:
		return Rfsync{}, nil
	case tagTclunk:
		fid, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tclunk{Fid: fid}, nil
	case tagRclunk:
		return Rclunk{}, nil
	case tagTremove:
		fid, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tremove{Fid: fid}, nil
	case tagRremove:
		return Rremove{}, nil
	case tagTstatfs:
		fid, _, err := getU32(b)
		if err != nil {
			return nil, err
		}
		return Tstatfs{Fid: fid}, nil
	case tagRstatfs:
		s, _, err := getStatfs(b)
		if err != nil {
			return nil, err
		}
		return Rstatfs{Stat: s}, nil
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown message type %d", typ)}
	}
}

// Marshal writes m's encoded body to w; an error written to w.Err, if
// any, is returned.
func Marshal(w *util.ErrWriter, m Msg) error {
	m.marshal(w)
	return w.Err
}
