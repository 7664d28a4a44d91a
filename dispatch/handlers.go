package dispatch

import (
	"unpfs.dev/p9"
	"unpfs.dev/p9/wire"
)

// verbName labels a request for the requests_total metric. It never
// allocates beyond the type switch itself.
func verbName(m wire.Msg) string {
	switch m.(type) {
	case wire.Tattach:
		return "attach"
	case wire.Tauth:
		return "auth"
	case wire.Twalk:
		return "walk"
	case wire.Tgetattr:
		return "getattr"
	case wire.Tsetattr:
		return "setattr"
	case wire.Treadlink:
		return "readlink"
	case wire.Treaddir:
		return "readdir"
	case wire.Tlopen:
		return "lopen"
	case wire.Tlcreate:
		return "lcreate"
	case wire.Tread:
		return "read"
	case wire.Twrite:
		return "write"
	case wire.Tmkdir:
		return "mkdir"
	case wire.Trenameat:
		return "renameat"
	case wire.Tunlinkat:
		return "unlinkat"
	case wire.Tfsync:
		return "fsync"
	case wire.Tclunk:
		return "clunk"
	case wire.Tremove:
		return "remove"
	case wire.Tstatfs:
		return "statfs"
	default:
		return "unknown"
	}
}

// handle runs the operation a decoded request names and returns the
// reply body, which is always either the expected Rxxx or an Rlerror.
// It never panics on a bad fid; every lookup failure is mapped through
// errReply the same way a Filesystem error would be.
func (c *conn) handle(req wire.Msg) wire.Msg {
	switch m := req.(type) {
	case wire.Tauth:
		return wire.Rlerror{Errno: uint32(p9.EOPNOTSUPP)}

	case wire.Tattach:
		qid, root, err := c.srv.FS.Attach(m.Uname, m.Aname)
		if err != nil {
			return errReply(err)
		}
		if _, err := c.fids.Insert(m.Fid, root); err != nil {
			return errReply(err)
		}
		return wire.Rattach{Qid: qid}

	case wire.Twalk:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		qids, newPath, err := c.srv.FS.Walk(fid, m.Names)
		if err != nil {
			return errReply(err)
		}
		if len(qids) < len(m.Names) {
			return wire.Rwalk{Qids: qids}
		}
		if m.Newfid == m.Fid {
			fid.SetRealPath(newPath)
		} else if _, err := c.fids.Insert(m.Newfid, newPath); err != nil {
			return errReply(err)
		}
		return wire.Rwalk{Qids: qids}

	case wire.Tgetattr:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		stat, err := c.srv.FS.GetAttr(fid, m.RequestMask)
		if err != nil {
			return errReply(err)
		}
		return wire.Rgetattr{Stat: stat}

	case wire.Tsetattr:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		if err := c.srv.FS.SetAttr(fid, m.Attr.Valid, m.Attr); err != nil {
			return errReply(err)
		}
		return wire.Rsetattr{}

	case wire.Treadlink:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		target, err := c.srv.FS.ReadLink(fid)
		if err != nil {
			return errReply(err)
		}
		return wire.Rreadlink{Target: target}

	case wire.Treaddir:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		entries, err := c.srv.FS.ReadDir(fid, m.Offset, m.Count)
		if err != nil {
			return errReply(err)
		}
		return wire.Rreaddir{Entries: entries}

	case wire.Tlopen:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		qid, iounit, err := c.srv.FS.Open(fid, m.Flags)
		if err != nil {
			return errReply(err)
		}
		return wire.Rlopen{Qid: qid, Iounit: iounit}

	case wire.Tlcreate:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		qid, iounit, err := c.srv.FS.Create(fid, m.Name, m.Flags, m.Mode, m.Gid)
		if err != nil {
			return errReply(err)
		}
		return wire.Rlcreate{Qid: qid, Iounit: iounit}

	case wire.Tread:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		data, err := c.srv.FS.Read(fid, m.Offset, m.Count)
		if err != nil {
			return errReply(err)
		}
		return wire.Rread{Data: data}

	case wire.Twrite:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		n, err := c.srv.FS.Write(fid, m.Offset, m.Data)
		if err != nil {
			return errReply(err)
		}
		return wire.Rwrite{Count: n}

	case wire.Tmkdir:
		dfid, err := c.fids.Get(m.Dfid)
		if err != nil {
			return errReply(err)
		}
		qid, err := c.srv.FS.Mkdir(dfid, m.Name, m.Mode, m.Gid)
		if err != nil {
			return errReply(err)
		}
		return wire.Rmkdir{Qid: qid}

	case wire.Trenameat:
		olddir, err := c.fids.Get(m.Olddirfid)
		if err != nil {
			return errReply(err)
		}
		newdir, err := c.fids.Get(m.Newdirfid)
		if err != nil {
			return errReply(err)
		}
		if err := c.srv.FS.RenameAt(olddir, m.Oldname, newdir, m.Newname); err != nil {
			return errReply(err)
		}
		return wire.Rrenameat{}

	case wire.Tunlinkat:
		dirfid, err := c.fids.Get(m.Dirfid)
		if err != nil {
			return errReply(err)
		}
		if err := c.srv.FS.UnlinkAt(dirfid, m.Name, m.Flags); err != nil {
			return errReply(err)
		}
		return wire.Runlinkat{}

	case wire.Tfsync:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		if err := c.srv.FS.Fsync(fid); err != nil {
			return errReply(err)
		}
		return wire.Rfsync{}

	case wire.Tclunk:
		fid, err := c.fids.Remove(m.Fid)
		if err != nil {
			return errReply(err)
		}
		fid.CloseFile()
		return wire.Rclunk{}

	case wire.Tremove:
		// Tremove is the legacy 9P remove-on-clunk; 9P2000.L clients use
		// Tunlinkat + Tclunk instead and this server does not speak the
		// older dialects (spec non-goal).
		return wire.Rlerror{Errno: uint32(p9.EOPNOTSUPP)}

	case wire.Tstatfs:
		fid, err := c.fids.Get(m.Fid)
		if err != nil {
			return errReply(err)
		}
		stat, err := c.srv.FS.StatFS(fid)
		if err != nil {
			return errReply(err)
		}
		return wire.Rstatfs{Stat: stat}

	default:
		return wire.Rlerror{Errno: uint32(p9.EPROTO)}
	}
}
