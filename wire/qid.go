package wire

import (
	"fmt"

	"unpfs.dev/p9/internal/util"
)

// QidType is the high byte of a file's mode, reproduced in its Qid so
// that clients can distinguish directories, symlinks, and the like
// without a full stat.
type QidType uint8

const (
	QTDIR    QidType = 0x80 // directories
	QTAPPEND QidType = 0x40 // append-only files
	QTEXCL   QidType = 0x20 // exclusive-use files
	QTMOUNT  QidType = 0x10 // mounted channel
	QTAUTH   QidType = 0x08 // authentication file (afid)
	QTTMP    QidType = 0x04 // non-backed-up file
	QTSYMLINK QidType = 0x02
	QTLINK    QidType = 0x01
	QTFILE   QidType = 0x00
)

// Qid is the server's identity token for a file: two files on the same
// server are the same file if and only if their Qids are equal. Path
// must be unique among live files and stable for the lifetime of a
// session's references to the file; Version changes whenever the
// file's contents change.
type Qid struct {
	Type    QidType
	Version uint32
	Path    uint64
}

// QidLen is the wire size of a Qid: type[1] version[4] path[8].
const QidLen = 13

func (q Qid) String() string {
	return fmt.Sprintf("{type=%#x version=%d path=%d}", uint8(q.Type), q.Version, q.Path)
}

func putQid(w *util.ErrWriter, q Qid) {
	w.WriteByte(byte(q.Type))
	puint32(w, uint32(q.Version))
	puint64(w, q.Path)
}

func getQid(b []byte) (Qid, []byte, error) {
	if len(b) < QidLen {
		return Qid{}, b, errShort("qid")
	}
	q := Qid{
		Type:    QidType(b[0]),
		Version: guint32(b[1:5]),
		Path:    guint64(b[5:13]),
	}
	return q, b[QidLen:], nil
}
