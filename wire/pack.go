package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"unpfs.dev/p9/internal/util"
)

// Shorthand for parsing little-endian integers out of a byte slice.
var (
	guint16 = binary.LittleEndian.Uint16
	guint32 = binary.LittleEndian.Uint32
	guint64 = binary.LittleEndian.Uint64
)

// DecodeError reports a malformed 9P2000.L message. Every failure in
// this package's Decode path is one of these, so callers can always
// respond with Rlerror{EPROTO} rather than guessing at the cause.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "9p2000.L decode: " + e.Reason }

func errShort(field string) error {
	return &DecodeError{Reason: fmt.Sprintf("%s: buffer too short", field)}
}

func puint8(w *util.ErrWriter, v uint8) {
	w.WriteByte(v)
}

func puint16(w *util.ErrWriter, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.Write(buf[:])
}

func puint32(w *util.ErrWriter, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}

func puint64(w *util.ErrWriter, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}

// pstring writes a 9P string: a u16 length prefix followed by the raw
// (not necessarily valid-UTF8-checked) bytes. Longer strings are a
// caller bug, not a wire-representable value.
func pstring(w *util.ErrWriter, s string) {
	if len(s) > math.MaxUint16 {
		w.Err = fmt.Errorf("wire: string %q exceeds maximum length", s[:32]+"...")
		return
	}
	puint16(w, uint16(len(s)))
	w.Write([]byte(s))
}

func pbytes(w *util.ErrWriter, p []byte) {
	puint32(w, uint32(len(p)))
	w.Write(p)
}

func getString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", b, errShort("string length")
	}
	n := int(guint16(b[:2]))
	b = b[2:]
	if len(b) < n {
		return "", b, errShort("string data")
	}
	return string(b[:n]), b[n:], nil
}

func getBytes(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, b, errShort("data count")
	}
	n := int(guint32(b[:4]))
	b = b[4:]
	if n < 0 || len(b) < n {
		return nil, b, errShort("data")
	}
	return b[:n], b[n:], nil
}

func getU32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, b, errShort("u32")
	}
	return guint32(b[:4]), b[4:], nil
}

func getU64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, b, errShort("u64")
	}
	return guint64(b[:8]), b[8:], nil
}

func getU16(b []byte) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, b, errShort("u16")
	}
	return guint16(b[:2]), b[2:], nil
}

func getU8(b []byte) (uint8, []byte, error) {
	if len(b) < 1 {
		return 0, b, errShort("u8")
	}
	return b[0], b[1:], nil
}
