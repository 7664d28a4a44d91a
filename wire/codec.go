package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"unpfs.dev/p9/internal/util"
)

// headerLen is size[4] + type[1] + tag[2].
const headerLen = 7

// Frame is one decoded 9P2000.L message together with its tag.
type Frame struct {
	Tag uint16
	Msg Msg
}

// A Decoder reads framed 9P2000.L messages from an underlying
// io.Reader, enforcing a maximum frame size negotiated by Tversion.
type Decoder struct {
	r     *bufio.Reader
	Msize uint32
}

// NewDecoder returns a Decoder that refuses frames larger than msize,
// the ceiling in effect before negotiation completes.
func NewDecoder(r io.Reader, msize uint32) *Decoder {
	return &Decoder{r: bufio.NewReader(r), Msize: msize}
}

// Decode reads and parses the next frame. A frame larger than d.Msize,
// a header that doesn't even fit, or a body that doesn't parse all
// produce a *DecodeError; io.EOF propagates unwrapped so callers can
// distinguish a clean disconnect from a protocol violation.
func (d *Decoder) Decode() (Frame, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(d.r, hdr[:4]); err != nil {
		return Frame{}, err
	}
	size := binary.LittleEndian.Uint32(hdr[:4])
	if size < headerLen {
		return Frame{}, &DecodeError{Reason: fmt.Sprintf("frame size %d smaller than header", size)}
	}
	if d.Msize != 0 && size > d.Msize {
		return Frame{}, &DecodeError{Reason: fmt.Sprintf("frame size %d exceeds msize %d", size, d.Msize)}
	}
	if _, err := io.ReadFull(d.r, hdr[4:7]); err != nil {
		return Frame{}, err
	}
	typ := hdr[4]
	tag := binary.LittleEndian.Uint16(hdr[5:7])

	body := make([]byte, size-headerLen)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return Frame{}, err
	}
	msg, err := Decode(typ, body)
	if err != nil {
		return Frame{Tag: tag}, err
	}
	return Frame{Tag: tag, Msg: msg}, nil
}

// An Encoder writes framed 9P2000.L messages to an underlying
// io.Writer. Encoders are not safe for concurrent use; callers that
// serve one connection from multiple goroutines should funnel writes
// through a single writer goroutine draining a channel of completed
// replies (see dispatch.conn.serve) rather than share one Encoder.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes tag and m as one complete frame.
func (e *Encoder) Encode(tag uint16, m Msg) error {
	var buf bytes.Buffer
	body := util.ErrWriter{W: &buf}
	m.marshal(&body)
	if body.Err != nil {
		return body.Err
	}

	var hdr [headerLen]byte
	binary.LittleEndian.PutUint32(hdr[:4], uint32(headerLen+buf.Len()))
	hdr[4] = m.Type()
	binary.LittleEndian.PutUint16(hdr[5:7], tag)

	if _, err := e.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}
