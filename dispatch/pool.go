package dispatch

import (
	"bufio"
	"io"
	"sync"

	"unpfs.dev/p9/wire"
)

var (
	decoderPool     sync.Pool
	bufioWriterPool sync.Pool
)

func newDecoder(r io.Reader, msize uint32) *wire.Decoder {
	if v := decoderPool.Get(); v != nil {
		d := v.(*wire.Decoder)
		*d = *wire.NewDecoder(r, msize)
		return d
	}
	return wire.NewDecoder(r, msize)
}

func putDecoder(d *wire.Decoder) {
	decoderPool.Put(d)
}

func newBufioWriter(w io.Writer) *bufio.Writer {
	if v := bufioWriterPool.Get(); v != nil {
		bw := v.(*bufio.Writer)
		bw.Reset(w)
		return bw
	}
	return bufio.NewWriterSize(w, 4096)
}

func putBufioWriter(w *bufio.Writer) {
	w.Reset(nil)
	bufioWriterPool.Put(w)
}
