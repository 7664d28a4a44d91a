package wire

import (
	"bytes"
	"io"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	msgs := []struct {
		tag uint16
		msg Msg
	}{
		{NOTAG, Tversion{Msize: 8192, Version: Version}},
		{1, Tattach{Fid: 1, Afid: NOFID, Uname: "u"}},
		{2, Rlerror{Errno: 2}},
	}
	for _, m := range msgs {
		if err := enc.Encode(m.tag, m.msg); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	dec := NewDecoder(&buf, DefaultMaxSize)
	for _, want := range msgs {
		frame, err := dec.Decode()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if frame.Tag != want.tag {
			t.Errorf("tag: got %d, want %d", frame.Tag, want.tag)
		}
		if frame.Msg.Type() != want.msg.Type() {
			t.Errorf("type: got %d, want %d", frame.Msg.Type(), want.msg.Type())
		}
	}
	if _, err := dec.Decode(); err != io.EOF {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestCodecRejectsOversizeFrame(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(1, Twrite{Fid: 1, Data: make([]byte, 1024)}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := NewDecoder(&buf, 64)
	if _, err := dec.Decode(); err == nil {
		t.Fatal("expected frame-too-large error")
	}
}

func TestCodecDetectsShortHeader(t *testing.T) {
	dec := NewDecoder(bytes.NewReader([]byte{1, 2, 3}), DefaultMaxSize)
	if _, err := dec.Decode(); err == nil {
		t.Fatal("expected error on truncated header")
	}
}
