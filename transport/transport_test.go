package transport

import (
	"encoding/binary"
	"encoding/json"
	"testing"
)

type chatPayload struct {
	Text string `json:"text"`
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e, err := Encode("Chat", chatPayload{Text: "hello"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if e.Tag != "Chat" {
		t.Fatalf("Tag = %q, want Chat", e.Tag)
	}
	var got chatPayload
	if err := Decode(e, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Text != "hello" {
		t.Fatalf("Text = %q, want hello", got.Text)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	e, err := Encode("Ping", struct{}{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := frame(e)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if len(b) < 8 {
		t.Fatalf("frame too short: %d bytes", len(b))
	}
	if n := binary.BigEndian.Uint64(b[:8]); n != uint64(len(b)-8) {
		t.Fatalf("length prefix = %d, want %d", n, len(b)-8)
	}
	var got Envelope
	if err := json.Unmarshal(b[8:], &got); err != nil {
		t.Fatalf("unmarshal framed body: %v", err)
	}
	if got.Tag != "Ping" {
		t.Fatalf("Tag = %q, want Ping", got.Tag)
	}
}
