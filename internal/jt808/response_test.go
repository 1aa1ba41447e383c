package jt808

import (
	"bytes"
	"testing"

	"jtt808-svr/internal/bytesx"
)

func decodeSealedFrame(t *testing.T, frame []byte) (Header, []byte) {
	t.Helper()
	if frame[0] != bytesx.Delimiter || frame[len(frame)-1] != bytesx.Delimiter {
		t.Fatalf("frame not delimiter-bracketed: %x", frame)
	}
	interior := frame[1 : len(frame)-1]
	payload, err := bytesx.Unescape(interior)
	if err != nil {
		t.Fatalf("Unescape error: %v", err)
	}
	if !bytesx.VerifyChecksum(payload) {
		t.Fatalf("checksum failed on %x", payload)
	}
	hdr, body, err := DecodeHeader(payload[:len(payload)-1])
	if err != nil {
		t.Fatalf("DecodeHeader error: %v", err)
	}
	return hdr, body
}

func TestBuildPlatformGeneralResponse(t *testing.T) {
	terminal := [6]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}
	frame := BuildPlatformGeneralResponse(terminal, 7, 42, MsgHeartbeat, ResultSuccess)

	hdr, body := decodeSealedFrame(t, frame)
	if hdr.MessageID != MsgPlatformGeneralResponse {
		t.Errorf("MessageID = %#04x, want 0x8001", hdr.MessageID)
	}
	if hdr.Sequence != 7 {
		t.Errorf("Sequence = %d, want 7", hdr.Sequence)
	}
	want := []byte{0x00, 42, byte(MsgHeartbeat >> 8), byte(MsgHeartbeat), byte(ResultSuccess)}
	if !bytes.Equal(body, want) {
		t.Errorf("body = %x, want %x", body, want)
	}
}

func TestBuildTerminalRegisterReply(t *testing.T) {
	terminal := [6]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}
	frame := BuildTerminalRegisterReply(terminal, 1, 5, ResultSuccess, "OK")

	hdr, body := decodeSealedFrame(t, frame)
	if hdr.MessageID != MsgTerminalRegisterReply {
		t.Errorf("MessageID = %#04x, want 0x8100", hdr.MessageID)
	}
	wantBody := []byte{0x00, 5, byte(ResultSuccess), 'O', 'K'}
	if !bytes.Equal(body, wantBody) {
		t.Errorf("body = %x, want %x", body, wantBody)
	}
}

func TestSealEscapesTransparentBytes(t *testing.T) {
	// A terminal BCD containing a byte equal to the frame delimiter
	// forces the sealer to escape its own header.
	terminal := [6]byte{0x7E, 0x00, 0x00, 0x00, 0x00, 0x00}
	frame := BuildPlatformGeneralResponse(terminal, 1, 1, MsgHeartbeat, ResultSuccess)

	// Exactly two unescaped 0x7E bytes may appear: the opening and
	// closing delimiters.
	count := 0
	for _, b := range frame {
		if b == bytesx.Delimiter {
			count++
		}
	}
	if count != 2 {
		t.Errorf("found %d unescaped delimiter bytes in %x, want exactly 2 (open/close)", count, frame)
	}

	hdr, _ := decodeSealedFrame(t, frame)
	if hdr.TerminalBCD != terminal {
		t.Errorf("round-tripped TerminalBCD = %x, want %x", hdr.TerminalBCD, terminal)
	}
}
