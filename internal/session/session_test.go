package session

import (
	"bytes"
	"encoding/binary"
	"testing"

	"jtt808-svr/internal/bytesx"
)

type recordingSink struct {
	locations []LocationEvent
	errors    []ParseErrorEvent
	unhandled []UnhandledMessageEvent
}

func (s *recordingSink) Location(e LocationEvent)         { s.locations = append(s.locations, e) }
func (s *recordingSink) ParseError(e ParseErrorEvent)     { s.errors = append(s.errors, e) }
func (s *recordingSink) Unhandled(e UnhandledMessageEvent) { s.unhandled = append(s.unhandled, e) }

// buildFrame assembles a well-formed binary frame (header+body, checksum,
// escape, delimiters) the same way internal/jt808's seal helper does, so
// tests don't depend on exporting seal.
func buildFrame(t *testing.T, msgID uint16, terminal [6]byte, seq uint16, body []byte) []byte {
	t.Helper()
	header := make([]byte, 12)
	binary.BigEndian.PutUint16(header[0:2], msgID)
	binary.BigEndian.PutUint16(header[2:4], uint16(len(body))&0x03FF)
	copy(header[4:10], terminal[:])
	binary.BigEndian.PutUint16(header[10:12], seq)

	interior := append(append([]byte{}, header...), body...)
	interior = append(interior, bytesx.Checksum(interior))
	escaped := bytesx.Escape(interior)

	out := []byte{bytesx.Delimiter}
	out = append(out, escaped...)
	out = append(out, bytesx.Delimiter)
	return out
}

var testTerminal = [6]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}

func TestSessionHeartbeatProducesOneAck(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	frame := buildFrame(t, 0x0002, testTerminal, 1, nil)
	resps := s.Feed(frame)

	if len(resps) != 1 {
		t.Fatalf("got %d responses, want 1", len(resps))
	}
	if len(sink.errors) != 0 {
		t.Errorf("got parse errors %v, want none", sink.errors)
	}
}

func TestSessionChunkedHeartbeatProducesOneAck(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	frame := buildFrame(t, 0x0002, testTerminal, 1, nil)
	mid := len(frame) / 2

	resps := s.Feed(frame[:mid])
	if len(resps) != 0 {
		t.Fatalf("got %d responses from partial chunk, want 0", len(resps))
	}
	resps = s.Feed(frame[mid:])
	if len(resps) != 1 {
		t.Fatalf("got %d responses after full frame arrived, want 1", len(resps))
	}
}

func TestSessionCorruptChecksumNoAckButConnectionStaysUsable(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	bad := buildFrame(t, 0x0002, testTerminal, 1, nil)
	// Flip a body/header byte without recomputing the checksum.
	bad[2] ^= 0xFF

	resps := s.Feed(bad)
	if len(resps) != 0 {
		t.Fatalf("got %d responses for corrupt frame, want 0", len(resps))
	}
	if len(sink.errors) != 1 {
		t.Fatalf("got %d parse errors, want exactly 1", len(sink.errors))
	}
	if sink.errors[0].Kind != ErrChecksum {
		t.Errorf("error kind = %v, want ErrChecksum", sink.errors[0].Kind)
	}

	good := buildFrame(t, 0x0002, testTerminal, 2, nil)
	resps = s.Feed(good)
	if len(resps) != 1 {
		t.Fatalf("connection unusable after prior corrupt frame: got %d responses, want 1", len(resps))
	}
}

func TestSessionLocationReportEmitsLocationAndAck(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	body := make([]byte, 28)
	body[3] = 0x01 // alarm low byte
	frame := buildFrame(t, 0x0200, testTerminal, 1, body)

	resps := s.Feed(frame)
	if len(resps) != 1 {
		t.Fatalf("got %d responses, want 1", len(resps))
	}
	if len(sink.locations) != 1 {
		t.Fatalf("got %d location events, want 1", len(sink.locations))
	}
	if sink.locations[0].Binary == nil {
		t.Error("LocationEvent.Binary = nil, want populated")
	}
}

func TestSessionLocationWithTLVOverrunEmitsTLVErrorAndStillAcks(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	body := make([]byte, 28)
	// A TLV tacked onto the fixed prefix that declares more bytes than
	// are actually present.
	body = append(body, 0x30, 0x05, 0x01)
	frame := buildFrame(t, 0x0200, testTerminal, 1, body)

	resps := s.Feed(frame)
	if len(resps) != 1 {
		t.Fatalf("got %d responses, want 1 (overrun must not suppress the ack)", len(resps))
	}
	if len(sink.locations) != 1 {
		t.Fatalf("got %d location events, want 1", len(sink.locations))
	}
	if len(sink.errors) != 1 {
		t.Fatalf("got %d parse errors, want exactly 1", len(sink.errors))
	}
	if sink.errors[0].Kind != ErrTLV {
		t.Errorf("error kind = %v, want ErrTLV", sink.errors[0].Kind)
	}
}

func TestSessionUnknownMessageIDIsUnhandledNotError(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	frame := buildFrame(t, 0x9999, testTerminal, 1, []byte{0x01, 0x02})
	resps := s.Feed(frame)

	if len(resps) != 0 {
		t.Fatalf("got %d responses for unhandled message, want 0", len(resps))
	}
	if len(sink.unhandled) != 1 {
		t.Fatalf("got %d unhandled events, want 1", len(sink.unhandled))
	}
	if len(sink.errors) != 0 {
		t.Errorf("got parse errors %v for unhandled message, want none", sink.errors)
	}
}

func TestSessionOutboundSequenceMonotonicAndNeverZero(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	var last uint16
	for i := 0; i < 5; i++ {
		frame := buildFrame(t, 0x0002, testTerminal, uint16(i), nil)
		resps := s.Feed(frame)
		if len(resps) != 1 {
			t.Fatalf("iteration %d: got %d responses, want 1", i, len(resps))
		}
		// The response's own sequence lives at header bytes [10:12] of the
		// unescaped interior; decode it the same way buildFrame encodes.
		interior, err := bytesx.Unescape(resps[0][1 : len(resps[0])-1])
		if err != nil {
			t.Fatalf("iteration %d: Unescape error: %v", i, err)
		}
		seq := binary.BigEndian.Uint16(interior[10:12])
		if seq == 0 {
			t.Errorf("iteration %d: outbound sequence is 0, want never-zero", i)
		}
		if i > 0 && seq <= last {
			t.Errorf("iteration %d: outbound sequence %d did not increase past %d", i, seq, last)
		}
		last = seq
	}
}

func TestSessionASCIIVariantLocationNoAck(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	line := []byte("*HQ,1,V1,000000,A,2230.0000,N,11345.0000,E,0,000,010124,#")
	resps := s.Feed(line)

	if len(resps) != 0 {
		t.Fatalf("got %d responses on ASCII path, want 0 (no ack required)", len(resps))
	}
	if len(sink.locations) != 1 {
		t.Fatalf("got %d location events, want 1", len(sink.locations))
	}
	if sink.locations[0].ASCII == nil {
		t.Error("LocationEvent.ASCII = nil, want populated")
	}
}

func TestSessionVariantIsStickyPerConnection(t *testing.T) {
	sink := &recordingSink{}
	s := New("1.2.3.4:5000", sink, "OK")

	// First byte in is a binary delimiter: the session commits to binary
	// framing and must not reinterpret a later literal '*' byte as a
	// switch to ASCII.
	s.Feed([]byte{bytesx.Delimiter})
	if s.variant != variantBinary {
		t.Fatalf("variant = %v, want variantBinary after seeing a delimiter first", s.variant)
	}

	body := bytes.Repeat([]byte{'*'}, 4)
	frame := buildFrame(t, 0x0002, testTerminal, 1, body)
	// The leading delimiter was already consumed above; feed the rest.
	resps := s.Feed(frame[1:])
	if len(resps) != 1 {
		t.Fatalf("got %d responses, want 1 (variant must stay binary)", len(resps))
	}
}
