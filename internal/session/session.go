package session

import (
	"fmt"
	"time"

	"jtt808-svr/internal/ascii808"
	"jtt808-svr/internal/bytesx"
	"jtt808-svr/internal/frame"
	"jtt808-svr/internal/jt808"
	"jtt808-svr/internal/observability"
)

// variant is decided once per connection from whichever delimiter byte
// shows up first on the wire — a device speaks one framing style for the
// life of its connection.
type variant int

const (
	variantUndetermined variant = iota
	variantBinary
	variantASCII
)

// Session is the per-connection protocol engine (spec 5): one logical
// task per accepted socket, owning its own reframer, outbound sequence
// counter and remote-endpoint label. Never shared across connections, not
// safe for concurrent use from more than one goroutine.
type Session struct {
	RemoteAddr    string
	RegisterToken string
	SpeedUnit     ascii808.SpeedUnit

	sink Sink

	variant  variant
	pending  []byte
	binary   frame.Reframer
	ascii    frame.ASCIIReframer

	terminalBCD [6]byte
	haveTerm    bool

	outSeq uint16 // last outbound sequence issued; nextSeq wraps it mod 2^16 and skips 0
}

// New constructs a Session bound to a single accepted connection.
func New(remoteAddr string, sink Sink, registerToken string) *Session {
	return &Session{
		RemoteAddr:    remoteAddr,
		RegisterToken: registerToken,
		sink:          sink,
	}
}

// Feed ingests a chunk read from the socket and returns zero or more
// response frames to write back, in the order the corresponding requests
// were parsed (spec 5). Decoded events and parse errors are pushed to the
// sink as they occur.
func (s *Session) Feed(chunk []byte) [][]byte {
	switch s.variant {
	case variantBinary:
		return s.feedBinary(chunk)
	case variantASCII:
		return s.feedASCII(chunk)
	default:
		return s.determineVariant(chunk)
	}
}

func (s *Session) determineVariant(chunk []byte) [][]byte {
	s.pending = append(s.pending, chunk...)

	binIdx := indexByte(s.pending, bytesx.Delimiter)
	asciiIdx := indexByte(s.pending, '*')

	switch {
	case binIdx < 0 && asciiIdx < 0:
		// Neither marker seen yet; keep buffering (bounded by the
		// binary accumulator cap so a silent non-conforming peer can't
		// grow this without limit).
		if len(s.pending) > frame.BinaryMaxAccumulator {
			s.pending = s.pending[len(s.pending)-frame.BinaryTruncateTo:]
		}
		return nil
	case asciiIdx >= 0 && (binIdx < 0 || asciiIdx < binIdx):
		s.variant = variantASCII
	default:
		s.variant = variantBinary
	}

	leftover := s.pending
	s.pending = nil
	return s.Feed(leftover)
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (s *Session) feedBinary(chunk []byte) [][]byte {
	frames, truncated := s.binary.Push(chunk)
	if truncated {
		observability.ReframerTruncations.WithLabelValues("binary").Inc()
	}
	var out [][]byte
	for _, raw := range frames {
		observability.FramesReceived.WithLabelValues("binary").Inc()
		start := time.Now()
		resp := s.handleBinaryFrame(raw)
		observability.ObserveParseLatency(start)
		if resp != nil {
			out = append(out, resp)
		}
	}
	return out
}

func (s *Session) handleBinaryFrame(raw []byte) []byte {
	payload, err := bytesx.Unescape(raw)
	if err != nil {
		s.emitParseError(ErrFraming, "", raw, err)
		return nil
	}

	if !bytesx.VerifyChecksum(payload) {
		s.emitParseError(ErrChecksum, "", raw, fmt.Errorf("checksum mismatch"))
		return nil
	}
	headerAndBody := payload[:len(payload)-1]

	hdr, body, err := jt808.DecodeHeader(headerAndBody)
	if err != nil {
		s.emitParseError(ErrLength, "", raw, err)
		return nil
	}
	s.terminalBCD = hdr.TerminalBCD
	s.haveTerm = true

	switch hdr.MessageID {
	case jt808.MsgTerminalRegister, jt808.MsgTerminalAuth:
		return jt808.BuildTerminalRegisterReply(hdr.TerminalBCD, s.nextSeq(), hdr.Sequence, jt808.ResultSuccess, s.RegisterToken)

	case jt808.MsgHeartbeat:
		return jt808.BuildPlatformGeneralResponse(hdr.TerminalBCD, s.nextSeq(), hdr.Sequence, hdr.MessageID, jt808.ResultSuccess)

	case jt808.MsgLocationReport:
		loc, err := jt808.DecodeLocation(hdr.TerminalID, body)
		if err != nil {
			s.emitParseError(ErrLength, hdr.TerminalID, raw, err)
			return nil
		}
		if loc.TLVOverrun {
			s.emitParseError(ErrTLV, hdr.TerminalID, raw, fmt.Errorf("tlv declared length overruns body"))
		}
		observability.LocationsDecoded.Inc()
		s.sink.Location(LocationEvent{RemoteAddr: s.RemoteAddr, Binary: &loc})
		return jt808.BuildPlatformGeneralResponse(hdr.TerminalBCD, s.nextSeq(), hdr.Sequence, hdr.MessageID, jt808.ResultSuccess)

	default:
		observability.UnhandledMessages.Inc()
		s.sink.Unhandled(UnhandledMessageEvent{
			RemoteAddr: s.RemoteAddr,
			TerminalID: hdr.TerminalID,
			MessageID:  hdr.MessageID,
			BodyHex:    bytesx.HexDump(body),
		})
		return nil
	}
}

func (s *Session) feedASCII(chunk []byte) [][]byte {
	frames, truncated := s.ascii.Push(chunk)
	if truncated {
		observability.ReframerTruncations.WithLabelValues("ascii").Inc()
	}
	for _, raw := range frames {
		observability.FramesReceived.WithLabelValues("ascii").Inc()
		rec, err := ascii808.Parse(raw, s.SpeedUnit)
		if err != nil {
			s.emitParseError(ErrFraming, "", raw, err)
			continue
		}
		observability.LocationsDecoded.Inc()
		s.sink.Location(LocationEvent{RemoteAddr: s.RemoteAddr, ASCII: &rec})
	}
	// No acknowledgement is required on the ASCII path (spec 6).
	return nil
}

func (s *Session) emitParseError(kind ErrorKind, terminalID string, raw []byte, err error) {
	observability.ParseErrors.WithLabelValues(string(kind)).Inc()
	s.sink.ParseError(ParseErrorEvent{
		RemoteAddr: s.RemoteAddr,
		Kind:       kind,
		TerminalID: terminalID,
		RawHex:     bytesx.HexDump(raw),
		Err:        err,
	})
}

// nextSeq returns the next outbound sequence number, wrapping modulo 2^16
// and skipping zero (spec 4.6, 8). It is strictly per-connection state —
// a field on Session, never a package-level variable (spec 9's redesign
// note on global state).
func (s *Session) nextSeq() uint16 {
	s.outSeq++
	if s.outSeq == 0 {
		s.outSeq = 1
	}
	return s.outSeq
}
