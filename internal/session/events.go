// Package session owns the per-connection protocol engine: it wraps the
// reframer, header/body decoders and response builder behind the small
// set of request->response rules that keep a device session alive (spec
// 4.7), and emits decoded events to a sink. It never shares state across
// connections.
package session

import (
	"time"

	"jtt808-svr/internal/ascii808"
	"jtt808-svr/internal/jt808"
)

// ErrorKind is the error taxonomy from spec 7 — kinds, not identifiers.
type ErrorKind string

const (
	ErrFraming  ErrorKind = "framing_error"
	ErrChecksum ErrorKind = "checksum_error"
	ErrLength   ErrorKind = "length_error"
	ErrTLV      ErrorKind = "tlv_error"
)

// LocationEvent is emitted for a decoded 0x0200 report (binary path) or a
// decoded legacy-ASCII line. Exactly one of Binary/ASCII is populated.
type LocationEvent struct {
	RemoteAddr string
	Binary     *jt808.Location
	ASCII      *ascii808.Record
}

// ParseErrorEvent is emitted instead of an ack whenever a frame fails
// validation (spec 7). The one exception is a TLV overrun on a location
// report: the error is emitted alongside the location event and its ack.
// TerminalID is populated only when it was
// recoverable (i.e. the header decoded before the failure occurred).
type ParseErrorEvent struct {
	RemoteAddr string
	Kind       ErrorKind
	TerminalID string
	RawHex     string
	Err        error
	At         time.Time
}

// UnhandledMessageEvent is emitted for a structurally valid frame whose
// message id carries no dispatch rule (spec 4.7) — informational, not a
// failure.
type UnhandledMessageEvent struct {
	RemoteAddr string
	TerminalID string
	MessageID  uint16
	BodyHex    string
}

// Sink is the narrow boundary interface external collaborators implement
// (spec 2.8, 6). It must be safe to call concurrently from many
// connection tasks; the core makes no cross-connection ordering promise.
type Sink interface {
	Location(LocationEvent)
	ParseError(ParseErrorEvent)
	Unhandled(UnhandledMessageEvent)
}
