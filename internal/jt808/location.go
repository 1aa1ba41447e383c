package jt808

import (
	"encoding/binary"
	"fmt"
	"time"

	"jtt808-svr/internal/bytesx"
)

const locationFixedLen = 28

// Location is the decoded 0x0200 report: mandatory fields plus whatever
// recognised TLV extras were present (spec 3, table of TLV ids).
type Location struct {
	TerminalID string
	Time       time.Time
	// LatitudeMagnitude/LongitudeMagnitude are the wire's unsigned
	// magnitudes (units of 10^-6 degree) converted to decimal degrees.
	// Sign is implied by status bits
	// whose layout varies by firmware (spec 9); this core does not guess
	// it and exposes both the magnitudes and the raw Status word so the
	// sink can apply whichever convention the fleet actually uses.
	LatitudeMagnitude  float64
	LongitudeMagnitude float64
	AltitudeMeters     int
	SpeedKmh           float64
	HeadingDegrees     int
	Alarm              uint32
	Status             uint32
	Extras             map[byte]TLVValue
	// TLVOverrun is set when a TLV's declared length ran past the end of
	// the body (spec 4.4, TlvError); Extras still holds whatever TLVs
	// decoded before the overrun was hit.
	TLVOverrun bool
}

// TLVValue is a single decoded (or, for unrecognised tags, preserved) TLV
// extra attached to a location report.
type TLVValue struct {
	Tag   byte
	Known bool
	// Exactly one of the typed fields is populated when Known is true;
	// Hex always holds the raw value rendered for display/logging.
	Label   string
	Numeric float64
	Text    string
	Hex     string
}

// Value returns whichever typed field is populated, for display purposes.
func (v TLVValue) Value() any {
	if !v.Known {
		return v.Hex
	}
	if v.Text != "" {
		return v.Text
	}
	return v.Numeric
}

// ErrLocationTooShort is returned when a 0x0200 body is shorter than the
// mandatory 28-byte fixed prefix (spec 7, LengthError).
var ErrLocationTooShort = fmt.Errorf("jt808: location body shorter than %d bytes", locationFixedLen)

// DecodeLocation decodes the mandatory fixed prefix and any trailing TLVs
// of a 0x0200 body. A TLV whose declared length overruns the remaining
// body halts TLV parsing without failing the already-decoded fixed
// prefix (spec 4.4, TlvError).
func DecodeLocation(terminalID string, body []byte) (Location, error) {
	if len(body) < locationFixedLen {
		return Location{}, ErrLocationTooShort
	}

	alarm := binary.BigEndian.Uint32(body[0:4])
	status := binary.BigEndian.Uint32(body[4:8])
	lat := binary.BigEndian.Uint32(body[8:12])
	lon := binary.BigEndian.Uint32(body[12:16])
	alt := binary.BigEndian.Uint16(body[16:18])
	speed := binary.BigEndian.Uint16(body[18:20])
	heading := binary.BigEndian.Uint16(body[20:22])

	var ts [6]byte
	copy(ts[:], body[22:28])

	loc := Location{
		TerminalID:         terminalID,
		Time:               bytesx.BCDDateTime(ts),
		LatitudeMagnitude:  float64(lat) / 1e6,
		LongitudeMagnitude: float64(lon) / 1e6,
		AltitudeMeters:     int(alt),
		SpeedKmh:           float64(speed) / 10,
		HeadingDegrees:     int(heading),
		Alarm:              alarm,
		Status:             status,
	}

	loc.Extras, loc.TLVOverrun = decodeTLVs(body[locationFixedLen:])
	return loc, nil
}

func decodeTLVs(b []byte) (map[byte]TLVValue, bool) {
	if len(b) == 0 {
		return nil, false
	}
	out := make(map[byte]TLVValue)
	offset := 0
	for offset+2 <= len(b) {
		tag := b[offset]
		length := int(b[offset+1])
		valueStart := offset + 2
		if valueStart+length > len(b) {
			// TlvError: declared length overruns the body. Stop parsing
			// further TLVs; what's already decoded stands, but the
			// caller needs to know this happened.
			return out, true
		}
		value := b[valueStart : valueStart+length]
		out[tag] = decodeTLV(tag, value)
		offset = valueStart + length
	}
	return out, false
}

func decodeTLV(tag byte, value []byte) TLVValue {
	hex := bytesx.HexDump(value)
	switch {
	case tag == 0x01 && len(value) == 4:
		km := float64(binary.BigEndian.Uint32(value)) / 10
		return TLVValue{Tag: tag, Known: true, Label: "odometer_km", Numeric: km, Hex: hex}
	case tag == 0x30 && len(value) == 1:
		return TLVValue{Tag: tag, Known: true, Label: "gsm_signal", Numeric: float64(value[0]), Hex: hex}
	case tag == 0x31 && len(value) == 1:
		return TLVValue{Tag: tag, Known: true, Label: "gnss_signal", Numeric: float64(value[0]), Hex: hex}
	case tag == 0x32 && len(value) == 1:
		return TLVValue{Tag: tag, Known: true, Label: "hdop", Numeric: float64(value[0]), Hex: hex}
	case tag == 0x33 && len(value) == 1:
		return TLVValue{Tag: tag, Known: true, Label: "satellites", Numeric: float64(value[0]), Hex: hex}
	case tag == 0x34 && len(value) == 1:
		state := "OFF"
		if value[0]&0x01 != 0 {
			state = "ON"
		}
		return TLVValue{Tag: tag, Known: true, Label: "ignition", Text: state, Hex: hex}
	case tag == 0x57 && len(value) == 8:
		return TLVValue{Tag: tag, Known: true, Label: "io_word", Text: hex, Hex: hex}
	case tag == 0x82 && len(value) == 2:
		volts := float64(binary.BigEndian.Uint16(value)) / 10
		return TLVValue{Tag: tag, Known: true, Label: "supply_voltage", Numeric: volts, Hex: hex}
	default:
		return TLVValue{Tag: tag, Known: false, Hex: hex}
	}
}
