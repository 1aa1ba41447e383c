package jt808

import (
	"encoding/binary"
	"fmt"

	"jtt808-svr/internal/bytesx"
)

const (
	fixedHeaderLen       = 12 // msg id(2) + props(2) + terminal bcd(6) + seq(2)
	subpackageHeaderLen  = 16 // fixedHeaderLen + total(2) + index(2)
	bodyLengthMask       = 0x03FF
	subpackageFlagBit    = 1 << 13
)

// Subpackage carries the total-fragment-count / this-fragment-index pair
// present only when the header's subpackage flag is set. The core surfaces
// it but never reassembles fragments (spec 4.3).
type Subpackage struct {
	Total int
	Index int
}

// Header is the decoded fixed portion of a binary frame, per spec 3/4.3.
type Header struct {
	MessageID    uint16
	BodyLength   int
	TerminalBCD  [6]byte
	TerminalID   string
	Sequence     uint16
	Subpackage   *Subpackage
}

// DecodeHeader decodes the header from an unescaped, checksum-verified
// payload with the trailing checksum byte already removed. It returns the
// header and the remaining body slice.
func DecodeHeader(payload []byte) (Header, []byte, error) {
	if len(payload) < fixedHeaderLen {
		return Header{}, nil, fmt.Errorf("jt808: header too short: %d bytes", len(payload))
	}

	msgID := binary.BigEndian.Uint16(payload[0:2])
	props := binary.BigEndian.Uint16(payload[2:4])
	bodyLen := int(props & bodyLengthMask)
	hasSub := props&subpackageFlagBit != 0

	var termBCD [6]byte
	copy(termBCD[:], payload[4:10])
	seq := binary.BigEndian.Uint16(payload[10:12])

	h := Header{
		MessageID:   msgID,
		BodyLength:  bodyLen,
		TerminalBCD: termBCD,
		TerminalID:  bytesx.StripLeadingZeros(bytesx.BCDToString(termBCD[:])),
		Sequence:    seq,
	}

	offset := fixedHeaderLen
	if hasSub {
		if len(payload) < subpackageHeaderLen {
			return Header{}, nil, fmt.Errorf("jt808: subpackage header too short: %d bytes", len(payload))
		}
		total := binary.BigEndian.Uint16(payload[12:14])
		index := binary.BigEndian.Uint16(payload[14:16])
		h.Subpackage = &Subpackage{Total: int(total), Index: int(index)}
		offset = subpackageHeaderLen
	}

	body := payload[offset:]
	if len(body) != bodyLen {
		return Header{}, nil, fmt.Errorf("jt808: declared body length %d does not match actual %d", bodyLen, len(body))
	}

	return h, body, nil
}

// EncodeProperties packs a body length (low 10 bits) into a properties
// word with no encryption and no subpackage flag set, per spec 4.6.
func EncodeProperties(bodyLen int) uint16 {
	return uint16(bodyLen) & bodyLengthMask
}
