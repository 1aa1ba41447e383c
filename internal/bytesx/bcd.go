package bytesx

import (
	"strings"
	"time"
)

// BCDToString renders packed BCD bytes as a decimal string. Each byte
// contributes a high-nibble digit then a low-nibble digit; a nibble value
// above 9 is skipped (this matches firmware padding conventions where
// unused terminal-id digits are packed as 0xF or similar). Leading zeros
// are stripped by the caller where display semantics require it.
func BCDToString(b []byte) string {
	var sb strings.Builder
	for _, v := range b {
		hi := v >> 4
		lo := v & 0x0F
		if hi <= 9 {
			sb.WriteByte('0' + hi)
		}
		if lo <= 9 {
			sb.WriteByte('0' + lo)
		}
	}
	return sb.String()
}

// StripLeadingZeros trims leading '0' digits, collapsing an all-zero
// string to "0" rather than the empty string.
func StripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// TerminalIDToBCD packs a decimal terminal-id string into the fixed 6-byte
// BCD form used in the wire header. The string is left-padded with '0' to
// 12 digits (the rightmost 12 are kept if it is longer); any non-digit rune
// at a position packs as 0.
func TerminalIDToBCD(id string) [6]byte {
	const width = 12
	if len(id) < width {
		id = strings.Repeat("0", width-len(id)) + id
	} else if len(id) > width {
		id = id[len(id)-width:]
	}

	var out [6]byte
	for i := 0; i < 6; i++ {
		hi := digitAt(id, 2*i)
		lo := digitAt(id, 2*i+1)
		out[i] = hi<<4 | lo
	}
	return out
}

func digitAt(s string, i int) byte {
	c := s[i]
	if c < '0' || c > '9' {
		return 0
	}
	return c - '0'
}

// BCDDateTime decodes the six-byte packed-BCD timestamp (YY MM DD hh mm ss)
// as a UTC instant. Years below 80 map to 2000+YY, 80 and above to 1900+YY.
func BCDDateTime(b [6]byte) time.Time {
	yy := bcdByte(b[0])
	year := 1900 + yy
	if yy < 80 {
		year = 2000 + yy
	}
	month := bcdByte(b[1])
	day := bcdByte(b[2])
	hour := bcdByte(b[3])
	min := bcdByte(b[4])
	sec := bcdByte(b[5])
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

func bcdByte(v byte) int {
	return int(v>>4)*10 + int(v&0x0F)
}
