package bytesx

import "fmt"

// HexDump renders b as lowercase, space-separated hex pairs, the format
// used for trace logging of raw and response frames.
func HexDump(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(b)*3-1)
	for i, v := range b {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, []byte(fmt.Sprintf("%02x", v))...)
	}
	return string(buf)
}
