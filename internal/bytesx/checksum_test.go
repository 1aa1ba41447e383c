package bytesx

import "testing"

func TestChecksum(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want byte
	}{
		{"empty", nil, 0x00},
		{"single byte", []byte{0x7F}, 0x7F},
		{"two bytes xor", []byte{0x01, 0x02}, 0x03},
		{"known header", []byte{0x02, 0x00, 0x00, 0x05, 0x01, 0x23, 0x45, 0x67, 0x89, 0x01, 0x00, 0x01}, 0x8e},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Checksum(c.in); got != c.want {
				t.Errorf("Checksum(%x) = %#02x, want %#02x", c.in, got, c.want)
			}
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	body := []byte{0x01, 0x02, 0x03}
	ok := append(append([]byte(nil), body...), Checksum(body))
	if !VerifyChecksum(ok) {
		t.Errorf("VerifyChecksum(%x) = false, want true", ok)
	}

	bad := append(append([]byte(nil), body...), Checksum(body)^0xFF)
	if VerifyChecksum(bad) {
		t.Errorf("VerifyChecksum(%x) = true, want false (flipped checksum byte)", bad)
	}

	if VerifyChecksum(nil) {
		t.Error("VerifyChecksum(nil) = true, want false")
	}
}
