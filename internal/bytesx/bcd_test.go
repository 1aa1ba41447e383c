package bytesx

import "testing"

func TestBCDToString(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{[]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}, "012345678901"},
		{[]byte{0x00, 0x00, 0x12, 0x34, 0x56, 0x78}, "000012345678"},
	}
	for _, c := range cases {
		if got := BCDToString(c.in); got != c.want {
			t.Errorf("BCDToString(%x) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStripLeadingZeros(t *testing.T) {
	cases := map[string]string{
		"000012345678": "12345678",
		"000000000000": "0",
		"12345":        "12345",
		"0":            "0",
	}
	for in, want := range cases {
		if got := StripLeadingZeros(in); got != want {
			t.Errorf("StripLeadingZeros(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTerminalIDToBCDRoundTrip(t *testing.T) {
	id := "012345678901"
	bcd := TerminalIDToBCD(id)
	if got := BCDToString(bcd[:]); got != id {
		t.Errorf("round trip: TerminalIDToBCD(%q) -> BCDToString = %q, want %q", id, got, id)
	}
}

func TestTerminalIDToBCDPadsShortIDs(t *testing.T) {
	bcd := TerminalIDToBCD("123")
	want := "000000000123"
	if got := BCDToString(bcd[:]); got != want {
		t.Errorf("TerminalIDToBCD(%q) -> BCDToString = %q, want %q", "123", got, want)
	}
}

func TestBCDDateTimeCenturyRule(t *testing.T) {
	cases := []struct {
		b    [6]byte
		want string
	}{
		{[6]byte{0x23, 0x06, 0x15, 0x10, 0x30, 0x00}, "2023-06-15T10:30:00Z"},
		{[6]byte{0x85, 0x01, 0x01, 0x00, 0x00, 0x00}, "1985-01-01T00:00:00Z"},
	}
	for _, c := range cases {
		got := BCDDateTime(c.b).UTC().Format("2006-01-02T15:04:05Z")
		if got != c.want {
			t.Errorf("BCDDateTime(%x) = %s, want %s", c.b, got, c.want)
		}
	}
}
