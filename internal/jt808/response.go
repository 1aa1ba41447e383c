package jt808

import (
	"encoding/binary"

	"jtt808-svr/internal/bytesx"
)

// BuildPlatformGeneralResponse seals a 0x8001 frame: body = original
// sequence(2) || original message id(2) || result(1). The outbound header
// addresses the originating terminal and carries outSeq as its own
// sequence (spec 4.6).
func BuildPlatformGeneralResponse(terminal [6]byte, outSeq uint16, origSeq uint16, origMsgID uint16, result ResultCode) []byte {
	body := make([]byte, 5)
	binary.BigEndian.PutUint16(body[0:2], origSeq)
	binary.BigEndian.PutUint16(body[2:4], origMsgID)
	body[4] = byte(result)

	return seal(MsgPlatformGeneralResponse, terminal, outSeq, body)
}

// BuildTerminalRegisterReply seals an 0x8100 frame: body = original
// sequence(2) || result(1) || optional token bytes. The token is omitted
// when result is non-zero (the protocol only carries it on success, but
// this core always sends ResultSuccess per spec 4.6).
func BuildTerminalRegisterReply(terminal [6]byte, outSeq uint16, origSeq uint16, result ResultCode, token string) []byte {
	body := make([]byte, 3, 3+len(token))
	binary.BigEndian.PutUint16(body[0:2], origSeq)
	body[2] = byte(result)
	if result == ResultSuccess {
		body = append(body, token...)
	}

	return seal(MsgTerminalRegisterReply, terminal, outSeq, body)
}

// seal assembles header+body, appends the XOR checksum, escapes transparent
// bytes, and brackets the result with 0x7E delimiters.
func seal(msgID uint16, terminal [6]byte, seq uint16, body []byte) []byte {
	header := make([]byte, fixedHeaderLen)
	binary.BigEndian.PutUint16(header[0:2], msgID)
	binary.BigEndian.PutUint16(header[2:4], EncodeProperties(len(body)))
	copy(header[4:10], terminal[:])
	binary.BigEndian.PutUint16(header[10:12], seq)

	interior := make([]byte, 0, len(header)+len(body)+1)
	interior = append(interior, header...)
	interior = append(interior, body...)
	interior = append(interior, bytesx.Checksum(interior))

	escaped := bytesx.Escape(interior)

	out := make([]byte, 0, len(escaped)+2)
	out = append(out, bytesx.Delimiter)
	out = append(out, escaped...)
	out = append(out, bytesx.Delimiter)
	return out
}
