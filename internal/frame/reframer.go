// Package frame implements the per-connection byte reframer for both wire
// variants: 0x7E-delimited binary frames and '*'...'#' ASCII frames. It
// owns nothing beyond its own accumulator — callers own the connection.
package frame

import (
	"bytes"

	"jtt808-svr/internal/bytesx"
)

// Binary accumulator bound (spec 4.2): past this many unconsumed bytes
// without a complete frame, truncate to the trailing window to bound
// memory against a misbehaving peer.
const (
	BinaryMaxAccumulator = 65536
	BinaryTruncateTo     = 4096
)

// Reframer extracts whole binary frames from an arbitrarily chunked byte
// stream. It is not safe for concurrent use — exactly one connection task
// owns it, per spec's per-connection state model.
type Reframer struct {
	buf []byte
}

// Push appends a newly read chunk and returns every complete frame it can
// now assemble (header+body+checksum, delimiters stripped), in wire order.
// Empty frames (two adjacent delimiters) are dropped silently. The second
// return value reports whether the accumulator overflowed its bound and
// had to be truncated (spec 4.2).
func (r *Reframer) Push(chunk []byte) ([][]byte, bool) {
	r.buf = append(r.buf, chunk...)

	var frames [][]byte
	for {
		f, ok := r.next()
		if !ok {
			break
		}
		if len(f) > 0 {
			frames = append(frames, f)
		}
	}

	truncated := false
	if len(r.buf) > BinaryMaxAccumulator {
		tailFrom := len(r.buf) - BinaryTruncateTo
		r.buf = append([]byte(nil), r.buf[tailFrom:]...)
		truncated = true
	}

	return frames, truncated
}

// next extracts the earliest complete frame from the accumulator, if any.
func (r *Reframer) next() ([]byte, bool) {
	s := bytes.IndexByte(r.buf, bytesx.Delimiter)
	if s < 0 {
		// No delimiter at all: nothing in the buffer can become a frame.
		r.buf = r.buf[:0]
		return nil, false
	}

	e := bytes.IndexByte(r.buf[s+1:], bytesx.Delimiter)
	if e < 0 {
		// Partial frame: keep everything from the opening delimiter on.
		r.buf = r.buf[s:]
		return nil, false
	}
	e += s + 1

	frame := r.buf[s+1 : e]
	r.buf = r.buf[e+1:]
	return frame, true
}
