// Package utilities holds the hex-trace toggle (spec 6's log_hex):
// adapted from the teacher's CreateLog per-day file habit, but routed
// through slog instead of a rotated logfile.
package utilities

import "log/slog"

// HexTracer logs raw/outbound frames at debug level when enabled.
type HexTracer struct {
	enabled bool
	log     *slog.Logger
}

func NewHexTracer(enabled bool, log *slog.Logger) *HexTracer {
	return &HexTracer{enabled: enabled, log: log.With("component", "hextrace")}
}

// Raw logs an inbound chunk as read off the socket.
func (t *HexTracer) Raw(remote, hexDump string) {
	if !t.enabled {
		return
	}
	t.log.Debug("raw frame", "remote", remote, "hex", hexDump)
}

// Outbound logs a response frame as written to the socket.
func (t *HexTracer) Outbound(remote, hexDump string) {
	if !t.enabled {
		return
	}
	t.log.Debug("outbound frame", "remote", remote, "hex", hexDump)
}
