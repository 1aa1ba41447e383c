package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"text/tabwriter"
	"time"

	"jtt808-svr/internal/session"
)

// PrintMode selects the stdout rendering of decoded events (spec 6).
type PrintMode string

const (
	PrintLine  PrintMode = "line"
	PrintJSON  PrintMode = "json"
	PrintTable PrintMode = "table"
)

// Printer is the default sink: it renders every event to w in the
// configured mode. Grounded on the teacher's habit of printing parsed
// results straight to the terminal for visibility, minus the ANSI colour
// codes (multiple sinks may share stdout with file redirection).
type Printer struct {
	w    io.Writer
	mode PrintMode
	tw   *tabwriter.Writer
	twMu sync.Mutex // guards tw: many connection goroutines share one Printer
	log  *slog.Logger
}

// NewPrinter constructs a Printer. For PrintTable, w is wrapped in a
// text/tabwriter. Each location row is flushed as soon as it is written, so
// cells are padded within that row only; columns of different rows are not
// aligned with each other.
func NewPrinter(w io.Writer, mode PrintMode, log *slog.Logger) *Printer {
	p := &Printer{w: w, mode: mode, log: log}
	if mode == PrintTable {
		p.tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	}
	return p
}

func (p *Printer) Location(e session.LocationEvent) {
	switch p.mode {
	case PrintJSON:
		p.writeJSON(locationJSON(e))
	case PrintTable:
		p.writeTableLocation(e)
	default:
		p.writeLineLocation(e)
	}
}

func (p *Printer) ParseError(e session.ParseErrorEvent) {
	switch p.mode {
	case PrintJSON:
		p.writeJSON(map[string]any{
			"type":        "parse_error",
			"remote_addr": e.RemoteAddr,
			"kind":        string(e.Kind),
			"terminal_id": e.TerminalID,
			"raw_hex":     e.RawHex,
			"error":       e.Err.Error(),
		})
	default:
		fmt.Fprintf(p.out(), "[parse_error] kind=%s terminal=%s remote=%s err=%v\n",
			e.Kind, e.TerminalID, e.RemoteAddr, e.Err)
	}
}

func (p *Printer) Unhandled(e session.UnhandledMessageEvent) {
	switch p.mode {
	case PrintJSON:
		p.writeJSON(map[string]any{
			"type":        "unhandled",
			"remote_addr": e.RemoteAddr,
			"terminal_id": e.TerminalID,
			"msg_id":      fmt.Sprintf("0x%04x", e.MessageID),
			"body_hex":    e.BodyHex,
		})
	default:
		fmt.Fprintf(p.out(), "[unhandled] msg_id=0x%04x terminal=%s body=%s\n",
			e.MessageID, e.TerminalID, e.BodyHex)
	}
}

func (p *Printer) out() io.Writer {
	if p.tw != nil {
		return p.tw
	}
	return p.w
}

func (p *Printer) writeJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		p.log.Error("sink: marshal event failed", "err", err)
		return
	}
	fmt.Fprintln(p.w, string(b))
}

func (p *Printer) writeLineLocation(e session.LocationEvent) {
	if e.Binary != nil {
		l := e.Binary
		fmt.Fprintf(p.out(), "[location] terminal=%s time=%s lat=%.6f lon=%.6f alt=%dm speed=%.1fkm/h heading=%d\n",
			l.TerminalID, l.Time.Format(time.RFC3339), l.LatitudeMagnitude, l.LongitudeMagnitude,
			l.AltitudeMeters, l.SpeedKmh, l.HeadingDegrees)
		return
	}
	r := e.ASCII
	fmt.Fprintf(p.out(), "[location] terminal=%s time=%s lat=%.6f lon=%.6f speed=%.1fkm/h heading=%s valid=%v\n",
		r.TerminalID, r.Time.Format(time.RFC3339), r.Latitude, r.Longitude, r.SpeedKmh, r.Heading, r.Valid)
}

func (p *Printer) writeTableLocation(e session.LocationEvent) {
	p.twMu.Lock()
	defer p.twMu.Unlock()

	if e.Binary != nil {
		l := e.Binary
		fmt.Fprintf(p.tw, "location\t%s\t%s\t%.6f\t%.6f\t%.1f\t%d\n",
			l.TerminalID, l.Time.Format(time.RFC3339), l.LatitudeMagnitude, l.LongitudeMagnitude, l.SpeedKmh, l.HeadingDegrees)
		p.tw.Flush()
		return
	}
	r := e.ASCII
	fmt.Fprintf(p.tw, "location\t%s\t%s\t%.6f\t%.6f\t%.1f\t%s\n",
		r.TerminalID, r.Time.Format(time.RFC3339), r.Latitude, r.Longitude, r.SpeedKmh, r.Heading)
	p.tw.Flush()
}

func locationJSON(e session.LocationEvent) map[string]any {
	if e.Binary != nil {
		l := e.Binary
		m := map[string]any{
			"type":        "location",
			"terminal_id": l.TerminalID,
			"time":        l.Time.Format(time.RFC3339),
			"lat":         l.LatitudeMagnitude,
			"lon":         l.LongitudeMagnitude,
			"altitude_m":  l.AltitudeMeters,
			"speed_kmh":   l.SpeedKmh,
			"heading":     l.HeadingDegrees,
			"alarm":       l.Alarm,
			"status":      l.Status,
		}
		if len(l.Extras) > 0 {
			extras := make(map[string]any, len(l.Extras))
			for tag, v := range l.Extras {
				key := fmt.Sprintf("0x%02x", tag)
				extras[key] = v.Value()
			}
			m["extras"] = extras
		}
		return m
	}

	r := e.ASCII
	return map[string]any{
		"type":        "location",
		"terminal_id": r.TerminalID,
		"time":        r.Time.Format(time.RFC3339),
		"lat":         r.Latitude,
		"lon":         r.Longitude,
		"speed_kmh":   r.SpeedKmh,
		"heading":     r.Heading,
		"valid":       r.Valid,
		"command":     r.Command,
	}
}
