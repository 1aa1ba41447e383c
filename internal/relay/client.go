// Package relay is adapted from the teacher's internal/link package: an
// NDJSON-over-TCP forwarding sink with automatic reconnect. It carries
// the same device_connect/device_update/tracking payload shapes the
// teacher used, renamed to this protocol's decoded-event vocabulary.
package relay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"jtt808-svr/internal/session"
)

// Client forwards decoded events as newline-delimited JSON to a
// downstream relay process. If addr is empty the relay is disabled and
// every send is a no-op.
type Client struct {
	addr string
	log  *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewClient starts the reconnect loop in the background and returns
// immediately. Passing an empty addr disables the relay.
func NewClient(addr string, log *slog.Logger) *Client {
	c := &Client{addr: addr, log: log.With("component", "relay")}
	if addr == "" {
		c.log.Info("relay: disabled (no address configured)")
		return c
	}
	go c.connectLoop()
	return c
}

func (c *Client) connectLoop() {
	for {
		conn, err := net.Dial("tcp", c.addr)
		if err != nil {
			c.log.Error("relay: dial failed", "addr", c.addr, "err", err)
			time.Sleep(5 * time.Second)
			continue
		}

		c.setConn(conn)
		c.log.Info("relay: connected", "remote", conn.RemoteAddr().String())

		c.readLoop(conn)

		c.clearConn(conn)
		c.log.Warn("relay: connection closed, reconnecting")
		time.Sleep(2 * time.Second)
	}
}

func (c *Client) setConn(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

func (c *Client) clearConn(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) getConn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) readLoop(conn net.Conn) {
	r := bufio.NewScanner(conn)
	for r.Scan() {
		c.log.Info("relay: incoming line", "line", r.Text())
	}
	if err := r.Err(); err != nil && err != io.EOF {
		c.log.Warn("relay: read error", "err", err)
	}
}

func (c *Client) send(v any) error {
	conn := c.getConn()
	if conn == nil {
		return fmt.Errorf("relay: not connected")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = conn.Write(append(b, '\n'))
	return err
}

// Location implements session.Sink.
func (c *Client) Location(e session.LocationEvent) {
	if c.addr == "" {
		return
	}
	if err := c.send(map[string]any{"location": true, "event": e}); err != nil {
		c.log.Warn("relay: send location failed", "err", err)
	}
}

// ParseError implements session.Sink.
func (c *Client) ParseError(e session.ParseErrorEvent) {
	if c.addr == "" {
		return
	}
	if err := c.send(map[string]any{"parse_error": true, "kind": string(e.Kind), "terminal_id": e.TerminalID}); err != nil {
		c.log.Warn("relay: send parse_error failed", "err", err)
	}
}

// Unhandled implements session.Sink.
func (c *Client) Unhandled(e session.UnhandledMessageEvent) {
	if c.addr == "" {
		return
	}
	if err := c.send(map[string]any{"unhandled": true, "terminal_id": e.TerminalID, "msg_id": e.MessageID}); err != nil {
		c.log.Warn("relay: send unhandled failed", "err", err)
	}
}
