// Package server is the TCP listener plumbing spec 1 names as explicitly
// out of the protocol core's scope: accepting sockets, per-connection
// goroutines, keepalive/idle-timeout housekeeping. The actual framing and
// decoding lives in internal/session.
package server

import (
	"io"
	"log/slog"
	"net"
	"time"

	"jtt808-svr/internal/bytesx"
	"jtt808-svr/internal/observability"
	"jtt808-svr/internal/session"
	"jtt808-svr/internal/utilities"
)

// SessionFactory builds a fresh Session for one accepted connection.
type SessionFactory func(remoteAddr string) *session.Session

type TCPServer struct {
	idleTimeout time.Duration
	log         *slog.Logger
	newSession  SessionFactory
	hexTrace    *utilities.HexTracer
}

func New(idleTimeout time.Duration, log *slog.Logger, hexTrace *utilities.HexTracer, newSession SessionFactory) *TCPServer {
	return &TCPServer{idleTimeout: idleTimeout, log: log, newSession: newSession, hexTrace: hexTrace}
}

// Start binds addr and accepts connections. It returns only when the bind
// fails (spec 6: non-zero exit on bind failure); an Accept error is logged
// and the loop goes on.
func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	s.log.Info("listening", "addr", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.log.Error("accept error", "err", err)
			continue
		}
		observability.TCPConnections.Inc()
		go s.handle(conn)
	}
}

func (s *TCPServer) handle(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	sess := s.newSession(remote)
	log := s.log.With("remote", remote)

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(false)
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(60 * time.Second)
	}

	buffer := make([]byte, 2048)
	for {
		if s.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}

		n, err := conn.Read(buffer)
		if err != nil {
			if opErr, ok := err.(*net.OpError); ok && opErr.Timeout() {
				log.Info("idle timeout, closing connection")
				return
			}
			if err == io.EOF {
				return
			}
			log.Error("read error", "err", err)
			return
		}
		if n == 0 {
			continue
		}

		s.hexTrace.Raw(remote, bytesx.HexDump(buffer[:n]))

		responses := sess.Feed(buffer[:n])
		for _, resp := range responses {
			if _, err := conn.Write(resp); err != nil {
				log.Error("write error", "err", err)
				return
			}
			s.hexTrace.Outbound(remote, bytesx.HexDump(resp))
			observability.AcksSent.Inc()
		}
	}
}
