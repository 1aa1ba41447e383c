// Package grpcclient forwards decoded events to an external ingestion
// service over gRPC — the "webhooks, or external APIs" collaborator spec
// 1 names as explicitly out of the core's scope. It forwards the JSON
// envelope of each event as an opaque byte payload via a plain
// ClientConn.Invoke call against the protobuf well-known wrapper/empty
// types, rather than hand-rolled generated stubs for a bespoke service —
// see DESIGN.md for why.
package grpcclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"jtt808-svr/internal/session"
)

// forwardMethod is the fully-qualified RPC the downstream ingestion
// service is expected to expose: Forward(BytesValue) returns (Empty).
const forwardMethod = "/forwarder.Forwarder/Forward"

// ForwarderSink implements session.Sink by forwarding every event as a
// JSON payload to a downstream gRPC collaborator.
type ForwarderSink struct {
	conn *grpc.ClientConn
	log  *slog.Logger
}

// NewForwarderSink dials addr with an insecure transport, matching the
// teacher's grpcclient.NewGRPCClient.
func NewForwarderSink(addr string, log *slog.Logger) (*ForwarderSink, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &ForwarderSink{conn: conn, log: log.With("component", "grpcclient")}, nil
}

func (f *ForwarderSink) Close() error {
	return f.conn.Close()
}

func (f *ForwarderSink) Location(e session.LocationEvent) {
	f.forward(map[string]any{"type": "location", "event": e})
}

func (f *ForwarderSink) ParseError(e session.ParseErrorEvent) {
	f.forward(map[string]any{"type": "parse_error", "kind": string(e.Kind), "terminal_id": e.TerminalID, "raw_hex": e.RawHex})
}

func (f *ForwarderSink) Unhandled(e session.UnhandledMessageEvent) {
	f.forward(map[string]any{"type": "unhandled", "terminal_id": e.TerminalID, "msg_id": e.MessageID, "body_hex": e.BodyHex})
}

func (f *ForwarderSink) forward(payload map[string]any) {
	b, err := json.Marshal(payload)
	if err != nil {
		f.log.Error("marshal event for forwarder failed", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := &wrapperspb.BytesValue{Value: b}
	resp := &emptypb.Empty{}
	if err := f.conn.Invoke(ctx, forwardMethod, req, resp); err != nil {
		f.log.Warn("forward event failed", "err", err)
	}
}
