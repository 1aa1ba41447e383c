// Package sink adapts session.Sink to concrete destinations: stdout in
// one of three print modes, and (in sibling packages internal/store,
// internal/grpcclient, internal/relay) external collaborators. The core
// protocol engine never imports this package directly — main wires it in.
package sink

import "jtt808-svr/internal/session"

// Multi fans a decoded event out to every sink in the list. A failing
// sink is logged by its own implementation and never stops the others
// (spec 7, SinkError).
type Multi []session.Sink

func (m Multi) Location(e session.LocationEvent) {
	for _, s := range m {
		s.Location(e)
	}
}

func (m Multi) ParseError(e session.ParseErrorEvent) {
	for _, s := range m {
		s.ParseError(e)
	}
}

func (m Multi) Unhandled(e session.UnhandledMessageEvent) {
	for _, s := range m {
		s.Unhandled(e)
	}
}
