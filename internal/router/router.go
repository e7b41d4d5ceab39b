// Package router implements the per-node next-hop lookup described in
// spec §4.2: given a packet, either deliver it locally (the
// destination is this node) or stage it for one more hop toward the
// destination via the NoC's in-transit queue.
//
// Grounded on _examples/original_source/simplenoc/router.py.
package router

import (
	"fmt"

	"nocsim/internal/logger"
	"nocsim/internal/packet"
)

// Handler is the capability a Router needs from its owning node: the
// ability to process a packet addressed to it. Kept as a narrow
// interface (rather than importing internal/ncnode directly) to avoid
// the Node<->Router import cycle called out in spec §9.
type Handler interface {
	Handle(p packet.Packet)
}

// Transit is the capability a Router needs from the NoC: staging a
// packet for delivery one hop from now, and recording it in the
// trace. Source here is the physical emitter of this hop (this
// node's name), not the packet's logical Source.
type Transit interface {
	Send(p packet.Packet, source, destination string)
}

// Router holds one node's next-hop table: a mapping from final
// destination name to immediate neighbour name. An entry for the owning
// node's own name is never consulted: packets addressed to self are
// handled locally before any table lookup.
type Router struct {
	logger logger.Logger

	self  string
	table map[string]string

	handler Handler
	transit Transit
}

// Option customises a Router at construction time.
type Option func(*Router)

// WithLogger overrides the router's logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Router for node self, forwarding local deliveries to
// handler and forwarded hops to transit.
func New(self string, table map[string]string, handler Handler, transit Transit, opts ...Option) *Router {
	r := &Router{
		logger:  &logger.NopLogger{},
		self:    self,
		table:   table,
		handler: handler,
		transit: transit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Message handles or routes p depending on whether self is its
// logical destination. Re-entrant: a Handle call may itself route
// further packets, including ones destined back to self (spec §4.2's
// "recursively re-entrant" note).
func (r *Router) Message(p packet.Packet) {
	if p.Destination == r.self {
		r.handler.Handle(p)
		return
	}
	r.route(p)
}

// route forwards p toward its next hop. It is a bug — a programmer
// error per spec §7 — for the table to be missing an entry for the
// packet's destination; route panics, matching the original's bare
// dict-index KeyError, and NoC.cycle turns that panic into the error
// Run returns.
func (r *Router) route(p packet.Packet) {
	next, ok := r.table[p.Destination]
	if !ok {
		panic(fmt.Sprintf("router %s: no route to %s for packet %s", r.self, p.Destination, p))
	}
	r.logger.Debug("forwarding packet", logger.FPacket("packet", p), logger.F("next_hop", next))
	r.transit.Send(p, r.self, next)
}
