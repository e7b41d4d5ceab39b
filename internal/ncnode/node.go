// Package ncnode implements the per-node scheduler and the fourteen
// directory-protocol packet handlers described in spec §4.4: the
// hard core of the simulator. A Node executes a small program of
// operations against shared pages, issuing and answering coherence
// packets through its Router and bookkeeping freeze/lock/awaiting
// state along the way.
//
// Grounded on _examples/original_source/simplenoc/node.py, split across
// node.go (scheduler shell), operation.go (operation lifecycle) and
// handlers.go (the packet handlers) the way the teacher splits a large
// package into single-purpose files (internal/node/{node,worker,operation}.go
// in KoordeDHT).
package ncnode

import (
	"fmt"

	"nocsim/internal/directory"
	"nocsim/internal/domain"
	"nocsim/internal/logger"
	"nocsim/internal/packet"
	"nocsim/internal/router"
)

// HomeResolver is the capability a Node needs from the NoC: mapping a
// page to the name of its home node. This is the one piece of global,
// read-only information the spec allows a node to consult directly
// (spec §4.4.2, §4.4.4) — in a real system it would come from virtual
// address translation.
type HomeResolver interface {
	HomeOf(page domain.Page) string
}

// Node is one participant in the NoC: a name, a resident-page budget,
// a Directory, a Router, a program of operations, and the freeze/lock/
// awaiting bookkeeping that serialises conflicting transactions.
type Node struct {
	logger logger.Logger

	name string

	dir *directory.Directory
	rt  *router.Router

	homes HomeResolver

	program []domain.Operation

	locked   []domain.Page
	frozen   map[domain.Page]struct{}
	awaiting []packet.Packet
}

// Option customises a Node at construction time.
type Option func(*Node)

// WithLogger overrides the node's logger, and is propagated to its
// Directory and Router as well so every component logs under the same
// sink.
func WithLogger(l logger.Logger) Option {
	return func(n *Node) {
		if l != nil {
			n.logger = l
		}
	}
}

// New creates a Node named name, with a resident-page budget of size,
// the given next-hop routing table, the pages it homes, and its
// program of operations. transit is the NoC's packet-staging
// capability (see router.Transit); homes resolves any page to its
// home node's name.
//
// Precondition (spec §6): size >= len(homedPages).
func New(
	name string,
	size int,
	routingTable map[string]string,
	homedPages []domain.Page,
	program []domain.Operation,
	homes HomeResolver,
	transit router.Transit,
	opts ...Option,
) *Node {
	n := &Node{
		logger:  &logger.NopLogger{},
		name:    name,
		homes:   homes,
		program: append([]domain.Operation(nil), program...),
		frozen:  make(map[domain.Page]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.dir = directory.New(n, name, size, homedPages, directory.WithLogger(n.logger.Named("directory")))
	n.rt = router.New(name, routingTable, n, transit, router.WithLogger(n.logger.Named("router")))
	return n
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Directory exposes the node's page table, mainly for tests that
// assert on invariants P1-P4.
func (n *Node) Directory() *directory.Directory { return n.dir }

// IsDone reports whether the node has exhausted its program and has
// no in-flight operation (spec §4.3).
func (n *Node) IsDone() bool {
	return len(n.program) == 0 && len(n.locked) == 0
}

// Cycle is invoked once per NoC tick with the packets delivered to
// this node this cycle. It starts a new operation if idle, then
// re-dispatches awaiting packets before freshly arrived ones (spec
// §4.4.1's ordering guarantee O3).
func (n *Node) Cycle(delivered []packet.Packet) {
	if len(n.locked) == 0 && len(n.program) != 0 {
		op := n.program[0]
		n.program = n.program[1:]
		n.startOperation(op)
	}

	pending := n.awaiting
	n.awaiting = nil
	for _, p := range pending {
		n.rt.Message(p)
	}

	for _, p := range delivered {
		n.rt.Message(p)
	}
}

// Handle dispatches a packet addressed to this node to the
// appropriate protocol handler (spec §4.4.3). An unrecognised action
// is a programmer error and panics, matching the original's
// ValueError for the same condition (node.py, Node.handle).
func (n *Node) Handle(p packet.Packet) {
	switch p.Action {
	case packet.ReadMiss:
		n.readMiss(p)
	case packet.Reply:
		n.reply(p)
	case packet.RemoteRead:
		n.remoteRead(p)
	case packet.RemoteReply:
		n.remoteReply(p)
	case packet.Invalidate:
		n.invalidate(p)
	case packet.InvalidateAcknowledge:
		n.invalidateAcknowledge(p)
	case packet.RemoteInvalidate:
		n.remoteInvalidate(p)
	case packet.RemoteInvalidateAcknowledge:
		n.remoteInvalidateAcknowledge(p)
	case packet.ReadInvalidate:
		n.readInvalidate(p)
	case packet.ReadInvalidateAcknowledge:
		n.readInvalidateAcknowledge(p)
	case packet.RemoteReadInvalidate:
		n.remoteReadInvalidate(p)
	case packet.RemoteReadInvalidateAcknowledge:
		n.remoteReadInvalidateAcknowledge(p)
	case packet.EvictionSave:
		n.evictionSave(p)
	case packet.EvictionNotice:
		n.evictionNotice(p)
	default:
		panic(fmt.Sprintf("node %s: unrecognised packet action %v in %s", n.name, p.Action, p))
	}
}

// SendHome implements directory.Homer: it emits an EVICTION_SAVE for a
// page this node evicted while holding it MODIFIED.
func (n *Node) SendHome(page domain.Page) {
	home := n.homes.HomeOf(page)
	n.rt.Message(packet.New(packet.EvictionSave, page, n.name, home))
}

// NotifyHome implements directory.Homer: it emits an EVICTION_NOTICE
// for a page this node evicted while holding it SHARED.
func (n *Node) NotifyHome(page domain.Page) {
	home := n.homes.HomeOf(page)
	n.rt.Message(packet.New(packet.EvictionNotice, page, n.name, home))
}

// isLocked reports whether page belongs to the node's current
// in-flight operation.
func (n *Node) isLocked(page domain.Page) bool {
	for _, p := range n.locked {
		if p == page {
			return true
		}
	}
	return false
}

// isFrozen reports whether page is mid-transaction at this (home) node.
func (n *Node) isFrozen(page domain.Page) bool {
	_, ok := n.frozen[page]
	return ok
}

// deferPacket appends p to the awaiting queue, to be retried next cycle
// (spec §4.4.3's "frozen/locked deferral" rule).
func (n *Node) deferPacket(p packet.Packet) {
	n.awaiting = append(n.awaiting, p)
}
