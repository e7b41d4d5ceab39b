// Package noc implements the synchronous clock described in spec §4.1:
// an in-transit packet queue, a home-of-page map, and the construction
// API used to build a network from scratch one node at a time.
//
// Grounded on _examples/original_source/simplenoc/noc.py, with the
// teacher's (KoordeDHT) functional-options construction and typed
// sentinel errors.
package noc

import (
	"context"
	"errors"
	"fmt"

	"nocsim/internal/domain"
	"nocsim/internal/logger"
	"nocsim/internal/ncnode"
	"nocsim/internal/packet"
	"nocsim/internal/trace"
)

// ErrDuplicateNode is returned by AddNode when a node with the same
// name has already been added.
var ErrDuplicateNode = errors.New("noc: duplicate node name")

// ErrPageHomedTwice is returned by AddNode when a page is claimed as
// homed by more than one node — a scenario-construction error, not a
// runtime protocol violation.
var ErrPageHomedTwice = errors.New("noc: page homed by more than one node")

// ErrDeadlock is returned by Run when the configured cycle bound is
// exceeded before every node finishes — the diagnostic substitute for
// the "test harness" detecting non-termination (spec §4.3, R2).
var ErrDeadlock = errors.New("noc: cycle bound exceeded, possible deadlock")

type inTransit struct {
	packet      packet.Packet
	destination string
}

// NoC is the Network on Chip: the collection of nodes, the home map
// that resolves a page to its home node, and the in-transit queue that
// carries packets one hop per cycle (spec §4.1).
type NoC struct {
	logger logger.Logger
	tracer trace.Tracer

	cycleCounter int
	inTransit    []inTransit

	nodeNames []string // insertion order, for deterministic iteration (spec §4.1's O1)
	nodes     map[string]*ncnode.Node
	home      map[domain.Page]string

	maxCycles int // 0 means unbounded

	writer *trace.Writer
}

// Option customises a NoC at construction time.
type Option func(*NoC)

// WithLogger overrides the NoC's logger.
func WithLogger(l logger.Logger) Option {
	return func(n *NoC) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithTracer attaches an OpenTelemetry span emitter used to record one
// span per packet hop, in addition to the mandated plain-text trace
// (SPEC_FULL §1, span-based tracing of message traffic). A nil tracer
// (the default) disables span emission.
func WithTracer(t trace.Tracer) Option {
	return func(n *NoC) {
		if t != nil {
			n.tracer = t
		}
	}
}

// WithMaxCycles bounds Run to at most cycles cycles; exceeding it
// returns ErrDeadlock instead of spinning forever against a scenario
// that can never finish. cycles <= 0 (the default) means unbounded.
func WithMaxCycles(cycles int) Option {
	return func(n *NoC) {
		n.maxCycles = cycles
	}
}

// NewNoC creates an empty NoC, ready for AddNode calls.
func NewNoC(opts ...Option) *NoC {
	n := &NoC{
		logger: &logger.NopLogger{},
		tracer: trace.NopTracer{},
		nodes:  make(map[string]*ncnode.Node),
		home:   make(map[domain.Page]string),
		writer: trace.NewWriter(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddNode builds a new node named name and wires it into the NoC: size
// is its resident-page budget, routingTable its next-hop table,
// homedPages the pages it is home to, and program the operations it
// executes (spec §6). Returns ErrDuplicateNode or ErrPageHomedTwice on
// a malformed scenario rather than silently overwriting state.
func (n *NoC) AddNode(
	name string,
	size int,
	routingTable map[string]string,
	homedPages []domain.Page,
	program []domain.Operation,
) error {
	if _, exists := n.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	for _, page := range homedPages {
		if owner, exists := n.home[page]; exists {
			return fmt.Errorf("%w: page %s already homed by %s", ErrPageHomedTwice, page, owner)
		}
	}

	node := ncnode.New(
		name, size, routingTable, homedPages, program,
		n, n,
		ncnode.WithLogger(n.logger.Named("node").With(logger.F("node", name))),
	)
	n.nodes[name] = node
	n.nodeNames = append(n.nodeNames, name)
	for _, page := range homedPages {
		n.home[page] = name
	}
	return nil
}

// HomeOf implements ncnode.HomeResolver.
func (n *NoC) HomeOf(page domain.Page) string {
	home, ok := n.home[page]
	if !ok {
		panic(fmt.Sprintf("noc: page %s has no home node", page))
	}
	return home
}

// Send implements router.Transit: it records the hop in the trace and
// stages the packet for delivery at the start of the next cycle (spec
// §4.1). source is the physical emitter of this hop, not the packet's
// logical source.
func (n *NoC) Send(p packet.Packet, source, destination string) {
	n.writer.Log(p, source, destination, n.cycleCounter)
	n.tracer.Span(context.Background(), p, source, destination, n.cycleCounter)
	n.inTransit = append(n.inTransit, inTransit{packet: p, destination: destination})
}

// cycle performs one tick: packets staged last cycle are delivered to
// their destination nodes, each node advances its own program and
// protocol handlers, and the cycle counter advances (spec §4.1).
//
// A panic raised by a node handler (an invariant breach, spec §7) is
// recovered here and turned into an error naming the offending cycle,
// rather than crashing the whole simulation silently.
func (n *NoC) cycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("noc: cycle %d: %v", n.cycleCounter, r)
		}
	}()

	pending := n.inTransit
	n.inTransit = nil

	for _, name := range n.nodeNames {
		var delivered []packet.Packet
		for _, it := range pending {
			if it.destination == name {
				delivered = append(delivered, it.packet)
			}
		}
		n.nodes[name].Cycle(delivered)
	}

	n.cycleCounter++
	return nil
}

// isDone reports whether every node has exhausted its program and has
// no in-flight operation (spec §4.3).
func (n *NoC) isDone() bool {
	for _, name := range n.nodeNames {
		if !n.nodes[name].IsDone() {
			return false
		}
	}
	return true
}

// Run executes every node's program to completion, cycle by cycle,
// then writes the accumulated trace to path ("STDOUT", "STDERR", or a
// filesystem path — spec §6). ctx cancellation is checked once per
// cycle, so a caller can bound a run that deadlocks (spec §4.3, R2).
func (n *NoC) Run(ctx context.Context, path string) error {
	for !n.isDone() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("noc: run cancelled at cycle %d: %w", n.cycleCounter, ctx.Err())
		default:
		}
		if n.maxCycles > 0 && n.cycleCounter >= n.maxCycles {
			return fmt.Errorf("%w: %d cycles", ErrDeadlock, n.maxCycles)
		}
		if err := n.cycle(); err != nil {
			return err
		}
	}
	return n.writer.Write(path)
}

// CycleCount returns the number of cycles executed so far, mainly for
// tests asserting termination bounds.
func (n *NoC) CycleCount() int { return n.cycleCounter }

// Node exposes a constructed node by name, mainly for tests that
// assert on directory invariants after a run.
func (n *NoC) Node(name string) (*ncnode.Node, bool) {
	node, ok := n.nodes[name]
	return node, ok
}
