package ncnode

import (
	"fmt"

	"nocsim/internal/domain"
	"nocsim/internal/logger"
	"nocsim/internal/packet"
)

// startOperation begins the operation described by op: it locks every
// page the operation touches and issues whatever coherence requests
// are needed to acquire them (spec §4.4.2).
func (n *Node) startOperation(op domain.Operation) {
	if len(n.locked) != 0 {
		panic(fmt.Sprintf("node %s: startOperation called while locked set is non-empty: %v", n.name, n.locked))
	}

	inputs := op.Inputs()
	output := op.Output()

	n.locked = append(n.locked, inputs...)
	n.locked = append(n.locked, output)

	for _, input := range inputs {
		if input == output {
			// handled below via READ_INVALIDATE/INVALIDATE on the output
			continue
		}
		if n.dir.Has(input) {
			continue
		}
		home := n.homes.HomeOf(input)
		n.rt.Message(packet.New(packet.ReadMiss, input, n.name, home))
	}

	switch {
	case !n.dir.Has(output):
		n.rt.Message(packet.New(packet.ReadInvalidate, output, n.name, n.homes.HomeOf(output)))
	case !n.dir.IsModified(output):
		n.rt.Message(packet.New(packet.Invalidate, output, n.name, n.homes.HomeOf(output)))
	default:
		n.tryComplete()
	}
}

// tryComplete checks whether the in-flight operation can finish: every
// input must be held (any state) and the output must be held
// MODIFIED. On success the locked set is cleared and the operation is
// done — no data computation is modelled (spec §4.4.2).
func (n *Node) tryComplete() {
	if len(n.locked) == 0 {
		return
	}
	inputs := n.locked[:len(n.locked)-1]
	output := n.locked[len(n.locked)-1]

	inputsReady := true
	for _, input := range inputs {
		if !n.dir.Has(input) {
			inputsReady = false
			break
		}
	}
	outputReady := n.dir.Has(output) && n.dir.IsModified(output)

	if inputsReady && outputReady {
		n.logger.Debug("operation completed", logger.F("pages", n.locked))
		n.locked = nil
	}
}
