// Package packet defines the immutable wire format exchanged between
// nodes of the NoC: the fourteen coherence-message kinds and the
// Packet envelope that carries them.
package packet

import (
	"fmt"

	"nocsim/internal/domain"
)

// Action identifies the kind of coherence message a Packet carries.
// The names and direction are grounded on the original simplenoc
// Packet class (action, page, source, destination, embedded); see
// internal/ncnode/handlers.go for how each kind is handled.
type Action int

const (
	ReadMiss Action = iota
	Reply
	RemoteRead
	RemoteReply
	Invalidate
	InvalidateAcknowledge
	RemoteInvalidate
	RemoteInvalidateAcknowledge
	ReadInvalidate
	ReadInvalidateAcknowledge
	RemoteReadInvalidate
	RemoteReadInvalidateAcknowledge
	EvictionSave
	EvictionNotice
)

var actionNames = [...]string{
	"READ_MISS",
	"REPLY",
	"REMOTE_READ",
	"REMOTE_REPLY",
	"INVALIDATE",
	"INVALIDATE_ACKNOWLEDGE",
	"REMOTE_INVALIDATE",
	"REMOTE_INVALIDATE_ACKNOWLEDGE",
	"READ_INVALIDATE",
	"READ_INVALIDATE_ACKNOWLEDGE",
	"REMOTE_READ_INVALIDATE",
	"REMOTE_READ_INVALIDATE_ACKNOWLEDGE",
	"EVICTION_SAVE",
	"EVICTION_NOTICE",
}

// String returns the textual action identifier used in trace lines,
// e.g. "READ_MISS". Unrecognised values (which should never occur
// outside of a construction bug) render as a numeric fallback.
func (a Action) String() string {
	if int(a) < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("ACTION(%d)", int(a))
	}
	return actionNames[a]
}

// Packet is an immutable descriptor of one inter-node coherence
// message. Source and Destination are logical endpoints: they do not
// change as the packet is forwarded hop by hop (see Router).
// Embedded optionally names a third node (the original local
// requester L) that a home-mediated transaction must eventually reply
// to; it is meaningful only for the REMOTE_* kinds.
type Packet struct {
	Action      Action
	Page        domain.Page
	Source      string
	Destination string
	Embedded    string // "" when not applicable
}

// New builds a Packet with no embedded field.
func New(action Action, page domain.Page, source, destination string) Packet {
	return Packet{Action: action, Page: page, Source: source, Destination: destination}
}

// NewEmbedded builds a Packet carrying a third-party node name.
func NewEmbedded(action Action, page domain.Page, source, destination, embedded string) Packet {
	return Packet{Action: action, Page: page, Source: source, Destination: destination, Embedded: embedded}
}

// String renders the packet the way the mandated trace format embeds
// it: the embedded field is intentionally omitted (spec §6).
func (p Packet) String() string {
	return fmt.Sprintf("{action: %s, page: %s, source: %s, destination: %s}",
		p.Action, p.Page, p.Source, p.Destination)
}
