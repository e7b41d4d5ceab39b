package ncnode

import (
	"fmt"

	"nocsim/internal/logger"
	"nocsim/internal/packet"
)

// readMiss handles a READ_MISS at the home of p.Page: a local node
// wants a copy. Deferred while the page is frozen.
func (n *Node) readMiss(p packet.Packet) {
	if n.isFrozen(p.Page) {
		n.deferPacket(p)
		return
	}
	if n.dir.Has(p.Page) {
		n.dir.AddPresence(p.Page, p.Source)
		n.dir.Share(p.Page)
		n.rt.Message(packet.New(packet.Reply, p.Page, n.name, p.Source))
		return
	}
	owner := n.dir.Owner(p.Page)
	n.rt.Message(packet.NewEmbedded(packet.RemoteRead, p.Page, n.name, owner, p.Source))
	n.frozen[p.Page] = struct{}{}
}

// reply handles a REPLY at the requester: a page has arrived shared.
func (n *Node) reply(p packet.Packet) {
	n.dir.Add(p.Page)
	n.tryComplete()
}

// remoteRead handles a REMOTE_READ at a remote holder: the home wants
// its copy back to satisfy someone else's READ_MISS.
func (n *Node) remoteRead(p packet.Packet) {
	if !n.dir.Has(p.Page) {
		panic(fmt.Sprintf("node %s: REMOTE_READ for page %s it does not hold", n.name, p.Page))
	}
	n.dir.Share(p.Page)
	n.rt.Message(packet.NewEmbedded(packet.RemoteReply, p.Page, n.name, p.Source, p.Embedded))
}

// remoteReply handles a REMOTE_REPLY at the home: a remote holder sent
// back its copy so it can be relayed to the original local requester.
func (n *Node) remoteReply(p packet.Packet) {
	n.dir.Add(p.Page)
	n.dir.AddPresence(p.Page, n.name)
	delete(n.frozen, p.Page)

	local := p.Embedded
	if local == "" {
		panic(fmt.Sprintf("node %s: REMOTE_REPLY for page %s missing embedded requester", n.name, p.Page))
	}
	if local == n.name {
		n.tryComplete()
		return
	}
	n.dir.AddPresence(p.Page, local)
	n.rt.Message(packet.New(packet.Reply, p.Page, n.name, local))
}

// invalidate handles an INVALIDATE at the home: a local node that
// already shares the page wants the write lock. Deferred while frozen
// or locked. The home's own copy is invalidated in place — bookkept
// without ever sending itself a REMOTE_INVALIDATE (spec §4.4.3).
func (n *Node) invalidate(p packet.Packet) {
	if !n.dir.Has(p.Page) {
		panic(fmt.Sprintf("node %s: INVALIDATE for page %s it does not share", n.name, p.Page))
	}
	if n.isFrozen(p.Page) || n.isLocked(p.Page) {
		n.deferPacket(p)
		return
	}

	holders := n.dir.CopyHolders(p.Page)
	if len(holders) < 2 {
		panic(fmt.Sprintf("node %s: INVALIDATE for page %s with fewer than 2 copy holders", n.name, p.Page))
	}
	for holder := range holders {
		if holder == p.Source || holder == n.name {
			continue
		}
		n.rt.Message(packet.NewEmbedded(packet.RemoteInvalidate, p.Page, n.name, holder, p.Source))
	}
	n.dir.Dirty(p.Page)
	n.dir.ErasePresence(p.Page, n.name)

	remaining := n.dir.CopyHolders(p.Page)
	if len(remaining) == 1 {
		if _, ok := remaining[p.Source]; !ok {
			panic(fmt.Sprintf("node %s: last copy holder of page %s is not the requester %s", n.name, p.Page, p.Source))
		}
		n.rt.Message(packet.New(packet.InvalidateAcknowledge, p.Page, n.name, p.Source))
		return
	}
	n.frozen[p.Page] = struct{}{}
}

// invalidateAcknowledge handles an INVALIDATE_ACKNOWLEDGE at the
// requester: the home granted the write lock.
func (n *Node) invalidateAcknowledge(p packet.Packet) {
	n.dir.Modify(p.Page)
	n.tryComplete()
}

// remoteInvalidate handles a REMOTE_INVALIDATE at a remote sharer: the
// home asks it to drop its copy. Deferred while the page is locked by
// this node's own in-flight operation.
func (n *Node) remoteInvalidate(p packet.Packet) {
	if n.isLocked(p.Page) {
		n.deferPacket(p)
		return
	}
	n.dir.Dirty(p.Page)
	n.rt.Message(packet.NewEmbedded(packet.RemoteInvalidateAcknowledge, p.Page, n.name, p.Source, p.Embedded))
}

// remoteInvalidateAcknowledge handles a REMOTE_INVALIDATE_ACKNOWLEDGE
// at the home: one sharer confirmed it dropped the page. Once only
// the requester remains, the home grants the write lock.
func (n *Node) remoteInvalidateAcknowledge(p packet.Packet) {
	n.dir.ErasePresence(p.Page, p.Source)
	holders := n.dir.CopyHolders(p.Page)
	if len(holders) == 1 {
		if _, ok := holders[p.Embedded]; !ok {
			panic(fmt.Sprintf("node %s: last copy holder of page %s is not the embedded requester %s", n.name, p.Page, p.Embedded))
		}
		n.rt.Message(packet.New(packet.InvalidateAcknowledge, p.Page, n.name, p.Embedded))
		delete(n.frozen, p.Page)
	}
}

// readInvalidate handles a READ_INVALIDATE at the home: a local node
// lacking the page wants both a copy and the write lock. Deferred
// while frozen or locked.
func (n *Node) readInvalidate(p packet.Packet) {
	if n.isFrozen(p.Page) || n.isLocked(p.Page) {
		n.deferPacket(p)
		return
	}

	holders := n.dir.CopyHolders(p.Page)
	if _, soleHolder := holders[n.name]; soleHolder && len(holders) == 1 {
		n.dir.Dirty(p.Page)
		n.dir.ErasePresence(p.Page, n.name)
		n.dir.AddPresence(p.Page, p.Source)
		n.rt.Message(packet.New(packet.ReadInvalidateAcknowledge, p.Page, n.name, p.Source))
		return
	}

	for holder := range holders {
		if holder == n.name {
			continue
		}
		n.rt.Message(packet.NewEmbedded(packet.RemoteReadInvalidate, p.Page, n.name, holder, p.Source))
	}
	n.frozen[p.Page] = struct{}{}
}

// readInvalidateAcknowledge handles a READ_INVALIDATE_ACKNOWLEDGE at
// the requester: the home granted both a copy and the write lock.
func (n *Node) readInvalidateAcknowledge(p packet.Packet) {
	n.dir.Add(p.Page)
	n.dir.Modify(p.Page)
	n.tryComplete()
}

// remoteReadInvalidate handles a REMOTE_READ_INVALIDATE at a remote
// holder: the home wants its copy dropped and returned. Deferred while
// the page is locked by this node's own in-flight operation.
func (n *Node) remoteReadInvalidate(p packet.Packet) {
	if n.isLocked(p.Page) {
		n.deferPacket(p)
		return
	}
	n.dir.Dirty(p.Page)
	n.rt.Message(packet.NewEmbedded(packet.RemoteReadInvalidateAcknowledge, p.Page, n.name, p.Source, p.Embedded))
}

// remoteReadInvalidateAcknowledge handles a
// REMOTE_READ_INVALIDATE_ACKNOWLEDGE at the home: a remote holder
// confirmed it dropped its copy. Once the home is the last holder, it
// hands the page and the write lock to the original requester.
func (n *Node) remoteReadInvalidateAcknowledge(p packet.Packet) {
	if !n.dir.Has(p.Page) {
		n.dir.Add(p.Page)
		n.dir.AddPresence(p.Page, n.name)
	}
	n.dir.ErasePresence(p.Page, p.Source)

	holders := n.dir.CopyHolders(p.Page)
	if len(holders) != 1 {
		return
	}
	n.dir.Dirty(p.Page)
	n.dir.ErasePresence(p.Page, n.name)

	local := p.Embedded
	if local == "" {
		panic(fmt.Sprintf("node %s: REMOTE_READ_INVALIDATE_ACKNOWLEDGE for page %s missing embedded requester", n.name, p.Page))
	}
	n.dir.AddPresence(p.Page, local)
	n.rt.Message(packet.New(packet.ReadInvalidateAcknowledge, p.Page, n.name, local))
	delete(n.frozen, p.Page)
}

// evictionSave handles an EVICTION_SAVE at the home: an evictor
// returned its last MODIFIED copy rather than lose it.
//
// SPEC_FULL §9 (Open Question OQ-1): rather than dirtying the page
// back to INVALID right after admitting it (as the original does),
// the home marks it MODIFIED, since it now genuinely holds the sole
// live copy. See DESIGN.md for the full rationale.
func (n *Node) evictionSave(p packet.Packet) {
	if n.dir.Has(p.Page) {
		panic(fmt.Sprintf("node %s: EVICTION_SAVE for page %s it already holds", n.name, p.Page))
	}
	n.dir.Add(p.Page)
	n.dir.Modify(p.Page)
	n.dir.ErasePresence(p.Page, p.Source)
	n.dir.AddPresence(p.Page, n.name)
	n.logger.Debug("accepted eviction save", logger.F("page", p.Page), logger.F("from", p.Source))
}

// evictionNotice handles an EVICTION_NOTICE at the home: an evictor
// dropped its SHARED copy.
func (n *Node) evictionNotice(p packet.Packet) {
	if !n.dir.Has(p.Page) {
		panic(fmt.Sprintf("node %s: EVICTION_NOTICE for page %s it does not share", n.name, p.Page))
	}
	n.dir.ErasePresence(p.Page, p.Source)
}
