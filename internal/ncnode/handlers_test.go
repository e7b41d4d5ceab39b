package ncnode

import (
	"testing"

	"nocsim/internal/domain"
	"nocsim/internal/packet"
)

// TestInvalidateTwoHolderGrantsDirectly covers the S3 scenario from
// spec §4.4.3: when the home's only co-holder is the requester itself,
// the home's own departure from the presence set is pure bookkeeping —
// it must never address a REMOTE_INVALIDATE to itself — and once that
// leaves the requester as sole holder, the home grants the write lock
// immediately instead of freezing and waiting on an ack nothing sends.
func TestInvalidateTwoHolderGrantsDirectly(t *testing.T) {
	homes := fakeHomes{1: "A"}
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, []domain.Page{1}, nil, homes)

	// Bring the homed page to SHARED with presence {A, B}, as readMiss
	// would after B's READ_MISS.
	n.dir.Share(1)
	n.dir.AddPresence(1, "B")

	n.Handle(packet.New(packet.Invalidate, 1, "B", "A"))

	if len(tr.sent) != 1 {
		t.Fatalf("sent = %v, want exactly one packet (no REMOTE_INVALIDATE to self)", tr.sent)
	}
	got := tr.sent[0]
	if got.Action != packet.InvalidateAcknowledge || got.Destination != "B" {
		t.Errorf("sent = %+v, want a direct INVALIDATE_ACKNOWLEDGE to B", got)
	}
	if n.dir.Has(1) {
		t.Error("home directory still holds page 1, want it dropped (INVALID)")
	}
	if n.isFrozen(1) {
		t.Error("page 1 left frozen, want it granted directly without freezing")
	}
}

// TestInvalidateThreeHolderFreezesAndExcludesHome covers the 3+-holder
// case: the home still never messages itself, but with sharers besides
// the requester remaining it must freeze and wait for their
// REMOTE_INVALIDATE_ACKNOWLEDGE before granting.
func TestInvalidateThreeHolderFreezesAndExcludesHome(t *testing.T) {
	homes := fakeHomes{1: "A"}
	n, tr := newTestNode("A", 4, map[string]string{"B": "B", "C": "C"}, []domain.Page{1}, nil, homes)

	n.dir.Share(1)
	n.dir.AddPresence(1, "B")
	n.dir.AddPresence(1, "C")

	n.Handle(packet.New(packet.Invalidate, 1, "B", "A"))

	if len(tr.sent) != 1 {
		t.Fatalf("sent = %v, want exactly one REMOTE_INVALIDATE (to C only)", tr.sent)
	}
	got := tr.sent[0]
	if got.Action != packet.RemoteInvalidate || got.Destination != "C" {
		t.Errorf("sent = %+v, want REMOTE_INVALIDATE to C", got)
	}
	if n.dir.Has(1) {
		t.Error("home directory still holds page 1, want it dropped (INVALID)")
	}
	if !n.isFrozen(1) {
		t.Error("page 1 not frozen, want it frozen pending C's ack")
	}
}
