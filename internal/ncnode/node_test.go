package ncnode

import (
	"testing"

	"nocsim/internal/domain"
	"nocsim/internal/packet"
)

// fakeHomes is a HomeResolver backed by a plain map.
type fakeHomes map[domain.Page]string

func (f fakeHomes) HomeOf(page domain.Page) string {
	home, ok := f[page]
	if !ok {
		panic("fakeHomes: no home for page")
	}
	return home
}

// fakeTransit records every packet staged for one more hop, without
// ever delivering it — tests inspect sent to see what a Node emitted.
type fakeTransit struct {
	sent []packet.Packet
}

func (f *fakeTransit) Send(p packet.Packet, source, destination string) {
	f.sent = append(f.sent, p)
}

func newTestNode(name string, size int, table map[string]string, homed []domain.Page, program []domain.Operation, homes fakeHomes) (*Node, *fakeTransit) {
	tr := &fakeTransit{}
	n := New(name, size, table, homed, program, homes, tr)
	return n, tr
}

func TestIsDoneInitiallyTrueWithEmptyProgram(t *testing.T) {
	n, _ := newTestNode("A", 4, nil, nil, nil, fakeHomes{})
	if !n.IsDone() {
		t.Error("IsDone() = false, want true for a node with no program")
	}
}

func TestCycleStartsNextOperationWhenIdle(t *testing.T) {
	homes := fakeHomes{1: "B"}
	op, _ := domain.NewOperation([]domain.Page{1})
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, nil, []domain.Operation{op}, homes)

	n.Cycle(nil)

	if n.IsDone() {
		t.Error("IsDone() = true immediately after starting an operation needing a remote page")
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent %d packets, want 1", len(tr.sent))
	}
	if tr.sent[0].Action != packet.ReadInvalidate {
		t.Errorf("sent action = %v, want ReadInvalidate", tr.sent[0].Action)
	}
}

func TestCycleDoesNotStartNewOperationWhileLocked(t *testing.T) {
	homes := fakeHomes{1: "B", 2: "B"}
	op1, _ := domain.NewOperation([]domain.Page{1})
	op2, _ := domain.NewOperation([]domain.Page{2})
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, nil, []domain.Operation{op1, op2}, homes)

	n.Cycle(nil)
	n.Cycle(nil)

	if len(tr.sent) != 1 {
		t.Fatalf("sent %d packets across two cycles, want 1 (second operation must wait)", len(tr.sent))
	}
}

func TestCycleReplaysAwaitingPackets(t *testing.T) {
	n, _ := newTestNode("A", 4, map[string]string{"B": "B"}, []domain.Page{1}, nil, fakeHomes{})
	// Manually freeze page 1 and defer a packet for it, as a handler would.
	n.frozen[1] = struct{}{}
	deferred := packet.New(packet.ReadMiss, 1, "B", "A")
	n.deferPacket(deferred)

	if len(n.awaiting) != 1 {
		t.Fatalf("awaiting = %v, want 1 entry", n.awaiting)
	}

	delete(n.frozen, 1)
	n.Cycle(nil)

	if len(n.awaiting) != 0 {
		t.Errorf("awaiting = %v after Cycle re-dispatched it, want empty", n.awaiting)
	}
	if _, ok := n.dir.CopyHolders(1)["B"]; !ok {
		t.Error("replayed READ_MISS was not processed (page 1 presence does not include B)")
	}
}

func TestHandlePanicsOnUnknownAction(t *testing.T) {
	n, _ := newTestNode("A", 4, nil, nil, nil, fakeHomes{})
	defer func() {
		if recover() == nil {
			t.Fatal("Handle did not panic for an unrecognised action")
		}
	}()
	n.Handle(packet.New(packet.Action(999), 1, "B", "A"))
}

func TestSendHomeEmitsEvictionSave(t *testing.T) {
	homes := fakeHomes{1: "B"}
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, nil, nil, homes)
	n.SendHome(1)

	if len(tr.sent) != 1 || tr.sent[0].Action != packet.EvictionSave {
		t.Fatalf("sent = %v, want one EvictionSave packet", tr.sent)
	}
	if tr.sent[0].Destination != "B" {
		t.Errorf("EvictionSave destination = %q, want %q", tr.sent[0].Destination, "B")
	}
}

func TestNotifyHomeEmitsEvictionNotice(t *testing.T) {
	homes := fakeHomes{1: "B"}
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, nil, nil, homes)
	n.NotifyHome(1)

	if len(tr.sent) != 1 || tr.sent[0].Action != packet.EvictionNotice {
		t.Fatalf("sent = %v, want one EvictionNotice packet", tr.sent)
	}
}
