package ncnode

import (
	"testing"

	"nocsim/internal/domain"
	"nocsim/internal/packet"
)

func TestStartOperationLocalOutputCompletesImmediately(t *testing.T) {
	op, _ := domain.NewOperation([]domain.Page{1})
	n, tr := newTestNode("A", 4, nil, []domain.Page{1}, nil, fakeHomes{})

	n.startOperation(op)

	if len(n.locked) != 0 {
		t.Errorf("locked = %v, want cleared (operation already satisfied)", n.locked)
	}
	if len(tr.sent) != 0 {
		t.Errorf("sent = %v, want no packets for an already-MODIFIED local output", tr.sent)
	}
}

func TestStartOperationRemoteInputSendsReadMiss(t *testing.T) {
	homes := fakeHomes{1: "B"}
	// output page 2 already MODIFIED locally; only the input needs fetching.
	op, _ := domain.NewOperation([]domain.Page{1, 2})
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, []domain.Page{2}, nil, homes)

	n.startOperation(op)

	if len(n.locked) != 2 {
		t.Fatalf("locked = %v, want [1 2]", n.locked)
	}
	if len(tr.sent) != 1 || tr.sent[0].Action != packet.ReadMiss || tr.sent[0].Page != 1 {
		t.Fatalf("sent = %v, want a single READ_MISS for page 1", tr.sent)
	}
}

func TestStartOperationSharedOutputSendsInvalidate(t *testing.T) {
	homes := fakeHomes{1: "B"}
	op, _ := domain.NewOperation([]domain.Page{1})
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, nil, nil, homes)
	// Pre-seed page 1 as SHARED (already held, but not MODIFIED).
	n.dir.Add(1)

	n.startOperation(op)

	if len(tr.sent) != 1 || tr.sent[0].Action != packet.Invalidate {
		t.Fatalf("sent = %v, want a single INVALIDATE", tr.sent)
	}
}

func TestStartOperationAbsentOutputSendsReadInvalidate(t *testing.T) {
	homes := fakeHomes{1: "B"}
	op, _ := domain.NewOperation([]domain.Page{1})
	n, tr := newTestNode("A", 4, map[string]string{"B": "B"}, nil, nil, homes)

	n.startOperation(op)

	if len(tr.sent) != 1 || tr.sent[0].Action != packet.ReadInvalidate {
		t.Fatalf("sent = %v, want a single READ_INVALIDATE", tr.sent)
	}
}

func TestStartOperationPanicsWhenAlreadyLocked(t *testing.T) {
	op, _ := domain.NewOperation([]domain.Page{1})
	n, _ := newTestNode("A", 4, nil, []domain.Page{1}, nil, fakeHomes{})
	n.locked = []domain.Page{42}

	defer func() {
		if recover() == nil {
			t.Fatal("startOperation did not panic while already locked")
		}
	}()
	n.startOperation(op)
}

func TestTryCompleteWaitsOnMissingInput(t *testing.T) {
	n, _ := newTestNode("A", 4, nil, nil, nil, fakeHomes{})
	// locked = [input 1, output 2]; output held MODIFIED but input 1 absent.
	n.locked = []domain.Page{1, 2}
	n.dir.Add(2)
	n.dir.Modify(2)

	n.tryComplete()

	if len(n.locked) == 0 {
		t.Error("tryComplete cleared locked while an input is still missing")
	}
}

func TestTryCompleteNoopWhenIdle(t *testing.T) {
	n, _ := newTestNode("A", 4, nil, nil, nil, fakeHomes{})
	n.tryComplete() // must not panic on an empty locked set
	if len(n.locked) != 0 {
		t.Error("tryComplete populated locked from nothing")
	}
}
