package router

import (
	"testing"

	"nocsim/internal/packet"
)

type fakeHandler struct {
	handled []packet.Packet
}

func (f *fakeHandler) Handle(p packet.Packet) { f.handled = append(f.handled, p) }

type fakeTransit struct {
	sent []struct {
		packet      packet.Packet
		source      string
		destination string
	}
}

func (f *fakeTransit) Send(p packet.Packet, source, destination string) {
	f.sent = append(f.sent, struct {
		packet      packet.Packet
		source      string
		destination string
	}{p, source, destination})
}

func TestMessageDeliversLocal(t *testing.T) {
	h := &fakeHandler{}
	tr := &fakeTransit{}
	r := New("A", map[string]string{"B": "C"}, h, tr)

	p := packet.New(packet.Reply, 1, "X", "A")
	r.Message(p)

	if len(h.handled) != 1 || h.handled[0] != p {
		t.Errorf("handler received %v, want [%v]", h.handled, p)
	}
	if len(tr.sent) != 0 {
		t.Errorf("transit received %v, want none", tr.sent)
	}
}

func TestMessageForwardsRemote(t *testing.T) {
	h := &fakeHandler{}
	tr := &fakeTransit{}
	r := New("A", map[string]string{"B": "C"}, h, tr)

	p := packet.New(packet.Reply, 1, "X", "B")
	r.Message(p)

	if len(h.handled) != 0 {
		t.Errorf("handler received %v, want none", h.handled)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("transit received %d packets, want 1", len(tr.sent))
	}
	got := tr.sent[0]
	if got.packet != p || got.source != "A" || got.destination != "C" {
		t.Errorf("transit.Send(%v, %q, %q), want (%v, %q, %q)", got.packet, got.source, got.destination, p, "A", "C")
	}
}

func TestRoutePanicsOnMissingEntry(t *testing.T) {
	r := New("A", map[string]string{}, &fakeHandler{}, &fakeTransit{})
	defer func() {
		if recover() == nil {
			t.Fatal("Message did not panic for an unroutable destination")
		}
	}()
	r.Message(packet.New(packet.Reply, 1, "X", "Z"))
}
