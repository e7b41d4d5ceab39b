package packet

import (
	"strings"
	"testing"

	"nocsim/internal/domain"
)

func TestActionString(t *testing.T) {
	if got, want := ReadMiss.String(), "READ_MISS"; got != want {
		t.Errorf("ReadMiss.String() = %q, want %q", got, want)
	}
	if got, want := EvictionNotice.String(), "EVICTION_NOTICE"; got != want {
		t.Errorf("EvictionNotice.String() = %q, want %q", got, want)
	}
}

func TestActionStringUnknown(t *testing.T) {
	a := Action(999)
	if got := a.String(); !strings.Contains(got, "999") {
		t.Errorf("unrecognised Action.String() = %q, want it to mention 999", got)
	}
}

func TestNewOmitsEmbedded(t *testing.T) {
	p := New(Reply, domain.Page(4), "A", "B")
	if p.Embedded != "" {
		t.Errorf("New(...).Embedded = %q, want empty", p.Embedded)
	}
}

func TestNewEmbedded(t *testing.T) {
	p := NewEmbedded(RemoteRead, domain.Page(4), "A", "B", "C")
	if p.Embedded != "C" {
		t.Errorf("NewEmbedded(...).Embedded = %q, want %q", p.Embedded, "C")
	}
}

func TestPacketStringOmitsEmbedded(t *testing.T) {
	p := NewEmbedded(RemoteRead, domain.Page(4), "A", "B", "C")
	s := p.String()
	if strings.Contains(s, "C") {
		t.Errorf("Packet.String() = %q, should not mention the embedded field", s)
	}
	want := "{action: REMOTE_READ, page: 4, source: A, destination: B}"
	if s != want {
		t.Errorf("Packet.String() = %q, want %q", s, want)
	}
}
