package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"nocsim/internal/trace"
)

const twoNodeYAML = `
nodes:
  - name: A
    size: 4
    routingTable:
      B: B
    homedPages: [1]
  - name: B
    size: 4
    routingTable:
      A: A
    homedPages: [2]
    program:
      - [1, 2]
trace:
  path: STDOUT
simulation:
  maxCycles: 10
`

func writeYAML(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesTopology(t *testing.T) {
	path := writeYAML(t, twoNodeYAML)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(s.Nodes))
	}
	if s.Nodes[1].Name != "B" || len(s.Nodes[1].Program) != 1 {
		t.Errorf("Nodes[1] = %+v, want name B with one program entry", s.Nodes[1])
	}
	if s.Simulation.MaxCycles != 10 {
		t.Errorf("Simulation.MaxCycles = %d, want 10", s.Simulation.MaxCycles)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load returned nil error for a missing file")
	}
}

func TestBuildRunsToCompletion(t *testing.T) {
	path := writeYAML(t, twoNodeYAML)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	network, err := s.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := network.Run(context.Background(), os.DevNull); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestTracePathDefaultsToStdout(t *testing.T) {
	s := &Scenario{}
	if got, want := s.TracePath(), "STDOUT"; got != want {
		t.Errorf("TracePath() = %q, want %q", got, want)
	}
}

func TestBuildTracerDefaultsToNop(t *testing.T) {
	s := &Scenario{}
	tr := s.BuildTracer("nocsim")
	if _, ok := tr.(trace.NopTracer); !ok {
		t.Errorf("BuildTracer() = %T, want trace.NopTracer when tracing is disabled", tr)
	}
}

func TestBuildRejectsDuplicatePageHomes(t *testing.T) {
	const dup = `
nodes:
  - name: A
    size: 4
    homedPages: [1]
  - name: B
    size: 4
    homedPages: [1]
`
	path := writeYAML(t, dup)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.Build(); err == nil {
		t.Fatal("Build did not reject a page homed by two nodes")
	}
}
