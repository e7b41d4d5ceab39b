// Package scenario loads a declarative YAML description of a NoC
// topology (nodes, routing tables, homed pages, programs) and builds a
// *noc.NoC from it — the externalised equivalent of hard-coding a
// mesh directly in Go (SPEC_FULL §6, grounded on
// _examples/original_source/test/test_mesh_2x2.py, which hard-codes
// exactly this shape of data).
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nocsim/internal/config"
	"nocsim/internal/domain"
	"nocsim/internal/noc"
	"nocsim/internal/trace"
)

// NodeSpec describes one node of the scenario: its resident-page
// budget, next-hop routing table, the pages it is home to, and its
// program of operations.
type NodeSpec struct {
	Name         string            `yaml:"name"`
	Size         int               `yaml:"size"`
	RoutingTable map[string]string `yaml:"routingTable"`
	HomedPages   []uint64          `yaml:"homedPages"`
	Program      [][]uint64        `yaml:"program"`
}

// TraceSpec configures where the plain-text trace is written.
type TraceSpec struct {
	Path string `yaml:"path"`
}

// Scenario is the full YAML document consumed by Load: a topology
// (Nodes), where to write the trace, and the ambient config sections
// also usable stand-alone via internal/config.
type Scenario struct {
	Nodes      []NodeSpec              `yaml:"nodes"`
	Trace      TraceSpec               `yaml:"trace"`
	Telemetry  config.TelemetryConfig  `yaml:"telemetry"`
	Logger     config.LoggerConfig     `yaml:"logger"`
	Simulation config.SimulationConfig `yaml:"simulation"`
}

// Load reads and parses the YAML file at path into a Scenario. No
// validation beyond YAML syntax is performed here; Build reports
// structural problems (duplicate names, pages homed twice) as it
// constructs the NoC.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}
	return &s, nil
}

// Build constructs a *noc.NoC from the scenario, one AddNode call per
// NodeSpec in file order (spec §4.1's deterministic node-enumeration
// requirement O1 depends on this order being preserved).
func (s *Scenario) Build(opts ...noc.Option) (*noc.NoC, error) {
	n := noc.NewNoC(opts...)
	for _, spec := range s.Nodes {
		homedPages := make([]domain.Page, len(spec.HomedPages))
		for i, p := range spec.HomedPages {
			homedPages[i] = domain.Page(p)
		}

		program := make([]domain.Operation, 0, len(spec.Program))
		for _, raw := range spec.Program {
			pages := make([]domain.Page, len(raw))
			for i, p := range raw {
				pages[i] = domain.Page(p)
			}
			op, err := domain.NewOperation(pages)
			if err != nil {
				return nil, fmt.Errorf("scenario: node %s: %w", spec.Name, err)
			}
			program = append(program, op)
		}

		if err := n.AddNode(spec.Name, spec.Size, spec.RoutingTable, homedPages, program); err != nil {
			return nil, fmt.Errorf("scenario: %w", err)
		}
	}
	return n, nil
}

// TracePath returns the configured trace destination, defaulting to
// "STDOUT" when the scenario omits the trace section.
func (s *Scenario) TracePath() string {
	if s.Trace.Path == "" {
		return "STDOUT"
	}
	return s.Trace.Path
}

// BuildTracer returns an internal/trace.Tracer honoring the scenario's
// telemetry section: an OTelTracer when tracing is enabled, otherwise
// a NopTracer.
func (s *Scenario) BuildTracer(serviceName string) trace.Tracer {
	if !s.Telemetry.Tracing.Enabled {
		return trace.NopTracer{}
	}
	return trace.NewOTelTracer(serviceName)
}
