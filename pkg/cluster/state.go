package cluster

import (
	"fmt"
	"io"
	"os"

	"github.com/cuemby/groupsched/pkg/types"
	"github.com/cuemby/groupsched/pkg/unitconf"
	"gopkg.in/yaml.v3"
)

// State is the YAML description of a cluster
type State struct {
	Nodes      []NodeSpec     `yaml:"nodes"`
	Topologies []TopologySpec `yaml:"topologies"`
}

// NodeSpec describes one supervisor
type NodeSpec struct {
	ID       string            `yaml:"id"`
	Hostname string            `yaml:"hostname,omitempty"`
	Meta     map[string]string `yaml:"meta,omitempty"`
	Slots    []int             `yaml:"slots"`
}

// TopologySpec describes one topology and what is waiting to be placed
type TopologySpec struct {
	ID         string                      `yaml:"id"`
	Name       string                      `yaml:"name,omitempty"`
	Sources    []UnitSpec                  `yaml:"sources,omitempty"`
	Transforms []UnitSpec                  `yaml:"transforms,omitempty"`
	Pending    map[string][]types.Executor `yaml:"pending,omitempty"`
}

// UnitSpec describes one unit. Conf wins over TaskID when both are set.
type UnitSpec struct {
	Name   string `yaml:"name"`
	Conf   string `yaml:"conf,omitempty"`
	TaskID *int   `yaml:"taskId,omitempty"`
}

// LoadState reads a YAML state file into a new in-memory cluster
func LoadState(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()

	return DecodeState(f)
}

// DecodeState builds an in-memory cluster from a YAML state document
func DecodeState(r io.Reader) (*Memory, error) {
	var state State
	if err := yaml.NewDecoder(r).Decode(&state); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return state.Build()
}

// Build creates an in-memory cluster from the state
func (s *State) Build() (*Memory, error) {
	m := NewMemory()

	for _, n := range s.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node without id")
		}
		m.AddNode(&types.Node{ID: n.ID, Hostname: n.Hostname, Meta: n.Meta}, n.Slots...)
	}

	for _, t := range s.Topologies {
		if t.ID == "" {
			return nil, fmt.Errorf("topology without id")
		}
		topo := &types.Topology{ID: t.ID, Name: t.Name}
		if topo.Name == "" {
			topo.Name = t.ID
		}

		var err error
		if topo.Sources, err = buildUnits(t.Sources); err != nil {
			return nil, fmt.Errorf("topology %s: %w", t.ID, err)
		}
		if topo.Transforms, err = buildUnits(t.Transforms); err != nil {
			return nil, fmt.Errorf("topology %s: %w", t.ID, err)
		}
		m.AddTopology(topo, t.Pending)
	}

	return m, nil
}

func buildUnits(specs []UnitSpec) ([]*types.Unit, error) {
	units := make([]*types.Unit, 0, len(specs))
	for _, spec := range specs {
		conf := spec.Conf
		if conf == "" && spec.TaskID != nil {
			encoded, err := unitconf.Encode(*spec.TaskID, nil)
			if err != nil {
				return nil, fmt.Errorf("unit %s: %w", spec.Name, err)
			}
			conf = encoded
		}
		units = append(units, &types.Unit{Name: spec.Name, Conf: conf})
	}
	return units, nil
}
