package inventory

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed processors.yaml
var defaultReferenceTable []byte

// ProcessorReference 处理器型号的补充信息
type ProcessorReference struct {
	Architecture       string `yaml:"architecture"`
	Vendor             string `yaml:"vendor"`
	Generation         int    `yaml:"generation"`
	LaunchDate         string `yaml:"launch_date"`
	NumaNodesNumber    int    `yaml:"numa_nodes_number"`
	NumaNodesFirstCPUs []int  `yaml:"numa_nodes_first_cpus"`
}

// ReferenceTable 以处理器型号（inventory中processor.version的值）为键
type ReferenceTable struct {
	Processors map[string]*ProcessorReference `yaml:"processors"`
}

func (r *ReferenceTable) Lookup(model string) (*ProcessorReference, bool) {
	p, ok := r.Processors[model]
	return p, ok
}

func ParseReferenceTable(data []byte) (*ReferenceTable, error) {
	table := &ReferenceTable{}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, errors.Wrap(err, "error decoding processor reference table")
	}
	for model, p := range table.Processors {
		if p == nil || len(p.NumaNodesFirstCPUs) == 0 {
			return nil, fmt.Errorf("processor %q has no numa_nodes_first_cpus", model)
		}
	}
	return table, nil
}

func LoadReferenceTable(path string) (*ReferenceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading processor reference table %s", path)
	}
	return ParseReferenceTable(data)
}

// DefaultReferenceTable 内置的处理器表，覆盖Grid'5000上出现过的型号
func DefaultReferenceTable() *ReferenceTable {
	table, err := ParseReferenceTable(defaultReferenceTable)
	if err != nil {
		panic(err)
	}
	return table
}
