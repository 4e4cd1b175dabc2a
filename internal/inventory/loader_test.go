package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const nodeTemplate = `{
  "uid": %q,
  "cluster": %q,
  "exotic": false,
  "architecture": {"nb_cores": 16, "nb_threads": 32},
  "processor": {
    "vendor": "Intel",
    "clock_speed": 2200000000,
    "instruction_set": "x86-64",
    "ht_capable": true,
    "microarchitecture": "Cascade Lake-SP",
    "microcode": "0x5003302",
    "model": "Intel Xeon",
    "version": %q
  },
  "operating_system": {
    "cstate_driver": "intel_idle",
    "cstate_governor": "menu",
    "pstate_driver": "intel_pstate",
    "pstate_governor": "performance",
    "turboboost_enabled": true
  }
}`

func writeNode(t *testing.T, dir, site, cluster, uid, version string) {
	path := filepath.Join(dir, site, cluster, uid+".json")
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(nodeTemplate, uid, cluster, version)), 0644))
}

func TestDefaultReferenceTable(t *testing.T) {
	table := DefaultReferenceTable()
	p, ok := table.Lookup("Gold 5220")
	assert.True(t, ok)
	assert.Equal(t, "Cascade Lake-SP", p.Architecture)
	assert.Equal(t, []int{0}, p.NumaNodesFirstCPUs)

	p, ok = table.Lookup("7301")
	assert.True(t, ok)
	assert.Equal(t, "AMD", p.Vendor)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, p.NumaNodesFirstCPUs)

	_, ok = table.Lookup("Platinum 9999")
	assert.False(t, ok)
}

func TestParseReferenceTable(t *testing.T) {
	table, err := ParseReferenceTable([]byte("processors:\n  X1:\n    architecture: Test\n    vendor: Acme\n    generation: 2\n    numa_nodes_first_cpus: [0, 4]\n"))
	assert.NoError(t, err)
	p, ok := table.Lookup("X1")
	assert.True(t, ok)
	assert.Equal(t, []int{0, 4}, p.NumaNodesFirstCPUs)

	_, err = ParseReferenceTable([]byte("processors:\n  X1:\n    architecture: Test\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "lyon", "taurus", "taurus-1", "E5-2630")
	writeNode(t, dir, "nancy", "gros", "gros-1", "Gold 5220")

	nodes, err := Load(dir, DefaultReferenceTable())
	assert.NoError(t, err)
	assert.Equal(t, 2, len(nodes))

	byUID := make(map[string]int)
	for i, n := range nodes {
		byUID[n.UID] = i
	}
	gros := nodes[byUID["gros-1"]]
	assert.Equal(t, "gros", gros.Cluster)
	assert.Equal(t, "nancy", gros.Site)
	assert.Equal(t, 16, gros.NbCores)
	assert.Equal(t, int64(2200000000), gros.Processor.ClockSpeed)
	assert.True(t, gros.Processor.HTCapable)
	assert.True(t, gros.OS.TurboBoostEnabled)
	assert.Equal(t, "Gold 5220\nCascade Lake-SP", gros.ProcessorDetail)
	assert.Equal(t, 10, gros.Generation)
	assert.Equal(t, []int{0}, gros.NumaFirstCPUs)

	taurus := nodes[byUID["taurus-1"]]
	assert.Equal(t, "Sandy Bridge-EP", taurus.Architecture)
	assert.Equal(t, []int{0, 1}, taurus.NumaFirstCPUs)

	summary := Summarize(nodes)
	assert.Equal(t, 2, len(summary))
	assert.Equal(t, "gros", summary[0].Cluster)
	assert.Equal(t, 16, summary[0].TotalCores)
}

func TestLoadUnknownProcessor(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "lyon", "taurus", "taurus-1", "Platinum 9999")

	_, err := Load(dir, DefaultReferenceTable())
	var unknown *UnknownProcessorError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Platinum 9999", unknown.Model)
}

func TestParseNodeMissingField(t *testing.T) {
	_, err := ParseNode("n.json", []byte(`{"uid": "n", "cluster": "c"}`), DefaultReferenceTable())
	var missing *MissingFieldError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "exotic", missing.Field)

	_, err = ParseNode("n.json", []byte(`{"uid": `), DefaultReferenceTable())
	assert.Error(t, err)
}
