package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/stretchr/testify/assert"
)

func touch(t *testing.T, root string, parts ...string) string {
	path := filepath.Join(append([]string{root}, parts...)...)
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.NoError(t, os.WriteFile(path, []byte("a\n"), 0644))
	return path
}

func TestClassify(t *testing.T) {
	root := "/data/batch"
	f, err := Classify(root, "/data/batch/lyon/taurus/taurus-1/hwpc_alone_4_1000.csv")
	assert.NoError(t, err)
	assert.Equal(t, Consumption, f.Kind)
	assert.Equal(t, core.HWPC, f.Tool)
	assert.Equal(t, "lyon", f.Site)
	assert.Equal(t, "taurus", f.Cluster)
	assert.Equal(t, "taurus-1", f.Node)
	assert.Equal(t, "hwpc_alone", f.Task)
	assert.Equal(t, 4, f.CoreCount)
	assert.Equal(t, 1000, f.OpsPerCore)

	f, err = Classify(root, "/data/batch/lyon/taurus/taurus-1/perf_and_hwpc_32_25000.csv")
	assert.NoError(t, err)
	assert.Equal(t, core.Perf, f.Tool)
	assert.Equal(t, "perf_and_hwpc", f.Task)

	f, err = Classify(root, "/data/batch/lyon/taurus/taurus-1/frequency_100_codecarbon_and_perf.csv")
	assert.NoError(t, err)
	assert.Equal(t, Frequency, f.Kind)
	assert.Equal(t, core.CodeCarbon, f.Tool)
	assert.Equal(t, core.Perf, f.CoTool)
	assert.Equal(t, 100, f.TargetFrequency)
	assert.Equal(t, "taurus", f.Cluster)

	f, err = Classify(root, "/data/batch/taurus-3/temperatures_frequency_10_perf_and_alumet.csv")
	assert.NoError(t, err)
	assert.Equal(t, Temperature, f.Kind)
	assert.Equal(t, core.Alumet, f.Tool)
	assert.Equal(t, "taurus-3", f.Node)
	assert.Equal(t, "taurus", f.Cluster)
	assert.Equal(t, 10, f.TargetFrequency)

	for _, path := range []string{
		"/data/batch/lyon/taurus/taurus-1/unknown_alone_4_1000.csv",
		"/data/batch/lyon/taurus/hwpc_alone_4_1000.csv",
		"/data/batch/lyon/taurus/taurus-1/extra/hwpc_alone_4_1000.csv",
		"/data/batch/lyon/taurus/taurus-1/perf_and_alumet_4_1000_temperatures.csv",
		"/data/batch/lyon/taurus/taurus-1/baseline_consumption.csv",
		"/data/batch/lyon/taurus/taurus-1/frequency_x_hwpc_and_perf.csv",
	} {
		_, err = Classify(root, path)
		assert.Equal(t, ErrUnrecognized, err, path)
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "lyon", "taurus", "taurus-1", "hwpc_alone_4_1000.csv")
	touch(t, root, "lyon", "taurus", "taurus-1", "perf_alone_4_1000.csv")
	touch(t, root, "lyon", "taurus", "taurus-2", "codecarbon_alone_8_1000.csv")
	touch(t, root, "lyon", "taurus", "taurus-2", "frequency_1_hwpc_and_perf.csv")
	touch(t, root, "lyon", "taurus", "taurus-2", "temperatures_frequency_1_perf_and_hwpc.csv")
	touch(t, root, "lyon", "taurus", "taurus-2", "notes.csv")
	touch(t, root, "lyon", "taurus", "taurus-2", "README.md")

	c, err := Walk(root)
	assert.NoError(t, err)
	assert.Equal(t, 5, len(c.Files()))
	assert.Equal(t, 1, len(c.Skipped()))
	assert.Equal(t, 1, len(c.Consumption(core.HWPC)))
	assert.Equal(t, 3, len(c.Consumption("")))
	assert.Equal(t, 1, len(c.Frequency(core.HWPC)))
	assert.Equal(t, 0, len(c.Frequency(core.Perf)))
	assert.Equal(t, 1, len(c.Temperatures()))

	_, err = Walk(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
