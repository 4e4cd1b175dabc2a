package frequency

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/internal/normalize"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func sample(tool core.Tool, target, iteration int, timestamp float64) *core.RawObservation {
	return &core.RawObservation{Tool: tool, Node: "n1", Cluster: "c", TargetFrequency: target,
		Iteration: iteration, Timestamp: timestamp}
}

func TestReachedMilliseconds(t *testing.T) {
	obs := make([]*core.RawObservation, 0)
	for ts := 4; ts >= 0; ts-- {
		obs = append(obs, sample(core.HWPC, 1000, 1, float64(ts)))
		// 同一时间戳在另一个CPU上的重复记录
		obs = append(obs, sample(core.HWPC, 1000, 1, float64(ts)))
	}
	samples := Samples(obs)
	assert.Equal(t, 1, len(samples))
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, samples[0].Timestamps)

	reached := Reached(samples, core.Milliseconds)
	assert.Equal(t, 4, len(reached))
	for _, r := range reached {
		assert.Equal(t, 1000.0, r.Reached)
	}

	summary := Summarize(reached)
	assert.Equal(t, 1, len(summary))
	assert.Equal(t, 4, summary[0].Count)
	assert.InDelta(t, 1.0, summary[0].MedianRatio, 1e-9)
	assert.Equal(t, 1000.0, summary[0].MedianReached)
}

func TestReachedSeconds(t *testing.T) {
	obs := []*core.RawObservation{
		sample(core.CodeCarbon, 10, 1, 100.0),
		sample(core.CodeCarbon, 10, 1, 100.1),
		sample(core.CodeCarbon, 10, 1, 100.3),
		sample(core.CodeCarbon, 10, 2, 200.0),
	}
	reached := Reached(Samples(obs), core.Seconds)
	assert.Equal(t, 2, len(reached))
	assert.InDelta(t, 10.0, reached[0].Reached, 1e-6)
	assert.InDelta(t, 5.0, reached[1].Reached, 1e-6)
	assert.Equal(t, 1, reached[0].Iteration)

	summary := Summarize(reached)
	assert.InDelta(t, 0.75, summary[0].MedianRatio, 1e-6)
}

func TestBucket(t *testing.T) {
	lower, label := Bucket(47)
	assert.Equal(t, 45, lower)
	assert.Equal(t, "45-49°C", label)
	lower, label = Bucket(50)
	assert.Equal(t, 50, lower)
	assert.Equal(t, "50-54°C", label)
	lower, _ = Bucket(-3)
	assert.Equal(t, -5, lower)
}

func TestReadTemperatures(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "taurus-1", "temperatures_frequency_10_perf_and_hwpc.csv")
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.NoError(t, os.WriteFile(path, []byte("iteration,temperature_start,temperature_stop\n1,44,49\n2,40,41\n"), 0644))
	f, err := catalog.Classify(root, path)
	assert.NoError(t, err)

	temps, err := ReadTemperatures(f)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(temps))
	assert.Equal(t, 46, temps[0].Average)
	assert.Equal(t, 40, temps[1].Average)
	assert.Equal(t, core.HWPC, temps[0].Tool)
	assert.Equal(t, 10, temps[0].TargetFrequency)
}

func TestLoadTemperaturesSkipsUnreadable(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "taurus-1", "temperatures_frequency_10_perf_and_hwpc.csv")
	bad := filepath.Join(root, "taurus-1", "temperatures_frequency_10_perf_and_vjoule.csv")
	assert.NoError(t, os.MkdirAll(filepath.Dir(good), 0755))
	assert.NoError(t, os.WriteFile(good, []byte("iteration,temperature_start,temperature_stop\n1,44,49\n"), 0644))
	// 缺少temperature_stop列
	assert.NoError(t, os.WriteFile(bad, []byte("iteration,temperature_start\n1,44\n"), 0644))

	files := make([]*catalog.File, 0)
	for _, path := range []string{good, bad} {
		f, err := catalog.Classify(root, path)
		assert.NoError(t, err)
		files = append(files, f)
	}
	_, err := ReadTemperatures(files[1])
	assert.Error(t, err)

	temps := LoadTemperatures(files)
	assert.Equal(t, 1, len(temps))
	assert.Equal(t, core.HWPC, temps[0].Tool)
	assert.Equal(t, 46, temps[0].Average)
}

func overheadRow(iteration int, pkg float64) *core.RawObservation {
	return &core.RawObservation{Tool: core.Perf, CoTool: core.HWPC, Node: "n1", Cluster: "c",
		TargetFrequency: 10, Iteration: iteration, Pkg: pkg, TimeElapsed: 1}
}

func TestAttributeTemperatures(t *testing.T) {
	temps := []*Temperature{
		{Tool: core.HWPC, Node: "n1", TargetFrequency: 10, Iteration: 1, Average: 46},
		{Tool: core.HWPC, Node: "n1", TargetFrequency: 10, Iteration: 2, Average: 48},
		{Tool: core.HWPC, Node: "n1", TargetFrequency: 100, Iteration: 1, Average: 60},
	}
	overhead, err := AttributeTemperatures([]*core.RawObservation{
		overheadRow(1, 10), overheadRow(2, 20), overheadRow(3, 30),
	}, temps)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(overhead))
	assert.Equal(t, core.HWPC, overhead[0].Tool)
	assert.Equal(t, "45-49°C", overhead[0].TemperatureRange)
	assert.Equal(t, 45, overhead[1].TemperatureBucket)
	assert.True(t, math.IsNaN(overhead[2].AverageTemperature))
	assert.Equal(t, "", overhead[2].TemperatureRange)

	strata := Stratify(overhead)
	assert.Equal(t, 1, len(strata))
	assert.Equal(t, 2, strata[0].Pkg.Count)
	assert.Equal(t, 15.0, strata[0].Pkg.Mean)
}

func TestStratifyByCluster(t *testing.T) {
	temps := []*Temperature{
		{Tool: core.HWPC, Node: "gros-1", TargetFrequency: 10, Iteration: 1, Average: 46},
		{Tool: core.HWPC, Node: "taurus-1", TargetFrequency: 10, Iteration: 1, Average: 47},
	}
	gros := overheadRow(1, 10)
	gros.Node, gros.Cluster = "gros-1", "gros"
	taurus := overheadRow(1, 100)
	taurus.Node, taurus.Cluster = "taurus-1", "taurus"

	overhead, err := AttributeTemperatures([]*core.RawObservation{taurus, gros}, temps)
	assert.NoError(t, err)
	strata := Stratify(overhead)
	assert.Equal(t, 2, len(strata))
	assert.Equal(t, "gros", strata[0].Cluster)
	assert.Equal(t, 10.0, strata[0].Pkg.Mean)
	assert.Equal(t, "taurus", strata[1].Cluster)
	assert.Equal(t, 100.0, strata[1].Pkg.Mean)
	for _, s := range strata {
		assert.Equal(t, 1, s.Pkg.Count)
		assert.Equal(t, "45-49°C", s.TemperatureRange)
	}
}

func TestAttributeTemperaturesCardinality(t *testing.T) {
	temps := []*Temperature{
		{Tool: core.HWPC, Node: "n1", TargetFrequency: 10, Iteration: 1, Average: 46},
		{Tool: core.HWPC, Node: "n1", TargetFrequency: 10, Iteration: 1, Average: 47},
	}
	_, err := AttributeTemperatures([]*core.RawObservation{overheadRow(1, 10)}, temps)
	var cardinality *normalize.CardinalityError
	assert.True(t, errors.As(err, &cardinality))

	_, err = AttributeTemperatures([]*core.RawObservation{overheadRow(1, 10), overheadRow(1, 11)}, temps[:1])
	assert.True(t, errors.As(err, &cardinality))
}
