package stats

import (
	"math"
	"sort"
	"testing"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	s := Describe(values)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, math.Sqrt(5.0/3), s.Std, 1e-12)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3)/2.5, s.CV, 1e-12)
	// 输入不被修改
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}

func TestDescribeConstantGroup(t *testing.T) {
	s := Describe([]float64{5, 5, 5, 5})
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 0.0, s.Std)
	assert.Equal(t, 0.0, s.CV)
}

func TestDescribeZeroMean(t *testing.T) {
	s := Describe([]float64{0, 0, 0})
	assert.Equal(t, 0.0, s.Mean)
	assert.True(t, math.IsNaN(s.CV))

	s = Describe([]float64{-1, 1})
	assert.Equal(t, 0.0, s.Mean)
	assert.False(t, math.IsInf(s.CV, 0))
	assert.True(t, math.IsNaN(s.CV))
}

func TestDescribeSmallSamples(t *testing.T) {
	s := Describe([]float64{7})
	assert.Equal(t, 7.0, s.Median)
	assert.Equal(t, 7.0, s.Q25)
	assert.True(t, math.IsNaN(s.Std))
	assert.True(t, math.IsNaN(s.CV))

	s = Describe(nil)
	assert.Equal(t, 0, s.Count)
	assert.True(t, math.IsNaN(s.Mean))
}

func TestAggregate(t *testing.T) {
	meta := &core.NodeMetadata{UID: "n1", Cluster: "c", NbCores: 16}
	obs := make([]*core.EnergyObservation, 0)
	for i := 1; i <= 4; i++ {
		obs = append(obs, &core.EnergyObservation{
			Tool: core.HWPC, Task: "hwpc_alone", Cluster: "c", Node: "n1", CoreCount: 4, OpsPerCore: 1000,
			Iteration: i, EnergyPkg: float64(i), EnergyRAM: 5, Metadata: meta,
		})
		obs = append(obs, &core.EnergyObservation{
			Tool: core.HWPC, Task: "hwpc_alone", Cluster: "c", Node: "n1", CoreCount: 8, OpsPerCore: 1000,
			Iteration: i, EnergyPkg: 10, Metadata: meta,
		})
	}
	obs = append(obs, &core.EnergyObservation{
		Tool: core.Perf, Task: "perf_alone", Cluster: "c", Node: "n1", CoreCount: 4, OpsPerCore: 1000,
		Iteration: 1, EnergyPkg: 3, Metadata: meta,
	})

	result := Aggregate(obs)
	assert.Equal(t, 3, len(result))
	sort.Slice(result, func(i, j int) bool {
		if result[i].Tool != result[j].Tool {
			return result[i].Tool < result[j].Tool
		}
		return result[i].CoreCount < result[j].CoreCount
	})

	assert.Equal(t, 4, result[0].CoreCount)
	assert.Equal(t, 4, result[0].Pkg.Count)
	assert.Equal(t, 2.5, result[0].Pkg.Mean)
	assert.Equal(t, 0.0, result[0].RAM.CV)
	assert.True(t, math.IsNaN(result[0].Cores.CV))
	assert.Equal(t, meta, result[0].Metadata)

	assert.Equal(t, 8, result[1].CoreCount)
	assert.Equal(t, 0.0, result[1].Pkg.CV)

	assert.Equal(t, core.Perf, result[2].Tool)
	assert.Equal(t, 1, result[2].Pkg.Count)
}

func TestUtilizationBand(t *testing.T) {
	assert.Equal(t, Band(10), UtilizationBand(0, 32))
	assert.Equal(t, Band(10), UtilizationBand(3, 32))
	assert.Equal(t, Band(25), UtilizationBand(1, 10))
	assert.Equal(t, Band(50), UtilizationBand(8, 32))
	assert.Equal(t, Band(75), UtilizationBand(16, 32))
	assert.Equal(t, Band(90), UtilizationBand(24, 32))
	assert.Equal(t, Band(100), UtilizationBand(9, 10))
	assert.Equal(t, Band(110), UtilizationBand(32, 32))
	assert.Equal(t, BandUncategorized, UtilizationBand(11, 10))
	assert.Equal(t, BandUncategorized, UtilizationBand(64, 32))
	assert.Equal(t, BandUncategorized, UtilizationBand(4, 0))
	assert.Equal(t, "uncategorized", BandUncategorized.String())
	assert.Equal(t, "50%", Band(50).String())
}
