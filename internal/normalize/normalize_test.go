package normalize

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func node(uid, cluster string, firstCPUs ...int) *core.NodeMetadata {
	return &core.NodeMetadata{UID: uid, Cluster: cluster, NbCores: 16, NumaFirstCPUs: firstCPUs}
}

func hwpcRow(node string, timestamp float64, socket, cpu int, pkg int64) *core.RawObservation {
	return &core.RawObservation{
		Tool: core.HWPC, Task: "hwpc_alone", Cluster: "c", Node: node,
		CoreCount: 4, OpsPerCore: 1000, Iteration: 1,
		Timestamp: timestamp, Target: "rapl", Socket: socket, CPU: cpu, HasTopology: true,
		PkgTicks: pkg, RAMTicks: pkg / 2,
	}
}

func TestDecode(t *testing.T) {
	assert.Equal(t, 0.0, Decode(0))
	assert.Equal(t, 1.0, Decode(1<<32))
	assert.Equal(t, 100*math.Pow(2, -32), Decode(100))
	for i := 0; i < 1000; i++ {
		x := rand.Int63()
		assert.Equal(t, float64(x)*math.Pow(2, -32), Decode(x))
	}
	assert.Equal(t, float64(math.MaxInt64)*math.Pow(2, -32), Decode(math.MaxInt64))
}

func TestNewIndexDuplicate(t *testing.T) {
	_, err := NewIndex([]*core.NodeMetadata{node("n1", "c", 0), node("n2", "c", 0), node("n1", "c", 0)})
	var cardinality *CardinalityError
	assert.True(t, errors.As(err, &cardinality))
	assert.Equal(t, 2, cardinality.Count)

	idx, err := NewIndex([]*core.NodeMetadata{node("n1", "c", 0), node("n1", "d", 0)})
	assert.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Nil(t, idx.Lookup("n1", "e"))
}

func TestNUMADeduplication(t *testing.T) {
	idx, err := NewIndex([]*core.NodeMetadata{node("n1", "c", 0, 1)})
	assert.NoError(t, err)

	// 两个socket，CPU交错编号，每个socket的计数在8个CPU上重复
	raw := make([]*core.RawObservation, 0, 16)
	for cpu := 0; cpu < 16; cpu++ {
		socket := cpu % 2
		raw = append(raw, hwpcRow("n1", 1000, socket, cpu, int64(10+socket)))
	}

	n := &numaReconciler{}
	kept := 0
	for _, r := range raw {
		if isFirstCPU(r.CPU, idx.Lookup("n1", "c").NumaFirstCPUs) {
			kept++
		}
	}
	assert.Equal(t, 2, kept)

	obs, err := n.Reconcile(raw, idx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(obs))
	assert.Equal(t, Decode(21), obs[0].EnergyPkg)
	assert.Equal(t, Decode(10), obs[0].EnergyRAM)
	assert.Equal(t, 0.0, obs[0].EnergyCores)
}

func TestNUMADeduplicationSameSocket(t *testing.T) {
	// 顺序编号时CPU 0和1在同一个socket上，只保留编号较小的CPU
	idx, _ := NewIndex([]*core.NodeMetadata{node("n1", "c", 0, 1)})
	raw := []*core.RawObservation{
		hwpcRow("n1", 1000, 0, 1, 50),
		hwpcRow("n1", 1000, 0, 0, 50),
		hwpcRow("n1", 1000, 0, 2, 50),
	}
	obs, err := Normalize(idx, raw)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(obs))
	assert.Equal(t, Decode(50), obs[0].EnergyPkg)
}

func TestNUMASumsAcrossTimestamps(t *testing.T) {
	idx, _ := NewIndex([]*core.NodeMetadata{node("n1", "c", 0)})
	raw := make([]*core.RawObservation, 0)
	for ts := 0; ts < 4; ts++ {
		raw = append(raw, hwpcRow("n1", float64(ts), 0, 0, 1<<31))
		raw = append(raw, hwpcRow("n1", float64(ts), 0, 3, 1<<31))
	}
	second := hwpcRow("n1", 0, 0, 0, 1<<32)
	second.Iteration = 2
	raw = append(raw, second)

	obs, err := Normalize(idx, raw)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(obs))
	assert.Equal(t, 2.0, obs[0].EnergyPkg)
	assert.Equal(t, 1, obs[0].Iteration)
	assert.Equal(t, 1.0, obs[1].EnergyPkg)
	assert.Equal(t, 2, obs[1].Iteration)
}

func TestNUMAOverflow(t *testing.T) {
	idx, _ := NewIndex([]*core.NodeMetadata{node("n1", "c", 0)})
	raw := []*core.RawObservation{
		hwpcRow("n1", 0, 0, 0, math.MaxInt64),
		hwpcRow("n1", 1, 0, 0, 1),
	}
	_, err := Normalize(idx, raw)
	assert.Error(t, err)
}

func TestHWPCWithoutMetadataDropped(t *testing.T) {
	idx, _ := NewIndex(nil)
	obs, err := Normalize(idx, []*core.RawObservation{hwpcRow("n1", 0, 0, 0, 100)})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(obs))
}

func TestForObservations(t *testing.T) {
	assert.IsType(t, &numaReconciler{}, ForObservations([]*core.RawObservation{hwpcRow("n1", 0, 0, 0, 1)}))
	assert.IsType(t, &passthroughReconciler{}, ForObservations([]*core.RawObservation{{Tool: core.HWPC}}))
	assert.IsType(t, &passthroughReconciler{}, ForObservations(nil))

	// 其他按CPU报告的工具同样按NUMA节点去重
	idx, _ := NewIndex([]*core.NodeMetadata{node("n1", "c", 0)})
	raw := []*core.RawObservation{
		hwpcRow("n1", 1000, 0, 0, 1<<32),
		hwpcRow("n1", 1000, 0, 5, 1<<32),
	}
	for _, r := range raw {
		r.Tool = core.Scaphandre
		r.Task = "scaphandre_alone"
	}
	obs, err := Normalize(idx, raw)
	assert.NoError(t, err)
	if assert.Equal(t, 1, len(obs)) {
		assert.Equal(t, core.Scaphandre, obs[0].Tool)
		assert.Equal(t, 1.0, obs[0].EnergyPkg)
	}
}

func TestPassthroughLeftJoin(t *testing.T) {
	idx, _ := NewIndex([]*core.NodeMetadata{node("n1", "c", 0)})
	raw := []*core.RawObservation{
		{Tool: core.CodeCarbon, Task: "codecarbon_alone", Cluster: "c", Node: "n1", Iteration: 1, Pkg: 3600000, RAM: 10},
		{Tool: core.CodeCarbon, Task: "codecarbon_alone", Cluster: "c", Node: "n9", Iteration: 1, Pkg: 1},
	}
	obs, err := Normalize(idx, raw)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(obs))
	assert.Equal(t, 3600000.0, obs[0].EnergyPkg)
	assert.Equal(t, 0.0, obs[0].EnergyCores)
	assert.NotNil(t, obs[0].Metadata)
	assert.Nil(t, obs[1].Metadata)
}

func TestNormalizeEndToEnd(t *testing.T) {
	idx, err := NewIndex([]*core.NodeMetadata{node("n1", "c", 0)})
	assert.NoError(t, err)

	raw := []*core.RawObservation{
		hwpcRow("n1", 1000, 0, 0, 100),
		hwpcRow("n1", 1000, 0, 1, 100),
		hwpcRow("n1", 1000, 0, 2, 100),
		{Tool: core.Perf, Task: "perf_alone", Cluster: "c", Node: "n1", CoreCount: 4, OpsPerCore: 1000,
			Iteration: 1, Pkg: 0.00000002, TimeElapsed: 1},
	}
	n := NewNormalizer(idx)
	assert.NoError(t, n.Add(raw[:3]))
	assert.NoError(t, n.Add(raw[3:]))
	obs := n.Result()
	sort.Slice(obs, func(i, j int) bool {
		return obs[i].Tool < obs[j].Tool
	})
	assert.Equal(t, 2, len(obs))
	assert.Equal(t, core.HWPC, obs[0].Tool)
	assert.Equal(t, 100*math.Pow(2, -32), obs[0].EnergyPkg)
	assert.Equal(t, core.Perf, obs[1].Tool)
	assert.Equal(t, 0.00000002, obs[1].EnergyPkg)
	assert.Equal(t, obs[0].Metadata, obs[1].Metadata)
}
