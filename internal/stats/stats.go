package stats

import (
	"math"

	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/packagewjx/energy-analyzer/pkg/core"
)

// Describe 计算一组样本的统计量。样本为空时全部为NaN，少于两个样本时标准差与变异系数为NaN，
// 均值为0时变异系数为NaN
func Describe(values []float64) core.DomainStatistics {
	n := len(values)
	if n == 0 {
		nan := math.NaN()
		return core.DomainStatistics{Mean: nan, Median: nan, Min: nan, Max: nan, Std: nan, Q25: nan, Q75: nan, CV: nan}
	}

	arr := make([]float64, n)
	copy(arr, values)

	sum := 0.0
	for _, v := range arr {
		sum += v
	}
	mean := sum / float64(n)

	std := math.NaN()
	if n > 1 {
		sq := 0.0
		for _, v := range arr {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	cv := math.NaN()
	if mean != 0 {
		cv = std / mean
	}

	return core.DomainStatistics{
		Count:  n,
		Mean:   mean,
		Median: utils.Quantile(arr, 0.5),
		Min:    utils.GetSortedPositionValue(arr, 0),
		Max:    utils.GetSortedPositionValue(arr, n-1),
		Std:    std,
		Q25:    utils.Quantile(arr, 0.25),
		Q75:    utils.Quantile(arr, 0.75),
		CV:     cv,
	}
}

type groupKey struct {
	node       string
	cluster    string
	task       string
	tool       core.Tool
	coreCount  int
	opsPerCore int
}

type group struct {
	stat  *core.EnergyStatistics
	pkg   []float64
	cores []float64
	ram   []float64
}

// Aggregate 按(节点, 任务, 核心数, 每核操作数)分组计算三个能耗域的统计量。
// 节点描述由(节点, 集群)唯一确定，直接随分组输出。输出顺序不保证
func Aggregate(obs []*core.EnergyObservation) []*core.EnergyStatistics {
	groups := make(map[groupKey]*group)
	for _, o := range obs {
		key := groupKey{
			node:       o.Node,
			cluster:    o.Cluster,
			task:       o.Task,
			tool:       o.Tool,
			coreCount:  o.CoreCount,
			opsPerCore: o.OpsPerCore,
		}
		g, ok := groups[key]
		if !ok {
			g = &group{stat: &core.EnergyStatistics{
				Node:       o.Node,
				Cluster:    o.Cluster,
				Task:       o.Task,
				Tool:       o.Tool,
				CoreCount:  o.CoreCount,
				OpsPerCore: o.OpsPerCore,
				Metadata:   o.Metadata,
			}}
			groups[key] = g
		}
		g.pkg = append(g.pkg, o.EnergyPkg)
		g.cores = append(g.cores, o.EnergyCores)
		g.ram = append(g.ram, o.EnergyRAM)
	}

	result := make([]*core.EnergyStatistics, 0, len(groups))
	for _, g := range groups {
		g.stat.Pkg = Describe(g.pkg)
		g.stat.Cores = Describe(g.cores)
		g.stat.RAM = Describe(g.ram)
		result = append(result, g.stat)
	}
	return result
}
