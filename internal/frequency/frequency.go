package frequency

import (
	"sort"

	"github.com/packagewjx/energy-analyzer/internal/stats"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	log "github.com/sirupsen/logrus"
)

// Targets 频率实验中使用的目标采样频率(Hz)
var Targets = []int{1, 10, 100, 1000}

type sampleKey struct {
	tool      core.Tool
	node      string
	cluster   string
	target    int
	iteration int
}

// Samples 按(工具, 节点, 目标频率, 迭代)收集时间戳，时间戳排序并去重。
// hwpc每个时间戳会在多个CPU上各报告一次，去重后不会出现长度为0的间隔
func Samples(obs []*core.RawObservation) []*core.FrequencySample {
	m := make(map[sampleKey]*core.FrequencySample)
	for _, o := range obs {
		key := sampleKey{tool: o.Tool, node: o.Node, cluster: o.Cluster, target: o.TargetFrequency, iteration: o.Iteration}
		s, ok := m[key]
		if !ok {
			s = &core.FrequencySample{
				Tool:            o.Tool,
				Node:            o.Node,
				Cluster:         o.Cluster,
				TargetFrequency: o.TargetFrequency,
				Iteration:       o.Iteration,
			}
			m[key] = s
		}
		s.Timestamps = append(s.Timestamps, o.Timestamp)
	}

	result := make([]*core.FrequencySample, 0, len(m))
	for _, s := range m {
		sort.Float64s(s.Timestamps)
		s.Timestamps = unique(s.Timestamps)
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Tool != b.Tool {
			return a.Tool < b.Tool
		}
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.TargetFrequency != b.TargetFrequency {
			return a.TargetFrequency < b.TargetFrequency
		}
		return a.Iteration < b.Iteration
	})
	return result
}

func unique(sorted []float64) []float64 {
	if len(sorted) == 0 {
		return sorted
	}
	result := sorted[:1]
	for _, v := range sorted[1:] {
		if v != result[len(result)-1] {
			result = append(result, v)
		}
	}
	return result
}

// Reached 把相邻时间戳的间隔转换为达到的频率。少于两个时间戳的样本被跳过
func Reached(samples []*core.FrequencySample, unit core.TimeUnit) []*core.ReachedFrequency {
	result := make([]*core.ReachedFrequency, 0)
	for _, s := range samples {
		if len(s.Timestamps) < 2 {
			log.WithField("tool", s.Tool).WithField("node", s.Node).
				Debugf("iteration %d at %d Hz has fewer than 2 samples, skipped", s.Iteration, s.TargetFrequency)
			continue
		}
		for i := 1; i < len(s.Timestamps); i++ {
			delta := s.Timestamps[i] - s.Timestamps[i-1]
			result = append(result, &core.ReachedFrequency{
				Tool:            s.Tool,
				Node:            s.Node,
				Cluster:         s.Cluster,
				TargetFrequency: s.TargetFrequency,
				Iteration:       s.Iteration,
				Reached:         unit.PerSecond() / delta,
			})
		}
	}
	return result
}

type Summary struct {
	Tool            core.Tool
	TargetFrequency int
	Count           int
	MedianReached   float64
	MedianRatio     float64
}

// Summarize 每个(工具, 目标频率)达到频率的中位数，以及达到频率与目标频率之比的中位数
func Summarize(reached []*core.ReachedFrequency) []*Summary {
	type key struct {
		tool   core.Tool
		target int
	}
	values := make(map[key][]float64)
	for _, r := range reached {
		k := key{tool: r.Tool, target: r.TargetFrequency}
		values[k] = append(values[k], r.Reached)
	}

	result := make([]*Summary, 0, len(values))
	for k, v := range values {
		ratios := make([]float64, len(v))
		for i, f := range v {
			ratios[i] = f / float64(k.target)
		}
		result = append(result, &Summary{
			Tool:            k.tool,
			TargetFrequency: k.target,
			Count:           len(v),
			MedianReached:   stats.Describe(v).Median,
			MedianRatio:     stats.Describe(ratios).Median,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Tool != result[j].Tool {
			return result[i].Tool < result[j].Tool
		}
		return result[i].TargetFrequency < result[j].TargetFrequency
	})
	return result
}
