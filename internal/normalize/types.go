package normalize

import (
	"fmt"
	"math"

	"github.com/packagewjx/energy-analyzer/pkg/core"
)

// Decode 把RAPL的32.32定点计数转换为焦耳
func Decode(ticks int64) float64 {
	return math.Ldexp(float64(ticks), -32)
}

// CardinalityError 连接键不满足预期的对应关系
type CardinalityError struct {
	Relation string
	Key      string
	Count    int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s: key %s appears %d times, expected at most once", e.Relation, e.Key, e.Count)
}

type nodeKey struct {
	node    string
	cluster string
}

// Index 以(节点, 集群)为键的节点信息
type Index struct {
	nodes map[nodeKey]*core.NodeMetadata
}

// NewIndex 节点信息中同一个(节点, 集群)出现多次时返回CardinalityError
func NewIndex(metadata []*core.NodeMetadata) (*Index, error) {
	idx := &Index{nodes: make(map[nodeKey]*core.NodeMetadata, len(metadata))}
	counts := make(map[nodeKey]int)
	for _, m := range metadata {
		key := nodeKey{node: m.UID, cluster: m.Cluster}
		counts[key]++
		if counts[key] > 1 {
			return nil, &CardinalityError{
				Relation: "node metadata",
				Key:      fmt.Sprintf("(%s, %s)", m.UID, m.Cluster),
				Count:    counts[key],
			}
		}
		idx.nodes[key] = m
	}
	return idx, nil
}

// Lookup 没有对应的节点信息时返回nil
func (i *Index) Lookup(node, cluster string) *core.NodeMetadata {
	if i == nil {
		return nil
	}
	return i.nodes[nodeKey{node: node, cluster: cluster}]
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.nodes)
}

// Reconciler 把一个工具的原始记录转换为统一模式
type Reconciler interface {
	Reconcile(raw []*core.RawObservation, index *Index) ([]*core.EnergyObservation, error)
}

// ForObservations 按记录报告的粒度选择Reconciler：带有socket与CPU的记录需要按NUMA节点去重，
// 其他记录已经是一次运行的能耗
func ForObservations(raw []*core.RawObservation) Reconciler {
	for _, r := range raw {
		if r.HasTopology {
			return &numaReconciler{}
		}
	}
	return &passthroughReconciler{}
}

// configKey 一次运行的配置，能耗按此汇总
type configKey struct {
	tool       core.Tool
	task       string
	site       string
	cluster    string
	node       string
	coreCount  int
	opsPerCore int
	iteration  int
}

func configKeyOf(r *core.RawObservation) configKey {
	return configKey{
		tool:       r.Tool,
		task:       r.Task,
		site:       r.Site,
		cluster:    r.Cluster,
		node:       r.Node,
		coreCount:  r.CoreCount,
		opsPerCore: r.OpsPerCore,
		iteration:  r.Iteration,
	}
}

func (k configKey) observation(metadata *core.NodeMetadata) *core.EnergyObservation {
	return &core.EnergyObservation{
		Tool:       k.tool,
		Task:       k.task,
		Site:       k.site,
		Cluster:    k.cluster,
		Node:       k.node,
		CoreCount:  k.coreCount,
		OpsPerCore: k.opsPerCore,
		Iteration:  k.iteration,
		Metadata:   metadata,
	}
}
