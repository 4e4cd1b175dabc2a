package normalize

import (
	"github.com/packagewjx/energy-analyzer/pkg/core"
)

type passthroughReconciler struct {
}

// Reconcile 每条记录对应一条统一记录，没有节点信息时Metadata为nil
func (p *passthroughReconciler) Reconcile(raw []*core.RawObservation, index *Index) ([]*core.EnergyObservation, error) {
	result := make([]*core.EnergyObservation, len(raw))
	for i, r := range raw {
		o := configKeyOf(r).observation(index.Lookup(r.Node, r.Cluster))
		o.EnergyPkg = r.Pkg
		o.EnergyCores = r.Cores
		o.EnergyRAM = r.RAM
		result[i] = o
	}
	return result, nil
}

// Normalizer 逐个文件累积统一记录
type Normalizer struct {
	index  *Index
	result []*core.EnergyObservation
}

func NewNormalizer(index *Index) *Normalizer {
	return &Normalizer{index: index, result: make([]*core.EnergyObservation, 0)}
}

// Add 归一化一批原始记录。记录可以来自不同工具，每个工具的记录分别选择Reconciler
func (n *Normalizer) Add(raw []*core.RawObservation) error {
	byTool := make(map[core.Tool][]*core.RawObservation)
	order := make([]core.Tool, 0)
	for _, r := range raw {
		if _, ok := byTool[r.Tool]; !ok {
			order = append(order, r.Tool)
		}
		byTool[r.Tool] = append(byTool[r.Tool], r)
	}

	for _, tool := range order {
		obs, err := ForObservations(byTool[tool]).Reconcile(byTool[tool], n.index)
		if err != nil {
			return err
		}
		n.result = append(n.result, obs...)
	}
	return nil
}

func (n *Normalizer) Result() []*core.EnergyObservation {
	return n.result
}

// Normalize 把所有原始记录连接节点信息并转换为统一模式
func Normalize(index *Index, raw []*core.RawObservation) ([]*core.EnergyObservation, error) {
	n := NewNormalizer(index)
	if err := n.Add(raw); err != nil {
		return nil, err
	}
	return n.Result(), nil
}
