package normalize

import (
	"fmt"
	"math"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	log "github.com/sirupsen/logrus"
)

// numaReconciler 按CPU报告的工具（如hwpc）在每个CPU上都会报告所在socket的RAPL计数。每个(时间戳, target, socket)
// 只保留NUMA节点第一个CPU的记录，然后在整数上求和，最后一次性转换为焦耳
type numaReconciler struct {
}

type sampleKey struct {
	config    configKey
	timestamp float64
	target    string
	socket    int
}

type ticks struct {
	pkg   int64
	cores int64
	ram   int64
}

func (n *numaReconciler) Reconcile(raw []*core.RawObservation, index *Index) ([]*core.EnergyObservation, error) {
	kept := make(map[sampleKey]*core.RawObservation)
	keptOrder := make([]sampleKey, 0)
	missing := make(map[nodeKey]bool)

	for _, r := range raw {
		metadata := index.Lookup(r.Node, r.Cluster)
		if metadata == nil {
			key := nodeKey{node: r.Node, cluster: r.Cluster}
			if !missing[key] {
				log.WithField("node", r.Node).WithField("cluster", r.Cluster).
					Warnf("no node metadata, %s per-cpu rows cannot be deduplicated and are dropped", r.Tool)
				missing[key] = true
			}
			continue
		}
		if !r.HasTopology || !isFirstCPU(r.CPU, metadata.NumaFirstCPUs) {
			continue
		}

		key := sampleKey{config: configKeyOf(r), timestamp: r.Timestamp, target: r.Target, socket: r.Socket}
		prev, ok := kept[key]
		if !ok {
			keptOrder = append(keptOrder, key)
			kept[key] = r
		} else if r.CPU < prev.CPU {
			kept[key] = r
		}
	}

	sums := make(map[configKey]*ticks)
	order := make([]configKey, 0)
	for _, key := range keptOrder {
		r := kept[key]
		s, ok := sums[key.config]
		if !ok {
			s = &ticks{}
			sums[key.config] = s
			order = append(order, key.config)
		}
		var err error
		if s.pkg, err = addTicks(s.pkg, r.PkgTicks); err != nil {
			return nil, err
		}
		if s.cores, err = addTicks(s.cores, r.CoresTicks); err != nil {
			return nil, err
		}
		if s.ram, err = addTicks(s.ram, r.RAMTicks); err != nil {
			return nil, err
		}
	}

	result := make([]*core.EnergyObservation, 0, len(order))
	for _, key := range order {
		s := sums[key]
		o := key.observation(index.Lookup(key.node, key.cluster))
		o.EnergyPkg = Decode(s.pkg)
		o.EnergyCores = Decode(s.cores)
		o.EnergyRAM = Decode(s.ram)
		result = append(result, o)
	}
	return result, nil
}

func isFirstCPU(cpu int, firstCPUs []int) bool {
	for _, c := range firstCPUs {
		if c == cpu {
			return true
		}
	}
	return false
}

func addTicks(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("tick sum overflows: %d + %d", a, b)
	}
	return a + b, nil
}
