package inventory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// MissingFieldError 节点描述文件缺少必需字段
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field %q is missing", e.Path, e.Field)
}

// UnknownProcessorError 处理器型号不在参考表中
type UnknownProcessorError struct {
	Node  string
	Model string
}

func (e *UnknownProcessorError) Error() string {
	return fmt.Sprintf("node %s: processor %q is not in the reference table", e.Node, e.Model)
}

var requiredFields = []string{
	"uid",
	"cluster",
	"exotic",
	"architecture.nb_cores",
	"architecture.nb_threads",
	"processor.vendor",
	"processor.clock_speed",
	"processor.instruction_set",
	"processor.ht_capable",
	"processor.microarchitecture",
	"processor.microcode",
	"processor.model",
	"processor.version",
	"operating_system.cstate_driver",
	"operating_system.cstate_governor",
	"operating_system.pstate_driver",
	"operating_system.pstate_governor",
	"operating_system.turboboost_enabled",
}

// Load 读取dir下<site>/<cluster>/<node>.json格式的节点描述，并用table补充处理器信息。
// 任何文件缺少必需字段或处理器型号未知都会返回错误
func Load(dir string, table *ReferenceTable) ([]*core.NodeMetadata, error) {
	result := make([]*core.NodeMetadata, 0)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "error reading %s", path)
		}
		m, err := ParseNode(path, data, table)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		if parts := strings.Split(filepath.ToSlash(rel), "/"); len(parts) == 3 {
			m.Site = parts[0]
		}
		result = append(result, m)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error loading inventories from %s", dir)
	}

	log.WithField("dir", dir).Infof("loaded %d node inventories", len(result))
	return result, nil
}

// ParseNode 解析单个节点描述，path仅用于错误信息
func ParseNode(path string, data []byte, table *ReferenceTable) (*core.NodeMetadata, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid json", path)
	}
	values := gjson.GetManyBytes(data, requiredFields...)
	fields := make(map[string]gjson.Result, len(requiredFields))
	for i, field := range requiredFields {
		if !values[i].Exists() {
			return nil, &MissingFieldError{Path: path, Field: field}
		}
		fields[field] = values[i]
	}

	m := &core.NodeMetadata{
		UID:       fields["uid"].String(),
		Cluster:   fields["cluster"].String(),
		Exotic:    fields["exotic"].Bool(),
		NbCores:   int(fields["architecture.nb_cores"].Int()),
		NbThreads: int(fields["architecture.nb_threads"].Int()),
		Processor: core.ProcessorInfo{
			Vendor:            fields["processor.vendor"].String(),
			ClockSpeed:        fields["processor.clock_speed"].Int(),
			InstructionSet:    fields["processor.instruction_set"].String(),
			HTCapable:         fields["processor.ht_capable"].Bool(),
			Microarchitecture: fields["processor.microarchitecture"].String(),
			Microcode:         fields["processor.microcode"].String(),
			Model:             fields["processor.model"].String(),
			Version:           fields["processor.version"].String(),
		},
		OS: core.OperatingSystemInfo{
			CStateDriver:      fields["operating_system.cstate_driver"].String(),
			CStateGovernor:    fields["operating_system.cstate_governor"].String(),
			PStateDriver:      fields["operating_system.pstate_driver"].String(),
			PStateGovernor:    fields["operating_system.pstate_governor"].String(),
			TurboBoostEnabled: fields["operating_system.turboboost_enabled"].Bool(),
		},
	}

	ref, ok := table.Lookup(m.Processor.Version)
	if !ok {
		return nil, &UnknownProcessorError{Node: m.UID, Model: m.Processor.Version}
	}
	m.Architecture = ref.Architecture
	m.Processor.Vendor = ref.Vendor
	m.Generation = ref.Generation
	m.LaunchDate = ref.LaunchDate
	m.ProcessorDetail = m.Processor.Version + "\n" + ref.Architecture
	m.NumaFirstCPUs = append([]int(nil), ref.NumaNodesFirstCPUs...)
	return m, nil
}

type ClusterSummary struct {
	Cluster      string
	Site         string
	NodeCount    int
	CoresPerNode int
	TotalCores   int
	Processor    string
	Architecture string
	LaunchDate   string
}

// Summarize 按集群汇总节点数量与核心总数，处理器信息取集群中第一个节点
func Summarize(nodes []*core.NodeMetadata) []*ClusterSummary {
	m := make(map[string]*ClusterSummary)
	for _, node := range nodes {
		s, ok := m[node.Cluster]
		if !ok {
			s = &ClusterSummary{
				Cluster:      node.Cluster,
				Site:         node.Site,
				CoresPerNode: node.NbCores,
				Processor:    node.Processor.Version,
				Architecture: node.Architecture,
				LaunchDate:   node.LaunchDate,
			}
			m[node.Cluster] = s
		}
		s.NodeCount++
		s.TotalCores += node.NbCores
	}

	result := make([]*ClusterSummary, 0, len(m))
	for _, s := range m {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Cluster < result[j].Cluster
	})
	return result
}
