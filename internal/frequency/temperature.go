package frequency

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/internal/datasource"
	"github.com/packagewjx/energy-analyzer/internal/normalize"
	"github.com/packagewjx/energy-analyzer/internal/stats"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	ColumnTemperatureStart = "temperature_start"
	ColumnTemperatureStop  = "temperature_stop"

	BucketWidth = 5
)

// Temperature 一次迭代开始与结束时的平均温度
type Temperature struct {
	Tool            core.Tool
	Node            string
	TargetFrequency int
	Iteration       int
	Average         int
}

type temperatureKey struct {
	node      string
	target    int
	tool      core.Tool
	iteration int
}

func (k temperatureKey) String() string {
	return fmt.Sprintf("(%s, %d Hz, %s, iteration %d)", k.node, k.target, k.tool, k.iteration)
}

// ReadTemperatures 读取一个温度文件，平均温度取整（向零截断）
func ReadTemperatures(file *catalog.File) ([]*Temperature, error) {
	in, err := os.Open(file.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", file.Path)
	}
	defer in.Close()

	source, err := datasource.NewCSVSource(in)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", file.Path)
	}

	result := make([]*Temperature, 0)
	err = datasource.Fold(source, func(record *datasource.Record) error {
		iteration, err := record.Int("iteration")
		if err != nil {
			return err
		}
		start, err := record.Float(ColumnTemperatureStart)
		if err != nil {
			return err
		}
		stop, err := record.Float(ColumnTemperatureStop)
		if err != nil {
			return err
		}
		result = append(result, &Temperature{
			Tool:            file.Tool,
			Node:            file.Node,
			TargetFrequency: file.TargetFrequency,
			Iteration:       iteration,
			Average:         int((start + stop) / 2),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", file.Path)
	}
	return result, nil
}

// LoadTemperatures 读取所有温度文件。无法读取的文件记录日志后跳过，其中的迭代没有温度
func LoadTemperatures(files []*catalog.File) []*Temperature {
	result := make([]*Temperature, 0)
	for _, f := range files {
		temps, err := ReadTemperatures(f)
		if err != nil {
			log.WithField("path", f.Path).WithError(err).Warn("skipping unreadable temperature file")
			continue
		}
		result = append(result, temps...)
	}
	return result
}

// Bucket 温度所在5度区间的下界与标签，例如47对应45与"45-49°C"
func Bucket(temperature int) (int, string) {
	lower := int(math.Floor(float64(temperature)/BucketWidth)) * BucketWidth
	return lower, fmt.Sprintf("%d-%d°C", lower, lower+BucketWidth-1)
}

// AttributeTemperatures perf测得的开销记录与温度记录按(节点, 目标频率, 工具, 迭代)一对一连接。
// 任意一侧出现重复的键返回CardinalityError，没有温度记录时平均温度为NaN
func AttributeTemperatures(overhead []*core.RawObservation, temperatures []*Temperature) ([]*core.OverheadObservation, error) {
	temps := make(map[temperatureKey]*Temperature, len(temperatures))
	for _, t := range temperatures {
		key := temperatureKey{node: t.Node, target: t.TargetFrequency, tool: t.Tool, iteration: t.Iteration}
		if _, ok := temps[key]; ok {
			return nil, &normalize.CardinalityError{Relation: "temperatures", Key: key.String(), Count: 2}
		}
		temps[key] = t
	}

	seen := make(map[temperatureKey]bool, len(overhead))
	result := make([]*core.OverheadObservation, 0, len(overhead))
	for _, r := range overhead {
		key := temperatureKey{node: r.Node, target: r.TargetFrequency, tool: r.CoTool, iteration: r.Iteration}
		if seen[key] {
			return nil, &normalize.CardinalityError{Relation: "overhead", Key: key.String(), Count: 2}
		}
		seen[key] = true

		o := &core.OverheadObservation{
			Tool:               r.CoTool,
			Node:               r.Node,
			Cluster:            r.Cluster,
			TargetFrequency:    r.TargetFrequency,
			Iteration:          r.Iteration,
			EnergyPkg:          r.Pkg,
			EnergyCores:        r.Cores,
			EnergyRAM:          r.RAM,
			TimeElapsed:        r.TimeElapsed,
			AverageTemperature: math.NaN(),
		}
		if t, ok := temps[key]; ok {
			o.AverageTemperature = float64(t.Average)
			o.TemperatureBucket, o.TemperatureRange = Bucket(t.Average)
		}
		result = append(result, o)
	}
	return result, nil
}

type Stratum struct {
	Cluster          string
	Tool             core.Tool
	TargetFrequency  int
	TemperatureRange string
	TemperatureLower int
	Pkg              core.DomainStatistics
	RAM              core.DomainStatistics
}

// Stratify 按(集群, 工具, 目标频率, 温度区间)统计perf测得的能耗，没有温度的记录不参与
func Stratify(overhead []*core.OverheadObservation) []*Stratum {
	type key struct {
		cluster string
		tool    core.Tool
		target  int
		lower   int
	}
	type values struct {
		label string
		pkg   []float64
		ram   []float64
	}
	groups := make(map[key]*values)
	for _, o := range overhead {
		if o.TemperatureRange == "" {
			continue
		}
		k := key{cluster: o.Cluster, tool: o.Tool, target: o.TargetFrequency, lower: o.TemperatureBucket}
		v, ok := groups[k]
		if !ok {
			v = &values{label: o.TemperatureRange}
			groups[k] = v
		}
		v.pkg = append(v.pkg, o.EnergyPkg)
		v.ram = append(v.ram, o.EnergyRAM)
	}

	result := make([]*Stratum, 0, len(groups))
	for k, v := range groups {
		result = append(result, &Stratum{
			Cluster:          k.cluster,
			Tool:             k.tool,
			TargetFrequency:  k.target,
			TemperatureRange: v.label,
			TemperatureLower: k.lower,
			Pkg:              stats.Describe(v.pkg),
			RAM:              stats.Describe(v.ram),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Cluster != b.Cluster {
			return a.Cluster < b.Cluster
		}
		if a.Tool != b.Tool {
			return a.Tool < b.Tool
		}
		if a.TargetFrequency != b.TargetFrequency {
			return a.TargetFrequency < b.TargetFrequency
		}
		return a.TemperatureLower < b.TemperatureLower
	})
	return result
}
