package parser

import (
	"fmt"

	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/internal/datasource"
	"github.com/packagewjx/energy-analyzer/pkg/core"
)

const (
	ColumnEstimatorPkg   = "energy_pkg"
	ColumnEstimatorCores = "energy_cores"
	ColumnEstimatorRAM   = "energy_ram"
)

// KWhToJoule 1 kWh = 3.6 MJ
const KWhToJoule = 3600000.0

// Estimator 读取软件能耗估算工具的输出。scale把工具的能耗单位换算为焦耳，
// 不在domains中的能耗域恒为0，即使文件中有对应的列
func Estimator(tool core.Tool, domains core.DomainSet, scale float64) Adapter {
	return &estimatorAdapter{tool: tool, domains: domains, scale: scale}
}

type estimatorAdapter struct {
	tool    core.Tool
	domains core.DomainSet
	scale   float64
}

func (e *estimatorAdapter) Tool() core.Tool {
	return e.tool
}

func (e *estimatorAdapter) Domains() core.DomainSet {
	return e.domains
}

func (e *estimatorAdapter) TimeUnit() core.TimeUnit {
	return core.Seconds
}

func (e *estimatorAdapter) columns() map[core.Domain]string {
	return map[core.Domain]string{
		core.DomainPkg:   ColumnEstimatorPkg,
		core.DomainCores: ColumnEstimatorCores,
		core.DomainRAM:   ColumnEstimatorRAM,
	}
}

func (e *estimatorAdapter) Parse(file *catalog.File) ([]*core.RawObservation, error) {
	required := make([]string, 0, 3)
	// 频率实验只关心时间戳
	if file.Kind == catalog.Consumption {
		for _, d := range []core.Domain{core.DomainPkg, core.DomainCores, core.DomainRAM} {
			if e.domains.Has(d) {
				required = append(required, e.columns()[d])
			}
		}
	}

	return parseFile(file, required, func(record *datasource.Record, obs *core.RawObservation) error {
		if obs.Tool != e.tool {
			return fmt.Errorf("file of %s given to %s parser", obs.Tool, e.tool)
		}
		values := map[core.Domain]*float64{
			core.DomainPkg:   &obs.Pkg,
			core.DomainCores: &obs.Cores,
			core.DomainRAM:   &obs.RAM,
		}
		for d, column := range e.columns() {
			if !e.domains.Has(d) {
				continue
			}
			v, err := optionalFloat(record, column)
			if err != nil {
				return err
			}
			*values[d] = v * e.scale
		}

		if record.Has(ColumnTimestamp) {
			s, err := record.String(ColumnTimestamp)
			if err != nil {
				return err
			}
			if s != "" {
				ts, err := ParseTimestamp(s)
				if err != nil {
					return &datasource.ColumnError{Column: ColumnTimestamp, Value: s, Err: err}
				}
				obs.Timestamp = ts
			}
		}
		return nil
	})
}
