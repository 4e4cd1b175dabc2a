package parser

import (
	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/internal/datasource"
	"github.com/packagewjx/energy-analyzer/pkg/core"
)

const (
	ColumnPerfPkg         = "power_energy_pkg"
	ColumnPerfRAM         = "power_energy_ram"
	ColumnPerfCores       = "power_energy_cores"
	ColumnPerfTimeElapsed = "time_elapsed"
)

// Perf 读取perf stat的能耗事件，单位为焦耳。缺少time_elapsed列的文件视为无效
func Perf() Adapter {
	return &perfAdapter{}
}

type perfAdapter struct {
}

func (p *perfAdapter) Tool() core.Tool {
	return core.Perf
}

func (p *perfAdapter) Domains() core.DomainSet {
	return core.AllDomains
}

func (p *perfAdapter) TimeUnit() core.TimeUnit {
	return core.Seconds
}

func (p *perfAdapter) Parse(file *catalog.File) ([]*core.RawObservation, error) {
	required := []string{ColumnPerfTimeElapsed}
	return parseFile(file, required, func(record *datasource.Record, obs *core.RawObservation) error {
		var err error
		if obs.TimeElapsed, err = record.Float(ColumnPerfTimeElapsed); err != nil {
			return err
		}
		if obs.Pkg, err = optionalFloat(record, ColumnPerfPkg); err != nil {
			return err
		}
		if obs.RAM, err = optionalFloat(record, ColumnPerfRAM); err != nil {
			return err
		}
		if obs.Cores, err = optionalFloat(record, ColumnPerfCores); err != nil {
			return err
		}
		if record.Has(ColumnTimestamp) {
			s, _ := record.String(ColumnTimestamp)
			if s != "" {
				if obs.Timestamp, err = ParseTimestamp(s); err != nil {
					return &datasource.ColumnError{Column: ColumnTimestamp, Value: s, Err: err}
				}
			}
		}
		return nil
	})
}
