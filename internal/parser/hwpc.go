package parser

import (
	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/internal/datasource"
	"github.com/packagewjx/energy-analyzer/pkg/core"
)

const (
	ColumnHWPCSensor = "sensor"
	ColumnHWPCTarget = "target"
	ColumnHWPCSocket = "socket"
	ColumnHWPCCPU    = "cpu"
	ColumnHWPCPkg    = "rapl_energy_pkg"
	ColumnHWPCRAM    = "rapl_energy_dram"
	ColumnHWPCCores  = "rapl_energy_cores"
)

// HWPC 读取hwpc的RAPL计数。计数值为32.32定点数，这里保持整数不做转换
func HWPC() Adapter {
	return &hwpcAdapter{}
}

type hwpcAdapter struct {
}

func (h *hwpcAdapter) Tool() core.Tool {
	return core.HWPC
}

func (h *hwpcAdapter) Domains() core.DomainSet {
	return core.AllDomains
}

func (h *hwpcAdapter) TimeUnit() core.TimeUnit {
	return core.Milliseconds
}

func (h *hwpcAdapter) Parse(file *catalog.File) ([]*core.RawObservation, error) {
	required := []string{ColumnTimestamp, ColumnHWPCSocket, ColumnHWPCCPU, ColumnHWPCPkg}
	return parseFile(file, required, func(record *datasource.Record, obs *core.RawObservation) error {
		var err error
		if obs.Timestamp, err = record.Float(ColumnTimestamp); err != nil {
			return err
		}
		if obs.Socket, err = record.Int(ColumnHWPCSocket); err != nil {
			return err
		}
		if obs.CPU, err = record.Int(ColumnHWPCCPU); err != nil {
			return err
		}
		obs.HasTopology = true
		if record.Has(ColumnHWPCSensor) {
			obs.Sensor, _ = record.String(ColumnHWPCSensor)
		}
		if record.Has(ColumnHWPCTarget) {
			obs.Target, _ = record.String(ColumnHWPCTarget)
		}

		if obs.PkgTicks, err = optionalTicks(record, ColumnHWPCPkg); err != nil {
			return err
		}
		if obs.RAMTicks, err = optionalTicks(record, ColumnHWPCRAM); err != nil {
			return err
		}
		obs.CoresTicks, err = optionalTicks(record, ColumnHWPCCores)
		return err
	})
}

// optionalTicks 列不存在或为空时为0
func optionalTicks(record *datasource.Record, column string) (int64, error) {
	if !record.Has(column) {
		return 0, nil
	}
	return record.Int64OrZero(column)
}
