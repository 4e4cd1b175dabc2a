package store

import (
	"math"

	"gorm.io/gorm"

	"github.com/packagewjx/energy-analyzer/pkg/core"
)

type NodeDO struct {
	gorm.Model
	UID               string `gorm:"uniqueIndex:unique_node;size:128"`
	Cluster           string `gorm:"uniqueIndex:unique_node;size:128"`
	Site              string
	Exotic            bool
	NbCores           int
	NbThreads         int
	Vendor            string
	ClockSpeed        int64
	InstructionSet    string
	HTCapable         bool
	Microarchitecture string
	Microcode         string
	ProcessorModel    string
	Version           string
	CStateDriver      string
	CStateGovernor    string
	PStateDriver      string
	PStateGovernor    string
	TurboBoostEnabled bool
	Architecture      string
	Generation        int
	LaunchDate        string
}

type EnergyObservationDO struct {
	ID          uint   `gorm:"primarykey"`
	Batch       string `gorm:"index;size:128"`
	Tool        string `gorm:"size:32"`
	Task        string
	Site        string
	Cluster     string
	Node        string `gorm:"index"`
	CoreCount   int
	OpsPerCore  int
	Iteration   int
	EnergyPkg   float64
	EnergyCores float64
	EnergyRAM   float64
}

// DomainStatisticsDO NaN以NULL保存
type DomainStatisticsDO struct {
	Count  int
	Mean   *float64
	Median *float64
	Min    *float64
	Max    *float64
	Std    *float64
	Q25    *float64
	Q75    *float64
	CV     *float64
}

type EnergyStatisticsDO struct {
	ID         uint   `gorm:"primarykey"`
	Batch      string `gorm:"index;size:128"`
	Node       string `gorm:"index"`
	Cluster    string
	Task       string
	Tool       string `gorm:"size:32"`
	CoreCount  int
	OpsPerCore int
	Pkg        DomainStatisticsDO `gorm:"embedded;embeddedPrefix:pkg_"`
	Cores      DomainStatisticsDO `gorm:"embedded;embeddedPrefix:cores_"`
	RAM        DomainStatisticsDO `gorm:"embedded;embeddedPrefix:ram_"`
}

func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func fromNullable(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

func toDomainDO(s core.DomainStatistics) DomainStatisticsDO {
	return DomainStatisticsDO{
		Count:  s.Count,
		Mean:   nullable(s.Mean),
		Median: nullable(s.Median),
		Min:    nullable(s.Min),
		Max:    nullable(s.Max),
		Std:    nullable(s.Std),
		Q25:    nullable(s.Q25),
		Q75:    nullable(s.Q75),
		CV:     nullable(s.CV),
	}
}

func (d DomainStatisticsDO) toDomain() core.DomainStatistics {
	return core.DomainStatistics{
		Count:  d.Count,
		Mean:   fromNullable(d.Mean),
		Median: fromNullable(d.Median),
		Min:    fromNullable(d.Min),
		Max:    fromNullable(d.Max),
		Std:    fromNullable(d.Std),
		Q25:    fromNullable(d.Q25),
		Q75:    fromNullable(d.Q75),
		CV:     fromNullable(d.CV),
	}
}

func toNodeDO(m *core.NodeMetadata) *NodeDO {
	return &NodeDO{
		UID:               m.UID,
		Cluster:           m.Cluster,
		Site:              m.Site,
		Exotic:            m.Exotic,
		NbCores:           m.NbCores,
		NbThreads:         m.NbThreads,
		Vendor:            m.Processor.Vendor,
		ClockSpeed:        m.Processor.ClockSpeed,
		InstructionSet:    m.Processor.InstructionSet,
		HTCapable:         m.Processor.HTCapable,
		Microarchitecture: m.Processor.Microarchitecture,
		Microcode:         m.Processor.Microcode,
		ProcessorModel:    m.Processor.Model,
		Version:           m.Processor.Version,
		CStateDriver:      m.OS.CStateDriver,
		CStateGovernor:    m.OS.CStateGovernor,
		PStateDriver:      m.OS.PStateDriver,
		PStateGovernor:    m.OS.PStateGovernor,
		TurboBoostEnabled: m.OS.TurboBoostEnabled,
		Architecture:      m.Architecture,
		Generation:        m.Generation,
		LaunchDate:        m.LaunchDate,
	}
}
