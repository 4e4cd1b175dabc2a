package core

import "strings"

type Tool string

const (
	HWPC       = Tool("hwpc")
	Perf       = Tool("perf")
	CodeCarbon = Tool("codecarbon")
	Alumet     = Tool("alumet")
	Scaphandre = Tool("scaphandre")
	VJoule     = Tool("vjoule")
)

var AllTools = []Tool{HWPC, Perf, CodeCarbon, Alumet, Scaphandre, VJoule}

func ParseTool(s string) (Tool, bool) {
	s = strings.ToLower(s)
	for _, tool := range AllTools {
		if string(tool) == s {
			return tool, true
		}
	}
	return "", false
}

type Domain int

const (
	DomainPkg Domain = 1 << iota
	DomainCores
	DomainRAM
)

func (d Domain) String() string {
	switch d {
	case DomainPkg:
		return "pkg"
	case DomainCores:
		return "cores"
	case DomainRAM:
		return "ram"
	default:
		return "unknown"
	}
}

// DomainSet 工具实际上报的能耗域
type DomainSet int

const AllDomains = DomainSet(DomainPkg | DomainCores | DomainRAM)

func (s DomainSet) Has(d Domain) bool {
	return int(s)&int(d) != 0
}

type TimeUnit int

const (
	Seconds TimeUnit = iota
	Milliseconds
)

// PerSecond 一个时间单位对应的秒数的倒数。用于将时间间隔转换为频率
func (u TimeUnit) PerSecond() float64 {
	if u == Milliseconds {
		return 1000
	}
	return 1
}

const LineBreak = '\n'

const Splitter = ","

// RawObservation 一条未经归一化的工具记录。能耗单位已经转换为焦耳，hwpc除外，hwpc保留32.32定点数的计数值
type RawObservation struct {
	Tool       Tool
	Site       string
	Cluster    string
	Node       string
	Task       string
	CoreCount  int
	OpsPerCore int
	Iteration  int

	// 工具原生单位，文件中不存在时为0
	Timestamp       float64
	TargetFrequency int
	// 频率实验中同时运行的工具
	CoTool Tool

	// hwpc
	Sensor      string
	Target      string
	Socket      int
	CPU         int
	HasTopology bool
	PkgTicks    int64
	CoresTicks  int64
	RAMTicks    int64

	Pkg         float64
	Cores       float64
	RAM         float64
	TimeElapsed float64
}

type ProcessorInfo struct {
	Vendor            string
	ClockSpeed        int64
	InstructionSet    string
	HTCapable         bool
	Microarchitecture string
	Microcode         string
	Model             string
	Version           string
}

type OperatingSystemInfo struct {
	CStateDriver      string
	CStateGovernor    string
	PStateDriver      string
	PStateGovernor    string
	TurboBoostEnabled bool
}

// NodeMetadata 节点的硬件与系统描述，加载后不可修改
type NodeMetadata struct {
	UID       string
	Cluster   string
	Site      string
	Exotic    bool
	NbCores   int
	NbThreads int
	Processor ProcessorInfo
	OS        OperatingSystemInfo

	Architecture    string
	Generation      int
	LaunchDate      string
	ProcessorDetail string
	NumaFirstCPUs   []int
}

// EnergyObservation 统一模式的能耗记录，三个能耗域单位均为焦耳
type EnergyObservation struct {
	Tool       Tool
	Task       string
	Site       string
	Cluster    string
	Node       string
	CoreCount  int
	OpsPerCore int
	Iteration  int

	EnergyPkg   float64
	EnergyCores float64
	EnergyRAM   float64

	// 没有匹配的节点信息时为nil
	Metadata *NodeMetadata
}

type DomainStatistics struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Std    float64
	Q25    float64
	Q75    float64
	CV     float64
}

type EnergyStatistics struct {
	Node       string
	Cluster    string
	Task       string
	Tool       Tool
	CoreCount  int
	OpsPerCore int
	Metadata   *NodeMetadata

	Pkg   DomainStatistics
	Cores DomainStatistics
	RAM   DomainStatistics
}

type FrequencySample struct {
	Tool            Tool
	Node            string
	Cluster         string
	TargetFrequency int
	Iteration       int
	Timestamps      []float64
}

type ReachedFrequency struct {
	Tool            Tool
	Node            string
	Cluster         string
	TargetFrequency int
	Iteration       int
	Reached         float64
}

// OverheadObservation perf在某个工具以目标频率运行时测得的能耗，附带温度区间
type OverheadObservation struct {
	Tool            Tool
	Node            string
	Cluster         string
	TargetFrequency int
	Iteration       int

	EnergyPkg   float64
	EnergyCores float64
	EnergyRAM   float64
	TimeElapsed float64

	// 没有温度记录时为NaN，TemperatureRange为空
	AverageTemperature float64
	TemperatureBucket  int
	TemperatureRange   string
}
