package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/pkg/errors"
)

// MetadataHeader 节点描述列，能耗表与统计表共用
var MetadataHeader = []string{
	"exotic",
	"architecture_nb_cores",
	"architecture_nb_threads",
	"processor_vendor",
	"processor_clock_speed",
	"processor_instruction_set",
	"processor_ht_capable",
	"processor_microarchitecture",
	"processor_microcode",
	"processor_model",
	"processor_version",
	"os_cstate_driver",
	"os_cstate_governor",
	"os_pstate_driver",
	"os_pstate_governor",
	"os_turboboost_enabled",
	"processor_architecture",
	"processor_generation",
	"processor_launch_date",
	"processor_detail",
	"numa_nodes_first_cpus",
}

var EnergyHeader = append([]string{
	"tool", "task", "site", "cluster", "node", "nb_core", "nb_ops_per_core", "iteration",
	"energy_pkg", "energy_cores", "energy_ram",
}, MetadataHeader...)

var statisticsFields = []string{
	"count", "average", "median", "minimum", "maximum", "standard_deviation",
	"quantile_25", "quantile_75", "coefficient_of_variation",
}

var StatisticsHeader = buildStatisticsHeader()

var FrequencyHeader = []string{"tool", "node", "cluster", "target_frequency", "iteration", "reached_frequency"}

var OverheadHeader = []string{
	"tool", "node", "cluster", "target_frequency", "iteration",
	"energy_pkg", "energy_cores", "energy_ram", "time_elapsed",
	"average_temperature", "temperature_bucket", "temperature_range",
}

func buildStatisticsHeader() []string {
	header := []string{"node", "cluster", "task", "tool", "nb_core", "nb_ops_per_core"}
	header = append(header, MetadataHeader...)
	for _, domain := range []core.Domain{core.DomainPkg, core.DomainCores, core.DomainRAM} {
		for _, field := range statisticsFields {
			header = append(header, fmt.Sprintf("%s_%s", domain, field))
		}
	}
	return header
}

func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func metadataRecord(m *core.NodeMetadata) []string {
	if m == nil {
		return make([]string, len(MetadataHeader))
	}
	cpus := make([]string, len(m.NumaFirstCPUs))
	for i, cpu := range m.NumaFirstCPUs {
		cpus[i] = strconv.Itoa(cpu)
	}
	return []string{
		strconv.FormatBool(m.Exotic),
		strconv.Itoa(m.NbCores),
		strconv.Itoa(m.NbThreads),
		m.Processor.Vendor,
		strconv.FormatInt(m.Processor.ClockSpeed, 10),
		m.Processor.InstructionSet,
		strconv.FormatBool(m.Processor.HTCapable),
		m.Processor.Microarchitecture,
		m.Processor.Microcode,
		m.Processor.Model,
		m.Processor.Version,
		m.OS.CStateDriver,
		m.OS.CStateGovernor,
		m.OS.PStateDriver,
		m.OS.PStateGovernor,
		strconv.FormatBool(m.OS.TurboBoostEnabled),
		m.Architecture,
		strconv.Itoa(m.Generation),
		m.LaunchDate,
		m.ProcessorDetail,
		strings.Join(cpus, ";"),
	}
}

// parseMetadata 从记录中解析节点描述。所有列为空时返回nil
func parseMetadata(record []string, uid, cluster, site string) (*core.NodeMetadata, error) {
	empty := true
	for _, s := range record {
		if s != "" {
			empty = false
			break
		}
	}
	if empty {
		return nil, nil
	}

	p := &fieldParser{record: record, header: MetadataHeader}
	m := &core.NodeMetadata{
		UID:       uid,
		Cluster:   cluster,
		Site:      site,
		Exotic:    p.bool(0),
		NbCores:   p.int(1),
		NbThreads: p.int(2),
		Processor: core.ProcessorInfo{
			Vendor:            record[3],
			ClockSpeed:        int64(p.int(4)),
			InstructionSet:    record[5],
			HTCapable:         p.bool(6),
			Microarchitecture: record[7],
			Microcode:         record[8],
			Model:             record[9],
			Version:           record[10],
		},
		OS: core.OperatingSystemInfo{
			CStateDriver:      record[11],
			CStateGovernor:    record[12],
			PStateDriver:      record[13],
			PStateGovernor:    record[14],
			TurboBoostEnabled: p.bool(15),
		},
		Architecture:    record[16],
		Generation:      p.int(17),
		LaunchDate:      record[18],
		ProcessorDetail: record[19],
	}
	if record[20] != "" {
		for _, s := range strings.Split(record[20], ";") {
			cpu, err := strconv.Atoi(s)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid numa_nodes_first_cpus value %q", record[20])
			}
			m.NumaFirstCPUs = append(m.NumaFirstCPUs, cpu)
		}
	}
	return m, p.err
}

type fieldParser struct {
	record []string
	header []string
	err    error
}

func (p *fieldParser) int(i int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.record[i])
	if err != nil {
		p.err = errors.Wrapf(err, "invalid %s value %q", p.header[i], p.record[i])
	}
	return v
}

func (p *fieldParser) bool(i int) bool {
	if p.err != nil {
		return false
	}
	v, err := strconv.ParseBool(p.record[i])
	if err != nil {
		p.err = errors.Wrapf(err, "invalid %s value %q", p.header[i], p.record[i])
	}
	return v
}

func (p *fieldParser) float(i int) float64 {
	if p.err != nil {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(p.record[i], 64)
	if err != nil {
		p.err = errors.Wrapf(err, "invalid %s value %q", p.header[i], p.record[i])
	}
	return v
}

func WriteEnergyObservations(out io.Writer, data []*core.EnergyObservation) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(EnergyHeader); err != nil {
		return errors.Wrap(err, "error writing energy header")
	}

	for i, o := range data {
		record := make([]string, 0, len(EnergyHeader))
		record = append(record,
			string(o.Tool),
			o.Task,
			o.Site,
			o.Cluster,
			o.Node,
			strconv.Itoa(o.CoreCount),
			strconv.Itoa(o.OpsPerCore),
			strconv.Itoa(o.Iteration),
			FormatFloat(o.EnergyPkg),
			FormatFloat(o.EnergyCores),
			FormatFloat(o.EnergyRAM))
		record = append(record, metadataRecord(o.Metadata)...)
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, fmt.Sprintf("error writing energy row %d", i))
		}
	}

	writer.Flush()
	return writer.Error()
}

func ReadEnergyObservations(in io.Reader) ([]*core.EnergyObservation, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = len(EnergyHeader)
	if _, err := reader.Read(); err != nil {
		return nil, errors.Wrap(err, "error reading energy header")
	}

	metadata := make(map[string]*core.NodeMetadata)
	result := make([]*core.EnergyObservation, 0)
	var record []string
	var err error
	cnt := 0
	for record, err = reader.Read(); err == nil; record, err = reader.Read() {
		cnt++
		p := &fieldParser{record: record, header: EnergyHeader}
		o := &core.EnergyObservation{
			Tool:        core.Tool(record[0]),
			Task:        record[1],
			Site:        record[2],
			Cluster:     record[3],
			Node:        record[4],
			CoreCount:   p.int(5),
			OpsPerCore:  p.int(6),
			Iteration:   p.int(7),
			EnergyPkg:   p.float(8),
			EnergyCores: p.float(9),
			EnergyRAM:   p.float(10),
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "energy row %d", cnt)
		}

		key := o.Cluster + "/" + o.Node
		m, ok := metadata[key]
		if !ok {
			m, err = parseMetadata(record[11:], o.Node, o.Cluster, o.Site)
			if err != nil {
				return nil, errors.Wrapf(err, "energy row %d", cnt)
			}
			metadata[key] = m
		}
		o.Metadata = m
		result = append(result, o)
	}
	if err != io.EOF {
		return nil, errors.Wrap(err, "error reading energy table")
	}

	return result, nil
}

func statisticsRecord(s core.DomainStatistics) []string {
	return []string{
		strconv.Itoa(s.Count),
		FormatFloat(s.Mean),
		FormatFloat(s.Median),
		FormatFloat(s.Min),
		FormatFloat(s.Max),
		FormatFloat(s.Std),
		FormatFloat(s.Q25),
		FormatFloat(s.Q75),
		FormatFloat(s.CV),
	}
}

func WriteEnergyStatistics(out io.Writer, data []*core.EnergyStatistics) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(StatisticsHeader); err != nil {
		return errors.Wrap(err, "error writing statistics header")
	}

	for i, s := range data {
		record := make([]string, 0, len(StatisticsHeader))
		record = append(record,
			s.Node,
			s.Cluster,
			s.Task,
			string(s.Tool),
			strconv.Itoa(s.CoreCount),
			strconv.Itoa(s.OpsPerCore))
		record = append(record, metadataRecord(s.Metadata)...)
		record = append(record, statisticsRecord(s.Pkg)...)
		record = append(record, statisticsRecord(s.Cores)...)
		record = append(record, statisticsRecord(s.RAM)...)
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, fmt.Sprintf("error writing statistics row %d", i))
		}
	}

	writer.Flush()
	return writer.Error()
}

func ReadEnergyStatistics(in io.Reader) ([]*core.EnergyStatistics, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = len(StatisticsHeader)
	if _, err := reader.Read(); err != nil {
		return nil, errors.Wrap(err, "error reading statistics header")
	}

	metaStart := 6
	statStart := metaStart + len(MetadataHeader)
	result := make([]*core.EnergyStatistics, 0)
	var record []string
	var err error
	cnt := 0
	for record, err = reader.Read(); err == nil; record, err = reader.Read() {
		cnt++
		p := &fieldParser{record: record, header: StatisticsHeader}
		s := &core.EnergyStatistics{
			Node:       record[0],
			Cluster:    record[1],
			Task:       record[2],
			Tool:       core.Tool(record[3]),
			CoreCount:  p.int(4),
			OpsPerCore: p.int(5),
		}
		domains := []*core.DomainStatistics{&s.Pkg, &s.Cores, &s.RAM}
		for di, d := range domains {
			base := statStart + di*len(statisticsFields)
			*d = core.DomainStatistics{
				Count:  p.int(base),
				Mean:   p.float(base + 1),
				Median: p.float(base + 2),
				Min:    p.float(base + 3),
				Max:    p.float(base + 4),
				Std:    p.float(base + 5),
				Q25:    p.float(base + 6),
				Q75:    p.float(base + 7),
				CV:     p.float(base + 8),
			}
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "statistics row %d", cnt)
		}
		s.Metadata, err = parseMetadata(record[metaStart:statStart], s.Node, s.Cluster, "")
		if err != nil {
			return nil, errors.Wrapf(err, "statistics row %d", cnt)
		}
		result = append(result, s)
	}
	if err != io.EOF {
		return nil, errors.Wrap(err, "error reading statistics table")
	}

	return result, nil
}

func WriteReachedFrequencies(out io.Writer, data []*core.ReachedFrequency) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(FrequencyHeader); err != nil {
		return errors.Wrap(err, "error writing frequency header")
	}
	for i, r := range data {
		err := writer.Write([]string{
			string(r.Tool),
			r.Node,
			r.Cluster,
			strconv.Itoa(r.TargetFrequency),
			strconv.Itoa(r.Iteration),
			FormatFloat(r.Reached),
		})
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("error writing frequency row %d", i))
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteOverheadObservations(out io.Writer, data []*core.OverheadObservation) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(OverheadHeader); err != nil {
		return errors.Wrap(err, "error writing overhead header")
	}
	for i, o := range data {
		bucket := ""
		if o.TemperatureRange != "" {
			bucket = strconv.Itoa(o.TemperatureBucket)
		}
		err := writer.Write([]string{
			string(o.Tool),
			o.Node,
			o.Cluster,
			strconv.Itoa(o.TargetFrequency),
			strconv.Itoa(o.Iteration),
			FormatFloat(o.EnergyPkg),
			FormatFloat(o.EnergyCores),
			FormatFloat(o.EnergyRAM),
			FormatFloat(o.TimeElapsed),
			FormatFloat(o.AverageTemperature),
			bucket,
			o.TemperatureRange,
		})
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("error writing overhead row %d", i))
		}
	}
	writer.Flush()
	return writer.Error()
}
