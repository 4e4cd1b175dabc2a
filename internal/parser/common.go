package parser

import (
	"os"

	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/internal/datasource"
	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	log "github.com/sirupsen/logrus"
)

const (
	ColumnIteration  = "iteration"
	ColumnCoreCount  = "nb_core"
	ColumnOpsPerCore = "nb_ops_per_core"
	ColumnTimestamp  = "timestamp"
)

type rowFunc func(record *datasource.Record, obs *core.RawObservation) error

// parseFile 逐条读取文件中的记录。required中的列不存在时整个文件作废
func parseFile(file *catalog.File, required []string, fn rowFunc) ([]*core.RawObservation, error) {
	in, err := os.Open(file.Path)
	if err != nil {
		return nil, &ParseError{Path: file.Path, Err: err}
	}
	defer in.Close()

	counter := &utils.ReadCounter{Reader: in}
	source, err := datasource.NewCSVSource(counter)
	if err != nil {
		return nil, &ParseError{Path: file.Path, Err: err}
	}

	required = append([]string{ColumnIteration}, required...)
	if file.Kind != catalog.Consumption {
		required = append(required, ColumnTimestampFor(file)...)
	}
	for _, column := range required {
		if !source.Has(column) {
			return nil, &ParseError{Path: file.Path, Err: &datasource.ColumnError{Column: column}}
		}
	}

	result := make([]*core.RawObservation, 0)
	err = datasource.Fold(source, func(record *datasource.Record) error {
		obs, err := newObservation(file, record)
		if err == nil {
			err = fn(record, obs)
		}
		if err != nil {
			return &ParseError{Path: file.Path, Line: record.Line, Err: err}
		}
		result = append(result, obs)
		return nil
	})
	if err != nil {
		if _, ok := err.(*ParseError); ok {
			return nil, err
		}
		return nil, &ParseError{Path: file.Path, Err: err}
	}

	log.WithField("path", file.Path).Debugf("parsed %d rows from %d bytes", len(result), counter.Count)
	return result, nil
}

// ColumnTimestampFor 频率实验文件必须带时间戳，perf的频率文件除外
func ColumnTimestampFor(file *catalog.File) []string {
	if file.Kind == catalog.Frequency && file.Tool != core.Perf {
		return []string{ColumnTimestamp}
	}
	return nil
}

// newObservation 填充路径中的配置字段。文件中存在nb_core、nb_ops_per_core列时以文件为准
func newObservation(file *catalog.File, record *datasource.Record) (*core.RawObservation, error) {
	obs := &core.RawObservation{
		Tool:            file.Tool,
		Site:            file.Site,
		Cluster:         file.Cluster,
		Node:            file.Node,
		Task:            file.Task,
		CoreCount:       file.CoreCount,
		OpsPerCore:      file.OpsPerCore,
		TargetFrequency: file.TargetFrequency,
		CoTool:          file.CoTool,
	}

	var err error
	if obs.Iteration, err = record.Int(ColumnIteration); err != nil {
		return nil, err
	}
	if v, ok, err := optionalInt(record, ColumnCoreCount); err != nil {
		return nil, err
	} else if ok {
		obs.CoreCount = v
	}
	if v, ok, err := optionalInt(record, ColumnOpsPerCore); err != nil {
		return nil, err
	} else if ok {
		obs.OpsPerCore = v
	}
	return obs, nil
}

func optionalInt(record *datasource.Record, column string) (int, bool, error) {
	if !record.Has(column) {
		return 0, false, nil
	}
	s, err := record.String(column)
	if err != nil || s == "" {
		return 0, false, err
	}
	v, err := record.Int(column)
	return v, err == nil, err
}

// optionalFloat 列不存在或为空时为0
func optionalFloat(record *datasource.Record, column string) (float64, error) {
	if !record.Has(column) {
		return 0, nil
	}
	return record.FloatOrZero(column)
}
