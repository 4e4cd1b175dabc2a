package pipeline

import (
	"io"

	"github.com/packagewjx/energy-analyzer/internal/frequency"
	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	log "github.com/sirupsen/logrus"
)

type FrequencyResult struct {
	Reached   map[core.Tool][]*core.ReachedFrequency
	Summaries []*frequency.Summary
	Overhead  []*core.OverheadObservation
	Strata    []*frequency.Stratum
}

// Frequency 频率实验：每个工具达到的采样频率，以及perf测得的工具开销按温度分层的统计
func (p *Pipeline) Frequency() (*FrequencyResult, error) {
	c, err := p.Catalog()
	if err != nil {
		return nil, err
	}

	result := &FrequencyResult{Reached: make(map[core.Tool][]*core.ReachedFrequency)}
	all := make([]*core.ReachedFrequency, 0)
	for _, tool := range core.AllTools {
		if tool == core.Perf {
			continue
		}
		files := c.Frequency(tool)
		if len(files) == 0 {
			continue
		}
		adapter, ok := p.registry.Lookup(tool)
		if !ok {
			log.WithField("tool", tool).Warn("no adapter registered, frequency files skipped")
			continue
		}

		raw, err := p.ParseFiles(files)
		if err != nil {
			return nil, err
		}
		reached := frequency.Reached(frequency.Samples(raw), adapter.TimeUnit())
		log.WithField("tool", tool).Infof("%d sampling intervals from %d files", len(reached), len(files))
		result.Reached[tool] = reached
		all = append(all, reached...)

		if err = p.write(p.outputPath(FrequencyFile(tool)), func(out io.Writer) error {
			return utils.WriteReachedFrequencies(out, reached)
		}); err != nil {
			return nil, err
		}
	}
	result.Summaries = frequency.Summarize(all)

	overheadRaw, err := p.ParseFiles(c.Frequency(core.Perf))
	if err != nil {
		return nil, err
	}
	temperatures := frequency.LoadTemperatures(c.Temperatures())
	result.Overhead, err = frequency.AttributeTemperatures(overheadRaw, temperatures)
	if err != nil {
		return nil, err
	}
	result.Strata = frequency.Stratify(result.Overhead)

	if len(result.Overhead) > 0 {
		if err = p.write(p.outputPath(OverheadFile), func(out io.Writer) error {
			return utils.WriteOverheadObservations(out, result.Overhead)
		}); err != nil {
			return nil, err
		}
	}
	return result, nil
}
