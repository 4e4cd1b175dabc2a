package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/internal/inventory"
	"github.com/packagewjx/energy-analyzer/internal/normalize"
	"github.com/packagewjx/energy-analyzer/internal/parser"
	"github.com/packagewjx/energy-analyzer/internal/stats"
	"github.com/packagewjx/energy-analyzer/internal/store"
	"github.com/packagewjx/energy-analyzer/internal/utils"
	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	EnergyFile     = "energy.csv"
	StatisticsFile = "statistics.csv"
	OverheadFile   = "overhead.csv"
)

func FrequencyFile(tool core.Tool) string {
	return fmt.Sprintf("frequency_%s.csv", tool)
}

type Config struct {
	Batch          string `mapstructure:"batch"`
	ResultsDir     string `mapstructure:"results"`
	InventoriesDir string `mapstructure:"inventories"`
	// 为空时使用内置的处理器参考表
	ReferenceTable string `mapstructure:"reference_table"`
	OutputDir      string `mapstructure:"output"`
	// 忽略已有的输出文件重新计算
	Force bool `mapstructure:"force"`
}

func (c *Config) Validate() error {
	if c.Batch == "" {
		return fmt.Errorf("batch identifier is required")
	}
	if c.ResultsDir == "" {
		return fmt.Errorf("results directory is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

type Pipeline struct {
	config   *Config
	registry *parser.Registry
	// 可以为nil，此时结果只写入文件
	dao store.Dao

	catalog  *catalog.Catalog
	metadata []*core.NodeMetadata
}

func New(config *Config, registry *parser.Registry, dao store.Dao) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = parser.Default()
	}
	return &Pipeline{config: config, registry: registry, dao: dao}, nil
}

func (p *Pipeline) BatchDir() string {
	return filepath.Join(p.config.OutputDir, p.config.Batch)
}

func (p *Pipeline) outputPath(name string) string {
	return filepath.Join(p.BatchDir(), name)
}

func (p *Pipeline) Catalog() (*catalog.Catalog, error) {
	if p.catalog != nil {
		return p.catalog, nil
	}
	c, err := catalog.Walk(p.config.ResultsDir)
	if err != nil {
		return nil, err
	}
	log.Infof("catalogued %d files under %s, %d skipped", len(c.Files()), c.Root, len(c.Skipped()))
	p.catalog = c
	return c, nil
}

// ReferenceTable path为空时返回内置的处理器参考表
func ReferenceTable(path string) (*inventory.ReferenceTable, error) {
	if path == "" {
		return inventory.DefaultReferenceTable(), nil
	}
	return inventory.LoadReferenceTable(path)
}

// Metadata 读取节点信息。没有配置inventories目录时返回空表，所有记录的Metadata为nil
func (p *Pipeline) Metadata() ([]*core.NodeMetadata, error) {
	if p.metadata != nil {
		return p.metadata, nil
	}
	if p.config.InventoriesDir == "" {
		log.Warn("no inventories directory configured, observations carry no node metadata")
		p.metadata = make([]*core.NodeMetadata, 0)
		return p.metadata, nil
	}

	table, err := ReferenceTable(p.config.ReferenceTable)
	if err != nil {
		return nil, err
	}
	nodes, err := inventory.Load(p.config.InventoriesDir, table)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d nodes from %s", len(nodes), p.config.InventoriesDir)
	p.metadata = nodes
	return nodes, nil
}

// ParseFiles 用注册的Adapter解析文件。无法解析的文件记录日志后跳过
func (p *Pipeline) ParseFiles(files []*catalog.File) ([]*core.RawObservation, error) {
	result := make([]*core.RawObservation, 0)
	for _, f := range files {
		raw, err := p.parse(f)
		if err != nil {
			return nil, err
		}
		result = append(result, raw...)
	}
	return result, nil
}

func (p *Pipeline) parse(f *catalog.File) ([]*core.RawObservation, error) {
	adapter, ok := p.registry.Lookup(f.Tool)
	if !ok {
		log.WithField("path", f.Path).Warnf("no adapter registered for %s, skipped", f.Tool)
		return nil, nil
	}
	raw, err := adapter.Parse(f)
	if err != nil {
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			log.WithField("path", f.Path).WithError(parseErr.Err).Warn("skipping unparsable file")
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// Energy 统一模式的能耗记录。批次目录下已有energy.csv时直接读取，配置了数据库时同样保存读取的记录
func (p *Pipeline) Energy() ([]*core.EnergyObservation, error) {
	path := p.outputPath(EnergyFile)
	if in, ok, err := p.cached(path); err != nil {
		return nil, err
	} else if ok {
		defer in.Close()
		obs, err := utils.ReadEnergyObservations(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %s", path)
		}
		if err = p.saveObservations(nodesOf(obs), obs); err != nil {
			return nil, err
		}
		return obs, nil
	}

	c, err := p.Catalog()
	if err != nil {
		return nil, err
	}
	metadata, err := p.Metadata()
	if err != nil {
		return nil, err
	}
	index, err := normalize.NewIndex(metadata)
	if err != nil {
		return nil, err
	}

	normalizer := normalize.NewNormalizer(index)
	for _, tool := range core.AllTools {
		files := c.Consumption(tool)
		for _, f := range files {
			raw, err := p.parse(f)
			if err != nil {
				return nil, err
			}
			if err = normalizer.Add(raw); err != nil {
				return nil, errors.Wrapf(err, "error normalizing %s", f.Path)
			}
		}
		if len(files) > 0 {
			log.WithField("tool", tool).Debugf("normalized %d files", len(files))
		}
	}
	obs := normalizer.Result()
	log.Infof("normalized %d observations", len(obs))

	if err = p.write(path, func(out io.Writer) error {
		return utils.WriteEnergyObservations(out, obs)
	}); err != nil {
		return nil, err
	}

	if err = p.saveObservations(metadata, obs); err != nil {
		return nil, err
	}
	return obs, nil
}

// Statistics 每个配置的统计量。批次目录下已有statistics.csv时直接读取
func (p *Pipeline) Statistics() ([]*core.EnergyStatistics, error) {
	path := p.outputPath(StatisticsFile)
	if in, ok, err := p.cached(path); err != nil {
		return nil, err
	} else if ok {
		defer in.Close()
		result, err := utils.ReadEnergyStatistics(in)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %s", path)
		}
		if p.dao != nil {
			// 之前的运行可能没有配置数据库，能耗记录一并保存
			if _, err = p.Energy(); err != nil {
				return nil, err
			}
			if err = p.dao.SaveStatistics(p.config.Batch, result); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	obs, err := p.Energy()
	if err != nil {
		return nil, err
	}
	result := stats.Aggregate(obs)
	log.Infof("aggregated %d observations into %d configurations", len(obs), len(result))

	if err = p.write(path, func(out io.Writer) error {
		return utils.WriteEnergyStatistics(out, result)
	}); err != nil {
		return nil, err
	}

	if p.dao != nil {
		if err = p.dao.SaveStatistics(p.config.Batch, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *Pipeline) saveObservations(nodes []*core.NodeMetadata, obs []*core.EnergyObservation) error {
	if p.dao == nil {
		return nil
	}
	if err := p.dao.SaveNodes(nodes); err != nil {
		return err
	}
	return p.dao.SaveObservations(p.config.Batch, obs)
}

// nodesOf 记录中出现的节点信息，每个(节点, 集群)只保留一个
func nodesOf(obs []*core.EnergyObservation) []*core.NodeMetadata {
	type key struct {
		node    string
		cluster string
	}
	seen := make(map[key]bool)
	result := make([]*core.NodeMetadata, 0)
	for _, o := range obs {
		if o.Metadata == nil {
			continue
		}
		k := key{node: o.Metadata.UID, cluster: o.Metadata.Cluster}
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, o.Metadata)
	}
	return result
}

// cached 输出文件已存在且没有指定Force时打开该文件
func (p *Pipeline) cached(path string) (*os.File, bool, error) {
	if p.config.Force {
		return nil, false, nil
	}
	in, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "error opening %s", path)
	}
	log.WithField("path", path).Info("reusing previously computed table")
	return in, true, nil
}

// write 先写入临时文件，全部写入并关闭成功后才重命名为path
func (p *Pipeline) write(path string, fn func(out io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "error creating output directory for %s", path)
	}
	tmp := path + ".tmp"
	fout, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "error creating %s", tmp)
	}

	counter := &utils.WriteCounter{Writer: fout}
	if err = fn(counter); err != nil {
		_ = fout.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "error writing %s", path)
	}
	if err = fout.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "error closing %s", tmp)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "error renaming %s", tmp)
	}
	log.WithField("path", path).Infof("wrote %d bytes", counter.Count)
	return nil
}
