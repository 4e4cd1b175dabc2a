package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/packagewjx/energy-analyzer/pkg/core"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Kind int

const (
	// <site>/<cluster>/<node>/<task>_<core_count>_<ops_count>.csv
	Consumption Kind = iota
	// frequency_<N>_<tool>_and_<co_tool>.csv
	Frequency
	// temperatures_frequency_<N>_perf_and_<tool>.csv
	Temperature
)

func (k Kind) String() string {
	switch k {
	case Consumption:
		return "consumption"
	case Frequency:
		return "frequency"
	case Temperature:
		return "temperature"
	default:
		return "unknown"
	}
}

var (
	consumptionPattern = regexp.MustCompile(`^([a-z]+(?:_[a-z]+)*)_(\d+)_(\d+)\.csv$`)
	frequencyPattern   = regexp.MustCompile(`^frequency_(\d+)_([a-z]+)_and_([a-z]+)\.csv$`)
	temperaturePattern = regexp.MustCompile(`^temperatures_frequency_(\d+)_([a-z]+)_and_([a-z]+)\.csv$`)
)

// ErrUnrecognized 文件名或目录层级不符合任何约定
var ErrUnrecognized = errors.New("unrecognized file")

type File struct {
	Path string
	Kind Kind
	// 产生该文件的工具。温度文件为被测工具
	Tool core.Tool
	// 频率文件中同时运行的工具
	CoTool core.Tool

	Site    string
	Cluster string
	Node    string

	Task       string
	CoreCount  int
	OpsPerCore int

	TargetFrequency int
}

func (f *File) String() string {
	return fmt.Sprintf("%s[%s] %s", f.Kind, f.Tool, f.Path)
}

type Catalog struct {
	Root    string
	files   []*File
	skipped []string
}

// Walk 遍历root下的所有CSV文件并分类。无法识别的文件记录日志后跳过，只有root本身不可读时返回错误
func Walk(root string) (*Catalog, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read results root %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("results root %s is not a directory", root)
	}

	c := &Catalog{Root: root, files: make([]*File, 0), skipped: make([]string, 0)}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.WithField("path", path).WithError(err).Warn("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".csv") {
			return nil
		}

		f, err := Classify(root, path)
		if err != nil {
			log.WithField("path", path).Warn("skipping file not matching any naming convention")
			c.skipped = append(c.skipped, path)
			return nil
		}
		log.WithField("path", path).Debugf("classified as %s of %s", f.Kind, f.Tool)
		c.files = append(c.files, f)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error walking %s", root)
	}

	return c, nil
}

// Classify 根据文件相对root的路径判断文件类型并提取配置字段
func Classify(root, path string) (*File, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, ErrUnrecognized
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	name := parts[len(parts)-1]

	if m := temperaturePattern.FindStringSubmatch(name); m != nil {
		return classifyFrequency(path, parts, Temperature, m)
	}
	if m := frequencyPattern.FindStringSubmatch(name); m != nil {
		return classifyFrequency(path, parts, Frequency, m)
	}

	m := consumptionPattern.FindStringSubmatch(name)
	if m == nil || len(parts) != 4 {
		return nil, ErrUnrecognized
	}
	tool, ok := core.ParseTool(strings.SplitN(m[1], "_", 2)[0])
	if !ok {
		return nil, ErrUnrecognized
	}
	coreCount, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, ErrUnrecognized
	}
	ops, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, ErrUnrecognized
	}

	return &File{
		Path:       path,
		Kind:       Consumption,
		Tool:       tool,
		Site:       parts[0],
		Cluster:    parts[1],
		Node:       parts[2],
		Task:       m[1],
		CoreCount:  coreCount,
		OpsPerCore: ops,
	}, nil
}

// 频率实验的文件只要求位于节点目录下，集群名取节点名第一个"-"之前的部分
func classifyFrequency(path string, parts []string, kind Kind, m []string) (*File, error) {
	if len(parts) < 2 {
		return nil, ErrUnrecognized
	}
	freq, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, ErrUnrecognized
	}
	first, ok := core.ParseTool(m[2])
	if !ok {
		return nil, ErrUnrecognized
	}
	second, ok := core.ParseTool(m[3])
	if !ok {
		return nil, ErrUnrecognized
	}

	node := parts[len(parts)-2]
	f := &File{
		Path:            path,
		Kind:            kind,
		Tool:            first,
		CoTool:          second,
		Node:            node,
		Cluster:         strings.SplitN(node, "-", 2)[0],
		TargetFrequency: freq,
	}
	if len(parts) == 4 {
		f.Site = parts[0]
		f.Cluster = parts[1]
	}
	if kind == Temperature {
		if first != core.Perf {
			return nil, ErrUnrecognized
		}
		f.Tool = second
		f.CoTool = first
	}
	return f, nil
}

func (c *Catalog) Files() []*File {
	return c.files
}

func (c *Catalog) Skipped() []string {
	return c.skipped
}

func (c *Catalog) filter(kind Kind, tool core.Tool) []*File {
	result := make([]*File, 0)
	for _, f := range c.files {
		if f.Kind == kind && (tool == "" || f.Tool == tool) {
			result = append(result, f)
		}
	}
	return result
}

// Consumption 返回tool产生的能耗文件，tool为空时返回全部
func (c *Catalog) Consumption(tool core.Tool) []*File {
	return c.filter(Consumption, tool)
}

// Frequency 返回tool产生的频率实验文件，tool为空时返回全部
func (c *Catalog) Frequency(tool core.Tool) []*File {
	return c.filter(Frequency, tool)
}

func (c *Catalog) Temperatures() []*File {
	return c.filter(Temperature, "")
}
