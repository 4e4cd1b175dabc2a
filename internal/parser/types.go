package parser

import (
	"fmt"

	"github.com/packagewjx/energy-analyzer/internal/catalog"
	"github.com/packagewjx/energy-analyzer/pkg/core"
)

// Adapter 读取某个工具的原始输出文件，并转换为RawObservation
type Adapter interface {
	Tool() core.Tool
	// 工具实际上报的能耗域，未上报的能耗域记为0
	Domains() core.DomainSet
	// 时间戳的单位
	TimeUnit() core.TimeUnit
	Parse(file *catalog.File) ([]*core.RawObservation, error)
}

// ParseError 文件中的某个值无法解析，整个文件作废
type ParseError struct {
	Path string
	// 记录序号，0表示表头或文件本身
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Registry struct {
	adapters map[core.Tool]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[core.Tool]Adapter)}
	for _, adapter := range adapters {
		r.Register(adapter)
	}
	return r
}

// Register 注册工具的Adapter，同一工具重复注册时后者覆盖前者
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Tool()] = adapter
}

func (r *Registry) Lookup(tool core.Tool) (Adapter, bool) {
	a, ok := r.adapters[tool]
	return a, ok
}

// Default 包含所有已知工具的Registry
func Default() *Registry {
	return NewRegistry(
		HWPC(),
		Perf(),
		Estimator(core.CodeCarbon, core.DomainSet(core.DomainPkg|core.DomainRAM), KWhToJoule),
		Estimator(core.Alumet, core.AllDomains, 1),
		Estimator(core.Scaphandre, core.DomainSet(core.DomainPkg|core.DomainRAM), 1),
		Estimator(core.VJoule, core.AllDomains, 1),
	)
}
