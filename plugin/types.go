package plugin

import (
	"context"
	"go/ast"
	"go/token"
	"path/filepath"

	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/donutnomad/gg"
)

// TargetKind 表示注解目标的类型
type TargetKind int

const (
	TargetStruct    TargetKind = iota + 1 // 结构体
	TargetInterface                       // 接口
	TargetOther                           // 其它命名类型（切片、映射、别名等）
)

func (k TargetKind) String() string {
	switch k {
	case TargetStruct:
		return "struct"
	case TargetInterface:
		return "interface"
	case TargetOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParamDef 定义注解参数的元信息
type ParamDef struct {
	Name        string // 参数名称
	Required    bool   // 是否必填
	Default     string // 默认值（如果不是必填）
	Description string // 参数描述
}

// Annotation 表示解析后的注解
type Annotation struct {
	Name   string            // 注解名称，如 "PropertyCloner"
	Params map[string]string // 注解参数，键为小写
	Raw    string            // 原始注解文本
}

// Target 表示注解的目标类型
type Target struct {
	Kind        TargetKind
	Name        string
	PackageName string
	FilePath    string
	Position    token.Position

	// AST 节点（可选，用于深度解析）
	Node ast.Node
}

// Dir 返回目标所在的包目录
func (t *Target) Dir() string {
	return filepath.Dir(t.FilePath)
}

// AnnotatedTarget 表示带注解的目标
type AnnotatedTarget struct {
	Target       *Target
	Annotations  []*Annotation
	ParsedParams any // 解析后的参数结构体（值类型）
}

// ScanResult 表示扫描结果
type ScanResult struct {
	// Types 带注解的类型，按文件路径和声明位置排序
	Types []*AnnotatedTarget

	// PackageConfigs 包级配置
	// key: 包目录
	PackageConfigs map[string]*PackageConfig
}

// ByAnnotation 按注解名称过滤
func (r *ScanResult) ByAnnotation(name string) []*AnnotatedTarget {
	var result []*AnnotatedTarget
	for _, t := range r.Types {
		if HasAnnotation(t.Annotations, name) {
			result = append(result, t)
		}
	}
	return result
}

// GenerateContext 生成上下文，传递给 Generator
type GenerateContext struct {
	Context        context.Context
	Targets        []*AnnotatedTarget        // 该 Generator 需要处理的目标
	PackageConfigs map[string]*PackageConfig // 包级配置，key: 包目录
	DefaultOutput  string                    // 命令行指定的默认输出路径（最低优先级）
	Workers        int                       // 生成器内部并发数，<= 0 表示不限制
	Verbose        bool
}

// Ctx 返回上下文，未设置时返回 context.Background()
func (c *GenerateContext) Ctx() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// GetPackageConfig 获取目标所在包的配置
func (c *GenerateContext) GetPackageConfig(target *Target) *PackageConfig {
	if c.PackageConfigs == nil || target == nil {
		return nil
	}
	return c.PackageConfigs[target.Dir()]
}

// GenerateResult 生成结果
// Generator 返回 gg 定义，由聚合器统一处理
type GenerateResult struct {
	// Definitions 生成的 gg 定义
	// key: 输出文件路径
	Definitions map[string]*gg.Generator

	// Diagnostics 按类型归属的诊断
	Diagnostics diagnostic.Diagnostics

	// Errors 无法归属到某个类型的错误
	Errors []error

	// Skipped 跳过的目标数量
	Skipped int
}

// NewGenerateResult 创建新的生成结果
func NewGenerateResult() *GenerateResult {
	return &GenerateResult{
		Definitions: make(map[string]*gg.Generator),
	}
}

// AddDefinition 添加 gg 定义，同一路径已有定义时合并
func (r *GenerateResult) AddDefinition(path string, gen *gg.Generator) {
	if r.Definitions == nil {
		r.Definitions = make(map[string]*gg.Generator)
	}
	if existing, ok := r.Definitions[path]; ok {
		existing.Merge(gen)
		return
	}
	r.Definitions[path] = gen
}

// AddError 添加错误
func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// HasErrors 检查是否有错误（包括错误级别的诊断）
func (r *GenerateResult) HasErrors() bool {
	return len(r.Errors) > 0 || r.Diagnostics.HasErrors()
}

// PackageConfig 包级生成配置
// 通过 // go:clonegen: 注释定义，对同一目录下的所有文件生效
// 示例:
//
//	// go:clonegen: -output `$FILE_clone`
//	// go:clonegen: plugin:clonegen -output `zz_clone`
type PackageConfig struct {
	PackageDir string

	// DefaultOutput 默认输出路径（对所有插件生效）
	DefaultOutput string

	// PluginOutputs 插件特定的输出路径
	// key: 插件名（小写）
	PluginOutputs map[string]string
}

// GetPluginOutput 获取指定插件的输出路径
// 优先返回插件特定配置，其次返回默认配置
func (c *PackageConfig) GetPluginOutput(pluginName string) string {
	if c == nil {
		return ""
	}
	if output, ok := c.PluginOutputs[pluginName]; ok {
		return output
	}
	return c.DefaultOutput
}
