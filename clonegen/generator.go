package clonegen

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/donutnomad/clonegen/internal/pkgresolver"
	"github.com/donutnomad/clonegen/plugin"
)

// GeneratorName 生成器名称，也是包级配置中的插件名
const GeneratorName = "clonegen"

// DefaultOutputFile 默认输出文件名
const DefaultOutputFile = "$FILE_clone.go"

// CloneParams @PropertyCloner 注解参数
type CloneParams struct {
	Method   string `param:"name=method,required=false,default=CloneProperties,description=生成的方法名"`
	Conflict string `param:"name=conflict,required=false,default=allow,description=自有字段与继承字段同名时的策略: allow/error/skip"`
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// CloneGenerator 为带 @PropertyCloner 注解的类型生成克隆方法
type CloneGenerator struct {
	plugin.BaseGenerator
}

// NewCloneGenerator 创建克隆方法生成器
// 接口和其它非结构体类型也会被分发进来，由生成阶段报告前置条件错误
func NewCloneGenerator() *CloneGenerator {
	return &CloneGenerator{
		BaseGenerator: *plugin.NewBaseGeneratorWithParamsStruct(
			GeneratorName,
			[]string{MarkerAnnotation},
			[]plugin.TargetKind{plugin.TargetStruct, plugin.TargetInterface, plugin.TargetOther},
			CloneParams{},
		),
	}
}

// Generate 加载目标类型的声明，生成克隆方法并按输出文件分组
func (g *CloneGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()
	loaders := make(map[string]*Loader)

	var decls []*TypeDecl
	owners := make(map[string]*plugin.AnnotatedTarget)

	for _, at := range ctx.Targets {
		target := at.Target
		loader, err := loaderFor(loaders, target.Dir())
		if err != nil {
			result.AddError(fmt.Errorf("%s.%s: %w", target.PackageName, target.Name, err))
			continue
		}

		decl, diags, err := loader.LoadType(target.Dir(), target.Name)
		if err != nil {
			result.AddError(fmt.Errorf("加载 %s.%s 失败: %w", target.PackageName, target.Name, err))
			continue
		}
		result.Diagnostics.Merge(diags)

		// 注解本身不合法时加载阶段已经报告并取消标记
		if decl.Marked {
			g.applyParams(decl, at, &result.Diagnostics)
		}
		if ctx.Verbose {
			fmt.Printf("[clonegen] %s\n%s", decl.QualifiedName(), dumper.Sdump(decl))
		}

		decls = append(decls, decl)
		if _, exists := owners[decl.Key()]; !exists {
			owners[decl.Key()] = at
		}
	}

	res, err := RunConcurrent(ctx.Ctx(), decls, ctx.Workers)
	if err != nil {
		return nil, err
	}
	result.Diagnostics.Merge(res.Diagnostics)

	for _, out := range res.Outputs {
		at := owners[out.Key]
		def, err := plugin.ParseSourceToGG(out.Source)
		if err != nil {
			result.AddError(fmt.Errorf("%s: %w", out.Key, err))
			continue
		}
		ann := plugin.GetAnnotation(at.Annotations, MarkerAnnotation)
		path := plugin.GetOutputPath(at.Target, ann, DefaultOutputFile, ctx.GetPackageConfig(at.Target), g.Name(), ctx.DefaultOutput)
		result.AddDefinition(path, def)
	}

	result.Skipped = len(ctx.Targets) - len(res.Outputs)
	if ctx.Verbose {
		fmt.Printf("[clonegen] 生成 %d 个类型，跳过 %d 个\n", len(res.Outputs), result.Skipped)
	}
	return result, nil
}

// applyParams 使用已解析的注解参数（包含配置文件中的默认值）覆盖生成设置
func (g *CloneGenerator) applyParams(decl *TypeDecl, at *plugin.AnnotatedTarget, diags *diagnostic.Diagnostics) {
	params, ok := at.ParsedParams.(CloneParams)
	if !ok {
		return
	}
	opts, err := ParseOptions(params.Method, params.Conflict)
	if err != nil {
		diags.AddError(diagnostic.CodeInvalidParam, decl.QualifiedName(), "%v", err)
		decl.Marked = false
		return
	}
	decl.Options = opts
}

// loaderFor 按项目根目录复用加载器，同一项目中的包只解析一次
func loaderFor(loaders map[string]*Loader, dir string) (*Loader, error) {
	root, err := pkgresolver.FindProjectRoot(dir)
	if err != nil {
		return nil, err
	}
	loader, ok := loaders[root]
	if !ok {
		loader = NewLoader(root)
		loaders[root] = loader
	}
	return loader, nil
}
