package plugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"time"

	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/donutnomad/clonegen/internal/utils"
	"github.com/donutnomad/gg"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// FileHeader 生成文件的头部注释
const FileHeader = "Code generated by clonegen. DO NOT EDIT."

// ErrStale 检查模式下存在与生成结果不一致的文件
var ErrStale = errors.New("生成文件已过期")

// Run 运行代码生成
// 1. 扫描指定路径的注解
// 2. 将目标分发给对应的生成器
// 3. 执行生成器
// 4. 合并同一文件的 gg 定义，格式化后写入
func Run(ctx context.Context, registry *Registry, patterns ...string) error {
	return RunWithOptions(ctx, &RunOptions{
		Registry: registry,
		Patterns: patterns,
	})
}

// RunGlobal 使用全局注册表运行
func RunGlobal(ctx context.Context, patterns ...string) error {
	return Run(ctx, globalRegistry, patterns...)
}

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Verbose  bool
	Output   string // 命令行指定的默认输出路径（最低优先级）
	Async    bool   // 是否并行执行各个生成器
	Check    bool   // 只比较生成结果与已有文件，不写入
	Workers  int    // 扫描和生成的并发数，<= 0 使用默认值
	Sink     Sink   // 输出目标，为空时写入文件系统
	Quiet    bool   // 不输出进度和诊断，由调用方通过 RunStats 自行展示
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration     time.Duration // 扫描耗时
	GenerateDuration time.Duration // 生成耗时
	TotalDuration    time.Duration // 总耗时
	TargetCount      int           // 目标数量
	FileCount        int           // 生成（或检查）的文件数量

	Files       []string               // 生成的文件，已排序
	Stale       []string               // 检查模式下内容不一致的文件
	Diagnostics diagnostic.Diagnostics // 所有生成器的诊断
}

// RunWithOptions 带选项运行
func RunWithOptions(ctx context.Context, opts *RunOptions) error {
	_, err := RunWithOptionsAndStats(ctx, opts)
	return err
}

// genResultItem 单个生成器的执行结果
type genResultItem struct {
	genName string
	result  *GenerateResult
	err     error
}

// RunWithOptionsAndStats 带选项运行并返回统计信息
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		registry = globalRegistry
	}
	annotations := registry.Annotations()
	if len(annotations) == 0 {
		return nil, fmt.Errorf("没有已注册的生成器")
	}

	scanStart := time.Now()
	scanner := NewScanner(
		WithAnnotationFilter(annotations...),
		WithScannerVerbose(opts.Verbose),
		WithWorkers(opts.Workers),
	)
	result, err := scanner.Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)
	stats.TargetCount = len(result.Types)

	if stats.TargetCount == 0 {
		if opts.Verbose {
			fmt.Println("没有找到任何带注解的目标")
		}
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}
	if opts.Verbose {
		fmt.Printf("找到 %d 个带注解的目标 (扫描耗时: %v)\n", stats.TargetCount, stats.ScanDuration)
	}

	generateStart := time.Now()
	dispatch := registry.DispatchTargets(result)

	// 按优先级排序生成器
	gens := lo.Filter(registry.Generators(), func(gen Generator, _ int) bool {
		return len(dispatch[gen.Name()]) > 0
	})

	// 先串行解析所有目标的参数，生成器并行执行时只读
	var allErrors []error
	for _, gen := range gens {
		allErrors = append(allErrors, parseTargetParams(gen, dispatch[gen.Name()])...)
	}

	executeGenerator := func(gen Generator) genResultItem {
		targets := dispatch[gen.Name()]
		if opts.Verbose {
			fmt.Printf("执行生成器: %s (开始处理 %d 个目标)\n", gen.Name(), len(targets))
		}

		start := time.Now()
		res, err := gen.Generate(&GenerateContext{
			Context:        ctx,
			Targets:        targets,
			PackageConfigs: result.PackageConfigs,
			DefaultOutput:  opts.Output,
			Workers:        opts.Workers,
			Verbose:        opts.Verbose,
		})
		if opts.Verbose {
			fmt.Printf("执行生成器: %s (耗时: %v)\n", gen.Name(), time.Since(start))
		}
		return genResultItem{genName: gen.Name(), result: res, err: err}
	}

	items := make([]genResultItem, len(gens))
	if opts.Async {
		var g errgroup.Group
		for i, gen := range gens {
			g.Go(func() error {
				items[i] = executeGenerator(gen)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, gen := range gens {
			items[i] = executeGenerator(gen)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 按优先级顺序收集 gg 定义，按文件分组
	fileDefinitions := make(map[string][]*gg.Generator)
	fileGenNames := make(map[string][]string)
	for _, item := range items {
		if item.err != nil {
			allErrors = append(allErrors, fmt.Errorf("生成器 %s 执行失败: %w", item.genName, item.err))
			continue
		}
		if item.result == nil {
			continue
		}
		for _, path := range sortedKeys(item.result.Definitions) {
			fileDefinitions[path] = append(fileDefinitions[path], item.result.Definitions[path])
			fileGenNames[path] = append(fileGenNames[path], item.genName)
		}
		stats.Diagnostics.Merge(item.result.Diagnostics)
		allErrors = append(allErrors, item.result.Errors...)
	}

	if !opts.Quiet {
		reportDiagnostics(stats.Diagnostics, opts.Verbose)
	}
	for _, d := range stats.Diagnostics.Errors() {
		allErrors = append(allErrors, errors.New(d.String()))
	}

	sink := opts.Sink
	if sink == nil {
		sink = FileSink{}
	}

	for _, path := range sortedKeys(fileDefinitions) {
		merged, err := mergeDefinitions(fileDefinitions[path], fileGenNames[path])
		if err != nil {
			allErrors = append(allErrors, fmt.Errorf("合并文件 %s 的定义失败: %w", path, err))
			continue
		}
		src, err := utils.FormatSource(path, merged.Bytes())
		if err != nil {
			allErrors = append(allErrors, err)
			continue
		}

		if opts.Check {
			stats.FileCount++
			if stale, diff := compareExisting(path, src); stale {
				stats.Stale = append(stats.Stale, path)
				logf(opts, "需要重新生成: %s\n%s", path, diff)
			}
			continue
		}

		if err := sink.Write(path, src); err != nil {
			allErrors = append(allErrors, fmt.Errorf("写入文件 %s 失败: %w", path, err))
			continue
		}
		stats.FileCount++
		stats.Files = append(stats.Files, path)
		logf(opts, "生成文件: %s\n", path)
	}

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)

	if len(allErrors) > 0 {
		for _, e := range allErrors {
			logf(opts, "错误: %v\n", e)
		}
		return stats, fmt.Errorf("生成过程中出现 %d 个错误", len(allErrors))
	}
	if len(stats.Stale) > 0 {
		return stats, fmt.Errorf("%w: %d 个文件", ErrStale, len(stats.Stale))
	}

	return stats, nil
}

// parseTargetParams 将目标上属于该生成器的注解参数解析到参数结构体
func parseTargetParams(gen Generator, targets []*AnnotatedTarget) []error {
	var errs []error
	for _, target := range targets {
		params := gen.NewParams()
		if params == nil {
			return nil
		}
		ann, ok := lo.Find(target.Annotations, func(ann *Annotation) bool {
			return slices.Contains(gen.Annotations(), ann.Name)
		})
		if !ok {
			continue
		}
		if err := ParseAnnotationParams(ann, params, gen.ParamDefs()); err != nil {
			errs = append(errs, fmt.Errorf("%s.%s 解析参数失败: %w", target.Target.PackageName, target.Target.Name, err))
			continue
		}
		val := reflect.ValueOf(params)
		if val.Kind() != reflect.Ptr {
			errs = append(errs, fmt.Errorf("NewParams() 必须返回指针类型, 得到: %T", params))
			continue
		}
		target.ParsedParams = val.Elem().Interface()
	}
	return errs
}

func logf(opts *RunOptions, format string, args ...any) {
	if !opts.Quiet {
		fmt.Printf(format, args...)
	}
}

// reportDiagnostics 输出警告，详细模式下同时输出提示信息
// 错误级别的诊断由调用方统一输出
func reportDiagnostics(diags diagnostic.Diagnostics, verbose bool) {
	for _, d := range diags.Items {
		switch {
		case d.Severity == diagnostic.SeverityWarning:
			fmt.Printf("警告: %s\n", d)
		case d.Severity == diagnostic.SeverityInfo && verbose:
			fmt.Printf("提示: %s\n", d)
		}
	}
}

// mergeDefinitions 合并多个 gg.Generator 定义到一个文件
// 多个生成器输出到同一文件时，在各自的代码前添加分隔注释
func mergeDefinitions(definitions []*gg.Generator, genNames []string) (*gg.Generator, error) {
	if len(definitions) == 0 {
		return nil, fmt.Errorf("没有定义需要合并")
	}

	merged := gg.New()
	merged.SetHeader(FileHeader)

	var pkgName string
	for _, def := range definitions {
		switch {
		case def.PackageName() == "":
		case pkgName == "":
			pkgName = def.PackageName()
		case pkgName != def.PackageName():
			return nil, fmt.Errorf("包名不一致: %s vs %s", pkgName, def.PackageName())
		}
	}
	if pkgName != "" {
		merged.SetPackage(pkgName)
	}

	// Merge 会处理 imports 和别名，不要手动收集
	for i, def := range definitions {
		if len(definitions) > 1 {
			merged.Body().AddLine()
			merged.Body().AddString(fmt.Sprintf("// ================ %s ================", genNames[i]))
			merged.Body().AddLine()
		}
		merged.Merge(def)
	}

	return merged, nil
}

// compareExisting 比较已有文件与生成结果，返回是否不一致以及统一格式的差异
func compareExisting(path string, src []byte) (bool, string) {
	existing, err := os.ReadFile(path)
	if err != nil {
		existing = nil
	}
	if bytes.Equal(existing, src) {
		return false, ""
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(existing)),
		B:        difflib.SplitLines(string(src)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	return true, diff
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
