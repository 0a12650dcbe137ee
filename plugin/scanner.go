package plugin

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DirectivePrefix 包级配置指令
const DirectivePrefix = "go:clonegen:"

// GeneratedSuffixes 生成文件的后缀，扫描时跳过
var GeneratedSuffixes = []string{"_clone.go"}

// Scanner 两阶段并行注解扫描器
// 第一阶段：快速文本匹配，找出可能包含注解的文件
// 第二阶段：对匹配的文件进行 AST 解析，提取带注解的类型声明
type Scanner struct {
	workers int
	verbose bool

	// 注解过滤器（可选）
	annotationFilter []string
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) {
		s.verbose = v
	}
}

func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) {
		s.annotationFilter = annotations
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// quickMatchRegex 快速匹配注解的正则
var quickMatchRegex = regexp.MustCompile(`@(\w+)`)

// fileResult 单个文件的解析结果
type fileResult struct {
	types     []*AnnotatedTarget
	pkgConfig *PackageConfig
}

// Scan 扫描指定路径
// 支持: ./... ./pkg/... ./pkg /abs/path/... 以及单个 .go 文件
// 结果按文件路径和声明位置排序，与并发度无关
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	allFiles, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	matched, err := s.quickMatch(ctx, allFiles)
	if err != nil {
		return nil, err
	}
	if s.verbose {
		fmt.Printf("[scanner] 共 %d 个文件，%d 个可能包含注解\n", len(allFiles), len(matched))
	}

	return s.parseFiles(ctx, matched)
}

// quickMatch 第一阶段：并行读取文件，检查是否包含 @xxx 模式
// 读取失败的文件会被跳过
func (s *Scanner) quickMatch(ctx context.Context, files []string) ([]string, error) {
	hits := make([]bool, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hits[i], _ = s.QuickMatchFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lo.Filter(files, func(_ string, i int) bool { return hits[i] }), nil
}

// QuickMatchFile 快速检查文件是否包含注解或 go:clonegen: 配置
// 用于 dev 模式判断文件是否需要触发代码生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "/*") {
			continue
		}
		if strings.Contains(trimmed, DirectivePrefix) {
			return true, nil
		}
		for _, match := range quickMatchRegex.FindAllStringSubmatch(trimmed, -1) {
			if len(s.annotationFilter) == 0 || lo.Contains(s.annotationFilter, match[1]) {
				return true, nil
			}
		}
	}

	return false, scanner.Err()
}

// parseFiles 第二阶段：AST 解析
// 语法错误的文件会被跳过，不影响其它文件
func (s *Scanner) parseFiles(ctx context.Context, files []string) (*ScanResult, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.parseFile(file)
			if err != nil {
				if s.verbose {
					fmt.Printf("[scanner] 跳过 %s: %v\n", file, err)
				}
				return nil
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{
		PackageConfigs: make(map[string]*PackageConfig),
	}
	for _, r := range results {
		result.Types = append(result.Types, r.types...)
		if r.pkgConfig != nil {
			mergePackageConfig(result.PackageConfigs, r.pkgConfig)
		}
	}

	slices.SortStableFunc(result.Types, func(a, b *AnnotatedTarget) int {
		return cmp.Or(
			cmp.Compare(a.Target.FilePath, b.Target.FilePath),
			cmp.Compare(a.Target.Position.Offset, b.Target.Position.Offset),
		)
	})

	return result, nil
}

// mergePackageConfig 合并同一包中多个文件的配置，后发现的配置覆盖先前的配置
func mergePackageConfig(configs map[string]*PackageConfig, cfg *PackageConfig) {
	pkgDir := cfg.PackageDir
	existing, ok := configs[pkgDir]
	if !ok {
		configs[pkgDir] = cfg
		return
	}
	if cfg.DefaultOutput != "" {
		if existing.DefaultOutput != "" && existing.DefaultOutput != cfg.DefaultOutput {
			fmt.Printf("警告: 包 %s 中存在多个不同的 %s 默认输出配置，使用后发现的配置\n", pkgDir, DirectivePrefix)
		}
		existing.DefaultOutput = cfg.DefaultOutput
	}
	for k, v := range cfg.PluginOutputs {
		if old, ok := existing.PluginOutputs[k]; ok && old != v {
			fmt.Printf("警告: 包 %s 中插件 %s 存在多个不同的输出配置，使用后发现的配置\n", pkgDir, k)
		}
		existing.PluginOutputs[k] = v
	}
}

// parseFile AST 解析单个文件
func (s *Scanner) parseFile(filePath string) (fileResult, error) {
	var result fileResult

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return result, err
	}

	result.pkgConfig = s.parsePackageConfig(file, filePath)

	for _, decl := range file.Decls {
		d, ok := decl.(*ast.GenDecl)
		if !ok || d.Tok != token.TYPE {
			continue
		}
		result.types = append(result.types, s.parseTypeDecl(fset, filePath, file.Name.Name, d)...)
	}

	return result, nil
}

// parseTypeDecl 解析类型声明
// 分组声明中每个类型使用自己的文档注释，非分组声明使用声明上的注释
func (s *Scanner) parseTypeDecl(fset *token.FileSet, filePath, packageName string, decl *ast.GenDecl) []*AnnotatedTarget {
	var targets []*AnnotatedTarget

	for _, spec := range decl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}

		doc := typeSpec.Doc
		if doc == nil && !decl.Lparen.IsValid() {
			doc = decl.Doc
		}
		if doc == nil {
			continue
		}

		annotations := ParseAnnotations(doc.Text())
		if len(s.annotationFilter) > 0 {
			annotations = FilterByNames(annotations, s.annotationFilter...)
		}
		if len(annotations) == 0 {
			continue
		}

		targets = append(targets, &AnnotatedTarget{
			Target: &Target{
				Kind:        targetKind(typeSpec),
				Name:        typeSpec.Name.Name,
				PackageName: packageName,
				FilePath:    filePath,
				Position:    fset.Position(typeSpec.Pos()),
				Node:        typeSpec,
			},
			Annotations: annotations,
		})
	}

	return targets
}

func targetKind(spec *ast.TypeSpec) TargetKind {
	if spec.Assign.IsValid() {
		return TargetOther
	}
	switch spec.Type.(type) {
	case *ast.StructType:
		return TargetStruct
	case *ast.InterfaceType:
		return TargetInterface
	default:
		return TargetOther
	}
}

// collectFiles 收集所有需要扫描的文件，结果已排序且去重
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...") || pattern == "..."
		if recursive {
			pattern = strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
			if pattern == "" {
				pattern = "."
			}
		}

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if strings.HasSuffix(absPath, ".go") {
				files = append(files, absPath)
			}
			continue
		}

		err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == absPath {
					return nil
				}
				name := d.Name()
				if !recursive || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
					name == "vendor" || name == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSourceFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// IsSourceFile 判断文件是否是需要扫描的源文件（非测试、非生成文件）
func IsSourceFile(path string) bool {
	if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
		return false
	}
	return !IsGeneratedFile(path)
}

// IsGeneratedFile 根据文件名判断是否是生成文件
func IsGeneratedFile(path string) bool {
	return lo.SomeBy(GeneratedSuffixes, func(suffix string) bool {
		return strings.HasSuffix(path, suffix)
	})
}

// 默认扫描器
var defaultScanner = NewScanner()

func Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	return defaultScanner.Scan(ctx, patterns...)
}

func ScanWithFilter(ctx context.Context, annotations []string, patterns ...string) (*ScanResult, error) {
	return NewScanner(WithAnnotationFilter(annotations...)).Scan(ctx, patterns...)
}

// directiveRegex 匹配 go:clonegen: 指令
// 支持两种格式：//go:clonegen: 和 // go:clonegen:
var directiveRegex = regexp.MustCompile(`^go:clonegen:\s*(.*)`)

// parsePackageConfig 解析包级 go:clonegen: 配置
// 支持格式:
//
//	//go:clonegen: -output `$FILE_clone`
//	// go:clonegen: plugin:clonegen -output `zz_clone`
//
// 同一文件中出现多条指令时全部忽略
func (s *Scanner) parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var lines []string

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimPrefix(c.Text, "//")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimSuffix(text, "*/")
			text = strings.TrimSpace(text)

			if matches := directiveRegex.FindStringSubmatch(text); len(matches) > 1 {
				lines = append(lines, matches[1])
			}
		}
	}

	switch len(lines) {
	case 0:
		return nil
	case 1:
		return parseDirectiveLine(lines[0], filePath)
	default:
		fmt.Printf("警告: 文件 %s 定义了多个 %s 指令，将被忽略\n", filePath, DirectivePrefix)
		return nil
	}
}

// parseDirectiveLine 解析单行 go:clonegen: 配置
// 格式:
//
//	-output `xxx`                          // 默认输出
//	plugin:clonegen -output `xxx`          // 插件特定输出
func parseDirectiveLine(line string, filePath string) *PackageConfig {
	config := &PackageConfig{
		PackageDir:    filepath.Dir(filePath),
		PluginOutputs: make(map[string]string),
	}

	parts := splitDirectiveArgs(strings.TrimSpace(line))

	var currentPlugin string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		switch {
		case strings.HasPrefix(part, "plugin:"):
			currentPlugin = strings.ToLower(strings.TrimPrefix(part, "plugin:"))
		case part == "-output" && i+1 < len(parts):
			i++
			output := trimQuotes(parts[i])
			if currentPlugin == "" {
				config.DefaultOutput = output
			} else {
				config.PluginOutputs[currentPlugin] = output
			}
		}
	}

	if config.DefaultOutput == "" && len(config.PluginOutputs) == 0 {
		return nil
	}
	return config
}

// splitDirectiveArgs 按空白分割参数，引号内的空白保留
func splitDirectiveArgs(line string) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == 0 && (c == '`' || c == '"' || c == '\''):
			quote = c
			current.WriteByte(c)
		case quote != 0 && c == quote:
			quote = 0
			current.WriteByte(c)
		case quote == 0 && (c == ' ' || c == '\t'):
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// trimQuotes 去除成对的引号
func trimQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '`' || first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
