package clonegen

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/donutnomad/clonegen/plugin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSink 把生成结果保存在内存中
type memSink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *memSink) Write(path string, src []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[path] = src
	return nil
}

func scanModels(t *testing.T, gen plugin.Generator) *plugin.GenerateContext {
	t.Helper()
	scan, err := plugin.ScanWithFilter(context.Background(), gen.Annotations(), modelsDir)
	require.NoError(t, err)

	targets := scan.ByAnnotation(MarkerAnnotation)
	for _, at := range targets {
		params := gen.NewParams()
		ann := plugin.GetAnnotation(at.Annotations, MarkerAnnotation)
		require.NoError(t, plugin.ParseAnnotationParams(ann, params, gen.ParamDefs()))
		at.ParsedParams = *params.(*CloneParams)
	}

	return &plugin.GenerateContext{
		Context:        context.Background(),
		Targets:        targets,
		PackageConfigs: scan.PackageConfigs,
		Workers:        2,
	}
}

func TestCloneGenerator_Definition(t *testing.T) {
	gen := NewCloneGenerator()

	assert.Equal(t, GeneratorName, gen.Name())
	assert.Equal(t, []string{MarkerAnnotation}, gen.Annotations())
	assert.ElementsMatch(t, []plugin.TargetKind{plugin.TargetStruct, plugin.TargetInterface, plugin.TargetOther}, gen.SupportedTargets())

	defs := lo.KeyBy(gen.ParamDefs(), func(p plugin.ParamDef) string { return p.Name })
	assert.Equal(t, DefaultMethod, defs["method"].Default)
	assert.Equal(t, string(ConflictAllow), defs["conflict"].Default)

	_, ok := gen.NewParams().(*CloneParams)
	assert.True(t, ok)
}

func TestCloneGenerator_Generate(t *testing.T) {
	gen := NewCloneGenerator()
	ctx := scanModels(t, gen)
	require.Len(t, ctx.Targets, 7)

	result, err := gen.Generate(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.Skipped)

	abs, err := filepath.Abs(filepath.Join(modelsDir, "models_clone.go"))
	require.NoError(t, err)
	require.Contains(t, result.Definitions, abs)
	require.Len(t, result.Definitions, 1)

	src := string(result.Definitions[abs].Bytes())
	for _, want := range []string{
		"func (m *MyClass) CloneProperties() *MyClass",
		"func (d *D2) CloneProperties() *D2",
		"func (l *Locked) Snapshot() *Locked",
		"func (o *Order) CloneProperties() *Order",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "IDs")
	assert.NotContains(t, src, "Broken")
	assert.NotContains(t, src, "BadParam")

	errs := lo.Map(result.Diagnostics.Errors(), func(d diagnostic.Diagnostic, _ int) string {
		return d.Type + ":" + d.Code
	})
	assert.ElementsMatch(t, []string{
		"models.BadParam:" + diagnostic.CodeInvalidParam,
		"models.Broken:" + diagnostic.CodeMalformed,
		"models.IDs:" + diagnostic.CodePrecondition,
	}, errs)

	ambiguous := lo.Filter(result.Diagnostics.Warnings(), func(d diagnostic.Diagnostic, _ int) bool {
		return d.Code == diagnostic.CodeAmbiguous
	})
	require.Len(t, ambiguous, 1)
	assert.Equal(t, "models.D2", ambiguous[0].Type)
}

// 配置文件中的默认值通过参数默认值生效，注解上的值优先
func TestCloneGenerator_ConfiguredDefaults(t *testing.T) {
	gen := NewCloneGenerator()
	require.True(t, gen.SetParamDefault("method", "Copy"))
	require.True(t, gen.SetParamDefault("conflict", "skip"))

	result, err := gen.Generate(scanModels(t, gen))
	require.NoError(t, err)

	var src string
	for _, def := range result.Definitions {
		src += string(def.Bytes())
	}
	assert.Contains(t, src, "func (m *MyClass) Copy() *MyClass")
	assert.Contains(t, src, "func (l *Locked) Snapshot() *Locked")
	// skip 策略下同名的继承字段只赋值一次
	assert.Equal(t, 1, strings.Count(src, "clone.Shape = d.Shape"))

	for _, d := range result.Diagnostics.Warnings() {
		assert.NotEqual(t, diagnostic.CodeAmbiguous, d.Code)
	}
}

func TestCloneGenerator_InvalidConfiguredDefault(t *testing.T) {
	gen := NewCloneGenerator()
	gen.SetParamDefault("method", "not valid")

	result, err := gen.Generate(scanModels(t, gen))
	require.NoError(t, err)

	// 只有 Locked 显式指定了方法名
	var src string
	for _, def := range result.Definitions {
		src += string(def.Bytes())
	}
	assert.Contains(t, src, "Snapshot")
	assert.NotContains(t, src, "MyClass")

	invalid := lo.Filter(result.Diagnostics.Errors(), func(d diagnostic.Diagnostic, _ int) bool {
		return d.Code == diagnostic.CodeInvalidParam
	})
	assert.Len(t, invalid, 6)
}

func TestCloneGenerator_Canceled(t *testing.T) {
	gen := NewCloneGenerator()
	ctx := scanModels(t, gen)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.Context = canceled

	_, err := gen.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloneGenerator_Run(t *testing.T) {
	registry := plugin.NewRegistry()
	registry.MustRegister(NewCloneGenerator())

	sink := &memSink{}
	stats, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
		Registry: registry,
		Patterns: []string{modelsDir},
		Output:   "zz_$PACKAGE_clone",
		Sink:     sink,
	})
	// 测试数据中包含故意出错的类型
	require.Error(t, err)
	require.NotNil(t, stats)
	assert.Len(t, stats.Diagnostics.Errors(), 3)

	abs, err := filepath.Abs(filepath.Join(modelsDir, "zz_models_clone.go"))
	require.NoError(t, err)
	require.Contains(t, sink.files, abs)

	src := string(sink.files[abs])
	assert.Contains(t, src, plugin.FileHeader)
	assert.Contains(t, src, "package models")
	assert.Contains(t, src, "clone.Color = m.Color")
	assert.Contains(t, src, "clone.ID = o.ID")
	assert.NotContains(t, src, "================")
}
