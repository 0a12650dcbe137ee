package clonegen

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseB() *TypeDecl {
	return &TypeDecl{
		Name:       "B",
		Namespace:  "models",
		Properties: []PropertyDecl{{Name: "S", Type: "Shape", Clonable: true}},
	}
}

// 场景 A：无基类型，只复制 a
func TestRun_ScenarioA(t *testing.T) {
	decl := &TypeDecl{
		Name:      "T",
		Namespace: "models",
		Marked:    true,
		Properties: []PropertyDecl{
			{Name: "A", Type: "int", Clonable: true},
			{Name: "B", Type: "int"},
		},
	}

	res := Run([]*TypeDecl{decl})
	require.Empty(t, res.Diagnostics.Items)
	require.Len(t, res.Outputs, 1)

	out := res.Outputs[0]
	assert.Equal(t, "models.T", out.Key)
	assert.Equal(t, "T", out.TypeName)
	src := string(out.Source)
	assert.Contains(t, src, "clone.A = t.A")
	assert.NotContains(t, src, "clone.B")
}

// 场景 B：自有字段在前，继承字段在后
func TestRun_ScenarioB(t *testing.T) {
	decl := &TypeDecl{
		Name:       "D",
		Namespace:  "models",
		Base:       baseB(),
		BaseRef:    "B",
		Marked:     true,
		Properties: []PropertyDecl{{Name: "C", Type: "Color", Clonable: true}},
	}

	res := Run([]*TypeDecl{decl})
	require.Len(t, res.Outputs, 1)
	src := string(res.Outputs[0].Source)

	c := strings.Index(src, "clone.C = d.C")
	s := strings.Index(src, "clone.S = d.S")
	require.NotEqual(t, -1, c)
	require.NotEqual(t, -1, s)
	assert.Less(t, c, s)
}

// 场景 C：同名字段默认保留两次赋值，并给出警告
func TestRun_ScenarioC(t *testing.T) {
	decl := &TypeDecl{
		Name:       "D2",
		Namespace:  "models",
		Base:       baseB(),
		BaseRef:    "B",
		Marked:     true,
		Properties: []PropertyDecl{{Name: "S", Type: "Shape", Clonable: true}},
	}

	res := Run([]*TypeDecl{decl})
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, 2, strings.Count(string(res.Outputs[0].Source), "clone.S = d.S"))

	warnings := res.Diagnostics.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, diagnostic.CodeAmbiguous, warnings[0].Code)
	assert.Equal(t, "models.D2", warnings[0].Type)
}

// 场景 D：没有任何字段
func TestRun_ScenarioD(t *testing.T) {
	res := Run([]*TypeDecl{{Name: "Empty", Namespace: "models", Marked: true}})
	require.Len(t, res.Outputs, 1)

	src := string(res.Outputs[0].Source)
	assert.Contains(t, src, "clone := &Empty{}")
	assert.Equal(t, 0, strings.Count(src, "clone."))
}

func TestRun_ConflictPolicies(t *testing.T) {
	newDecl := func(policy ConflictPolicy) *TypeDecl {
		return &TypeDecl{
			Name:       "D2",
			Namespace:  "models",
			Base:       baseB(),
			BaseRef:    "B",
			Marked:     true,
			Properties: []PropertyDecl{{Name: "S", Clonable: true}},
			Options:    Options{Conflict: policy},
		}
	}

	t.Run("error", func(t *testing.T) {
		res := Run([]*TypeDecl{newDecl(ConflictError)})
		assert.Empty(t, res.Outputs)
		require.Len(t, res.Diagnostics.Errors(), 1)
		assert.Equal(t, diagnostic.CodeAmbiguous, res.Diagnostics.Errors()[0].Code)
	})

	t.Run("skip", func(t *testing.T) {
		res := Run([]*TypeDecl{newDecl(ConflictSkip)})
		require.Len(t, res.Outputs, 1)
		assert.Equal(t, 1, strings.Count(string(res.Outputs[0].Source), "clone.S = d.S"))
		assert.False(t, res.Diagnostics.HasErrors())
		assert.Empty(t, res.Diagnostics.Warnings())
	})
}

func TestRun_MethodNameClash(t *testing.T) {
	res := Run([]*TypeDecl{{
		Name:       "T",
		Namespace:  "models",
		Marked:     true,
		Properties: []PropertyDecl{{Name: "Copy"}},
		Options:    Options{Method: "Copy"},
	}})
	assert.Empty(t, res.Outputs)
	require.Len(t, res.Diagnostics.Errors(), 1)
	assert.Equal(t, diagnostic.CodeInvalidParam, res.Diagnostics.Errors()[0].Code)
}

func TestRun_UnmarkedIgnored(t *testing.T) {
	res := Run([]*TypeDecl{
		{Name: "Plain", Namespace: "models", Properties: []PropertyDecl{{Name: "A", Clonable: true}}},
	})
	assert.Empty(t, res.Outputs)
	assert.Empty(t, res.Diagnostics.Items)
}

// 单个类型失败不影响其它类型
func TestRun_FailureIsolation(t *testing.T) {
	decls := []*TypeDecl{
		{Name: "Good1", Namespace: "models", Marked: true, Properties: []PropertyDecl{{Name: "A", Clonable: true}}},
		{Name: "Iface", Namespace: "models", Kind: KindInterface, Marked: true},
		{Name: "Broken", Namespace: "models", BaseRef: "other.Missing", Marked: true},
		nil,
		{Name: "Good2", Namespace: "models", Marked: true, Properties: []PropertyDecl{{Name: "B", Clonable: true}}},
	}

	res := Run(decls)
	require.Len(t, res.Outputs, 2)
	assert.Equal(t, "Good1", res.Outputs[0].TypeName)
	assert.Equal(t, "Good2", res.Outputs[1].TypeName)
	assert.Contains(t, string(res.Outputs[1].Source), "clone.B = g.B")

	errs := res.Diagnostics.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, diagnostic.CodePrecondition, errs[0].Code)
	assert.Equal(t, "models.Iface", errs[0].Type)
	assert.Equal(t, diagnostic.CodeMalformed, errs[1].Code)
	assert.Contains(t, errs[1].Message, "other.Missing")
	assert.Equal(t, diagnostic.CodeMalformed, errs[2].Code)
}

func TestRun_Keys(t *testing.T) {
	decls := []*TypeDecl{
		{Name: "User", Namespace: "models", PkgPath: "example.com/a/models", Marked: true},
		{Name: "User", Namespace: "models", PkgPath: "example.com/b/models", Marked: true},
		{Name: "User", Namespace: "models", PkgPath: "example.com/a/models", Marked: true},
	}

	res := Run(decls)
	require.Len(t, res.Outputs, 2)
	assert.Equal(t, "example.com/a/models.User", res.Outputs[0].Key)
	assert.Equal(t, "example.com/b/models.User", res.Outputs[1].Key)

	_, ok := res.Output("example.com/b/models.User")
	assert.True(t, ok)

	errs := res.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostic.CodeDuplicateKey, errs[0].Code)
}

func TestRun_Idempotent(t *testing.T) {
	decls := sampleDecls(20)

	first := Run(decls)
	second := Run(decls)
	require.Equal(t, len(first.Outputs), len(second.Outputs))
	for i := range first.Outputs {
		assert.Equal(t, first.Outputs[i].Key, second.Outputs[i].Key)
		assert.Equal(t, first.Outputs[i].Source, second.Outputs[i].Source)
	}
}

func TestRunConcurrent_MatchesRun(t *testing.T) {
	decls := sampleDecls(50)

	want := Run(decls)
	got, err := RunConcurrent(context.Background(), decls, 4)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	unlimited, err := RunConcurrent(context.Background(), decls, 0)
	require.NoError(t, err)
	assert.Equal(t, want, unlimited)
}

func TestRunConcurrent_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := RunConcurrent(ctx, sampleDecls(10), 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func sampleDecls(n int) []*TypeDecl {
	base := baseB()
	decls := make([]*TypeDecl, 0, n)
	for i := range n {
		d := &TypeDecl{
			Name:      fmt.Sprintf("Type%d", i),
			Namespace: "models",
			Marked:    i%3 != 0,
			Properties: []PropertyDecl{
				{Name: "A", Clonable: true},
				{Name: "B", Clonable: i%2 == 0},
			},
		}
		if i%4 == 0 {
			d.Base = base
			d.BaseRef = "B"
		}
		decls = append(decls, d)
	}
	return decls
}

// 无法生成合法代码的名称按类型报告 malformed 并跳过
func TestRun_InvalidIdentifiers(t *testing.T) {
	decls := []*TypeDecl{
		{Name: "T", Namespace: "my.ns", Marked: true, Properties: []PropertyDecl{{Name: "A", Clonable: true}}},
		{Name: "Bad Name", Namespace: "models", Marked: true},
		{Name: "M", Namespace: "models", Marked: true, Options: Options{Method: "not valid"}},
		{Name: "Good", Namespace: "models", Marked: true, Properties: []PropertyDecl{{Name: "A", Clonable: true}}},
	}

	res := Run(decls)
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, "Good", res.Outputs[0].TypeName)

	errs := res.Diagnostics.Errors()
	require.Len(t, errs, 3)
	for _, d := range errs {
		assert.Equal(t, diagnostic.CodeMalformed, d.Code)
	}
	assert.Equal(t, "my.ns.T", errs[0].Type)
	assert.Contains(t, errs[0].Message, "my.ns")
}

// 未设置包名的声明在输出和诊断中使用占位包名，且不修改输入
func TestRun_NormalizesNamespace(t *testing.T) {
	decls := []*TypeDecl{
		{Name: "T", Marked: true, Properties: []PropertyDecl{{Name: "A", Clonable: true}}},
		{Name: "T", Marked: true},
	}

	res := Run(decls)
	require.Len(t, res.Outputs, 1)
	out := res.Outputs[0]
	assert.Equal(t, GlobalNamespace, out.Namespace)
	assert.Equal(t, GlobalNamespace+".T", out.Key)
	assert.Contains(t, string(out.Source), "package "+GlobalNamespace)
	assert.Empty(t, decls[0].Namespace)

	errs := res.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostic.CodeDuplicateKey, errs[0].Code)
	assert.Contains(t, errs[0].Message, GlobalNamespace+".T")
}
