package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanDir = filepath.Join("testdata", "scan")

func targetNames(result *ScanResult) []string {
	return lo.Map(result.Types, func(t *AnnotatedTarget, _ int) string { return t.Target.Name })
}

func TestScanner(t *testing.T) {
	result, err := NewScanner(WithWorkers(2)).Scan(context.Background(), filepath.Join(scanDir, "a"))
	require.NoError(t, err)

	// 语法错误、生成文件、测试文件和子目录都不参与；结果按文件名和位置排序
	assert.Equal(t, []string{"Alias", "User", "Repo", "IDs", "Note"}, targetNames(result))

	byName := lo.KeyBy(result.Types, func(t *AnnotatedTarget) string { return t.Target.Name })

	user := byName["User"].Target
	assert.Equal(t, TargetStruct, user.Kind)
	assert.Equal(t, "models", user.PackageName)
	assert.Equal(t, "models.go", filepath.Base(user.FilePath))
	assert.True(t, filepath.IsAbs(user.FilePath))
	assert.Equal(t, 7, user.Position.Line)

	assert.Equal(t, TargetInterface, byName["Repo"].Target.Kind)
	assert.Equal(t, "Copy", GetAnnotation(byName["Repo"].Annotations, "PropertyCloner").GetParam("method"))
	assert.Equal(t, TargetOther, byName["IDs"].Target.Kind)
	assert.Equal(t, TargetOther, byName["Alias"].Target.Kind)
}

func TestScanner_PackageConfig(t *testing.T) {
	result, err := Scan(context.Background(), filepath.Join(scanDir, "a"))
	require.NoError(t, err)

	abs, err := filepath.Abs(filepath.Join(scanDir, "a"))
	require.NoError(t, err)

	require.Len(t, result.PackageConfigs, 1)
	cfg := result.PackageConfigs[abs]
	require.NotNil(t, cfg)
	assert.Equal(t, "zz_clone", cfg.DefaultOutput)
	assert.Equal(t, "$FILE_copy", cfg.GetPluginOutput("clonegen"))
	assert.Equal(t, "zz_clone", cfg.GetPluginOutput("other"))

	// 同一文件中的多条指令全部忽略
	result, err = Scan(context.Background(), filepath.Join(scanDir, "b", "b.go"))
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, targetNames(result))
	assert.Empty(t, result.PackageConfigs)
}

func TestScannerWithFilter(t *testing.T) {
	result, err := ScanWithFilter(context.Background(), []string{"PropertyCloner"}, filepath.Join(scanDir, "a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alias", "User", "Repo", "IDs"}, targetNames(result))
	assert.Len(t, result.ByAnnotation("PropertyCloner"), 4)
	assert.Empty(t, result.ByAnnotation("Other"))
}

func TestScannerRecursive(t *testing.T) {
	result, err := Scan(context.Background(), scanDir+"/...")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alias", "User", "Repo", "IDs", "Note", "Sub", "B"}, targetNames(result))

	// 重复的模式不会产生重复的目标
	again, err := Scan(context.Background(), scanDir+"/...", filepath.Join(scanDir, "a"))
	require.NoError(t, err)
	assert.Equal(t, targetNames(result), targetNames(again))
}

func TestScanner_Deterministic(t *testing.T) {
	first, err := NewScanner(WithWorkers(1)).Scan(context.Background(), scanDir+"/...")
	require.NoError(t, err)
	for range 5 {
		got, err := NewScanner(WithWorkers(8)).Scan(context.Background(), scanDir+"/...")
		require.NoError(t, err)
		assert.Equal(t, targetNames(first), targetNames(got))
	}
}

func TestScanner_MissingPath(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(scanDir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, scanDir+"/...")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuickMatchFile(t *testing.T) {
	s := NewScanner(WithAnnotationFilter("Missing"))

	// 只有指令的文件也需要触发生成
	ok, err := s.QuickMatchFile(filepath.Join(scanDir, "a", "alias.go"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.QuickMatchFile(filepath.Join(scanDir, "a", "sub", "sub.go"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewScanner().QuickMatchFile(filepath.Join(scanDir, "a", "sub", "sub.go"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseDirectiveLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantDef string
		wantPlg map[string]string
		wantNil bool
	}{
		{name: "default", line: "-output `$FILE_clone`", wantDef: "$FILE_clone", wantPlg: map[string]string{}},
		{name: "plugin", line: `plugin:CloneGen -output "zz clone"`, wantPlg: map[string]string{"clonegen": "zz clone"}},
		{name: "mixed", line: "-output a plugin:clonegen -output 'b'", wantDef: "a", wantPlg: map[string]string{"clonegen": "b"}},
		{name: "empty", line: "  ", wantNil: true},
		{name: "dangling", line: "-output", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parseDirectiveLine(tt.line, "/src/models/models.go")
			if tt.wantNil {
				assert.Nil(t, cfg)
				return
			}
			require.NotNil(t, cfg)
			assert.Equal(t, "/src/models", cfg.PackageDir)
			assert.Equal(t, tt.wantDef, cfg.DefaultOutput)
			assert.Equal(t, tt.wantPlg, cfg.PluginOutputs)
		})
	}
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("models.go"))
	assert.False(t, IsSourceFile("models_test.go"))
	assert.False(t, IsSourceFile("models_clone.go"))
	assert.False(t, IsSourceFile("README.md"))
	assert.True(t, IsGeneratedFile("/a/b/user_clone.go"))
}
