package pkgresolver

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadPackageName 读取目录中第一个非测试 Go 文件的 package 声明
func ReadPackageName(pkgDir string) (string, error) {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return "", fmt.Errorf("读取目录失败 %s: %w", pkgDir, err)
	}

	var goFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() &&
			strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") {
			goFiles = append(goFiles, name)
		}
	}
	if len(goFiles) == 0 {
		return "", fmt.Errorf("目录 %s 中没有找到 Go 源文件", pkgDir)
	}
	sort.Strings(goFiles)

	filename := filepath.Join(pkgDir, goFiles[0])
	f, err := parser.ParseFile(token.NewFileSet(), filename, nil, parser.PackageClauseOnly)
	if err != nil {
		return "", fmt.Errorf("解析文件 %s 失败: %w", filename, err)
	}
	return f.Name.Name, nil
}
