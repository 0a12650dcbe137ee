package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// FormatSource 使用 goimports 规则格式化源码（整理 imports 并 gofmt）
func FormatSource(path string, src []byte) ([]byte, error) {
	formatted, err := imports.Process(path, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("格式化 %s 失败: %w", path, err)
	}
	return formatted, nil
}

// WriteFile 写入文件，必要时创建目录
func WriteFile(path string, src []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return os.WriteFile(path, src, 0644)
}

// CheckSyntax 只检查语法，不修改 imports
func CheckSyntax(path string, src []byte) error {
	_, err := imports.Process(path, src, &imports.Options{
		Fragment:   true,
		AllErrors:  true,
		Comments:   true,
		FormatOnly: true,
	})
	return err
}
