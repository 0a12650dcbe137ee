package plugin

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/donutnomad/gg"
)

// ParseSourceToGG 将 Go 源代码解析并转换为 gg.Generator
// 保留 imports 和包名，使多份源码可以通过 gg.Generator.Merge 合并到同一个文件。
// import 之后的内容（包括声明之间和文件末尾的注释）原样保留
func ParseSourceToGG(source []byte) (*gg.Generator, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("解析源代码失败: %w", err)
	}

	gen := gg.New()
	gen.SetPackage(file.Name.Name)

	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, fmt.Errorf("解析 import %s 失败: %w", imp.Path.Value, err)
		}
		switch {
		case imp.Name == nil:
			gen.P(importPath)
		case imp.Name.Name == "." || imp.Name.Name == "_":
			// dot import 和空白 import 不参与合并
		default:
			gen.PAlias(importPath, imp.Name.Name)
		}
	}

	if body := extractBody(fset, file, source); body != "" {
		gen.Body().Append(gg.String("%s", body))
	}

	return gen, nil
}

// MustParseSourceToGG 是 ParseSourceToGG 的 panic 版本
func MustParseSourceToGG(source []byte) *gg.Generator {
	gen, err := ParseSourceToGG(source)
	if err != nil {
		panic(err)
	}
	return gen
}

// extractBody 返回最后一个 import 声明之后的源码
func extractBody(fset *token.FileSet, file *ast.File, source []byte) string {
	start := file.Name.End()
	for _, decl := range file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			start = gd.End()
		}
	}
	return strings.TrimSpace(string(source[fset.Position(start).Offset:]))
}
