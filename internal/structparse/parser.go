package structparse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// parseDir 解析目录中的所有非测试 Go 文件
// os.ReadDir 按文件名排序，因此结果顺序稳定
func parseDir(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败 %s: %w", dir, err)
	}

	pkg := &Package{
		Dir:   dir,
		index: make(map[string]*TypeInfo),
	}
	fset := token.NewFileSet()

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(dir, name)

		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("解析文件 %s 失败: %w", path, err)
		}
		if pkg.Name == "" {
			pkg.Name = file.Name.Name
		} else if pkg.Name != file.Name.Name {
			return nil, fmt.Errorf("目录 %s 中存在多个包: %s, %s", dir, pkg.Name, file.Name.Name)
		}

		imports := fileImports(file)
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				info := parseTypeSpec(genDecl, typeSpec)
				info.PackageName = file.Name.Name
				info.Dir = dir
				info.FilePath = path
				info.Imports = imports

				pkg.Types = append(pkg.Types, info)
				pkg.index[info.Name] = info
			}
		}
	}

	if pkg.Name == "" {
		return nil, fmt.Errorf("目录 %s 中没有找到 Go 源文件", dir)
	}
	return pkg, nil
}

func fileImports(file *ast.File) []ImportInfo {
	imports := make([]ImportInfo, 0, len(file.Imports))
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		info := ImportInfo{ImportPath: path}
		if imp.Name != nil {
			info.Alias = imp.Name.Name
		}
		imports = append(imports, info)
	}
	return imports
}

func parseTypeSpec(decl *ast.GenDecl, spec *ast.TypeSpec) *TypeInfo {
	info := &TypeInfo{Name: spec.Name.Name}

	// 单个声明的注释挂在 GenDecl 上，分组声明的注释挂在 TypeSpec 上
	info.Doc = spec.Doc.Text()
	if info.Doc == "" && decl.Lparen == token.NoPos {
		info.Doc = decl.Doc.Text()
	}

	if spec.TypeParams != nil {
		for _, field := range spec.TypeParams.List {
			constraint := types.ExprString(field.Type)
			for _, name := range field.Names {
				info.TypeParams = append(info.TypeParams, TypeParamInfo{
					Name:       name.Name,
					Constraint: constraint,
				})
			}
		}
	}

	if spec.Assign.IsValid() {
		info.Kind = KindOther
		return info
	}

	switch t := spec.Type.(type) {
	case *ast.StructType:
		info.Kind = KindStruct
		info.Fields, info.Embeds = parseFields(t)
	case *ast.InterfaceType:
		info.Kind = KindInterface
	default:
		info.Kind = KindOther
	}
	return info
}

func parseFields(st *ast.StructType) ([]FieldInfo, []EmbedInfo) {
	var (
		fields []FieldInfo
		embeds []EmbedInfo
	)
	if st.Fields == nil {
		return nil, nil
	}

	for _, field := range st.Fields.List {
		var tag string
		if field.Tag != nil {
			tag, _ = strconv.Unquote(field.Tag.Value)
		}

		if len(field.Names) == 0 {
			if embed, ok := parseEmbed(field.Type); ok {
				embed.Tag = tag
				embeds = append(embeds, embed)
			}
			continue
		}

		typ := types.ExprString(field.Type)
		for _, name := range field.Names {
			fields = append(fields, FieldInfo{
				Name:    name.Name,
				Type:    typ,
				Tag:     tag,
				Doc:     field.Doc.Text(),
				Comment: field.Comment.Text(),
			})
		}
	}
	return fields, embeds
}

// parseEmbed 识别 T、*T、pkg.T、*pkg.T 以及带类型实参的写法
func parseEmbed(expr ast.Expr) (EmbedInfo, bool) {
	embed := EmbedInfo{Expr: types.ExprString(expr)}

	if star, ok := expr.(*ast.StarExpr); ok {
		embed.Pointer = true
		expr = star.X
	}
	switch x := expr.(type) {
	case *ast.IndexExpr:
		expr = x.X
	case *ast.IndexListExpr:
		expr = x.X
	}

	switch x := expr.(type) {
	case *ast.Ident:
		embed.Name = x.Name
	case *ast.SelectorExpr:
		pkg, ok := x.X.(*ast.Ident)
		if !ok {
			return embed, false
		}
		embed.Qualifier = pkg.Name
		embed.Name = x.Sel.Name
	default:
		return embed, false
	}
	return embed, true
}
