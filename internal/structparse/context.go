package structparse

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/donutnomad/clonegen/internal/pkgresolver"
)

var (
	// ErrStdLib 嵌入的类型来自标准库
	ErrStdLib = errors.New("标准库类型")
	// ErrTypeNotFound 包中不存在该类型
	ErrTypeNotFound = errors.New("未找到类型")
)

// ParseContext 解析上下文，缓存已解析的包目录
type ParseContext struct {
	resolver *pkgresolver.Resolver

	mu       sync.Mutex
	packages map[string]*Package // 绝对路径 -> 包
}

// NewParseContext 创建解析上下文，projectRoot 为包含 go.mod 的目录
func NewParseContext(projectRoot string) *ParseContext {
	return NewParseContextWithResolver(pkgresolver.New(projectRoot))
}

// NewParseContextWithResolver 使用指定的包解析器创建解析上下文
func NewParseContextWithResolver(resolver *pkgresolver.Resolver) *ParseContext {
	return &ParseContext{
		resolver: resolver,
		packages: make(map[string]*Package),
	}
}

// Resolver 返回包解析器
func (c *ParseContext) Resolver() *pkgresolver.Resolver {
	return c.resolver
}

// ParseDir 解析包目录，同一目录只解析一次
func (c *ParseContext) ParseDir(dir string) (*Package, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if pkg, ok := c.packages[abs]; ok {
		return pkg, nil
	}

	pkg, err := parseDir(abs)
	if err != nil {
		return nil, err
	}
	if path, err := c.resolver.ImportPath(abs); err == nil {
		pkg.PkgPath = path
		for _, t := range pkg.Types {
			t.PkgPath = path
		}
	}
	c.packages[abs] = pkg
	return pkg, nil
}

// ParseImport 按导入路径解析包
func (c *ParseContext) ParseImport(importPath string) (*Package, error) {
	dir, err := c.resolver.Dir(importPath)
	if err != nil {
		return nil, err
	}
	pkg, err := c.ParseDir(dir)
	if err != nil {
		return nil, err
	}
	// 模块缓存中的包无法通过 go.mod 反推导入路径
	if pkg.PkgPath == "" {
		c.mu.Lock()
		pkg.PkgPath = importPath
		for _, t := range pkg.Types {
			t.PkgPath = importPath
		}
		c.mu.Unlock()
	}
	return pkg, nil
}

// LookupType 在目录对应的包中查找类型
func (c *ParseContext) LookupType(dir, name string) (*TypeInfo, error) {
	pkg, err := c.ParseDir(dir)
	if err != nil {
		return nil, err
	}
	t, ok := pkg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrTypeNotFound, pkg.Name, name)
	}
	return t, nil
}

// ResolveEmbed 找到嵌入字段引用的类型声明
// 来自标准库的类型返回 ErrStdLib
func (c *ParseContext) ResolveEmbed(owner *TypeInfo, embed EmbedInfo) (*TypeInfo, error) {
	if embed.Qualifier == "" {
		return c.LookupType(owner.Dir, embed.Name)
	}

	importPath, err := c.importPathFor(owner, embed.Qualifier)
	if err != nil {
		return nil, err
	}
	if c.resolver.IsStdLib(importPath) {
		return nil, fmt.Errorf("%w: %s", ErrStdLib, embed.Expr)
	}

	pkg, err := c.ParseImport(importPath)
	if err != nil {
		return nil, fmt.Errorf("无法解析嵌入的类型 %s: %w", embed.Expr, err)
	}
	t, ok := pkg.Lookup(embed.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s（包 %s）", ErrTypeNotFound, embed.Expr, importPath)
	}
	return t, nil
}

// importPathFor 根据文件的导入列表找到限定符对应的导入路径
// 优先匹配显式别名，其次匹配真实包名
func (c *ParseContext) importPathFor(owner *TypeInfo, qualifier string) (string, error) {
	for _, imp := range owner.Imports {
		if imp.Alias == qualifier {
			return imp.ImportPath, nil
		}
	}
	for _, imp := range owner.Imports {
		if imp.Alias != "" {
			continue
		}
		if c.resolver.PackageName(imp.ImportPath) == qualifier {
			return imp.ImportPath, nil
		}
	}
	return "", fmt.Errorf("文件 %s 中没有导入包 %s", owner.FilePath, qualifier)
}
