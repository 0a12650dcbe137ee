// Package pkgresolver 将导入路径映射到磁盘目录和真实包名。
//
// 查找顺序：标准库 -> 当前模块（go.mod）-> 模块缓存（GOMODCACHE）-> GOPATH/src。
package pkgresolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ErrNotFound 无法在磁盘上找到导入路径对应的目录
var ErrNotFound = errors.New("未找到包")

// Resolver 包路径解析器，可并发使用
type Resolver struct {
	root string // 项目根目录（包含 go.mod）

	modOnce    sync.Once
	modulePath string

	dirs  *cache // 导入路径 -> 目录
	names *cache // 导入路径 -> 包名
	std   *stdLib
}

// New 创建解析器，projectRoot 可以为空（此时只能解析标准库和模块缓存）
func New(projectRoot string) *Resolver {
	return &Resolver{
		root:  projectRoot,
		dirs:  newCache(),
		names: newCache(),
		std:   newStdLib(),
	}
}

// Root 返回项目根目录
func (r *Resolver) Root() string {
	return r.root
}

// ModulePath 返回 go.mod 中声明的模块路径，读取失败时返回空字符串
func (r *Resolver) ModulePath() string {
	r.modOnce.Do(func() {
		if r.root == "" {
			return
		}
		data, err := os.ReadFile(filepath.Join(r.root, "go.mod"))
		if err != nil {
			return
		}
		r.modulePath = modfile.ModulePath(data)
	})
	return r.modulePath
}

// IsStdLib 判断是否是标准库包
func (r *Resolver) IsStdLib(importPath string) bool {
	return r.std.contains(importPath)
}

// Dir 返回导入路径对应的磁盘目录
func (r *Resolver) Dir(importPath string) (string, error) {
	if dir, ok := r.dirs.get(importPath); ok {
		return dir, nil
	}
	dir, err := r.resolveDir(importPath)
	if err != nil {
		return "", err
	}
	r.dirs.set(importPath, dir)
	return dir, nil
}

func (r *Resolver) resolveDir(importPath string) (string, error) {
	if importPath == "" {
		return "", fmt.Errorf("%w: 空导入路径", ErrNotFound)
	}
	if r.IsStdLib(importPath) {
		return r.std.dir(importPath), nil
	}

	if mod := r.ModulePath(); mod != "" {
		if importPath == mod {
			return r.root, nil
		}
		if rel, ok := strings.CutPrefix(importPath, mod+"/"); ok {
			dir := filepath.Join(r.root, filepath.FromSlash(rel))
			if isDir(dir) {
				return dir, nil
			}
			return "", fmt.Errorf("%w: %s（模块内目录 %s 不存在）", ErrNotFound, importPath, dir)
		}
	}

	return findInModCache(importPath)
}

// PackageName 返回导入路径对应的真实包名
// 无法读取时退化为路径最后一段
func (r *Resolver) PackageName(importPath string) string {
	if name, ok := r.names.get(importPath); ok {
		return name
	}
	name := filepath.Base(importPath)
	if dir, err := r.Dir(importPath); err == nil {
		if n, err := ReadPackageName(dir); err == nil {
			name = n
		}
	}
	r.names.set(importPath, name)
	return name
}

// ImportPath 返回项目内目录对应的导入路径
func (r *Resolver) ImportPath(dir string) (string, error) {
	mod := r.ModulePath()
	if mod == "" {
		return "", fmt.Errorf("未找到模块路径（项目根目录: %q）", r.root)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(r.root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return mod, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("目录 %s 不在模块 %s 内", dir, mod)
	}
	return mod + "/" + filepath.ToSlash(rel), nil
}

// FindProjectRoot 从 startDir 向上查找包含 go.mod 的目录
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("未找到项目根目录（go.mod 文件），起始目录 %s", startDir)
		}
		dir = parent
	}
}

// findInModCache 在模块缓存中查找第三方包
// 对于 github.com/user/repo/pkg/sub，依次尝试 .../sub@*、.../pkg@*、.../repo@*
func findInModCache(importPath string) (string, error) {
	goPath := os.Getenv("GOPATH")
	if goPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			goPath = filepath.Join(home, "go")
		}
	}
	modCache := os.Getenv("GOMODCACHE")
	if modCache == "" && goPath != "" {
		modCache = filepath.Join(goPath, "pkg", "mod")
	}

	if modCache != "" {
		parts := strings.Split(importPath, "/")
		for i := len(parts); i >= 1; i-- {
			modPath := strings.Join(parts[:i], "/")
			escaped, err := module.EscapePath(modPath)
			if err != nil {
				continue
			}
			matches, err := filepath.Glob(filepath.Join(modCache, filepath.FromSlash(escaped)+"@*"))
			if err != nil || len(matches) == 0 {
				continue
			}
			// 按字典序取最后一个版本
			dir := matches[len(matches)-1]
			if i < len(parts) {
				dir = filepath.Join(dir, filepath.FromSlash(strings.Join(parts[i:], "/")))
			}
			if isDir(dir) {
				return dir, nil
			}
		}
	}

	if goPath != "" {
		dir := filepath.Join(goPath, "src", filepath.FromSlash(importPath))
		if isDir(dir) {
			return dir, nil
		}
	}

	return "", fmt.Errorf("%w: %s，请确认该模块已下载", ErrNotFound, importPath)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
