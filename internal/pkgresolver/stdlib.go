package pkgresolver

import (
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// stdLib 判断导入路径是否属于标准库
type stdLib struct {
	goroot string

	mu    sync.Mutex
	known map[string]bool
}

func newStdLib() *stdLib {
	goroot := build.Default.GOROOT
	if goroot == "" {
		goroot = os.Getenv("GOROOT")
	}
	return &stdLib{goroot: goroot, known: make(map[string]bool)}
}

// contains 标准库路径的第一段不含点，并且在 $GOROOT/src 下存在
func (s *stdLib) contains(importPath string) bool {
	if importPath == "" {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	if strings.Contains(first, ".") {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.known[importPath]; ok {
		return v
	}
	v := false
	if s.goroot != "" {
		info, err := os.Stat(s.dir(importPath))
		v = err == nil && info.IsDir()
	}
	s.known[importPath] = v
	return v
}

func (s *stdLib) dir(importPath string) string {
	return filepath.Join(s.goroot, "src", filepath.FromSlash(importPath))
}
