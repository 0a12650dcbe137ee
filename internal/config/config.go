// Package config 加载 .clonegen.yml 配置文件
package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"
)

// FileName 配置文件名
const FileName = ".clonegen.yml"

var conflicts = []string{"allow", "error", "skip"}

// Config 配置文件内容，未设置的字段保持零值，由命令行参数或生成器默认值补齐
type Config struct {
	Output   string `yaml:"output"`
	Verbose  bool   `yaml:"verbose"`
	Async    *bool  `yaml:"async"`
	Method   string `yaml:"method"`
	Conflict string `yaml:"conflict"`
	Workers  int    `yaml:"workers"`

	// 配置文件的绝对路径
	Path string `yaml:"-"`
}

// Load 读取并校验配置文件，内容中的环境变量会被展开
func Load(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var c Config
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expandEnv(string(content)))), yaml.DisallowUnknownField())
	if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("解析配置 %s 失败: %w", filename, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("配置 %s: %w", filename, err)
	}

	if c.Path, err = filepath.Abs(filename); err != nil {
		return nil, err
	}
	return &c, nil
}

// expandEnv 展开已设置的环境变量，未设置的保持原样，$FILE、$PACKAGE 等模板变量因此不受影响
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "$" + name
	})
}

// Validate 校验字段取值
func (c *Config) Validate() error {
	if c.Method != "" && !token.IsIdentifier(c.Method) {
		return fmt.Errorf("method %q 不是合法的标识符", c.Method)
	}
	if c.Conflict != "" && !slices.Contains(conflicts, c.Conflict) {
		return fmt.Errorf("conflict %q 无效，可选值: allow/error/skip", c.Conflict)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers 不能为负数: %d", c.Workers)
	}
	return nil
}

// Find 从 dir 开始逐级向上查找配置文件，找不到时返回空字符串
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Discover 查找并加载配置文件，找不到时返回 nil
func Discover(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil || path == "" {
		return nil, err
	}
	return Load(path)
}
