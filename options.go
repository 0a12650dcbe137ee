package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/donutnomad/clonegen/internal/config"
	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/donutnomad/clonegen/plugin"
)

// options 一次运行的最终选项，命令行显式指定的值覆盖配置文件
type options struct {
	Verbose  bool
	Output   string
	Async    bool
	Workers  int
	Check    bool
	JSON     bool
	Method   string
	Conflict string

	ConfigPath string
}

// explicitFlags 返回命令行中显式设置的参数名
func explicitFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// resolveOptions 加载配置文件并与命令行参数合并
// path 为空时从当前目录向上查找，找不到配置文件不是错误
func resolveOptions(path string, set map[string]bool) (*options, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		var wd string
		if wd, err = os.Getwd(); err == nil {
			cfg, err = config.Discover(wd)
		}
	}
	if err != nil {
		return nil, err
	}
	return mergeOptions(cfg, set), nil
}

func mergeOptions(cfg *config.Config, set map[string]bool) *options {
	opts := &options{
		Verbose: *verbose,
		Output:  *output,
		Async:   *async,
		Workers: *workers,
		Check:   *check,
		JSON:    *jsonOut,
	}
	if cfg != nil {
		opts.ConfigPath = cfg.Path
		opts.Method = cfg.Method
		opts.Conflict = cfg.Conflict
		if !set["v"] && cfg.Verbose {
			opts.Verbose = true
		}
		if !set["output"] && cfg.Output != "" {
			opts.Output = cfg.Output
		}
		if !set["async"] && cfg.Async != nil {
			opts.Async = *cfg.Async
		}
		if !set["workers"] && cfg.Workers > 0 {
			opts.Workers = cfg.Workers
		}
	}
	if *noOutput {
		opts.Output = ""
	}
	// JSON 输出占用标准输出
	if opts.JSON {
		opts.Verbose = false
	}
	return opts
}

// paramDefaulter 允许修改参数默认值的生成器
type paramDefaulter interface {
	Name() string
	SetParamDefault(name, value string) bool
}

// applyDefaults 把配置文件中的 method、conflict 写入生成器的参数默认值，注解上的值仍然优先
func (o *options) applyDefaults(gen paramDefaulter) error {
	defaults := map[string]string{"method": o.Method, "conflict": o.Conflict}
	for _, name := range []string{"method", "conflict"} {
		value := defaults[name]
		if value == "" {
			continue
		}
		if !gen.SetParamDefault(name, value) {
			return fmt.Errorf("生成器 %s 不支持参数 %s", gen.Name(), name)
		}
	}
	return nil
}

func (o *options) runOptions(registry *plugin.Registry, patterns []string) *plugin.RunOptions {
	return &plugin.RunOptions{
		Registry: registry,
		Patterns: patterns,
		Verbose:  o.Verbose,
		Output:   o.Output,
		Async:    o.Async,
		Check:    o.Check,
		Workers:  o.Workers,
		Quiet:    o.JSON,
	}
}

// report -json 模式的输出
type report struct {
	Targets     int                     `json:"targets"`
	Files       []string                `json:"files"`
	Stale       []string                `json:"stale,omitempty"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	DurationMS  int64                   `json:"duration_ms"`
	Error       string                  `json:"error,omitempty"`
}

func newReport(stats *plugin.RunStats, err error) *report {
	r := &report{Files: []string{}, Diagnostics: []diagnostic.Diagnostic{}}
	if stats != nil {
		r.Targets = stats.TargetCount
		r.Files = append(r.Files, stats.Files...)
		r.Stale = stats.Stale
		r.Diagnostics = append(r.Diagnostics, stats.Diagnostics.Items...)
		r.DurationMS = stats.TotalDuration.Milliseconds()
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
