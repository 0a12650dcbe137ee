package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/donutnomad/clonegen/internal/utils"
	"github.com/donutnomad/clonegen/plugin"
	"github.com/fsnotify/fsnotify"
)

// DevOptions dev 命令选项
type DevOptions struct {
	Patterns []string      // 监听的路径模式
	Run      *options      // 每次生成使用的选项
	Debounce time.Duration // 防抖动时间
}

// devRunner 处理文件变动的核心逻辑
type devRunner struct {
	opts     *DevOptions
	registry *plugin.Registry
	watcher  *fsnotify.Watcher
	scanner  *plugin.Scanner
	ctx      context.Context // 用于响应退出信号
	generate func(pkgDir string)

	// 防抖动相关
	mu          sync.Mutex
	pendingDirs map[string]*time.Timer // key: 包目录路径
}

// runDev 启动开发模式
func runDev(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	run := loadOptions()
	// 开发模式总是写入文件
	run.Check = false
	run.JSON = false

	opts := &DevOptions{
		Patterns: patterns,
		Run:      run,
		Debounce: time.Second,
	}

	if err := dev(opts, registry); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// dev 启动开发模式
func dev(opts *DevOptions, registry *plugin.Registry) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n正在退出...")
		cancel()
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	runner := newDevRunner(ctx, opts, registry)
	runner.watcher = watcher
	defer runner.stop()

	dirs, err := collectWatchDirs(opts.Patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
		}
		if opts.Run.Verbose {
			fmt.Printf("监听目录: %s\n", dir)
		}
	}

	fmt.Printf("开发模式已启动，监听 %d 个目录\n", len(dirs))
	fmt.Println("按 Ctrl+C 退出")
	fmt.Println()

	return runner.watchLoop(ctx)
}

func newDevRunner(ctx context.Context, opts *DevOptions, registry *plugin.Registry) *devRunner {
	r := &devRunner{
		opts:        opts,
		registry:    registry,
		scanner:     plugin.NewScanner(plugin.WithAnnotationFilter(registry.Annotations()...)),
		ctx:         ctx,
		pendingDirs: make(map[string]*time.Timer),
	}
	r.generate = r.runGenerate
	return r
}

// stop 退出时停止所有待处理的定时器
func (r *devRunner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for dir, timer := range r.pendingDirs {
		timer.Stop()
		delete(r.pendingDirs, dir)
	}
}

// watchLoop 事件处理循环
func (r *devRunner) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			if r.opts.Run.Verbose {
				fmt.Printf("监听错误: %v\n", err)
			}
		}
	}
}

// handleEvent 处理文件事件
func (r *devRunner) handleEvent(event fsnotify.Event) {
	// 只关注 Write 和 Create 事件
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	filePath := event.Name
	if !plugin.IsSourceFile(filePath) {
		return
	}

	verbose := r.opts.Run.Verbose
	if verbose {
		fmt.Printf("检测到文件变化: %s\n", filePath)
	}

	// 没有注解的文件也可能删掉了原有的标记，只要包中已有生成文件就需要重新生成
	hasAnnotation, err := r.scanner.QuickMatchFile(filePath)
	if err != nil {
		if verbose {
			fmt.Printf("检查注解失败 %s: %v\n", filePath, err)
		}
		return
	}
	pkgDir := filepath.Dir(filePath)
	if !hasAnnotation && !hasGeneratedFile(pkgDir) {
		if verbose {
			fmt.Printf("跳过文件（无注解）: %s\n", filePath)
		}
		return
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	if err := utils.CheckSyntax(filePath, content); err != nil {
		fmt.Printf("语法错误 %s: %v\n", filePath, err)
		return
	}

	r.scheduleGenerate(pkgDir)
}

// scheduleGenerate 防抖动调度生成，同一目录在防抖时间内只生成一次
func (r *devRunner) scheduleGenerate(pkgDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, exists := r.pendingDirs[pkgDir]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(r.opts.Debounce, func() {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		r.generate(pkgDir)

		r.mu.Lock()
		if r.pendingDirs[pkgDir] == timer {
			delete(r.pendingDirs, pkgDir)
		}
		r.mu.Unlock()
	})
	r.pendingDirs[pkgDir] = timer
}

// runGenerate 只为变动的包执行代码生成
func (r *devRunner) runGenerate(pkgDir string) {
	if r.opts.Run.Verbose {
		fmt.Printf("触发代码生成: %s\n", pkgDir)
	}

	stats, err := plugin.RunWithOptionsAndStats(r.ctx, r.opts.Run.runOptions(r.registry, []string{pkgDir}))
	if err != nil {
		fmt.Printf("生成失败: %v\n", err)
		return
	}

	if stats != nil && stats.FileCount > 0 {
		fmt.Printf("生成完成: %d 个文件 (耗时: %v)\n", stats.FileCount, stats.TotalDuration)
	} else if r.opts.Run.Verbose {
		fmt.Printf("生成完成: 无文件生成\n")
	}
}

// hasGeneratedFile 目录中是否已经存在生成文件
func hasGeneratedFile(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && plugin.IsGeneratedFile(e.Name()) {
			return true
		}
	}
	return false
}

// collectWatchDirs 收集所有需要监听的目录
func collectWatchDirs(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		baseDir := strings.TrimSuffix(pattern, "/...")
		if baseDir == "" {
			baseDir = "."
		}

		absDir, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Dir(absDir))
			continue
		}
		if !recursive {
			add(absDir)
			continue
		}

		err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}

			// 跳过隐藏目录、vendor 和 testdata
			name := d.Name()
			if path != absDir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return dirs, nil
}
