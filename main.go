package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/donutnomad/clonegen/clonegen"
	"github.com/donutnomad/clonegen/plugin"
	"github.com/samber/lo"
)

// cloneGen 单独保存，配置文件中的默认参数需要写回生成器
var cloneGen = clonegen.NewCloneGenerator()

func init() {
	plugin.MustRegister(cloneGen)
}

var (
	verbose    = flag.Bool("v", false, "详细输出")
	help       = flag.Bool("h", false, "显示帮助信息")
	output     = flag.String("output", "", "默认输出路径（支持模板变量 $FILE, $PACKAGE, $TYPE），为空时使用 $FILE_clone.go")
	noOutput   = flag.Bool("no-output", false, "忽略配置文件和 -output 指定的默认输出")
	async      = flag.Bool("async", true, "异步执行生成器（默认 true）")
	configFile = flag.String("config", "", "配置文件路径，为空时从当前目录向上查找 .clonegen.yml")
	check      = flag.Bool("check", false, "只检查生成文件是否最新，不写入")
	jsonOut    = flag.Bool("json", false, "以 JSON 格式输出统计和诊断信息")
	workers    = flag.Int("workers", 0, "扫描和生成的并发数，0 表示使用 CPU 核数")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	args := flag.Args()

	// 默认命令是 gen
	if len(args) == 0 {
		runGen([]string{"./..."})
		return
	}

	switch args[0] {
	case "gen":
		runGen(args[1:])
	case "dev":
		runDev(args[1:])
	default:
		// 不是子命令，当作路径参数处理，执行 gen
		runGen(args)
	}
}

// loadOptions 合并配置文件与命令行参数，失败时直接退出
func loadOptions() *options {
	opts, err := resolveOptions(*configFile, explicitFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
	if err := opts.applyDefaults(cloneGen); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
	return opts
}

func runGen(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	opts := loadOptions()
	if opts.Verbose {
		if opts.ConfigPath != "" {
			fmt.Printf("使用配置文件: %s\n", opts.ConfigPath)
		}
		fmt.Printf("已注册 %d 个生成器:\n", len(registry.Generators()))
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, index int) string {
				return "@" + item
			})
			fmt.Printf("  - %s (%s)\n", gen.Name(), strings.Join(anns, ","))
		}
		fmt.Println()
	}

	runOpts := opts.runOptions(registry, patterns)
	stats, err := plugin.RunWithOptionsAndStats(context.Background(), runOpts)

	if opts.JSON {
		if werr := writeJSON(newReport(stats, err)); werr != nil {
			fmt.Fprintf(os.Stderr, "错误: %v\n", werr)
		}
		if err != nil {
			os.Exit(1)
		}
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	if stats != nil && (stats.FileCount > 0 || opts.Verbose) {
		verb := "生成"
		if opts.Check {
			verb = "检查"
		}
		fmt.Printf("\n统计: 扫描 %d 个目标, %s %d 个文件\n", stats.TargetCount, verb, stats.FileCount)
		fmt.Printf("耗时: 扫描 %v, 生成 %v, 总计 %v\n", stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	}
}

func writeJSON(r *report) error {
	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化输出失败: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `clonegen - 浅复制方法生成工具

用法:
  clonegen [选项] [路径...]
  clonegen gen [选项] [路径...]
  clonegen dev [选项] [路径...]

命令:
  gen     执行代码生成（默认）
  dev     启动开发模式，监听文件变动自动生成

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./pkg/...      递归扫描指定目录
    ./models       只扫描 models 目录

选项:
`)
	flag.PrintDefaults()

	// 动态生成注解帮助信息
	registry := plugin.Global()
	if len(registry.Generators()) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n支持的注解:\n")
		_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
	}

	_, _ = fmt.Fprintf(os.Stderr, `
字段标记:
  // @Clonable             写在字段的文档注释或行尾注释中
  Name string `+"`clone:\"true\"`"+`   使用结构体标签

模板变量:
  $FILE     - 源文件名（不含 .go 后缀）
  $PACKAGE  - 包名
  $TYPE     - 类型名（蛇形命名）

示例:
  clonegen                                  扫描当前目录（默认 ./...）
  clonegen -v ./models/...                  详细模式扫描 models 目录
  clonegen -output zz_$PACKAGE_clone ./...  所有类型输出到同一个文件
  clonegen -check ./...                     CI 中检查生成文件是否最新
  clonegen -json ./...                      输出 JSON 格式的诊断
  clonegen dev ./...                        开发模式，监听文件变动
`)
}
