package plugin

import (
	"path/filepath"
	"strings"

	"github.com/donutnomad/clonegen/internal/utils"
)

// GetOutputPath 根据注解参数和默认规则计算输出路径
// 优先级：注解参数 > 包级插件配置 > 包级默认配置 > 命令行参数 > 默认文件名
// 模板变量：
//   - $FILE: 源文件名（不含 .go 后缀）
//   - $PACKAGE: 包名
//   - $TYPE: 类型名（蛇形）
func GetOutputPath(target *Target, ann *Annotation, defaultFileName string, pkgConfig *PackageConfig, pluginName string, cmdOutput string) string {
	var output string
	if ann != nil {
		output = ann.GetParam("output")
	}
	if output == "" {
		output = pkgConfig.GetPluginOutput(strings.ToLower(pluginName))
	}
	if output == "" {
		output = cmdOutput
	}
	if output == "" {
		return GetDefaultOutputPath(target, defaultFileName)
	}

	output = replaceTemplateVars(output, target)
	if !strings.HasSuffix(output, ".go") {
		output += ".go"
	}
	if filepath.IsAbs(output) {
		return output
	}
	// 相对于源文件目录
	return filepath.Join(filepath.Dir(target.FilePath), output)
}

// GetDefaultOutputPath 获取默认输出路径，位于源文件所在目录
func GetDefaultOutputPath(target *Target, defaultFileName string) string {
	if defaultFileName == "" {
		defaultFileName = "generate.go"
	}
	return filepath.Join(filepath.Dir(target.FilePath), replaceTemplateVars(defaultFileName, target))
}

func replaceTemplateVars(template string, target *Target) string {
	fileName := strings.TrimSuffix(filepath.Base(target.FilePath), ".go")
	return strings.NewReplacer(
		"$FILE", fileName,
		"$PACKAGE", target.PackageName,
		"$TYPE", utils.ToSnakeCase(target.Name),
	).Replace(template)
}
