package plugin

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatHelpText 为所有注册的生成器生成帮助文本
// 参数列按显示宽度对齐，中文描述也能正确对齐
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder

	for _, gen := range generators {
		annotations := gen.Annotations()
		if len(annotations) == 0 {
			continue
		}
		mainAnnotation := annotations[0]
		paramDefs := gen.ParamDefs()

		fmt.Fprintf(&sb, "  @%s - %s\n", mainAnnotation, gen.Name())
		sb.WriteString("    参数:\n")

		rows := [][2]string{{"output", "输出文件路径（支持 $FILE、$PACKAGE、$TYPE 变量）"}}
		for _, param := range paramDefs {
			rows = append(rows, [2]string{paramLabel(param), param.Description})
		}
		width := 0
		for _, row := range rows {
			width = max(width, runewidth.StringWidth(row[0]))
		}
		for _, row := range rows {
			fmt.Fprintf(&sb, "      %s  %s\n", runewidth.FillRight(row[0], width), row[1])
		}

		sb.WriteString("    示例:\n")
		fmt.Fprintf(&sb, "      @%s\n", mainAnnotation)
		fmt.Fprintf(&sb, "      @%s(output=$FILE_clone.go)\n", mainAnnotation)
		for i, param := range paramDefs {
			if i >= 2 {
				break
			}
			if param.Default != "" {
				fmt.Fprintf(&sb, "      @%s(%s=%s)\n", mainAnnotation, param.Name, param.Default)
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// paramLabel 返回参数名及必填和默认值标记
func paramLabel(param ParamDef) string {
	label := param.Name
	if param.Required {
		label += " (必填)"
	}
	if param.Default != "" {
		label += fmt.Sprintf(" [默认: %s]", param.Default)
	}
	return label
}

// FormatParamDef 格式化单个参数定义
func FormatParamDef(param ParamDef) string {
	parts := []string{param.Name}

	if param.Required {
		parts = append(parts, "required")
	} else {
		parts = append(parts, "optional")
	}
	if param.Default != "" {
		parts = append(parts, "default="+param.Default)
	}
	if param.Description != "" {
		parts = append(parts, param.Description)
	}

	return strings.Join(parts, ", ")
}
