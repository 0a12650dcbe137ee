// Package diagnostic 收集单次生成过程中按类型归属的诊断信息。
//
// 诊断不会中断整个生成过程：某个类型出错只会跳过该类型，其它类型照常生成。
package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Severity 诊断级别
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText 使 JSON 输出使用可读的级别名称
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// 诊断代码
const (
	CodePrecondition = "precondition"  // 标记类型无法零值构造
	CodeAmbiguous    = "ambiguous"     // 自有字段与继承字段同名
	CodeMalformed    = "malformed"     // 声明模型不一致，例如基类型无法解析
	CodeDuplicateKey = "duplicate-key" // 多个类型生成了相同的输出键
	CodeIgnoredEmbed = "ignored-embed" // 嵌入字段未被视为基类型
	CodeInaccessible = "inaccessible"  // 跨包基类型的未导出字段无法复制
	CodeInvalidParam = "invalid-param" // 注解参数不合法
)

// Diagnostic 单条诊断
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Type     string   `json:"type"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Type == "" {
		return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s[%s] %s: %s", d.Severity, d.Code, d.Type, d.Message)
}

// Diagnostics 诊断集合，按产生顺序保存
type Diagnostics struct {
	Items []Diagnostic `json:"items"`
}

func (d *Diagnostics) add(sev Severity, code, typ, format string, args ...any) {
	d.Items = append(d.Items, Diagnostic{
		Severity: sev,
		Code:     code,
		Type:     typ,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddError 添加错误诊断
func (d *Diagnostics) AddError(code, typ, format string, args ...any) {
	d.add(SeverityError, code, typ, format, args...)
}

// AddWarning 添加警告诊断
func (d *Diagnostics) AddWarning(code, typ, format string, args ...any) {
	d.add(SeverityWarning, code, typ, format, args...)
}

// AddInfo 添加提示诊断
func (d *Diagnostics) AddInfo(code, typ, format string, args ...any) {
	d.add(SeverityInfo, code, typ, format, args...)
}

// Merge 合并另一组诊断
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Items = append(d.Items, other.Items...)
}

// Filter 返回指定级别的诊断
func (d *Diagnostics) Filter(sev Severity) []Diagnostic {
	var result []Diagnostic
	for _, item := range d.Items {
		if item.Severity == sev {
			result = append(result, item)
		}
	}
	return result
}

// Errors 返回所有错误级别的诊断
func (d *Diagnostics) Errors() []Diagnostic {
	return d.Filter(SeverityError)
}

// Warnings 返回所有警告级别的诊断
func (d *Diagnostics) Warnings() []Diagnostic {
	return d.Filter(SeverityWarning)
}

// ForType 返回指定类型的诊断
func (d *Diagnostics) ForType(typ string) []Diagnostic {
	var result []Diagnostic
	for _, item := range d.Items {
		if item.Type == typ {
			result = append(result, item)
		}
	}
	return result
}

// HasErrors 是否存在错误
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors()) > 0
}

// Err 将所有错误合并为一个 error，没有错误时返回 nil
func (d *Diagnostics) Err() error {
	errs := d.Errors()
	if len(errs) == 0 {
		return nil
	}
	list := make([]error, 0, len(errs))
	for _, e := range errs {
		list = append(list, errors.New(e.String()))
	}
	return errors.Join(list...)
}

func (d *Diagnostics) String() string {
	var sb strings.Builder
	for _, item := range d.Items {
		sb.WriteString(item.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
