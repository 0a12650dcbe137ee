package clonegen

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/donutnomad/clonegen/internal/utils"
	"github.com/donutnomad/gg"
	"github.com/samber/lo"
)

// cloneVar 生成代码中新实例的变量名
const cloneVar = "clone"

// Assignment 一次字段赋值
type Assignment struct {
	Property  string
	Inherited bool
	Via       string // 非空时通过基类型的嵌入字段显式访问
}

// Selector 返回赋值两侧使用的选择器路径
func (a Assignment) Selector() string {
	if a.Via == "" {
		return a.Property
	}
	return a.Via + "." + a.Property
}

// CloneFunc 克隆方法的中间表示，与文本格式无关
type CloneFunc struct {
	Namespace   string
	TypeName    string
	TypeArgs    []string // 泛型参数名，接收者写作 T[K, V]
	Method      string
	Receiver    string
	Assignments []Assignment
}

// Plan 根据类型和可复制字段列表构建中间表示
// clonable 中的顺序即赋值顺序
func Plan(t *TypeDecl, clonable []PropertyDecl) *CloneFunc {
	ns := t.Namespace
	if ns == "" {
		ns = GlobalNamespace
	}
	typeArgs := lo.Map(t.TypeParams, func(p TypeParam, _ int) string {
		return p.Name
	})
	receiver := utils.ReceiverName(t.Name, "src")
	if lo.Contains(typeArgs, receiver) {
		receiver = "src"
	}
	return &CloneFunc{
		Namespace: ns,
		TypeName:  t.Name,
		TypeArgs:  typeArgs,
		Method:    t.Options.MethodName(),
		Receiver:  receiver,
		Assignments: lo.Map(clonable, func(p PropertyDecl, _ int) Assignment {
			return Assignment{Property: p.Name, Inherited: p.Inherited, Via: p.Via}
		}),
	}
}

// InstanceType 返回实例化后的类型文本，例如 Pair[K, V]
func (f *CloneFunc) InstanceType() string {
	if len(f.TypeArgs) == 0 {
		return f.TypeName
	}
	return f.TypeName + "[" + strings.Join(f.TypeArgs, ", ") + "]"
}

// Render 将中间表示渲染为独立的 gg 定义（包含包声明）
func (f *CloneFunc) Render() *gg.Generator {
	gen := gg.New()
	gen.SetHeader("Code generated by clonegen. DO NOT EDIT.")
	gen.SetPackage(f.Namespace)
	f.RenderTo(gen)
	return gen
}

// RenderTo 将克隆方法追加到已有的 gg 定义中
func (f *CloneFunc) RenderTo(gen *gg.Generator) {
	instanceType := f.InstanceType()
	group := gen.Body()

	group.AddLine()
	group.Append(gg.LineComment("%s 返回一个只复制 @Clonable 字段的 %s 副本", f.Method, f.TypeName))

	body := make([]any, 0, len(f.Assignments)+2)
	body = append(body, gg.S("%s := &%s{}", cloneVar, instanceType))
	for _, a := range f.Assignments {
		body = append(body, gg.S("%s.%s = %s.%s", cloneVar, a.Selector(), f.Receiver, a.Selector()))
	}
	body = append(body, gg.Return(gg.S(cloneVar)))

	group.NewFunction(f.Method).
		WithReceiver(f.Receiver, "*"+instanceType).
		AddResult("", "*"+instanceType).
		AddBody(body...)
}

// Synthesize 为类型生成克隆方法的源码，结果经过 gofmt
// 渲染结果无法通过 gofmt 时返回错误，不会输出无法编译的源码
func Synthesize(t *TypeDecl, clonable []PropertyDecl) ([]byte, error) {
	raw := Plan(t, clonable).Render().Bytes()
	formatted, err := format.Source(raw)
	if err != nil {
		return nil, fmt.Errorf("%s 的生成代码无效: %w", t.QualifiedName(), err)
	}
	return formatted, nil
}
