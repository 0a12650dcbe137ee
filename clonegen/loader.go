package clonegen

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"
	"strings"

	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/donutnomad/clonegen/internal/structparse"
	"github.com/donutnomad/clonegen/plugin"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

const (
	// MarkerAnnotation 类型标记，带有该注解的类型会生成克隆方法
	MarkerAnnotation = "PropertyCloner"
	// ClonableAnnotation 字段标记
	ClonableAnnotation = "Clonable"
	// CloneTag 字段标签形式的标记，例如 `clone:"true"`
	CloneTag = "clone"
)

// Loader 从 Go 源码构建声明模型
//
// 基类型是第一个按值嵌入、且能解析到结构体声明的字段。标准库类型视为根类型，不作为基类型；
// 指针嵌入和后续的嵌入字段会被忽略并给出警告。
type Loader struct {
	ctx *structparse.ParseContext
}

// NewLoader 创建加载器，projectRoot 为包含 go.mod 的目录
func NewLoader(projectRoot string) *Loader {
	return &Loader{ctx: structparse.NewParseContext(projectRoot)}
}

// NewLoaderWithContext 使用已有的解析上下文创建加载器
func NewLoaderWithContext(ctx *structparse.ParseContext) *Loader {
	return &Loader{ctx: ctx}
}

// LoadType 加载目录中指定名称的类型
// Marked 和 Options 取自类型上的 @PropertyCloner 注解
func (l *Loader) LoadType(dir, name string) (*TypeDecl, diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics
	info, err := l.ctx.LookupType(dir, name)
	if err != nil {
		return nil, diags, err
	}
	return l.build(info, &diags), diags, nil
}

// LoadDir 加载目录中所有带 @PropertyCloner 注解的类型，按文件名和声明顺序排列
func (l *Loader) LoadDir(dir string) ([]*TypeDecl, diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics
	pkg, err := l.ctx.ParseDir(dir)
	if err != nil {
		return nil, diags, err
	}

	var decls []*TypeDecl
	for _, info := range pkg.Types {
		if plugin.GetAnnotation(plugin.ParseAnnotations(info.Doc), MarkerAnnotation) == nil {
			continue
		}
		decls = append(decls, l.build(info, &diags))
	}
	return decls, diags, nil
}

func (l *Loader) build(info *structparse.TypeInfo, diags *diagnostic.Diagnostics) *TypeDecl {
	decl := l.declFor(info)

	if ann := plugin.GetAnnotation(plugin.ParseAnnotations(info.Doc), MarkerAnnotation); ann != nil {
		decl.Marked = true
		opts, err := ParseOptions(ann.GetParam("method"), ann.GetParam("conflict"))
		if err != nil {
			// 参数不合法时不生成该类型
			diags.AddError(diagnostic.CodeInvalidParam, decl.QualifiedName(), "%v", err)
			decl.Marked = false
		}
		decl.Options = opts
	}

	if info.Kind == structparse.KindStruct {
		l.resolveBase(info, decl, diags)
	}
	return decl
}

// declFor 构建不含基类型的声明
func (l *Loader) declFor(info *structparse.TypeInfo) *TypeDecl {
	decl := &TypeDecl{
		Name:      info.Name,
		Namespace: info.PackageName,
		PkgPath:   info.PkgPath,
		Kind:      convertKind(info.Kind),
		TypeParams: lo.Map(info.TypeParams, func(p structparse.TypeParamInfo, _ int) TypeParam {
			return TypeParam{Name: p.Name, Constraint: p.Constraint}
		}),
	}
	for _, f := range info.Fields {
		if f.Name == "_" {
			continue
		}
		decl.Properties = append(decl.Properties, PropertyDecl{
			Name:     f.Name,
			Type:     f.Type,
			Clonable: IsClonable(f),
		})
	}
	return decl.Normalize()
}

func (l *Loader) resolveBase(info *structparse.TypeInfo, decl *TypeDecl, diags *diagnostic.Diagnostics) {
	name := decl.QualifiedName()
	baseIdx := -1

	for i, embed := range info.Embeds {
		if embed.Pointer {
			diags.AddWarning(diagnostic.CodeIgnoredEmbed, name, "指针嵌入 %s 不作为基类型", embed.Expr)
			continue
		}
		if decl.BaseRef != "" {
			diags.AddWarning(diagnostic.CodeIgnoredEmbed, name, "已使用 %s 作为基类型，忽略嵌入字段 %s", decl.BaseRef, embed.Expr)
			continue
		}

		baseInfo, err := l.ctx.ResolveEmbed(info, embed)
		switch {
		case errors.Is(err, structparse.ErrStdLib):
			continue
		case err != nil:
			// Base 保持为空，由生成阶段报告 malformed
			decl.BaseRef = embed.Expr
			diags.AddInfo(diagnostic.CodeMalformed, name, "%v", err)
			continue
		case baseInfo.Kind != structparse.KindStruct:
			diags.AddWarning(diagnostic.CodeIgnoredEmbed, name, "嵌入类型 %s 不是结构体，不作为基类型", embed.Expr)
			continue
		}

		decl.BaseRef = embed.Expr
		decl.Base = l.baseDecl(info, baseInfo, name, diags)
		baseIdx = i
	}

	if decl.Base != nil {
		l.markShadowed(info, baseIdx, decl, diags)
	}
}

// markShadowed 其它嵌入字段在同一深度提升了同名成员时，提升选择器会产生歧义，
// 这些继承字段改为通过基类型的嵌入字段显式赋值
func (l *Loader) markShadowed(info *structparse.TypeInfo, baseIdx int, decl *TypeDecl, diags *diagnostic.Diagnostics) {
	promoted := make(map[string]bool)
	opaque := false
	for i, embed := range info.Embeds {
		if i == baseIdx {
			continue
		}
		promoted[embed.Name] = true

		other, err := l.ctx.ResolveEmbed(info, embed)
		if err != nil || other.Kind != structparse.KindStruct {
			// 无法得知提升了哪些成员，所有继承字段都显式赋值
			opaque = true
			continue
		}
		for _, f := range other.Fields {
			promoted[f.Name] = true
		}
		for _, e := range other.Embeds {
			promoted[e.Name] = true
		}
	}

	via := info.Embeds[baseIdx].Name
	for i, p := range decl.Base.Properties {
		if !p.Clonable || !(opaque || promoted[p.Name]) {
			continue
		}
		decl.Base.Properties[i].Via = via
		if promoted[p.Name] {
			diags.AddInfo(diagnostic.CodeAmbiguous, decl.QualifiedName(),
				"其它嵌入字段也提升了 %s，通过 %s.%s 赋值", p.Name, via, p.Name)
		}
	}
}

// baseDecl 构建基类型声明，跨包时未导出的字段无法通过选择器访问
func (l *Loader) baseDecl(owner, base *structparse.TypeInfo, name string, diags *diagnostic.Diagnostics) *TypeDecl {
	decl := l.declFor(base)
	decl.Kind = KindStruct
	if owner.Dir == base.Dir {
		return decl
	}
	for i, p := range decl.Properties {
		if p.Clonable && !token.IsExported(p.Name) {
			decl.Properties[i].Clonable = false
			diags.AddWarning(diagnostic.CodeInaccessible, name,
				"基类型 %s 的字段 %s 未导出，无法在包 %s 中复制", decl.QualifiedName(), p.Name, owner.PackageName)
		}
	}
	return decl
}

// IsClonable 判断字段是否带有 @Clonable 注解或 clone:"true" 标签
func IsClonable(f structparse.FieldInfo) bool {
	if v, ok := reflect.StructTag(f.Tag).Lookup(CloneTag); ok && cast.ToBool(v) {
		return true
	}
	anns := plugin.ParseAnnotations(f.Doc + "\n" + f.Comment)
	return plugin.HasAnnotation(anns, ClonableAnnotation)
}

// ParseOptions 校验并构建生成设置，空值使用默认设置
func ParseOptions(method, conflict string) (Options, error) {
	var opts Options
	method = strings.TrimSpace(method)
	if method != "" {
		if !token.IsIdentifier(method) {
			return opts, &InvalidParamError{Param: "method", Value: method}
		}
		opts.Method = method
	}
	policy, ok := ParseConflictPolicy(conflict)
	if !ok {
		return opts, &InvalidParamError{Param: "conflict", Value: conflict}
	}
	if conflict != "" {
		opts.Conflict = policy
	}
	return opts, nil
}

// InvalidParamError 注解参数不合法
type InvalidParamError struct {
	Param string
	Value string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("参数 %s 的值 %q 不合法", e.Param, e.Value)
}

func convertKind(k structparse.Kind) TypeKind {
	switch k {
	case structparse.KindStruct:
		return KindStruct
	case structparse.KindInterface:
		return KindInterface
	default:
		return KindOther
	}
}
