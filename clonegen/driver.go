package clonegen

import (
	"context"
	"fmt"
	"go/token"
	"strings"

	"github.com/donutnomad/clonegen/internal/diagnostic"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Output 单个类型的生成结果
type Output struct {
	Key       string // 输出键，同一次生成中唯一
	TypeName  string
	Namespace string
	Source    []byte
}

// Result 一次生成的全部输出和诊断
type Result struct {
	Outputs     []Output
	Diagnostics diagnostic.Diagnostics
}

// Output 按键查找输出
func (r *Result) Output(key string) (Output, bool) {
	for _, o := range r.Outputs {
		if o.Key == key {
			return o, true
		}
	}
	return Output{}, false
}

// typeResult 单个类型的生成结果，ok=false 表示该类型被跳过
type typeResult struct {
	output Output
	diags  diagnostic.Diagnostics
	ok     bool
}

// Run 为所有标记了 @PropertyCloner 的声明生成克隆方法
//
// 输出顺序与输入顺序一致。单个类型失败只会产生诊断并跳过该类型，不影响其它类型。
// Run 没有任何内部状态，相同输入总是得到逐字节相同的输出。
func Run(decls []*TypeDecl) *Result {
	results := make([]typeResult, len(decls))
	for i, d := range decls {
		results[i] = generateType(d)
	}
	return assemble(results)
}

// RunConcurrent 与 Run 语义相同，但并行处理各个类型
// workers <= 0 时不限制并发数。ctx 取消时丢弃所有结果并返回 ctx 的错误。
func RunConcurrent(ctx context.Context, decls []*TypeDecl, workers int) (*Result, error) {
	results := make([]typeResult, len(decls))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, d := range decls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = generateType(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assemble(results), nil
}

// assemble 按输入顺序汇总结果并检查输出键冲突
func assemble(results []typeResult) *Result {
	res := &Result{}
	owners := make(map[string]string)

	for _, r := range results {
		res.Diagnostics.Merge(r.diags)
		if !r.ok {
			continue
		}
		key := r.output.Key
		if owner, exists := owners[key]; exists {
			res.Diagnostics.AddError(diagnostic.CodeDuplicateKey, key,
				"输出键 %s 已被 %s 使用，跳过该类型", key, owner)
			continue
		}
		owners[key] = r.output.Namespace + "." + r.output.TypeName
		res.Outputs = append(res.Outputs, r.output)
	}

	return res
}

// generateType 处理单个声明：前置条件检查 -> 解析字段 -> 冲突策略 -> 生成代码
func generateType(t *TypeDecl) typeResult {
	var r typeResult
	if t == nil {
		r.diags.AddError(diagnostic.CodeMalformed, "", "声明列表中存在空声明")
		return r
	}
	if !t.Marked {
		return r
	}
	// 在副本上补全命名空间，不修改调用方的声明
	normalized := *t
	t = normalized.Normalize()
	name := t.QualifiedName()

	if err := checkIdentifiers(t); err != nil {
		r.diags.AddError(diagnostic.CodeMalformed, name, "%v", err)
		return r
	}

	if !t.Constructible() {
		r.diags.AddError(diagnostic.CodePrecondition, name,
			"%s 不是结构体，无法通过 &%s{} 构造新实例", t.Kind, t.Name)
		return r
	}

	props, err := Resolve(t)
	if err != nil {
		r.diags.AddError(diagnostic.CodeMalformed, name, "%v", err)
		return r
	}

	method := t.Options.MethodName()
	if lo.ContainsBy(props, func(p PropertyDecl) bool {
		return p.Name == method && (!p.Inherited || p.Clonable)
	}) {
		r.diags.AddError(diagnostic.CodeInvalidParam, name, "方法名 %s 与字段同名", method)
		return r
	}

	if dup := Collisions(props); len(dup) > 0 {
		list := strings.Join(dup, ", ")
		switch t.Options.Policy() {
		case ConflictError:
			r.diags.AddError(diagnostic.CodeAmbiguous, name,
				"继承自 %s 的字段 %s 与自有字段同名", t.BaseRef, list)
			return r
		case ConflictSkip:
			props = DropInheritedDuplicates(props)
			r.diags.AddInfo(diagnostic.CodeAmbiguous, name,
				"忽略继承自 %s 的同名字段 %s", t.BaseRef, list)
		default:
			r.diags.AddWarning(diagnostic.CodeAmbiguous, name,
				"继承自 %s 的字段 %s 与自有字段同名，将重复赋值自有字段", t.BaseRef, list)
		}
	}

	src, err := Synthesize(t, Clonable(props))
	if err != nil {
		r.diags.AddError(diagnostic.CodeMalformed, name, "%v", err)
		return r
	}

	r.output = Output{
		Key:       t.Key(),
		TypeName:  t.Name,
		Namespace: t.Namespace,
		Source:    src,
	}
	r.ok = true
	return r
}

// checkIdentifiers 检查会直接出现在生成代码中的名称
func checkIdentifiers(t *TypeDecl) error {
	if !token.IsIdentifier(t.Namespace) || t.Namespace == "_" {
		return fmt.Errorf("包名 %q 不是合法的标识符", t.Namespace)
	}
	if !token.IsIdentifier(t.Name) || t.Name == "_" {
		return fmt.Errorf("类型名 %q 不是合法的标识符", t.Name)
	}
	if m := t.Options.MethodName(); !token.IsIdentifier(m) {
		return fmt.Errorf("方法名 %q 不是合法的标识符", m)
	}
	return nil
}
