package clonegen

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

var (
	// ErrNilType 传入了空的类型声明
	ErrNilType = errors.New("类型声明为空")
	// ErrUnresolvedBase 基类型引用无法解析
	ErrUnresolvedBase = errors.New("基类型无法解析")
)

// Resolve 计算类型需要参与克隆的候选字段列表
//
// 先按声明顺序列出自有字段（不过滤），再追加直接基类型中所有 @Clonable 字段并标记为继承。
// 不会继续向上查找基类型的基类型。自有字段与继承字段同名时两者都会保留，由调用方决定如何处理。
func Resolve(t *TypeDecl) ([]PropertyDecl, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if t.Base == nil && t.BaseRef != "" {
		return nil, fmt.Errorf("%s 嵌入的 %s: %w", t.Name, t.BaseRef, ErrUnresolvedBase)
	}

	result := make([]PropertyDecl, 0, len(t.Properties))
	result = append(result, t.Properties...)

	if t.Base != nil {
		for _, p := range t.Base.Properties {
			if !p.Clonable {
				continue
			}
			p.Inherited = true
			result = append(result, p)
		}
	}

	return result, nil
}

// Clonable 返回需要复制的字段子集，保持原有顺序
func Clonable(props []PropertyDecl) []PropertyDecl {
	return lo.Filter(props, func(p PropertyDecl, _ int) bool {
		return p.Clonable
	})
}

// Collisions 返回与自有字段同名的继承可复制字段名，按出现顺序
// 生成代码中 clone.X 总是指向自有字段，因此继承字段的赋值会落到自有字段上
func Collisions(props []PropertyDecl) []string {
	own := make(map[string]bool)
	for _, p := range props {
		if !p.Inherited {
			own[p.Name] = true
		}
	}
	names := lo.FilterMap(props, func(p PropertyDecl, _ int) (string, bool) {
		return p.Name, p.Clonable && p.Inherited && own[p.Name]
	})
	return lo.Uniq(names)
}

// DropInheritedDuplicates 移除与自有字段同名的继承字段
func DropInheritedDuplicates(props []PropertyDecl) []PropertyDecl {
	dup := lo.SliceToMap(Collisions(props), func(name string) (string, bool) {
		return name, true
	})
	return lo.Reject(props, func(p PropertyDecl, _ int) bool {
		return p.Inherited && dup[p.Name]
	})
}
