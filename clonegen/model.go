package clonegen

import "strings"

// GlobalNamespace 缺省命名空间的占位值，声明模型中的命名空间永远不为空
const GlobalNamespace = "global"

// DefaultMethod 生成方法的默认名称
const DefaultMethod = "CloneProperties"

// TypeKind 声明的类型种类
type TypeKind int

const (
	KindStruct    TypeKind = iota // 结构体，可零值构造
	KindInterface                 // 接口
	KindOther                     // 其它命名类型（切片、映射、别名等）
)

func (k TypeKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	default:
		return "other"
	}
}

// ConflictPolicy 自有字段与继承字段同名时的处理策略
type ConflictPolicy string

const (
	// ConflictAllow 保留两次赋值（默认），并给出警告
	ConflictAllow ConflictPolicy = "allow"
	// ConflictError 视为错误，跳过该类型
	ConflictError ConflictPolicy = "error"
	// ConflictSkip 丢弃继承来的同名字段
	ConflictSkip ConflictPolicy = "skip"
)

// ParseConflictPolicy 解析冲突策略，空字符串返回默认值
func ParseConflictPolicy(s string) (ConflictPolicy, bool) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ConflictAllow, true
	case ConflictAllow, ConflictError, ConflictSkip:
		return p, true
	default:
		return "", false
	}
}

// Options 单个类型的生成设置，零值表示使用默认设置
type Options struct {
	Method   string         // 生成的方法名
	Conflict ConflictPolicy // 同名字段策略
}

// MethodName 返回方法名，未设置时返回 DefaultMethod
func (o Options) MethodName() string {
	if o.Method == "" {
		return DefaultMethod
	}
	return o.Method
}

// Policy 返回冲突策略，未设置时返回 ConflictAllow
func (o Options) Policy() ConflictPolicy {
	if o.Conflict == "" {
		return ConflictAllow
	}
	return o.Conflict
}

// TypeParam 泛型类型参数
type TypeParam struct {
	Name       string
	Constraint string
}

// PropertyDecl 字段声明
type PropertyDecl struct {
	Name      string // 字段名，在声明类型内唯一
	Type      string // 字段类型的源码文本，核心逻辑不解析它
	Clonable  bool   // 是否带有 @Clonable 标记
	Inherited bool   // 是否来自基类型
	// Via 继承字段的显式访问路径（基类型的嵌入字段名）
	// 其它嵌入字段提升了同名成员时由加载器设置，为空时使用提升选择器
	Via string
}

// TypeDecl 类型声明
// 在一次生成过程中只构造一次，之后不再修改
type TypeDecl struct {
	Name       string
	Namespace  string // 包名
	PkgPath    string // 导入路径（可选）
	Kind       TypeKind
	TypeParams []TypeParam

	// Base 直接基类型（第一个按值嵌入的结构体）
	Base *TypeDecl
	// BaseRef 源码中嵌入字段的写法；非空而 Base 为 nil 表示基类型无法解析
	BaseRef string

	Marked     bool
	Properties []PropertyDecl
	Options    Options
}

// Normalize 补全命名空间占位值，返回自身便于链式调用
func (t *TypeDecl) Normalize() *TypeDecl {
	if t.Namespace == "" {
		t.Namespace = GlobalNamespace
	}
	return t
}

// QualifiedName 返回带包前缀的类型名，用于诊断信息
func (t *TypeDecl) QualifiedName() string {
	ns := t.Namespace
	if ns == "" {
		ns = GlobalNamespace
	}
	return ns + "." + t.Name
}

// Key 返回输出键：优先使用导入路径，其次使用包名
func (t *TypeDecl) Key() string {
	if t.PkgPath != "" {
		return t.PkgPath + "." + t.Name
	}
	return t.QualifiedName()
}

// Constructible 是否存在可用的零值构造路径
func (t *TypeDecl) Constructible() bool {
	return t.Kind == KindStruct
}

// Property 按名称查找自有字段
func (t *TypeDecl) Property(name string) (PropertyDecl, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDecl{}, false
}
