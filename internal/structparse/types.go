package structparse

// Kind 类型声明的种类
type Kind int

const (
	KindStruct Kind = iota
	KindInterface
	KindOther // 切片、映射、函数、别名等其它命名类型
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	default:
		return "other"
	}
}

// ImportInfo 文件中的一条导入
type ImportInfo struct {
	Alias      string // 显式别名（如果有）
	ImportPath string // 完整导入路径
}

// FieldInfo 具名字段
type FieldInfo struct {
	Name    string
	Type    string // 字段类型的源码文本
	Tag     string // 去掉反引号后的标签
	Doc     string // 字段上方的注释
	Comment string // 字段行尾注释
}

// EmbedInfo 匿名嵌入字段
type EmbedInfo struct {
	Expr      string // 源码写法，例如 *base.Model、Base[T]
	Qualifier string // 包限定符，同包类型为空
	Name      string // 类型名，不含包限定符和类型实参
	Pointer   bool   // 是否以指针形式嵌入
	Tag       string
}

// TypeParamInfo 泛型类型参数
type TypeParamInfo struct {
	Name       string
	Constraint string
}

// TypeInfo 包内的一个类型声明
type TypeInfo struct {
	Name        string
	PackageName string
	PkgPath     string // 导入路径，无法确定时为空
	Dir         string // 包目录
	FilePath    string
	Kind        Kind
	Doc         string
	TypeParams  []TypeParamInfo
	Fields      []FieldInfo // 具名字段，按声明顺序
	Embeds      []EmbedInfo // 嵌入字段，按声明顺序
	Imports     []ImportInfo
}

// Package 一个包目录的解析结果
type Package struct {
	Name    string
	Dir     string
	PkgPath string
	Types   []*TypeInfo // 按文件名、声明顺序排列

	index map[string]*TypeInfo
}

// Lookup 按名称查找类型
func (p *Package) Lookup(name string) (*TypeInfo, bool) {
	t, ok := p.index[name]
	return t, ok
}
