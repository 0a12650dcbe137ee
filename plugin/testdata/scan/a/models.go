package models

//go:clonegen: plugin:clonegen -output `$FILE_copy`

// User 用户
// @PropertyCloner
type User struct {
	// @Clonable
	Name string
}

type (
	// Repo 仓储
	// @PropertyCloner(method=Copy)
	Repo interface{ Get() User }

	// IDs 编号
	// @PropertyCloner
	IDs []int
)

// 分组声明上的注释不属于任何类型
// @PropertyCloner
type (
	Hidden struct{}
)

// Plain 没有注解
type Plain struct{}

// Note 使用其它注解
// @Other
type Note struct{}
