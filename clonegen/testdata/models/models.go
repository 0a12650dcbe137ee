package models

import (
	"sync"

	"github.com/donutnomad/clonegen/clonegen/testdata/base"
)

type Color string

type Size int

type Shape struct {
	Sides int
}

// BaseClass 基类型，本身没有标记
type BaseClass struct {
	// @Clonable
	Shape  Shape
	Weight int
}

// MyClass 继承 BaseClass 的 Shape
// @PropertyCloner
type MyClass struct {
	BaseClass
	// @Clonable
	Color Color
	Size  Size
}

// D2 自有字段与继承字段同名
// @PropertyCloner
type D2 struct {
	BaseClass
	Shape Shape `clone:"true"`
}

// @PropertyCloner(method=Snapshot, conflict=error)
type Locked struct {
	sync.Mutex
	*Extra
	Value int `clone:"true"`
	_     int
}

type Extra struct {
	Note string
}

// @PropertyCloner
type Order struct {
	base.Entity
	BaseClass
	// @Clonable
	Total int
}

// @PropertyCloner
type Broken struct {
	base.Missing
	// @Clonable
	A int
}

// @PropertyCloner(conflict=maybe)
type BadParam struct {
	// @Clonable
	A int
}

// @PropertyCloner
type IDs []int

// Plain 未标记
type Plain struct {
	// @Clonable
	A int
}
