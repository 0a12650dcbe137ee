package models

import (
	"sync"

	geo "github.com/donutnomad/clonegen/internal/structparse/testdata/shapes"
)

// BaseClass 同包基类型
type BaseClass struct {
	// @Clonable
	Shape string
	Note  string
}

// MyClass 同时带有值嵌入和指针嵌入
// @PropertyCloner
type MyClass struct {
	BaseClass
	*Extra
	// @Clonable
	Color string
	Size  int
}

type Extra struct {
	X int
}

// @PropertyCloner(method=Copy)
type Polygon struct {
	geo.Shape
	Name string `json:"name" clone:"true"`
}

// @PropertyCloner
type Locked struct {
	sync.Mutex
	Value int `clone:"true"`
}

type (
	// Pair 泛型结构体
	// @PropertyCloner
	Pair[K comparable, V any] struct {
		Key K `clone:"true"`
		Val V
	}

	// Names 非结构体类型
	Names []string
)

type Alias = MyClass

type Walker interface {
	Walk()
}
