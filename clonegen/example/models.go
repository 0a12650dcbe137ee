// Package example 演示 @PropertyCloner 的生成结果
package example

//go:generate go run github.com/donutnomad/clonegen -v .

// Point 坐标
type Point struct {
	X int
	Y int
}

// Shape 基类型，本身没有标记
type Shape struct {
	// @Clonable
	Origin Point
	area   float64
}

// Area 返回缓存的面积
func (s *Shape) Area() float64 {
	return s.area
}

// Circle 圆，继承 Shape 的 Origin
// @PropertyCloner
type Circle struct {
	Shape
	// @Clonable
	Radius int
	Label  string
}

// Pair 泛型键值对
// @PropertyCloner(method=Copy)
type Pair[K comparable, V any] struct {
	Key   K `clone:"true"`
	Value V `clone:"true"`
	Hits  int
}
