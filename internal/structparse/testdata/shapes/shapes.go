package shapes

// Shape 跨包基类型
type Shape struct {
	// @Clonable
	Kind  string
	Sides int `clone:"true"`

	area  float64 // @Clonable
	Label string
}
