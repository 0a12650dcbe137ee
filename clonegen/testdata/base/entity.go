package base

// Entity 跨包基类型
type Entity struct {
	// @Clonable
	ID  string
	rev int // @Clonable
	// 不复制
	Version int
}
