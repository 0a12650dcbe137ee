package b

//go:clonegen: -output first
//go:clonegen: -output second

// @PropertyCloner
type B struct{}
