package sub

// @PropertyCloner
type Sub struct{}
