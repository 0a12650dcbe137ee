package models

// @PropertyCloner
type Fixture struct{}
