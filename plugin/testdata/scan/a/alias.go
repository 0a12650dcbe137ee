package models

// go:clonegen: -output zz_clone

// @PropertyCloner
type Alias = User
