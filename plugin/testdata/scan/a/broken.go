package models

// @PropertyCloner
type Broken struct {
