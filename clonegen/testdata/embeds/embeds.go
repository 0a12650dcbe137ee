package embeds

type Base struct {
	// @Clonable
	S string
	// @Clonable
	N int
}

// Other 与 Base 同深度提升了 S
type Other struct {
	S string
}

// @PropertyCloner
type D struct {
	Base
	Other
	C int `clone:"true"`
}

// @PropertyCloner
type Single struct {
	Base
}
