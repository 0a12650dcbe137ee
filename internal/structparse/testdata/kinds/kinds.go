package kinds

import "github.com/donutnomad/clonegen/internal/structparse/testdata/shapes"

type Square struct {
	shapes.Shape
	Side int
}

type Ghost struct {
	shapes.Ghost
}

type Orphan struct {
	missing.Thing
}
