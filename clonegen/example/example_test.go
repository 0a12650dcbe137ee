package example

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircle_CloneProperties(t *testing.T) {
	c := &Circle{
		Shape:  Shape{Origin: Point{X: 1, Y: 2}, area: 3.14},
		Radius: 5,
		Label:  "unit",
	}

	got := c.CloneProperties()

	assert.NotSame(t, c, got)
	assert.Equal(t, 5, got.Radius)
	assert.Equal(t, Point{X: 1, Y: 2}, got.Origin)
	assert.Empty(t, got.Label)
	assert.Zero(t, got.Area())
}

func TestPair_Copy(t *testing.T) {
	p := &Pair[string, []int]{Key: "k", Value: []int{1, 2}, Hits: 9}

	got := p.Copy()

	assert.Equal(t, "k", got.Key)
	assert.Equal(t, []int{1, 2}, got.Value)
	assert.Zero(t, got.Hits)

	// 浅复制，切片底层数组共享
	got.Value[0] = 100
	assert.Equal(t, 100, p.Value[0])
}

func ExampleCircle_CloneProperties() {
	c := &Circle{Shape: Shape{Origin: Point{X: 3, Y: 4}}, Radius: 2, Label: "draft"}
	clone := c.CloneProperties()
	fmt.Printf("%+v %d %q\n", clone.Origin, clone.Radius, clone.Label)
	// Output: {X:3 Y:4} 2 ""
}
