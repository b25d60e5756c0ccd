package contour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func square(half float64) Contour {
	return Contour{
		Vertices: []r2.Vec{{X: -half, Y: -half}, {X: half, Y: -half}, {X: half, Y: half}, {X: -half, Y: half}},
		Mode:     Polygon,
		Closed:   true,
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	triangle := Contour{Vertices: []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}, Closed: true}
	// U shape opening upwards: the notch between x=3 and x=7 above y=3 is outside.
	concave := Contour{
		Vertices: []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 7, Y: 10}, {X: 7, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 10}, {X: 0, Y: 10}},
		Closed:   true,
	}

	tests := []struct {
		name string
		c    Contour
		p    r2.Vec
		want bool
	}{
		{"square center", square(10), r2.Vec{}, true},
		{"square outside", square(10), r2.Vec{X: 100, Y: 100}, false},
		{"square left edge", square(10), r2.Vec{X: -10, Y: 0}, true},
		{"square right edge", square(10), r2.Vec{X: 10, Y: 0}, false},
		{"square bottom edge", square(10), r2.Vec{X: 0, Y: -10}, true},
		{"square top edge", square(10), r2.Vec{X: 0, Y: 10}, false},
		{"triangle inside", triangle, r2.Vec{X: 2, Y: 2}, true},
		{"triangle beyond hypotenuse", triangle, r2.Vec{X: 6, Y: 6}, false},
		{"concave arm", concave, r2.Vec{X: 1, Y: 8}, true},
		{"concave notch", concave, r2.Vec{X: 5, Y: 8}, false},
		{"concave base", concave, r2.Vec{X: 5, Y: 1}, true},
		{"two vertices", Contour{Vertices: []r2.Vec{{}, {X: 1, Y: 1}}}, r2.Vec{X: 0.5, Y: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Contains(tt.p))
			// Same input, same answer.
			assert.Equal(t, tt.want, tt.c.Contains(tt.p))
		})
	}
}

func TestContains_WindingIndependent(t *testing.T) {
	t.Parallel()

	cw := square(5)
	ccw := cw.Clone()
	for i, j := 0, len(ccw.Vertices)-1; i < j; i, j = i+1, j-1 {
		ccw.Vertices[i], ccw.Vertices[j] = ccw.Vertices[j], ccw.Vertices[i]
	}

	for _, p := range []r2.Vec{{}, {X: 4.9, Y: -4.9}, {X: 6}, {X: -2, Y: 7}} {
		assert.Equal(t, cw.Contains(p), ccw.Contains(p), "point %v", p)
	}
}

func TestContourHelpers(t *testing.T) {
	t.Parallel()

	c := square(1)
	assert.Equal(t, 4, c.Len())
	assert.False(t, c.Empty())
	assert.True(t, c.Usable())

	clone := c.Clone()
	clone.Vertices[0] = r2.Vec{X: 42}
	assert.NotEqual(t, clone.Vertices[0], c.Vertices[0], "Clone must not share storage")

	open := c.Clone()
	open.Closed = false
	assert.False(t, open.Usable())
	assert.True(t, Contour{}.Empty())
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	m, err := ParseMode("rectangle")
	assert.NoError(t, err)
	assert.Equal(t, Rectangle, m)

	m, err = ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, Polygon, m)

	_, err = ParseMode("lasso")
	assert.Error(t, err)

	assert.Equal(t, "polygon", Polygon.String())
	assert.Equal(t, "rectangle", Rectangle.String())
	assert.Equal(t, "unknown", Mode(9).String())
}
