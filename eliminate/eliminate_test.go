package eliminate

import "github.com/lnorton/eliminate/geomengine"

// square returns a closed rectangular ring with corners (x0,y0)-(x1,y1),
// wound counter-clockwise, for building test geometry.
func square(x0, y0, x1, y1 float64) [][]geomengine.Point {
	return [][]geomengine.Point{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}
