// Package geometry implements the spatial math regions, tripwires and
// camera undistortion need: polygon containment, segment crossing,
// pixel-to-meter-plane undistortion and LLA/ECEF conversion.
package geometry

import "github.com/sua-org/scene-controller/internal/core"

// ContainsPoint reports whether pt lies inside polygon p using the
// standard ray-casting algorithm.
func ContainsPoint(p core.Polygon, pt core.Point2) bool {
	if len(p) < 3 {
		return false
	}
	n := len(p)
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := p[i].X, p[i].Y
		xj, yj := p[j].X, p[j].Y
		if ((yi > pt.Y) != (yj > pt.Y)) &&
			(pt.X < (xj-xi)*(pt.Y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Intersects reports whether two polygons overlap, checking each
// polygon's vertices against the other. This is an approximation (it
// misses the case where edges cross without either polygon containing
// a vertex of the other) adequate for region/object bounding checks;
// exact edge-intersection is not needed by any caller.
func Intersects(a, b core.Polygon) bool {
	for _, pt := range a {
		if ContainsPoint(b, pt) {
			return true
		}
	}
	for _, pt := range b {
		if ContainsPoint(a, pt) {
			return true
		}
	}
	return false
}

// CrossingDirection returns the signed side of the tripwire segment
// (points[0]->points[1]) that pt falls on: positive, negative, or zero
// when pt is exactly on the line. Sign follows the 2D cross product of
// the segment direction and the vector to pt.
func CrossingDirection(points core.Polygon, pt core.Point2) float64 {
	if len(points) < 2 {
		return 0
	}
	ax, ay := points[0].X, points[0].Y
	bx, by := points[1].X, points[1].Y
	return (bx-ax)*(pt.Y-ay) - (by-ay)*(pt.X-ax)
}

// LineCrosses determines whether the object moved from one side of the
// tripwire to the other between prev and cur, returning the
// sign-inverted direction (matching the Python source's "-d" convention)
// or 0 if no crossing occurred.
func LineCrosses(points core.Polygon, prev, cur core.Point2) int {
	d0 := CrossingDirection(points, prev)
	d1 := CrossingDirection(points, cur)
	if d0 == 0 || d1 == 0 {
		return 0
	}
	if (d0 > 0) == (d1 > 0) {
		return 0
	}
	if d1 > 0 {
		return -1
	}
	return 1
}

// BoundingBoxPolygon turns an axis-aligned box into a 4-vertex polygon
// for containment/intersection tests against regions.
func BoundingBoxPolygon(b core.BoundingBox) core.Polygon {
	return core.Polygon{
		{X: b.X, Y: b.Y},
		{X: b.X + b.Width, Y: b.Y},
		{X: b.X + b.Width, Y: b.Y + b.Height},
		{X: b.X, Y: b.Y + b.Height},
	}
}
