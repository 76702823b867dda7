package geometry

import (
	"math"

	"canvas-editor/internal/editor/models"
)

// ============================================================
// Hit testing & construction
// ============================================================

// DefaultAreaTolerance is the absolute slack InArea allows between the quad
// area and the sum of the four triangle areas. It does not scale with the
// coordinates, so large canvases should pass their own value to InAreaTol.
const DefaultAreaTolerance = 0.01

// PerpendicularSegment returns the segment through the midpoint of p1-p2,
// perpendicular to it, with length |p1-p2| * factor.
//
// When p1 == p2 the direction is undefined and both ends collapse onto the
// midpoint.
func PerpendicularSegment(p1, p2 models.Point, factor float64) [2]models.Point {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	length := math.Hypot(dx, dy)
	mid := Midpoint(p1, p2)

	if length == 0 {
		return [2]models.Point{mid, mid}
	}

	nx := -dy / length
	ny := dx / length
	half := length * factor / 2

	return [2]models.Point{
		{X: mid.X - nx*half, Y: mid.Y - ny*half},
		{X: mid.X + nx*half, Y: mid.Y + ny*half},
	}
}

// MakeBoxCollision builds a quad around line1 by pushing both of its ends
// half the length of line2 along line2's direction, each way. Only the
// direction and length of line2 matter.
//
// The result is ordered p1Top, p2Top, p2Bottom, p1Bottom. A zero-length line2
// yields the flat quad p1, p2, p2, p1.
func MakeBoxCollision(line1, line2 [2]models.Point) [4]models.Point {
	p1, p2 := line1[0], line1[1]

	bx := line2[1].X - line2[0].X
	by := line2[1].Y - line2[0].Y
	lenB := math.Hypot(bx, by)
	if lenB == 0 {
		return [4]models.Point{p1, p2, p2, p1}
	}

	nx := bx / lenB
	ny := by / lenB
	half := lenB / 2

	return [4]models.Point{
		{X: p1.X + nx*half, Y: p1.Y + ny*half},
		{X: p2.X + nx*half, Y: p2.Y + ny*half},
		{X: p2.X - nx*half, Y: p2.Y - ny*half},
		{X: p1.X - nx*half, Y: p1.Y - ny*half},
	}
}

// InArea reports whether p lies inside the convex quad, using
// DefaultAreaTolerance.
func InArea(p models.Point, quad [4]models.Point) bool {
	return InAreaTol(p, quad, DefaultAreaTolerance)
}

// InAreaTol is InArea with an explicit tolerance. The quad must be convex.
func InAreaTol(p models.Point, quad [4]models.Point, tol float64) bool {
	v1, v2, v3, v4 := quad[0], quad[1], quad[2], quad[3]

	total := triangleArea(v1, v2, v3) + triangleArea(v1, v3, v4)
	sum := triangleArea(p, v1, v2) +
		triangleArea(p, v2, v3) +
		triangleArea(p, v3, v4) +
		triangleArea(p, v4, v1)

	return math.Abs(sum-total) < tol
}

// OnPath reports whether p is within thickness/2 of any edge of the closed
// polyline (the last point connects back to the first).
func OnPath(p models.Point, points []models.Point, thickness float64) bool {
	if len(points) < 2 || !finite(thickness) {
		return false
	}

	half := thickness / 2
	n := len(points)
	for i := 0; i < n; i++ {
		if DistPointToSegment(p, points[i], points[(i+1)%n]) <= half {
			return true
		}
	}
	return false
}

// InCircle reports whether p is inside or on the circle.
func InCircle(p, center models.Point, radius float64) bool {
	if !finite(radius) {
		return false
	}
	dx := p.X - center.X
	dy := p.Y - center.Y
	return dx*dx+dy*dy <= radius*radius
}

// OnCirclePath reports whether p lies on the circle outline widened to the
// given thickness.
func OnCirclePath(p, center models.Point, radius, thickness float64) bool {
	if !finite(radius) || !finite(thickness) {
		return false
	}
	d := Distance(p, center)
	half := thickness / 2
	return d >= radius-half && d <= radius+half
}

// DistPointToSegment returns the distance from p to the segment a-b.
func DistPointToSegment(p, a, b models.Point) float64 {
	abx := b.X - a.X
	aby := b.Y - a.Y

	abLen2 := abx*abx + aby*aby
	if abLen2 == 0 {
		return Distance(p, a)
	}

	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / abLen2
	t = clamp(t, 0, 1)

	return Distance(p, models.Point{X: a.X + abx*t, Y: a.Y + aby*t})
}

// ============================================================
// Helpers
// ============================================================

// Distance returns the euclidean distance between p1 and p2.
func Distance(p1, p2 models.Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// Midpoint returns the middle of p1-p2.
func Midpoint(p1, p2 models.Point) models.Point {
	return models.Point{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2}
}

func triangleArea(a, b, c models.Point) float64 {
	return math.Abs((a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y)) / 2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
