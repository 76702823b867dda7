package geometry

import (
	"math"

	"canvas-editor/internal/editor/models"
)

// ============================================================
// Measurement
// ============================================================

// Label box used to keep length labels inside the canvas.
const (
	labelWidth  = 80.0
	labelHeight = 30.0
)

// Bounds is the visible canvas size in local coordinates.
type Bounds struct {
	Width  float64
	Height float64
}

// LabelPosition places a label offset units away from the midpoint of p1-p2,
// along the segment normal. If the label box would leave the canvas it is
// flipped to the other side. Empty bounds yield (-999, -999), i.e. nowhere.
func LabelPosition(p1, p2 models.Point, offset float64, b Bounds) models.Point {
	if b.Width == 0 {
		return models.Point{X: -999, Y: -999}
	}

	mid := Midpoint(p1, p2)
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return mid
	}

	nx := -dy / length
	ny := dx / length
	p := models.Point{X: mid.X + nx*offset, Y: mid.Y + ny*offset}

	if p.X < labelWidth/2 || p.X > b.Width-labelWidth/2 ||
		p.Y < labelHeight/2 || p.Y > b.Height-labelHeight/2 {
		p = models.Point{X: mid.X - nx*offset, Y: mid.Y - ny*offset}
	}
	return p
}

// HandlerOffsets pushes both ends of p1-p2 outwards along the segment by
// offset, so grab circles do not cover the measured ends.
func HandlerOffsets(p1, p2 models.Point, offset float64) (models.Point, models.Point) {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p1, p2
	}
	nx := dx / length
	ny := dy / length
	return models.Point{X: p1.X - nx*offset, Y: p1.Y - ny*offset},
		models.Point{X: p2.X + nx*offset, Y: p2.Y + ny*offset}
}

// HandleToEndpoint maps a dragged handle back to the line end it stands for.
// The handle sits offset beyond the end, away from partner. Positions within
// offset of partner are refused.
func HandleToEndpoint(handle, partner models.Point, offset float64) (models.Point, bool) {
	dx := handle.X - partner.X
	dy := handle.Y - partner.Y
	length := math.Hypot(dx, dy)
	if !(length > offset) {
		return models.Point{}, false
	}
	return models.Point{X: handle.X - dx/length*offset, Y: handle.Y - dy/length*offset}, true
}

// Scale returns pixels per centimetre for a ruler of rulerPx pixels that
// represents rulerCm centimetres, or 0 when either is unusable.
func Scale(rulerPx, rulerCm float64) float64 {
	if rulerPx == 0 || rulerCm == 0 || !finite(rulerPx) || !finite(rulerCm) {
		return 0
	}
	return rulerPx / rulerCm
}

// LengthCm converts a pixel length to centimetres at the given scale.
func LengthCm(px, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return px / scale
}
