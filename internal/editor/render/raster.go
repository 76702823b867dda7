package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"canvas-editor/internal/editor/geometry"
	"canvas-editor/internal/editor/models"

	"github.com/gofiber/fiber/v3/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// ============================================================
// Raster
// ============================================================

// circleSegments is how many edges approximate a circle.
const circleSegments = 32

// Raster draws onto an RGBA image. Strokes are filled quads around each
// segment, so they line up exactly with what ShapeAt considers a hit.
type Raster struct {
	dst        *image.RGBA
	Background color.RGBA
}

func NewRaster(width, height int) *Raster {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Raster{dst: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (r *Raster) Image() *image.RGBA { return r.dst }

func (r *Raster) Render(objs []models.DrawableObject, opts Options) error {
	if opts.Clear {
		draw.Draw(r.dst, r.dst.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
	}

	for _, o := range objs {
		if !o.Visible || len(o.Points) == 0 {
			continue
		}
		switch o.Kind {
		case models.KindLine:
			r.drawLine(o)
		case models.KindRect:
			r.drawPolygon(o)
		case models.KindCircle:
			r.drawHandler(o)
		default:
			log.Warnf("[RENDER] %s: unknown kind %q", o.ID, o.Kind)
		}
	}
	return nil
}

func (r *Raster) drawLine(o models.DrawableObject) {
	if len(o.Points) < 2 {
		return
	}
	col, ok := strokeColor(o)
	if !ok {
		return
	}
	a, b := o.Points[0], o.Points[1]
	w := o.Style.Width

	if o.Style.Cap == "square" {
		a, b = extend(a, b, w/2)
	}
	r.fillPaths(col, strokeQuad(a, b, w))
	if o.Style.Cap == "round" {
		r.fillPaths(col, circlePath(a, w/2, false), circlePath(b, w/2, false))
	}
}

func (r *Raster) drawPolygon(o models.DrawableObject) {
	if f := o.Style.Fill; f != nil && f.Color != "" && f.Alpha > 0 {
		if c, err := ParseColor(f.Color); err == nil {
			r.fillPaths(withAlpha(c, f.Alpha), o.Points)
		} else {
			log.Warnf("[RENDER] %s fill: %v", o.ID, err)
		}
	}

	col, ok := strokeColor(o)
	if !ok {
		return
	}
	w := o.Style.Width
	n := len(o.Points)
	var paths [][]models.Point
	for i := 0; i < n; i++ {
		paths = append(paths, strokeQuad(o.Points[i], o.Points[(i+1)%n], w))
		if o.Style.Join == "round" {
			paths = append(paths, circlePath(o.Points[i], w/2, false))
		}
	}
	r.fillPaths(col, paths...)
}

// drawHandler draws the handle as a ring of the stroke width centred on the
// radius, filled inside when the handler has a fill.
func (r *Raster) drawHandler(o models.DrawableObject) {
	c := o.Points[0]
	radius := o.Style.Radius
	if radius <= 0 || math.IsInf(radius, 0) || math.IsNaN(radius) {
		return
	}

	if f := o.Style.Fill; f != nil && f.Color != "" && f.Alpha > 0 {
		if fc, err := ParseColor(f.Color); err == nil {
			r.fillPaths(withAlpha(fc, f.Alpha), circlePath(c, radius, false))
		}
	}

	col, ok := strokeColor(o)
	if !ok {
		return
	}
	half := o.Style.Width / 2
	inner := math.Max(radius-half, 0)
	r.fillPaths(col, circlePath(c, radius+half, false), circlePath(c, inner, true))
}

// fillPaths rasterizes closed paths in one pass. Opposite windings cancel,
// which is how rings get their hole.
func (r *Raster) fillPaths(col color.RGBA, paths ...[]models.Point) {
	b := r.dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	drawn := false
	for _, p := range paths {
		if len(p) < 3 {
			continue
		}
		z.MoveTo(float32(p[0].X), float32(p[0].Y))
		for _, q := range p[1:] {
			z.LineTo(float32(q.X), float32(q.Y))
		}
		z.ClosePath()
		drawn = true
	}
	if drawn {
		z.Draw(r.dst, b, image.NewUniform(col), image.Point{})
	}
}

// ============================================================
// Geometry helpers
// ============================================================

func strokeQuad(a, b models.Point, width float64) []models.Point {
	length := geometry.Distance(a, b)
	if length == 0 || width <= 0 {
		return nil
	}
	cross := geometry.PerpendicularSegment(a, b, width/length)
	box := geometry.MakeBoxCollision([2]models.Point{a, b}, cross)
	return box[:]
}

func extend(a, b models.Point, by float64) (models.Point, models.Point) {
	length := geometry.Distance(a, b)
	if length == 0 {
		return a, b
	}
	ux, uy := (b.X-a.X)/length*by, (b.Y-a.Y)/length*by
	return models.Point{X: a.X - ux, Y: a.Y - uy}, models.Point{X: b.X + ux, Y: b.Y + uy}
}

func circlePath(c models.Point, radius float64, reverse bool) []models.Point {
	if radius <= 0 {
		return nil
	}
	out := make([]models.Point, circleSegments)
	for i := range out {
		t := 2 * math.Pi * float64(i) / circleSegments
		if reverse {
			t = -t
		}
		out[i] = models.Point{X: c.X + radius*math.Cos(t), Y: c.Y + radius*math.Sin(t)}
	}
	return out
}

func strokeColor(o models.DrawableObject) (color.RGBA, bool) {
	if o.Style.Color == "" || o.Style.Width <= 0 {
		return color.RGBA{}, false
	}
	c, err := ParseColor(o.Style.Color)
	if err != nil {
		log.Warnf("[RENDER] %s stroke: %v", o.ID, err)
		return color.RGBA{}, false
	}
	return withAlpha(c, 1), true
}

// EncodePNG writes the raster as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, r.dst); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
