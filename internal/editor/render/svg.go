package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"canvas-editor/internal/editor/models"
)

// ============================================================
// Sink contract
// ============================================================

type Options struct {
	Clear  bool
	Width  float64
	Height float64
}

// Sink draws a draw list, bottom first.
type Sink interface {
	Render(objs []models.DrawableObject, opts Options) error
}

// ============================================================
// SVG
// ============================================================

type SVG struct {
	w io.Writer
}

func NewSVG(w io.Writer) *SVG {
	return &SVG{w: w}
}

// Render writes one standalone SVG document. Invisible objects are skipped.
func (s *SVG) Render(objs []models.DrawableObject, opts Options) error {
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = 800, 600
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, o := range objs {
		elem := renderObject(o)
		if elem == "" {
			continue
		}
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)

	if _, err := io.WriteString(s.w, builder.String()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func renderObject(o models.DrawableObject) string {
	if !o.Visible || len(o.Points) == 0 {
		return ""
	}

	switch o.Kind {
	case models.KindLine:
		if len(o.Points) < 2 {
			return ""
		}
		a, b := o.Points[0], o.Points[1]
		return fmt.Sprintf(`<line id="%s" x1="%s" y1="%s" x2="%s" y2="%s"%s />`,
			escape(o.ID), formatFloat(a.X), formatFloat(a.Y), formatFloat(b.X), formatFloat(b.Y), strokeAttrs(o.Style))

	case models.KindRect:
		var points []string
		for _, p := range o.Points {
			points = append(points, formatFloat(p.X)+","+formatFloat(p.Y))
		}
		return fmt.Sprintf(`<polygon id="%s" points="%s"%s%s />`,
			escape(o.ID), strings.Join(points, " "), fillAttrs(o.Style), strokeAttrs(o.Style))

	case models.KindCircle:
		c := o.Points[0]
		return fmt.Sprintf(`<circle id="%s" cx="%s" cy="%s" r="%s"%s%s />`,
			escape(o.ID), formatFloat(c.X), formatFloat(c.Y), formatFloat(o.Style.Radius), fillAttrs(o.Style), strokeAttrs(o.Style))
	}
	return ""
}

// ============================================================
// Formatting helpers
// ============================================================

func strokeAttrs(st models.Style) string {
	var b strings.Builder
	if st.Color != "" {
		b.WriteString(fmt.Sprintf(` stroke="%s"`, escape(st.Color)))
	}
	if st.Width > 0 {
		b.WriteString(fmt.Sprintf(` stroke-width="%s"`, formatFloat(st.Width)))
	}
	if st.Cap != "" {
		b.WriteString(fmt.Sprintf(` stroke-linecap="%s"`, escape(st.Cap)))
	}
	if st.Join != "" {
		b.WriteString(fmt.Sprintf(` stroke-linejoin="%s"`, escape(st.Join)))
	}
	return b.String()
}

func fillAttrs(st models.Style) string {
	if st.Fill == nil || st.Fill.Color == "" || st.Fill.Alpha <= 0 {
		return ` fill="none"`
	}
	return fmt.Sprintf(` fill="%s" fill-opacity="%s"`, escape(st.Fill.Color), formatFloat(clamp01(st.Fill.Alpha)))
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

func escape(s string) string {
	return attrEscaper.Replace(s)
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
