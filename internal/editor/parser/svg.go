package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"canvas-editor/internal/editor/models"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Elements
// ============================================================

// Element is one importable shape found in an SVG document.
type Element struct {
	ID     string
	Tag    string
	Kind   models.Kind
	Points []models.Point
	Style  models.Style
}

// Skipped records an element that could not become a shape.
type Skipped struct {
	ID     string `json:"id"`
	Tag    string `json:"tag"`
	Reason string `json:"reason"`
}

// ============================================================
// Parser
// ============================================================

// ParseSVG walks the document, including nested groups, and collects
// <line>, <rect>, <polygon> and <path> elements. Two-point geometry becomes
// a line, closed four-point geometry a rect; anything else is skipped.
func ParseSVG(r io.Reader) ([]Element, []Skipped, error) {
	decoder := xml.NewDecoder(r)

	var elements []Element
	var skipped []Skipped
	sawRoot := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("decode svg: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if start.Name.Local != "svg" {
				return nil, nil, fmt.Errorf("root element is <%s>, want <svg>", start.Name.Local)
			}
			sawRoot = true
			continue
		}

		switch start.Name.Local {
		case "line", "rect", "polygon", "path":
		default:
			continue
		}

		attrs := attrMap(start.Attr)
		elem, err := toElement(start.Name.Local, attrs)
		if err != nil {
			skipped = append(skipped, Skipped{ID: attrs["id"], Tag: start.Name.Local, Reason: err.Error()})
			continue
		}
		elements = append(elements, elem)
	}

	if !sawRoot {
		return nil, nil, fmt.Errorf("no <svg> element")
	}
	return elements, skipped, nil
}

func toElement(tag string, attrs map[string]string) (Element, error) {
	elem := Element{ID: attrs["id"], Tag: tag}

	var points []models.Point
	switch tag {
	case "line":
		points = []models.Point{
			{X: number(attrs, "x1"), Y: number(attrs, "y1")},
			{X: number(attrs, "x2"), Y: number(attrs, "y2")},
		}
	case "rect":
		x, y := number(attrs, "x"), number(attrs, "y")
		w, h := number(attrs, "width"), number(attrs, "height")
		if w <= 0 || h <= 0 {
			return elem, fmt.Errorf("rect needs a positive size")
		}
		points = []models.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
	case "polygon":
		coords := parseCoords(attrs["points"])
		for i := 0; i+1 < len(coords); i += 2 {
			points = append(points, models.Point{X: coords[i], Y: coords[i+1]})
		}
		points = dropClosingPoint(points)
	case "path":
		parsed, err := ParsePath(attrs["d"])
		if err != nil {
			return elem, err
		}
		points = dropClosingPoint(parsed)
	}

	switch {
	case tag == "line" || len(points) == 2:
		elem.Kind = models.KindLine
		elem.Style = styleFrom(attrs, models.DefaultLineStyle())
	case len(points) == 4:
		elem.Kind = models.KindRect
		elem.Style = styleFrom(attrs, models.DefaultRectStyle())
	default:
		return elem, fmt.Errorf("%d points: only lines and quads are supported", len(points))
	}
	elem.Points = points
	return elem, nil
}

// styleFrom overlays presentation attributes, and the inline style
// attribute on top of them, onto def.
func styleFrom(attrs map[string]string, def models.Style) models.Style {
	props := map[string]string{}
	for _, k := range []string{"stroke", "stroke-width", "stroke-linecap", "stroke-linejoin", "fill", "fill-opacity"} {
		if v, ok := attrs[k]; ok {
			props[k] = v
		}
	}
	for _, decl := range strings.Split(attrs["style"], ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok {
			props[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	st := def
	fill := models.Fill{Alpha: 1}
	if def.Fill != nil {
		fill = *def.Fill
	}

	if v, ok := props["stroke"]; ok && v != "none" {
		st.Color = v
	}
	if v, ok := props["stroke-width"]; ok {
		if w, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && w >= 0 {
			st.Width = w
		}
	}
	if v, ok := props["stroke-linecap"]; ok {
		st.Cap = v
	}
	if v, ok := props["stroke-linejoin"]; ok {
		st.Join = v
	}
	if v, ok := props["fill"]; ok {
		if v == "none" {
			fill.Color = ""
		} else {
			fill.Color = v
		}
	}
	if v, ok := props["fill-opacity"]; ok {
		if a, err := strconv.ParseFloat(v, 64); err == nil {
			fill.Alpha = a
		}
	}
	st.Fill = &fill
	return st
}

func attrMap(attrs []xml.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Name.Local] = a.Value
	}
	return out
}

func number(attrs map[string]string, key string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(attrs[key]), "px"), 64)
	if err != nil {
		return 0
	}
	return v
}

// ============================================================
// Import
// ============================================================

// Target is the part of the store an import writes to.
type Target interface {
	AddLine(points []models.Point, style *models.Style) *models.DrawableObject
	AddRect(points []models.Point, style *models.Style) *models.DrawableObject
	UpdateObject(id string, p models.Patch) bool
}

type Result struct {
	Lines   []string  `json:"lines"`
	Rects   []string  `json:"rects"`
	Skipped []Skipped `json:"skipped"`
}

// Import parses r and adds every supported element to t in document order.
// Shapes get fresh ids; the SVG id only becomes the shape name.
func Import(t Target, r io.Reader) (Result, error) {
	elements, skipped, err := ParseSVG(r)
	if err != nil {
		return Result{}, err
	}

	res := Result{Lines: []string{}, Rects: []string{}, Skipped: skipped}
	if res.Skipped == nil {
		res.Skipped = []Skipped{}
	}

	for _, e := range elements {
		st := e.Style
		var obj *models.DrawableObject
		switch e.Kind {
		case models.KindLine:
			obj = t.AddLine(e.Points, &st)
			res.Lines = append(res.Lines, obj.ID)
		case models.KindRect:
			obj = t.AddRect(e.Points, &st)
			res.Rects = append(res.Rects, obj.ID)
		}
		if obj != nil && e.ID != "" {
			name := e.ID
			t.UpdateObject(obj.ID, models.Patch{Name: &name})
		}
	}

	for _, s := range res.Skipped {
		log.Debugf("[IMPORT] skipped <%s id=%q>: %s", s.Tag, s.ID, s.Reason)
	}
	log.Infof("[IMPORT] %d lines, %d rects, %d skipped", len(res.Lines), len(res.Rects), len(res.Skipped))
	return res, nil
}
