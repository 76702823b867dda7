package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"canvas-editor/internal/editor/models"
)

// ============================================================
// Path Parser
// ============================================================

var (
	pathCommandRe = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)
	unsupportedRe = regexp.MustCompile(`[CcSsQqTtAa]`)
)

// ParsePath turns the straight-segment subset of SVG path data (M, L, H, V,
// Z in both cases) into a point list. Repeated coordinate pairs after M or L
// are implicit line-tos. Z appends the first point of the subpath.
func ParsePath(d string) ([]models.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}
	if loc := unsupportedRe.FindStringIndex(d); loc != nil {
		return nil, fmt.Errorf("unsupported path command %q", d[loc[0]:loc[1]])
	}

	var points []models.Point
	var cur, start models.Point

	for _, match := range pathCommandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords := parseCoords(match[2])

		switch cmd {
		case "M", "m", "L", "l":
			relative := cmd == "m" || cmd == "l"
			for i := 0; i+1 < len(coords); i += 2 {
				next := models.Point{X: coords[i], Y: coords[i+1]}
				if relative {
					next = cur.Add(next)
				}
				cur = next
				if i == 0 && (cmd == "M" || cmd == "m") {
					start = cur
				}
				points = append(points, cur)
			}

		case "H", "h":
			for _, x := range coords {
				if cmd == "h" {
					x += cur.X
				}
				cur.X = x
				points = append(points, cur)
			}

		case "V", "v":
			for _, y := range coords {
				if cmd == "v" {
					y += cur.Y
				}
				cur.Y = y
				points = append(points, cur)
			}

		case "Z", "z":
			if len(points) > 0 {
				points = append(points, start)
				cur = start
			}
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("path %q has no points", d)
	}
	return points, nil
}

// parseCoords reads comma or whitespace separated numbers, skipping junk.
func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	s = strings.ReplaceAll(s, ",", " ")
	parts := strings.Fields(s)

	var coords []float64
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 64)
		if err == nil {
			coords = append(coords, val)
		}
	}

	return coords
}

// dropClosingPoint removes a trailing point equal to the first one.
func dropClosingPoint(points []models.Point) []models.Point {
	if len(points) > 1 && points[0] == points[len(points)-1] {
		return points[:len(points)-1]
	}
	return points
}
