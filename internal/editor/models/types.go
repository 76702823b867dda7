package models

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// ============================================================
// Drawable objects
// ============================================================

type Role string

const (
	RoleShape   Role = "shape"
	RoleHandler Role = "handler"
)

type Kind string

const (
	KindLine   Kind = "line"
	KindRect   Kind = "rect"
	KindCircle Kind = "circle" // handlers only
)

type Fill struct {
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

// Style carries the stroke and fill attributes of one object.
// Radius is only meaningful for handlers.
type Style struct {
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Join   string  `json:"join,omitempty"`
	Cap    string  `json:"cap,omitempty"`
	Fill   *Fill   `json:"background,omitempty"`
	Radius float64 `json:"radius,omitempty"`
}

// DefaultLineStyle returns the style a line gets when none is supplied.
func DefaultLineStyle() Style {
	return Style{
		Color: "#ffffff",
		Width: 1,
		Join:  "round",
		Cap:   "round",
		Fill:  &Fill{Color: "", Alpha: 1},
	}
}

// DefaultRectStyle returns the style a rect gets when none is supplied.
func DefaultRectStyle() Style {
	return Style{
		Color: "#ffffff",
		Width: 1,
		Join:  "miter",
		Cap:   "butt",
		Fill:  &Fill{Color: "", Alpha: 1},
	}
}

// DefaultHandlerStyle returns an outline-only circle style of the given radius.
func DefaultHandlerStyle(radius float64) Style {
	return Style{
		Color:  "#ff0000",
		Width:  1,
		Fill:   &Fill{Color: "", Alpha: 0},
		Radius: radius,
	}
}

// DrawableObject is either a user shape or a handler derived from one.
//
// For shapes Points is the authoritative geometry. For handlers Points holds a
// single cached point; the source of truth is ParentID/PointIndex.
type DrawableObject struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Role       Role    `json:"role"`
	Kind       Kind    `json:"shape"`
	Points     []Point `json:"points"`
	Style      Style   `json:"option"`
	Visible    bool    `json:"visible"`
	ParentID   string  `json:"parentId,omitempty"`
	PointIndex int     `json:"pointIndex"`
}

func (o *DrawableObject) IsShape() bool   { return o.Role == RoleShape }
func (o *DrawableObject) IsHandler() bool { return o.Role == RoleHandler }

// Patch lists the fields UpdateObject merges into an object. Nil fields are
// left untouched.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Points  []Point `json:"points,omitempty"`
	Style   *Style  `json:"option,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
}

// ============================================================
// Gesture payloads
// ============================================================

// Payload is what a strategy hands to its success callback.
type Payload interface {
	PayloadType() string
}

// ShapeCompleted reports the shape a gesture created or edited.
type ShapeCompleted struct {
	ShapeID string `json:"shapeId"`
}

func (ShapeCompleted) PayloadType() string { return "shape-completed" }

// HandlerHit reports which handler a pointer-down landed on.
type HandlerHit struct {
	HandlerID  string `json:"handlerId"`
	ParentID   string `json:"parentId"`
	PointIndex int    `json:"pointIndex"`
}

func (HandlerHit) PayloadType() string { return "handler-hit" }
