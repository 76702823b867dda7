package store

import (
	"fmt"
	"math"
	"time"

	"canvas-editor/internal/editor/diagnostics"
	"canvas-editor/internal/editor/geometry"
	"canvas-editor/internal/editor/models"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// ============================================================
// Drawable Object Store
// ============================================================

const DefaultHandlerRadius = 6.0

// Store owns the ordered shapes of one editing session and the handlers
// derived from the current handler target.
//
// After every mutating call except MutatePointInPlace:
//   - at most one handler target is set;
//   - when the target resolves to a shape there is exactly one handler per
//     point of it, each with the current handler radius;
//   - all shapes precede all handlers.
//
// The store is not safe for concurrent use; callers serialise access.
type Store struct {
	objects  []*models.DrawableObject
	target   string
	radius   float64
	areaTol  float64
	revision uint64

	report   diagnostics.Reporter
	onChange func(revision uint64)
	newID    func() string
}

type Option func(*Store)

// WithReporter sets where ignored operations are reported.
func WithReporter(r diagnostics.Reporter) Option {
	return func(s *Store) {
		if r != nil {
			s.report = r
		}
	}
}

func WithHandlerRadius(r float64) Option {
	return func(s *Store) { s.radius = sanitizeRadius(r) }
}

// WithAreaTolerance sets the tolerance ShapeAt passes to geometry.InAreaTol.
func WithAreaTolerance(tol float64) Option {
	return func(s *Store) {
		if tol > 0 {
			s.areaTol = tol
		}
	}
}

// WithOnChange registers a callback run after every mutation with the new
// revision. Hosts use it to schedule a redraw.
func WithOnChange(fn func(revision uint64)) Option {
	return func(s *Store) { s.onChange = fn }
}

// WithIDGenerator replaces the uuid based shape id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		radius:  DefaultHandlerRadius,
		areaTol: geometry.DefaultAreaTolerance,
		report:  diagnostics.Discard,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================
// Shapes
// ============================================================

// AddLine appends a line. Nil points give a zero-length line at the origin,
// a nil style gives models.DefaultLineStyle.
func (s *Store) AddLine(points []models.Point, style *models.Style) *models.DrawableObject {
	if points != nil && len(points) != 2 {
		s.diag("addLine", "", fmt.Sprintf("line needs 2 points, got %d; using defaults", len(points)))
		points = nil
	}
	if points == nil {
		points = []models.Point{{X: 0, Y: 0}, {X: 0, Y: 0}}
	}

	st := models.DefaultLineStyle()
	if style != nil {
		st = cloneStyle(*style)
	}

	obj := &models.DrawableObject{
		ID:      s.newID(),
		Name:    "Line",
		Role:    models.RoleShape,
		Kind:    models.KindLine,
		Points:  append([]models.Point(nil), points...),
		Style:   st,
		Visible: true,
	}
	s.insertShape(obj)
	s.afterShapeMutated()
	return obj
}

// AddRect appends a rect. Two points are read as opposite corners and
// expanded to four in winding order; four points are kept as given; nil
// points give a 100x100 square at the origin.
func (s *Store) AddRect(points []models.Point, style *models.Style) *models.DrawableObject {
	corners, ok := shapePoints(models.KindRect, points)
	if !ok {
		if points != nil {
			s.diag("addRect", "", fmt.Sprintf("rect needs 2 or 4 points, got %d; using defaults", len(points)))
		}
		corners = []models.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	}

	st := models.DefaultRectStyle()
	if style != nil {
		st = cloneStyle(*style)
	}

	obj := &models.DrawableObject{
		ID:      s.newID(),
		Name:    "Rect",
		Role:    models.RoleShape,
		Kind:    models.KindRect,
		Points:  corners,
		Style:   st,
		Visible: true,
	}
	s.insertShape(obj)
	s.afterShapeMutated()
	return obj
}

// UpdateObject merges the non-nil fields of p into the shape with the given
// id. It reports whether anything changed. Handlers are derived and cannot
// be updated; points that do not fit the shape kind refuse the whole patch.
func (s *Store) UpdateObject(id string, p models.Patch) bool {
	obj := s.find(id)
	if obj == nil {
		s.diag("updateObject", id, "unknown id")
		return false
	}
	if obj.IsHandler() {
		s.diag("updateObject", id, "handlers follow their parent and cannot be updated")
		return false
	}

	var points []models.Point
	if p.Points != nil {
		var ok bool
		if points, ok = shapePoints(obj.Kind, p.Points); !ok {
			s.diag("updateObject", id, fmt.Sprintf("%s cannot take %d points", obj.Kind, len(p.Points)))
			return false
		}
	}

	if p.Name != nil {
		obj.Name = *p.Name
	}
	if points != nil {
		obj.Points = points
	}
	if p.Style != nil {
		obj.Style = cloneStyle(*p.Style)
	}
	if p.Visible != nil {
		obj.Visible = *p.Visible
	}

	s.afterShapeMutated()
	return true
}

// RemoveObject deletes a shape. Removing the handler target also clears the
// target and its handlers.
func (s *Store) RemoveObject(id string) bool {
	idx := s.indexOf(id)
	if idx == -1 {
		s.diag("removeObject", id, "unknown id")
		return false
	}
	if s.objects[idx].IsHandler() {
		s.diag("removeObject", id, "handlers are removed with their target")
		return false
	}

	s.objects = append(s.objects[:idx], s.objects[idx+1:]...)
	if s.target == id {
		s.target = ""
	}
	s.afterShapeMutated()
	return true
}

// Contains reports whether id names a shape or a handler.
func (s *Store) Contains(id string) bool {
	return s.find(id) != nil
}

// GetShapeByID returns the live shape with the given id.
func (s *Store) GetShapeByID(id string) (*models.DrawableObject, bool) {
	obj := s.find(id)
	if obj == nil || !obj.IsShape() {
		return nil, false
	}
	return obj, true
}

// MutatePointInPlace overwrites one point of a shape without rebuilding
// handlers. Renderables stay correct because handler positions are resolved
// from the parent on read; call Reconcile once the gesture is over.
func (s *Store) MutatePointInPlace(shapeID string, index int, p models.Point) bool {
	shape, ok := s.GetShapeByID(shapeID)
	if !ok || index < 0 || index >= len(shape.Points) {
		return false
	}
	shape.Points[index] = p
	s.touch()
	return true
}

// Reconcile re-establishes every store invariant: drops a dead handler
// target, rebuilds handlers and keeps them above the shapes.
func (s *Store) Reconcile() {
	s.afterShapeMutated()
}

// ============================================================
// Handlers
// ============================================================

// MakeHandler sets the handler target, or clears it when targetID is empty,
// and rebuilds the handlers from scratch. A target that does not resolve to
// a shape is kept but produces no handlers until the next mutation drops it.
func (s *Store) MakeHandler(targetID string) []models.DrawableObject {
	s.target = targetID
	s.rebuildHandlers()
	s.touch()

	if targetID == "" {
		return nil
	}
	if _, ok := s.GetShapeByID(targetID); !ok {
		s.diag("makeHandler", targetID, "target is not a shape; no handlers produced")
		return nil
	}
	return s.Handlers()
}

// SetHandlerRadius changes the radius of every present and future handler.
// Non-finite or negative values become 0.
func (s *Store) SetHandlerRadius(r float64) bool {
	s.radius = sanitizeRadius(r)
	for _, o := range s.objects {
		if o.IsHandler() {
			o.Style.Radius = s.radius
		}
	}
	s.ensureHandlersOnTop()
	s.touch()
	return true
}

func (s *Store) HandlerRadius() float64 { return s.radius }

// HandlerTarget returns the current target id, or "" when none is set.
func (s *Store) HandlerTarget() string { return s.target }

// Handlers returns copies of the handler objects in draw order, positions
// resolved from their parents.
func (s *Store) Handlers() []models.DrawableObject {
	var out []models.DrawableObject
	for _, o := range s.objects {
		if o.IsHandler() {
			out = append(out, s.resolve(o))
		}
	}
	return out
}

// ============================================================
// Read side
// ============================================================

// Renderables returns a deep copy of the draw list in order. Every handler
// carries its parent's current point; a handler whose parent or point is
// gone is passed through as is.
func (s *Store) Renderables() []models.DrawableObject {
	out := make([]models.DrawableObject, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, s.resolve(o))
	}
	return out
}

// Shapes returns copies of the shapes in draw order, bottom first.
func (s *Store) Shapes() []models.DrawableObject {
	var out []models.DrawableObject
	for _, o := range s.objects {
		if o.IsShape() {
			out = append(out, clone(o))
		}
	}
	return out
}

// Revision increases on every mutation; hosts compare it to decide whether
// a redraw is due.
func (s *Store) Revision() uint64 { return s.revision }

// ShapeAt returns the topmost visible shape whose outline passes within
// thickness/2 of p. Filled rects also match on their inside.
func (s *Store) ShapeAt(p models.Point, thickness float64) (models.DrawableObject, bool) {
	for i := len(s.objects) - 1; i >= 0; i-- {
		o := s.objects[i]
		if !o.IsShape() || !o.Visible {
			continue
		}
		if s.hitShape(o, p, thickness) {
			return clone(o), true
		}
	}
	return models.DrawableObject{}, false
}

func (s *Store) hitShape(o *models.DrawableObject, p models.Point, thickness float64) bool {
	switch o.Kind {
	case models.KindLine:
		if len(o.Points) < 2 {
			return false
		}
		a, b := o.Points[0], o.Points[1]
		length := geometry.Distance(a, b)
		if length == 0 {
			return geometry.InCircle(p, a, thickness/2)
		}
		cross := geometry.PerpendicularSegment(a, b, thickness/length)
		box := geometry.MakeBoxCollision([2]models.Point{a, b}, cross)
		return geometry.InAreaTol(p, box, s.areaTol)
	case models.KindRect:
		if geometry.OnPath(p, o.Points, thickness) {
			return true
		}
		if f := o.Style.Fill; f != nil && f.Color != "" && f.Alpha > 0 && len(o.Points) == 4 {
			return geometry.InAreaTol(p, [4]models.Point{o.Points[0], o.Points[1], o.Points[2], o.Points[3]}, s.areaTol)
		}
	}
	return false
}

// ============================================================
// Internals
// ============================================================

// afterShapeMutated runs after every shape level change: a target that no
// longer resolves is dropped, handlers are rebuilt, draw order is restored.
func (s *Store) afterShapeMutated() {
	if s.target != "" {
		if _, ok := s.GetShapeByID(s.target); !ok {
			log.Debugf("[STORE] handler target %s is gone, clearing", s.target)
			s.target = ""
		}
	}
	s.rebuildHandlers()
	s.touch()
}

// rebuildHandlers tears every handler down and recreates them for the
// current target. Patching in place is avoided so nothing can go stale.
func (s *Store) rebuildHandlers() {
	s.clearHandlers()
	if s.target != "" {
		if shape, ok := s.GetShapeByID(s.target); ok {
			for i, p := range shape.Points {
				s.objects = append(s.objects, s.newHandler(shape.ID, i, p))
			}
		}
	}
	s.ensureHandlersOnTop()
}

func (s *Store) newHandler(parentID string, index int, p models.Point) *models.DrawableObject {
	return &models.DrawableObject{
		ID:         HandlerID(parentID, index),
		Name:       "Handler",
		Role:       models.RoleHandler,
		Kind:       models.KindCircle,
		Points:     []models.Point{p},
		Style:      models.DefaultHandlerStyle(s.radius),
		Visible:    true,
		ParentID:   parentID,
		PointIndex: index,
	}
}

// HandlerID is the deterministic id of the handler for one point of a shape.
func HandlerID(parentID string, index int) string {
	return fmt.Sprintf("%s-h%d", parentID, index)
}

func (s *Store) clearHandlers() {
	kept := s.objects[:0]
	for _, o := range s.objects {
		if !o.IsHandler() {
			kept = append(kept, o)
		}
	}
	for i := len(kept); i < len(s.objects); i++ {
		s.objects[i] = nil
	}
	s.objects = kept
}

// ensureHandlersOnTop is a stable partition: shapes first, then handlers.
func (s *Store) ensureHandlersOnTop() {
	ordered := make([]*models.DrawableObject, 0, len(s.objects))
	for _, o := range s.objects {
		if !o.IsHandler() {
			ordered = append(ordered, o)
		}
	}
	for _, o := range s.objects {
		if o.IsHandler() {
			ordered = append(ordered, o)
		}
	}
	s.objects = ordered
}

// insertShape places a new shape directly above the existing shapes.
func (s *Store) insertShape(obj *models.DrawableObject) {
	n := s.shapeCount()
	s.objects = append(s.objects, nil)
	copy(s.objects[n+1:], s.objects[n:])
	s.objects[n] = obj
}

func (s *Store) resolve(o *models.DrawableObject) models.DrawableObject {
	out := clone(o)
	if !o.IsHandler() {
		return out
	}
	parent, ok := s.GetShapeByID(o.ParentID)
	if !ok || o.PointIndex < 0 || o.PointIndex >= len(parent.Points) {
		return out
	}
	out.Points = []models.Point{parent.Points[o.PointIndex]}
	return out
}

func (s *Store) find(id string) *models.DrawableObject {
	if idx := s.indexOf(id); idx != -1 {
		return s.objects[idx]
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, o := range s.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) shapeCount() int {
	n := 0
	for _, o := range s.objects {
		if o.IsShape() {
			n++
		}
	}
	return n
}

func (s *Store) touch() {
	s.revision++
	if s.onChange != nil {
		s.onChange(s.revision)
	}
}

func (s *Store) diag(op, id, msg string) {
	s.report.Report(diagnostics.Diagnostic{
		Time:     time.Now(),
		Source:   "STORE",
		Op:       op,
		ObjectID: id,
		Message:  msg,
	})
}

func clone(o *models.DrawableObject) models.DrawableObject {
	var out models.DrawableObject
	if err := copier.CopyWithOption(&out, o, copier.Option{DeepCopy: true}); err != nil {
		log.Errorf("[STORE] copy %s: %v", o.ID, err)
		out = *o
		out.Points = append([]models.Point(nil), o.Points...)
	}
	return out
}

// shapePoints validates a point list for a shape kind and returns a copy. A
// line takes exactly 2 points; a rect takes 4, or 2 opposite corners.
func shapePoints(kind models.Kind, points []models.Point) ([]models.Point, bool) {
	switch {
	case kind == models.KindLine && len(points) == 2,
		kind == models.KindRect && len(points) == 4:
		return append([]models.Point(nil), points...), true
	case kind == models.KindRect && len(points) == 2:
		p1, p2 := points[0], points[1]
		return []models.Point{
			{X: p1.X, Y: p1.Y},
			{X: p2.X, Y: p1.Y},
			{X: p2.X, Y: p2.Y},
			{X: p1.X, Y: p2.Y},
		}, true
	}
	return nil, false
}

func cloneStyle(st models.Style) models.Style {
	if st.Fill != nil {
		f := *st.Fill
		st.Fill = &f
	}
	return st
}

func sanitizeRadius(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return 0
	}
	return r
}
