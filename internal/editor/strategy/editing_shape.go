package strategy

import (
	"math"

	"canvas-editor/internal/editor/geometry"
	"canvas-editor/internal/editor/models"
)

// ============================================================
// Editing Shape
// ============================================================

// EditingShape hit-tests pointer down against the visible handlers. It never
// mutates the store; a miss ends the gesture without a callback.
type EditingShape struct {
	base
}

func NewEditingShape(store Editor, surface Surface) *EditingShape {
	return &EditingShape{base: newBase(store, surface)}
}

func (*EditingShape) Kind() Kind { return KindEditingShape }

// OnPointerDown scans handlers from the topmost down, so the most recently
// inserted of two overlapping handles wins.
func (e *EditingShape) OnPointerDown(ev PointerEvent) {
	p := e.toLocal(ev)

	handlers := e.store.Handlers()
	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		if len(h.Points) == 0 {
			continue
		}
		radius := h.Style.Radius
		if math.IsNaN(radius) || math.IsInf(radius, 0) {
			continue
		}

		if geometry.InCircle(p, h.Points[0], radius) {
			e.success(models.HandlerHit{
				HandlerID:  h.ID,
				ParentID:   h.ParentID,
				PointIndex: h.PointIndex,
			})
			return
		}
	}
}
