package strategy

import (
	"canvas-editor/internal/editor/models"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Draw Line
// ============================================================

// BaseLineStyle is used for the reference line a measurement is scaled by.
func BaseLineStyle() models.Style {
	st := models.DefaultLineStyle()
	st.Color = "#df1414ff"
	st.Width = 2
	st.Cap = "round"
	return st
}

// MeasureLineStyle is used for the line being measured.
func MeasureLineStyle() models.Style {
	st := models.DefaultLineStyle()
	st.Color = "#182ed3ff"
	st.Width = 2
	st.Cap = "square"
	return st
}

// DrawLine creates a line on pointer down and drags its end until pointer
// up. The baseline and measurement variants differ only in style.
type DrawLine struct {
	base
	kind   Kind
	style  models.Style
	lineID string

	// RollbackOnCancel removes a line whose gesture is cancelled before
	// pointer up.
	RollbackOnCancel bool
}

func NewDrawBaseLine(store Editor, surface Surface) *DrawLine {
	return &DrawLine{base: newBase(store, surface), kind: KindDrawBaseLine, style: BaseLineStyle()}
}

func NewDrawMeasureLine(store Editor, surface Surface) *DrawLine {
	return &DrawLine{base: newBase(store, surface), kind: KindDrawMeasureLine, style: MeasureLineStyle()}
}

func (d *DrawLine) Kind() Kind { return d.kind }

// Drawing returns the id of the line being drawn, if any.
func (d *DrawLine) Drawing() string { return d.lineID }

func (d *DrawLine) OnPointerDown(ev PointerEvent) {
	p1 := d.toLocal(ev)
	p2 := models.Point{X: p1.X + 1, Y: p1.Y}

	line := d.store.AddLine([]models.Point{p1, p2}, &d.style)
	d.lineID = line.ID
	log.Debugf("[STRATEGY] %s down: line %s at (%g, %g)", d.kind, line.ID, p1.X, p1.Y)
}

func (d *DrawLine) OnPointerMove(ev PointerEvent) {
	if d.lineID == "" {
		log.Warnf("[STRATEGY] %s move: no line in progress", d.kind)
		return
	}
	d.store.MutatePointInPlace(d.lineID, 1, d.toLocal(ev))
}

func (d *DrawLine) OnPointerUp(PointerEvent) {
	id := d.lineID
	d.lineID = ""
	if id == "" {
		log.Warnf("[STRATEGY] %s up: no line in progress", d.kind)
		d.cancel()
		return
	}
	log.Debugf("[STRATEGY] %s up: line %s done", d.kind, id)
	d.success(models.ShapeCompleted{ShapeID: id})
}

func (d *DrawLine) OnPointerCancel(PointerEvent) {
	if d.RollbackOnCancel && d.lineID != "" {
		d.store.RemoveObject(d.lineID)
	}
	d.lineID = ""
	d.cancel()
}
