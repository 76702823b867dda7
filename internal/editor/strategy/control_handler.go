package strategy

import (
	"canvas-editor/internal/editor/models"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Control Handler
// ============================================================

// ControlHandler drags one point of a shape. Which point was grabbed is
// decided upstream by EditingShape; Target must be set before activation.
type ControlHandler struct {
	base
	shapeID string
	index   int

	// Adjust, when set, maps the local pointer position to the point that is
	// written. Returning false skips the move.
	Adjust func(index int, p models.Point) (models.Point, bool)
}

func NewControlHandler(store Editor, surface Surface) *ControlHandler {
	return &ControlHandler{base: newBase(store, surface), index: -1}
}

func (*ControlHandler) Kind() Kind { return KindControlHandler }

// Target selects the shape and point index to drag. A negative index leaves
// the handles visible without moving anything.
func (c *ControlHandler) Target(shapeID string, index int) {
	c.shapeID = shapeID
	c.index = index
}

func (c *ControlHandler) ShapeID() string { return c.shapeID }
func (c *ControlHandler) Index() int      { return c.index }

func (c *ControlHandler) OnEnter() {
	if c.shapeID != "" {
		c.store.MakeHandler(c.shapeID)
	}
}

func (c *ControlHandler) OnPointerDown(PointerEvent) {
	log.Debugf("[STRATEGY] %s down: nothing to do", KindControlHandler)
}

// OnPointerMove writes straight into the shape's points; handlers pick the
// new position up on the next read.
func (c *ControlHandler) OnPointerMove(ev PointerEvent) {
	if c.shapeID == "" || c.index < 0 {
		return
	}
	p := c.toLocal(ev)
	if c.Adjust != nil {
		var ok bool
		if p, ok = c.Adjust(c.index, p); !ok {
			return
		}
	}
	c.store.MutatePointInPlace(c.shapeID, c.index, p)
}

func (c *ControlHandler) OnPointerUp(PointerEvent) {
	c.success(models.ShapeCompleted{ShapeID: c.shapeID})
}
