package strategy

import (
	"fmt"
	"testing"

	"canvas-editor/internal/editor/models"
	"canvas-editor/internal/editor/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) models.Point { return models.Point{X: x, Y: y} }

func ev(x, y float64) PointerEvent { return PointerEvent{ClientX: x, ClientY: y} }

func newStore() *store.Store {
	n := 0
	return store.New(store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("shape-%d", n)
	}))
}

type callLog struct {
	successes []models.Payload
	cancels   int
}

func (l *callLog) callbacks() Callbacks {
	return Callbacks{
		Success: func(p models.Payload) { l.successes = append(l.successes, p) },
		Cancel:  func() { l.cancels++ },
	}
}

func TestDrawLineGesture(t *testing.T) {
	s := newStore()
	d := NewDrawBaseLine(s, nil)
	var log callLog
	d.Bind(log.callbacks())

	d.OnPointerDown(ev(10, 10))
	d.OnPointerUp(ev(10, 10))

	require.Len(t, log.successes, 1)
	done, ok := log.successes[0].(models.ShapeCompleted)
	require.True(t, ok)
	line, ok := s.GetShapeByID(done.ShapeID)
	require.True(t, ok)
	assert.Equal(t, pt(10, 10), line.Points[0])
	assert.Equal(t, pt(11, 10), line.Points[1])
	assert.Equal(t, "#df1414ff", line.Style.Color)
	assert.Equal(t, "", d.Drawing(), "transient state is cleared")
}

func TestDrawLineMoveUpdatesPreview(t *testing.T) {
	s := newStore()
	d := NewDrawMeasureLine(s, FixedOrigin{X: 100, Y: 50})
	var log callLog
	d.Bind(log.callbacks())

	d.OnPointerDown(ev(110, 60))
	d.OnPointerMove(ev(150, 80))
	d.OnPointerMove(ev(200, 90))

	assert.Len(t, s.Shapes(), 1, "moves never create shapes")
	line, ok := s.GetShapeByID(d.Drawing())
	require.True(t, ok)
	assert.Equal(t, []models.Point{pt(10, 10), pt(100, 40)}, line.Points)
	assert.Equal(t, "square", line.Style.Cap)

	d.OnPointerUp(ev(200, 90))
	assert.Len(t, log.successes, 1)
	assert.Zero(t, log.cancels)
}

func TestDrawLineMoveWithoutDown(t *testing.T) {
	s := newStore()
	d := NewDrawBaseLine(s, nil)
	d.OnPointerMove(ev(5, 5))
	assert.Empty(t, s.Shapes())
}

func TestDrawLineUpWithoutDownCancels(t *testing.T) {
	d := NewDrawBaseLine(newStore(), nil)
	var log callLog
	d.Bind(log.callbacks())

	d.OnPointerUp(ev(1, 1))
	assert.Empty(t, log.successes)
	assert.Equal(t, 1, log.cancels)
}

func TestDrawLineCancel(t *testing.T) {
	s := newStore()
	d := NewDrawBaseLine(s, nil)
	var log callLog
	d.Bind(log.callbacks())

	d.OnPointerDown(ev(1, 1))
	d.OnPointerCancel(ev(1, 1))
	assert.Equal(t, 1, log.cancels)
	assert.Len(t, s.Shapes(), 1, "no rollback by default")

	d.RollbackOnCancel = true
	d.OnPointerDown(ev(2, 2))
	d.OnPointerCancel(ev(2, 2))
	assert.Equal(t, 2, log.cancels)
	assert.Len(t, s.Shapes(), 1, "half-drawn line removed")
}

func TestControlHandlerDragsPoint(t *testing.T) {
	s := newStore()
	line := s.AddLine([]models.Point{pt(0, 0), pt(10, 0)}, nil)

	c := NewControlHandler(s, nil)
	var log callLog
	c.Bind(log.callbacks())
	c.Target(line.ID, 1)
	c.OnEnter()

	require.Len(t, s.Handlers(), 2, "entering shows the handles")

	c.OnPointerDown(ev(10, 0))
	assert.Equal(t, pt(10, 0), line.Points[1], "pointer down is inert")

	c.OnPointerMove(ev(30, 15))
	assert.Equal(t, pt(30, 15), line.Points[1])
	assert.Equal(t, pt(30, 15), s.Handlers()[1].Points[0], "handler follows without a rebuild")

	c.OnPointerUp(ev(30, 15))
	require.Len(t, log.successes, 1)
	assert.Equal(t, models.ShapeCompleted{ShapeID: line.ID}, log.successes[0])
}

func TestControlHandlerWithoutIndex(t *testing.T) {
	s := newStore()
	line := s.AddLine([]models.Point{pt(0, 0), pt(10, 0)}, nil)

	c := NewControlHandler(s, nil)
	var log callLog
	c.Bind(log.callbacks())
	c.Target(line.ID, -1)
	c.OnEnter()
	c.OnPointerMove(ev(50, 50))
	assert.Equal(t, []models.Point{pt(0, 0), pt(10, 0)}, line.Points)

	c.OnPointerCancel(ev(0, 0))
	assert.Equal(t, 1, log.cancels)
}

func TestControlHandlerAdjust(t *testing.T) {
	s := newStore()
	line := s.AddLine([]models.Point{pt(0, 0), pt(10, 0)}, nil)

	c := NewControlHandler(s, nil)
	c.Bind((&callLog{}).callbacks())
	c.Target(line.ID, 1)
	c.Adjust = func(index int, p models.Point) (models.Point, bool) {
		assert.Equal(t, 1, index)
		return models.Point{X: p.X - 5, Y: p.Y}, p.X > 5
	}
	c.OnEnter()

	c.OnPointerMove(ev(40, 0))
	assert.Equal(t, pt(35, 0), line.Points[1])

	c.OnPointerMove(ev(2, 0))
	assert.Equal(t, pt(35, 0), line.Points[1], "refused positions leave the point alone")
}

func TestEditingShapeHit(t *testing.T) {
	s := newStore()
	line := s.AddLine([]models.Point{pt(0, 0), pt(100, 0)}, nil)
	s.MakeHandler(line.ID)

	e := NewEditingShape(s, nil)
	var log callLog
	e.Bind(log.callbacks())

	e.OnPointerDown(ev(103, 4))
	require.Len(t, log.successes, 1)
	assert.Equal(t, models.HandlerHit{
		HandlerID:  store.HandlerID(line.ID, 1),
		ParentID:   line.ID,
		PointIndex: 1,
	}, log.successes[0])
	assert.Equal(t, "handler-hit", log.successes[0].PayloadType())
}

func TestEditingShapeMissIsSilent(t *testing.T) {
	s := newStore()
	line := s.AddLine([]models.Point{pt(0, 0), pt(100, 0)}, nil)
	s.MakeHandler(line.ID)
	rev := s.Revision()

	e := NewEditingShape(s, nil)
	var log callLog
	e.Bind(log.callbacks())

	e.OnPointerDown(ev(50, 50))
	assert.Empty(t, log.successes)
	assert.Zero(t, log.cancels)
	assert.Equal(t, rev, s.Revision(), "hit testing never mutates")
}

func TestEditingShapeOverlapLastWins(t *testing.T) {
	s := newStore()
	line := s.AddLine([]models.Point{pt(0, 0), pt(4, 0)}, nil)
	s.MakeHandler(line.ID)

	e := NewEditingShape(s, nil)
	var log callLog
	e.Bind(log.callbacks())

	e.OnPointerDown(ev(2, 0))
	require.Len(t, log.successes, 1)
	assert.Equal(t, 1, log.successes[0].(models.HandlerHit).PointIndex)
}

func TestEditingShapeUsesLocalCoordinates(t *testing.T) {
	s := newStore()
	line := s.AddLine([]models.Point{pt(0, 0), pt(100, 0)}, nil)
	s.MakeHandler(line.ID)

	e := NewEditingShape(s, FixedOrigin{X: 20, Y: 30})
	var log callLog
	e.Bind(log.callbacks())

	e.OnPointerDown(ev(0, 0))
	assert.Empty(t, log.successes)
	e.OnPointerDown(ev(20, 30))
	require.Len(t, log.successes, 1)
	assert.Equal(t, 0, log.successes[0].(models.HandlerHit).PointIndex)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("editing-shape")
	require.NoError(t, err)
	assert.Equal(t, KindEditingShape, k)

	_, err = ParseKind("lasso")
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = ParseEventKind("wheel")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}
