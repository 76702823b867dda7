package strategy

import (
	"fmt"

	"canvas-editor/internal/editor/models"
)

// ============================================================
// Strategy contract
// ============================================================

// Kind tags the fixed set of strategy variants.
type Kind string

const (
	KindIdle            Kind = "idle"
	KindDrawBaseLine    Kind = "draw-base-line"
	KindDrawMeasureLine Kind = "draw-measure-line"
	KindControlHandler  Kind = "control-handler"
	KindEditingShape    Kind = "editing-shape"
)

// ParseKind maps a wire name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindIdle, KindDrawBaseLine, KindDrawMeasureLine, KindControlHandler, KindEditingShape:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// EventKind routes a pointer event to one of the strategy handlers.
type EventKind string

const (
	EventDown   EventKind = "down"
	EventMove   EventKind = "move"
	EventUp     EventKind = "up"
	EventCancel EventKind = "cancel"
)

func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventDown, EventMove, EventUp, EventCancel:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// PointerEvent carries raw client coordinates; strategies subtract the
// surface origin themselves.
type PointerEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// Callbacks are supplied by the host before activation.
type Callbacks struct {
	Success func(models.Payload)
	Cancel  func()
}

// Strategy handles the pointer gesture lifecycle while it is active.
type Strategy interface {
	Kind() Kind
	Bind(cb Callbacks)
	OnEnter()
	OnExit()
	OnPointerDown(ev PointerEvent)
	OnPointerMove(ev PointerEvent)
	OnPointerUp(ev PointerEvent)
	OnPointerCancel(ev PointerEvent)
}

// Editor is the part of the store strategies work through.
type Editor interface {
	AddLine(points []models.Point, style *models.Style) *models.DrawableObject
	RemoveObject(id string) bool
	MakeHandler(targetID string) []models.DrawableObject
	MutatePointInPlace(shapeID string, index int, p models.Point) bool
	Handlers() []models.DrawableObject
}

// Surface reports the top-left corner of the drawing surface in client
// coordinates.
type Surface interface {
	Origin() models.Point
}

// FixedOrigin is a Surface that never moves.
type FixedOrigin models.Point

func (o FixedOrigin) Origin() models.Point { return models.Point(o) }

// ============================================================
// Shared plumbing
// ============================================================

type base struct {
	store   Editor
	surface Surface
	cb      Callbacks
}

func newBase(store Editor, surface Surface) base {
	if surface == nil {
		surface = FixedOrigin{}
	}
	return base{store: store, surface: surface}
}

func (b *base) Bind(cb Callbacks) { b.cb = cb }

func (b *base) OnEnter() {}
func (b *base) OnExit() {}
func (b *base) OnPointerDown(PointerEvent) {}
func (b *base) OnPointerMove(PointerEvent) {}
func (b *base) OnPointerUp(PointerEvent) {}
func (b *base) OnPointerCancel(PointerEvent) { b.cancel() }

// toLocal converts client coordinates to surface coordinates.
func (b *base) toLocal(ev PointerEvent) models.Point {
	o := b.surface.Origin()
	return models.Point{X: ev.ClientX - o.X, Y: ev.ClientY - o.Y}
}

func (b *base) success(p models.Payload) {
	if b.cb.Success != nil {
		b.cb.Success(p)
	}
}

func (b *base) cancel() {
	if b.cb.Cancel != nil {
		b.cb.Cancel()
	}
}

// Idle ignores every pointer event.
type Idle struct {
	base
}

func NewIdle(store Editor, surface Surface) *Idle {
	return &Idle{base: newBase(store, surface)}
}

func (*Idle) Kind() Kind { return KindIdle }
