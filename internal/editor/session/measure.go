package session

import (
	"math"

	"canvas-editor/internal/editor/geometry"
	"canvas-editor/internal/editor/models"
	"canvas-editor/internal/editor/strategy"
)

const (
	labelOffset = 30.0
	// handle offset relative to the handler radius
	handleOffsetFactor = 1.2
)

// LineMeasure describes one measured line.
type LineMeasure struct {
	ID       string          `json:"id"`
	Px       float64         `json:"px"`
	Label    models.Point    `json:"label"`
	Handles  [2]models.Point `json:"handles"`
	Endpoint [2]models.Point `json:"endpoints"`
}

// Measurement relates the measured line to the reference line: the ruler is
// RulerCm long, so the target is TargetCm long at Scale pixels per cm.
type Measurement struct {
	Ruler    *LineMeasure `json:"ruler,omitempty"`
	Target   *LineMeasure `json:"target,omitempty"`
	RulerCm  float64      `json:"rulerCm"`
	Scale    float64      `json:"scale"`
	TargetCm float64      `json:"targetCm"`
}

func (s *Session) Measure() Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Measurement{
		Ruler:   s.lineMeasure(s.rulerID),
		Target:  s.lineMeasure(s.targetID),
		RulerCm: s.opts.RulerCm,
	}
	if m.Ruler != nil {
		m.Scale = geometry.Scale(m.Ruler.Px, m.RulerCm)
	}
	if m.Target != nil {
		m.TargetCm = math.Round(geometry.LengthCm(m.Target.Px, m.Scale)*100) / 100
	}
	return m
}

// SetRulerCm sets the real length of the reference line. Non-positive values
// are ignored.
func (s *Session) SetRulerCm(cm float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cm > 0 && !math.IsInf(cm, 0) {
		s.opts.RulerCm = cm
	}
	return s.opts.RulerCm
}

// adjustMeasured makes a drag on the ruler or target line follow the offset
// handles reported by Measure rather than the raw end points. Callers hold
// s.mu.
func (s *Session) adjustMeasured(ch *strategy.ControlHandler) {
	id := ch.ShapeID()
	if id == "" || (id != s.rulerID && id != s.targetID) {
		return
	}
	ch.Adjust = func(index int, p models.Point) (models.Point, bool) {
		obj, ok := s.store.GetShapeByID(id)
		if !ok || obj.Kind != models.KindLine || len(obj.Points) != 2 || index < 0 || index > 1 {
			return p, true
		}
		return geometry.HandleToEndpoint(p, obj.Points[1-index], s.store.HandlerRadius()*handleOffsetFactor)
	}
}

func (s *Session) lineMeasure(id string) *LineMeasure {
	if id == "" {
		return nil
	}
	obj, ok := s.store.GetShapeByID(id)
	if !ok || obj.Kind != models.KindLine || len(obj.Points) < 2 {
		return nil
	}

	p1, p2 := obj.Points[0], obj.Points[1]
	h1, h2 := geometry.HandlerOffsets(p1, p2, s.store.HandlerRadius()*handleOffsetFactor)
	return &LineMeasure{
		ID:       id,
		Px:       geometry.Distance(p1, p2),
		Label:    geometry.LabelPosition(p1, p2, labelOffset, geometry.Bounds{Width: s.opts.Width, Height: s.opts.Height}),
		Handles:  [2]models.Point{h1, h2},
		Endpoint: [2]models.Point{p1, p2},
	}
}
