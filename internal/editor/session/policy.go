package session

import (
	"canvas-editor/internal/editor/models"
	"canvas-editor/internal/editor/strategy"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Editor policy
// ============================================================

// next picks the strategy that follows a completed gesture. It runs inside
// Machine.Dispatch, so s.mu is already held.
//
//	draw-*          success -> editing-shape on the new line
//	editing-shape   hit     -> control-handler on the grabbed point
//	control-handler success -> reconcile, editing-shape
//	any             cancel  -> editing-shape if a target remains, else idle
func (s *Session) next(from strategy.Strategy, c strategy.Completion) strategy.Strategy {
	if c.Cancelled {
		return s.afterCancel(from)
	}

	switch p := c.Payload.(type) {
	case models.ShapeCompleted:
		switch from.Kind() {
		case strategy.KindDrawBaseLine:
			s.rulerID = p.ShapeID
		case strategy.KindDrawMeasureLine:
			s.targetID = p.ShapeID
		case strategy.KindControlHandler:
			s.store.Reconcile()
			return strategy.NewEditingShape(s.store, s)
		}
		s.store.MakeHandler(p.ShapeID)
		log.Debugf("[SESSION] %s: %s finished %s", s.ID, from.Kind(), p.ShapeID)
		return strategy.NewEditingShape(s.store, s)

	case models.HandlerHit:
		ch := strategy.NewControlHandler(s.store, s)
		ch.Target(p.ParentID, p.PointIndex)
		s.adjustMeasured(ch)
		return ch
	}

	log.Warnf("[SESSION] %s: unhandled completion from %s", s.ID, from.Kind())
	return nil
}

func (s *Session) afterCancel(from strategy.Strategy) strategy.Strategy {
	if from.Kind() == strategy.KindControlHandler {
		s.store.Reconcile()
	}

	want := strategy.KindIdle
	if s.store.HandlerTarget() != "" {
		want = strategy.KindEditingShape
	}
	if from.Kind() == want {
		return nil
	}

	next, _ := s.newStrategy(want)
	return next
}
