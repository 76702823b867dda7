package strategy

import (
	"errors"

	"canvas-editor/internal/editor/models"

	"github.com/gofiber/fiber/v3/log"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrUnknownEvent    = errors.New("unknown pointer event")
	ErrStopped         = errors.New("machine stopped")
)

// ============================================================
// Machine
// ============================================================

// Completion is how a strategy finished its gesture.
type Completion struct {
	From      Kind           `json:"from"`
	Payload   models.Payload `json:"payload,omitempty"`
	Cancelled bool           `json:"cancelled"`
}

// Policy picks the strategy that follows a completed one. Returning nil
// keeps the current strategy active for the next gesture.
type Policy interface {
	Next(from Strategy, c Completion) Strategy
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(from Strategy, c Completion) Strategy

func (f PolicyFunc) Next(from Strategy, c Completion) Strategy { return f(from, c) }

// Machine keeps exactly one strategy active and routes pointer events to it.
// Completions reported during an event are applied once the handler has
// returned, so a strategy is never swapped out from under itself.
type Machine struct {
	active  Strategy
	policy  Policy
	pending *Completion
	last    *Completion
	gen     uint64
	stopped bool
}

// NewMachine activates initial. A nil policy never switches strategies.
func NewMachine(initial Strategy, policy Policy) *Machine {
	m := &Machine{policy: policy}
	m.enter(initial)
	return m
}

func (m *Machine) Active() Strategy { return m.active }

// LastCompletion returns the most recent completion, if any.
func (m *Machine) LastCompletion() (Completion, bool) {
	if m.last == nil {
		return Completion{}, false
	}
	return *m.last, true
}

// Activate forcibly replaces the active strategy. The outgoing one is
// cancelled first, exactly as if the pointer had been cancelled; its
// completion does not reach the policy.
func (m *Machine) Activate(s Strategy) {
	if m.stopped {
		return
	}
	if m.active != nil {
		m.active.OnPointerCancel(PointerEvent{})
		m.pending = nil
		m.active.OnExit()
	}
	m.enter(s)
}

// Dispatch routes one pointer event and applies any completion it caused.
func (m *Machine) Dispatch(kind EventKind, ev PointerEvent) (*Completion, error) {
	if m.stopped {
		return nil, ErrStopped
	}
	switch kind {
	case EventDown:
		m.active.OnPointerDown(ev)
	case EventMove:
		m.active.OnPointerMove(ev)
	case EventUp:
		m.active.OnPointerUp(ev)
	case EventCancel:
		m.active.OnPointerCancel(ev)
	default:
		return nil, ErrUnknownEvent
	}
	return m.settle(), nil
}

// Stop exits the active strategy for good. Callbacks it fires afterwards are
// dropped and Dispatch reports ErrStopped.
func (m *Machine) Stop() {
	if m.stopped {
		return
	}
	m.stopped = true
	m.pending = nil
	m.gen++
	m.active.OnExit()
}

func (m *Machine) settle() *Completion {
	c := m.pending
	if c == nil {
		return nil
	}
	m.pending = nil
	m.last = c

	if m.policy == nil {
		return c
	}
	next := m.policy.Next(m.active, *c)
	if next == nil {
		return c
	}

	log.Debugf("[STRATEGY] %s -> %s", m.active.Kind(), next.Kind())
	m.active.OnExit()
	m.enter(next)
	return c
}

func (m *Machine) enter(s Strategy) {
	if s == nil {
		s = NewIdle(nil, nil)
	}
	m.gen++
	gen := m.gen
	kind := s.Kind()

	// Callbacks from a strategy that is no longer active are dropped.
	s.Bind(Callbacks{
		Success: func(p models.Payload) {
			if m.gen == gen && m.pending == nil {
				m.pending = &Completion{From: kind, Payload: p}
			}
		},
		Cancel: func() {
			if m.gen == gen && m.pending == nil {
				m.pending = &Completion{From: kind, Cancelled: true}
			}
		},
	})
	m.active = s
	s.OnEnter()
}
