package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"canvas-editor/internal/editor/diagnostics"
	"canvas-editor/internal/editor/models"
	"canvas-editor/internal/editor/parser"
	"canvas-editor/internal/editor/render"
	"canvas-editor/internal/editor/store"
	"canvas-editor/internal/editor/strategy"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrObjectNotFound  = errors.New("object not found")
	ErrUnknownLayerOp  = errors.New("unknown layer op")
	ErrInvalidPoints   = errors.New("invalid point count")
)

// DefaultMaxCanvas bounds each side of a session canvas. A PNG render
// allocates width*height*4 bytes.
const DefaultMaxCanvas = 8192

// Options are the per-session knobs, normally filled from config.
type Options struct {
	Width            float64
	Height           float64
	Origin           models.Point
	HandlerRadius    float64
	AreaTolerance    float64
	HitThickness     float64
	RulerCm          float64
	MaxCanvas        float64
	RollbackOnCancel bool
	Reporter         diagnostics.Reporter
}

// DefaultOptions mirror the config defaults.
func DefaultOptions() Options {
	return Options{
		Width:         800,
		Height:        600,
		HandlerRadius: store.DefaultHandlerRadius,
		AreaTolerance: 0.01,
		HitThickness:  8,
		RulerCm:       5,
		MaxCanvas:     DefaultMaxCanvas,
	}
}

// ============================================================
// Session
// ============================================================

// Session is one editing surface: a store, the strategy machine driving it
// and the measurement bookkeeping on top. All methods are safe for
// concurrent use; events are applied one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	store   *store.Store
	machine *strategy.Machine
	opts    Options

	rulerID  string
	targetID string
	closed   bool
}

func New(opts Options) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		opts:      sanitize(opts),
	}

	report := diagnostics.Discard
	if opts.Reporter != nil {
		report = diagnostics.WithSession(opts.Reporter, s.ID)
	}
	s.store = store.New(
		store.WithReporter(report),
		store.WithHandlerRadius(s.opts.HandlerRadius),
		store.WithAreaTolerance(s.opts.AreaTolerance),
	)
	s.machine = strategy.NewMachine(strategy.NewIdle(s.store, s), strategy.PolicyFunc(s.next))
	return s
}

func sanitize(o Options) Options {
	def := DefaultOptions()
	if o.MaxCanvas <= 0 {
		o.MaxCanvas = def.MaxCanvas
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = def.Width, def.Height
	}
	o.Width = min(o.Width, o.MaxCanvas)
	o.Height = min(o.Height, o.MaxCanvas)
	if o.HitThickness <= 0 {
		o.HitThickness = def.HitThickness
	}
	if o.RulerCm <= 0 {
		o.RulerCm = def.RulerCm
	}
	return o
}

// Origin implements strategy.Surface. Callers hold s.mu.
func (s *Session) Origin() models.Point { return s.opts.Origin }

// State is a snapshot of the session for clients.
type State struct {
	ID            string        `json:"id"`
	Strategy      strategy.Kind `json:"strategy"`
	HandlerTarget string        `json:"handlerTarget"`
	HandlerRadius float64       `json:"handlerRadius"`
	Revision      uint64        `json:"revision"`
	Width         float64       `json:"width"`
	Height        float64       `json:"height"`
	Origin        models.Point  `json:"origin"`
	Shapes        int           `json:"shapes"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		ID:            s.ID,
		Strategy:      s.machine.Active().Kind(),
		HandlerTarget: s.store.HandlerTarget(),
		HandlerRadius: s.store.HandlerRadius(),
		Revision:      s.store.Revision(),
		Width:         s.opts.Width,
		Height:        s.opts.Height,
		Origin:        s.opts.Origin,
		Shapes:        len(s.store.Shapes()),
		CreatedAt:     s.CreatedAt,
	}
}

// ============================================================
// Strategies & pointer events
// ============================================================

// SetStrategy forcibly activates a strategy. shapeID and pointIndex are only
// read for control-handler and editing-shape.
func (s *Session) SetStrategy(kind strategy.Kind, shapeID string, pointIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	if shapeID != "" {
		if _, ok := s.store.GetShapeByID(shapeID); !ok {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, shapeID)
		}
	}

	next, err := s.newStrategy(kind)
	if err != nil {
		return err
	}
	switch st := next.(type) {
	case *strategy.ControlHandler:
		if shapeID == "" {
			return fmt.Errorf("%s needs a shape id", kind)
		}
		st.Target(shapeID, pointIndex)
		s.adjustMeasured(st)
	case *strategy.EditingShape:
		if shapeID != "" {
			s.store.MakeHandler(shapeID)
		}
	}

	log.Infof("[SESSION] %s: activate %s", s.ID, kind)
	s.machine.Activate(next)
	return nil
}

// Pointer routes one pointer event and returns the completion it caused.
func (s *Session) Pointer(kind strategy.EventKind, ev strategy.PointerEvent) (*strategy.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	return s.machine.Dispatch(kind, ev)
}

// Close exits the active strategy. Later strategy and pointer calls report
// ErrSessionNotFound.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.machine.Stop()
}

func (s *Session) newStrategy(kind strategy.Kind) (strategy.Strategy, error) {
	switch kind {
	case strategy.KindIdle:
		return strategy.NewIdle(s.store, s), nil
	case strategy.KindDrawBaseLine:
		d := strategy.NewDrawBaseLine(s.store, s)
		d.RollbackOnCancel = s.opts.RollbackOnCancel
		return d, nil
	case strategy.KindDrawMeasureLine:
		d := strategy.NewDrawMeasureLine(s.store, s)
		d.RollbackOnCancel = s.opts.RollbackOnCancel
		return d, nil
	case strategy.KindControlHandler:
		return strategy.NewControlHandler(s.store, s), nil
	case strategy.KindEditingShape:
		return strategy.NewEditingShape(s.store, s), nil
	}
	return nil, fmt.Errorf("%w: %q", strategy.ErrUnknownStrategy, kind)
}

// ============================================================
// Objects
// ============================================================

func (s *Session) Objects() []models.DrawableObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Renderables()
}

func (s *Session) AddLine(points []models.Point, style *models.Style) models.DrawableObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.store.AddLine(points, style)
}

func (s *Session) AddRect(points []models.Point, style *models.Style) models.DrawableObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.store.AddRect(points, style)
}

func (s *Session) UpdateObject(id string, p models.Patch) (models.DrawableObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.UpdateObject(id, p) {
		if obj, ok := s.store.GetShapeByID(id); ok {
			return models.DrawableObject{}, fmt.Errorf("%w: %s cannot take %d points", ErrInvalidPoints, obj.Kind, len(p.Points))
		}
		return models.DrawableObject{}, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	obj, _ := s.store.GetShapeByID(id)
	return *obj, nil
}

func (s *Session) RemoveObject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.RemoveObject(id) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return nil
}

// Layer applies one of up, down, top or bottom to a shape. Handler ids are
// accepted and never move.
func (s *Session) Layer(id, op string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var moved bool
	switch op {
	case "up":
		moved = s.store.LayerUp(id)
	case "down":
		moved = s.store.LayerDown(id)
	case "top":
		moved = s.store.DrawOnTop(id)
	case "bottom":
		moved = s.store.DrawOnBottom(id)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownLayerOp, op)
	}
	if !moved && !s.store.Contains(id) {
		return false, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return moved, nil
}

// MakeHandler sets or, with an empty id, clears the handler target.
func (s *Session) MakeHandler(targetID string) []models.DrawableObject {
	s.mu.Lock()
	defer s.mu.Unlock()

	handlers := s.store.MakeHandler(targetID)
	if handlers == nil {
		handlers = []models.DrawableObject{}
	}
	return handlers
}

func (s *Session) SetHandlerRadius(r float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.SetHandlerRadius(r)
	return s.store.HandlerRadius()
}

// HitTest returns the topmost shape under a client point.
func (s *Session) HitTest(client models.Point) (models.DrawableObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.ShapeAt(client.Sub(s.opts.Origin), s.opts.HitThickness)
}

// ============================================================
// Output
// ============================================================

func (s *Session) RenderSVG(w io.Writer) error {
	s.mu.Lock()
	objs := s.store.Renderables()
	opts := render.Options{Clear: true, Width: s.opts.Width, Height: s.opts.Height}
	s.mu.Unlock()

	return render.NewSVG(w).Render(objs, opts)
}

func (s *Session) RenderPNG(w io.Writer) error {
	s.mu.Lock()
	objs := s.store.Renderables()
	width, height := s.opts.Width, s.opts.Height
	s.mu.Unlock()

	r := render.NewRaster(int(width), int(height))
	if err := r.Render(objs, render.Options{Clear: true, Width: width, Height: height}); err != nil {
		return err
	}
	return r.EncodePNG(w)
}

// Import adds the lines and quads of an SVG document as shapes.
func (s *Session) Import(r io.Reader) (parser.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := parser.Import(s.store, r)
	if err != nil {
		return parser.Result{}, fmt.Errorf("import svg: %w", err)
	}
	return res, nil
}
