package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"canvas-editor/internal/editor/diagnostics"
	"canvas-editor/internal/editor/models"
	"canvas-editor/internal/editor/session"
	"canvas-editor/internal/editor/strategy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Editor Handlers
// ============================================================

type Editor struct {
	sessions  *session.Manager
	journal   *diagnostics.Journal
	maxUpload int
}

// NewEditor wires the HTTP surface to a session manager. journal may be nil,
// in which case the diagnostics route reports 404.
func NewEditor(sessions *session.Manager, journal *diagnostics.Journal, maxUpload int) *Editor {
	if maxUpload <= 0 {
		maxUpload = 4 << 20
	}
	return &Editor{sessions: sessions, journal: journal, maxUpload: maxUpload}
}

// Register mounts every editor route on r.
func (h *Editor) Register(r fiber.Router) {
	r.Get("/health/live", LivenessProbe)
	r.Get("/health/ready", h.ReadinessProbe)
	r.Get("/docs", SwaggerUI)
	r.Get("/docs/openapi.yaml", SwaggerSpec)

	s := r.Group("/sessions")
	s.Post("/", h.CreateSession)
	s.Get("/", h.ListSessions)
	s.Get("/:id", h.GetSession)
	s.Delete("/:id", h.DeleteSession)

	s.Post("/:id/strategy", h.SetStrategy)
	s.Post("/:id/pointer/:event", h.Pointer)

	s.Get("/:id/objects", h.ListObjects)
	s.Post("/:id/lines", h.AddLine)
	s.Post("/:id/rects", h.AddRect)
	s.Patch("/:id/objects/:oid", h.UpdateObject)
	s.Delete("/:id/objects/:oid", h.RemoveObject)
	s.Post("/:id/objects/:oid/layer", h.Layer)

	s.Post("/:id/handlers", h.MakeHandler)
	s.Put("/:id/handlers/radius", h.SetHandlerRadius)

	s.Get("/:id/hit", h.HitTest)
	s.Get("/:id/measure", h.Measure)
	s.Put("/:id/ruler", h.SetRuler)
	s.Get("/:id/render.svg", h.RenderSVG)
	s.Get("/:id/render.png", h.RenderPNG)
	s.Post("/:id/import", h.Import)
	s.Get("/:id/diagnostics", h.Diagnostics)
}

// ============================================================
// Sessions
// ============================================================

type createSessionRequest struct {
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Origin *models.Point `json:"origin"`
}

func (h *Editor) CreateSession(c fiber.Ctx) error {
	var req createSessionRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, "invalid JSON payload")
		}
	}

	opts := h.sessions.Defaults()
	if limit := opts.MaxCanvas; limit > 0 && (req.Width > limit || req.Height > limit) {
		return badRequest(c, fmt.Sprintf("canvas may not exceed %gx%g", limit, limit))
	}
	if req.Width > 0 && req.Height > 0 {
		opts.Width, opts.Height = req.Width, req.Height
	}
	if req.Origin != nil {
		opts.Origin = *req.Origin
	}

	s := h.sessions.Create(opts)
	return c.Status(fiber.StatusCreated).JSON(s.State())
}

func (h *Editor) ListSessions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"sessions": h.sessions.IDs()})
}

func (h *Editor) GetSession(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(s.State())
}

func (h *Editor) DeleteSession(c fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================
// Strategy & pointer events
// ============================================================

type strategyRequest struct {
	Kind       string `json:"kind"`
	ShapeID    string `json:"shapeId"`
	PointIndex *int   `json:"pointIndex"`
}

func (h *Editor) SetStrategy(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var req strategyRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}
	kind, err := strategy.ParseKind(req.Kind)
	if err != nil {
		return writeError(c, err)
	}
	index := -1
	if req.PointIndex != nil {
		index = *req.PointIndex
	}

	if err := s.SetStrategy(kind, req.ShapeID, index); err != nil {
		return writeError(c, err)
	}
	return c.JSON(s.State())
}

func (h *Editor) Pointer(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	kind, err := strategy.ParseEventKind(c.Params("event"))
	if err != nil {
		return writeError(c, err)
	}

	var ev strategy.PointerEvent
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &ev); err != nil {
			return badRequest(c, "invalid JSON payload")
		}
	}

	done, err := s.Pointer(kind, ev)
	if err != nil {
		return writeError(c, err)
	}

	st := s.State()
	return c.JSON(fiber.Map{
		"strategy":   st.Strategy,
		"revision":   st.Revision,
		"completion": completionJSON(done),
	})
}

// completionJSON flattens a completion and tags its payload with its type.
func completionJSON(done *strategy.Completion) fiber.Map {
	if done == nil {
		return nil
	}
	out := fiber.Map{"from": done.From, "cancelled": done.Cancelled}
	if done.Payload == nil {
		return out
	}

	payload := fiber.Map{"type": done.Payload.PayloadType()}
	switch p := done.Payload.(type) {
	case models.ShapeCompleted:
		payload["shapeId"] = p.ShapeID
	case models.HandlerHit:
		payload["handlerId"] = p.HandlerID
		payload["parentId"] = p.ParentID
		payload["pointIndex"] = p.PointIndex
	}
	out["payload"] = payload
	return out
}

// ============================================================
// Helpers
// ============================================================

func (h *Editor) session(c fiber.Ctx) (*session.Session, error) {
	return h.sessions.Get(c.Params("id"))
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrObjectNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, strategy.ErrUnknownEvent),
		errors.Is(err, session.ErrUnknownLayerOp),
		errors.Is(err, session.ErrInvalidPoints),
		errors.Is(err, errBadInput):
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		log.Errorf("[EDITOR] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
