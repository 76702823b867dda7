package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"canvas-editor/internal/editor/models"

	"github.com/gofiber/fiber/v3"
)

var errBadInput = errors.New("bad input")

// ============================================================
// Objects
// ============================================================

type shapeRequest struct {
	Points []models.Point `json:"points"`
	Style  *models.Style  `json:"option"`
}

func (h *Editor) ListObjects(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"objects": s.Objects()})
}

func (h *Editor) AddLine(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	req, err := decodeShape(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.AddLine(req.Points, req.Style))
}

func (h *Editor) AddRect(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	req, err := decodeShape(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.AddRect(req.Points, req.Style))
}

func decodeShape(c fiber.Ctx) (shapeRequest, error) {
	var req shapeRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return req, fmt.Errorf("%w: invalid JSON payload", errBadInput)
	}
	return req, nil
}

func (h *Editor) UpdateObject(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var patch models.Patch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return badRequest(c, "invalid JSON payload")
	}

	obj, err := s.UpdateObject(c.Params("oid"), patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(obj)
}

func (h *Editor) RemoveObject(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.RemoveObject(c.Params("oid")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Editor) Layer(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var req struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}

	moved, err := s.Layer(c.Params("oid"), req.Op)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"moved": moved, "objects": s.Objects()})
}

// ============================================================
// Handlers & hit testing
// ============================================================

func (h *Editor) MakeHandler(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var req struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON payload")
	}
	return c.JSON(fiber.Map{"target": req.Target, "handlers": s.MakeHandler(req.Target)})
}

func (h *Editor) SetHandlerRadius(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var req struct {
		Radius *float64 `json:"radius"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Radius == nil {
		return badRequest(c, "radius required")
	}
	return c.JSON(fiber.Map{"radius": s.SetHandlerRadius(*req.Radius)})
}

func (h *Editor) HitTest(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.Query("y"), 64)
	if errX != nil || errY != nil {
		return badRequest(c, "x and y query parameters required")
	}

	obj, ok := s.HitTest(models.Point{X: x, Y: y})
	if !ok {
		return c.JSON(fiber.Map{"hit": false})
	}
	return c.JSON(fiber.Map{"hit": true, "object": obj})
}
