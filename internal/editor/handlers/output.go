package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Measurement
// ============================================================

func (h *Editor) Measure(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(s.Measure())
}

func (h *Editor) SetRuler(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var req struct {
		Cm float64 `json:"cm"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Cm <= 0 {
		return badRequest(c, "positive cm required")
	}
	s.SetRulerCm(req.Cm)
	return c.JSON(s.Measure())
}

// ============================================================
// Render
// ============================================================

func (h *Editor) RenderSVG(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var buf bytes.Buffer
	if err := s.RenderSVG(&buf); err != nil {
		return writeError(c, err)
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.Send(buf.Bytes())
}

func (h *Editor) RenderPNG(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var buf bytes.Buffer
	if err := s.RenderPNG(&buf); err != nil {
		return writeError(c, err)
	}
	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}

// ============================================================
// Import
// ============================================================

// Import accepts an SVG either as the multipart field "file" or as the raw
// request body.
func (h *Editor) Import(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var src io.Reader
	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			return badRequest(c, "file field required")
		}
		if fh.Size > int64(h.maxUpload) {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file too large"})
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, err)
		}
		defer f.Close()
		src = f
	} else {
		if len(c.Body()) == 0 {
			return badRequest(c, "body required")
		}
		if len(c.Body()) > h.maxUpload {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "body too large"})
		}
		src = bytes.NewReader(c.Body())
	}

	res, err := s.Import(src)
	if err != nil {
		log.Warnf("[EDITOR] import into %s: %v", s.ID, err)
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// ============================================================
// Diagnostics
// ============================================================

func (h *Editor) Diagnostics(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	if h.journal == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "diagnostics journal disabled"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	list, err := h.journal.Recent(ctx, s.ID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"diagnostics": list})
}
