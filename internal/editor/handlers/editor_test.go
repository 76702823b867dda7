package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"canvas-editor/internal/editor/diagnostics"
	"canvas-editor/internal/editor/session"

	"github.com/gofiber/fiber/v3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, journal *diagnostics.Journal) *fiber.App {
	t.Helper()
	opts := session.DefaultOptions()
	if journal != nil {
		opts.Reporter = journal
	}
	app := fiber.New()
	NewEditor(session.NewManager(opts), journal, 1<<16).Register(app)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := do(t, app, http.MethodPost, "/sessions", map[string]any{"width": 400, "height": 300})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func TestHealth(t *testing.T) {
	app := newApp(t, nil)

	resp, body := do(t, app, http.MethodGet, "/health/live", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = do(t, app, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
}

func TestSessionLifecycle(t *testing.T) {
	app := newApp(t, nil)
	id := createSession(t, app)

	resp, body := do(t, app, http.MethodGet, "/sessions/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", body["strategy"])
	assert.Equal(t, 400.0, body["width"])

	resp, body = do(t, app, http.MethodGet, "/sessions", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{id}, body["sessions"])

	resp, _ = do(t, app, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "session not found")
}

func TestCreateSessionRejectsHugeCanvas(t *testing.T) {
	app := newApp(t, nil)

	resp, body := do(t, app, http.MethodPost, "/sessions", map[string]any{"width": 200000, "height": 200000})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "8192x8192")

	resp, body = do(t, app, http.MethodPost, "/sessions", map[string]any{"width": 300, "height": 9000})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodPost, "/sessions", map[string]any{"width": 8192, "height": 100})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, 8192.0, body["width"])

	resp, body = do(t, app, http.MethodGet, "/sessions", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["sessions"], 1)
}

func TestDrawGestureOverHTTP(t *testing.T) {
	app := newApp(t, nil)
	id := createSession(t, app)
	base := "/sessions/" + id

	resp, body := do(t, app, http.MethodPost, base+"/strategy", map[string]any{"kind": "draw-base-line"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "draw-base-line", body["strategy"])

	resp, body = do(t, app, http.MethodPost, base+"/pointer/down", map[string]any{"clientX": 10, "clientY": 10})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, body["completion"])

	do(t, app, http.MethodPost, base+"/pointer/move", map[string]any{"clientX": 60, "clientY": 10})
	resp, body = do(t, app, http.MethodPost, base+"/pointer/up", map[string]any{"clientX": 60, "clientY": 10})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "editing-shape", body["strategy"])

	completion := body["completion"].(map[string]any)
	assert.Equal(t, "draw-base-line", completion["from"])
	payload := completion["payload"].(map[string]any)
	assert.Equal(t, "shape-completed", payload["type"])
	lineID := payload["shapeId"].(string)

	_, body = do(t, app, http.MethodGet, base+"/objects", nil)
	objects := body["objects"].([]any)
	require.Len(t, objects, 3, "line and its two handlers")
	first := objects[0].(map[string]any)
	assert.Equal(t, lineID, first["id"])
	assert.Equal(t, "shape", first["role"])
	assert.Equal(t, "handler", objects[2].(map[string]any)["role"])

	// grab the end handle
	_, body = do(t, app, http.MethodPost, base+"/pointer/down", map[string]any{"clientX": 61, "clientY": 11})
	payload = body["completion"].(map[string]any)["payload"].(map[string]any)
	assert.Equal(t, "handler-hit", payload["type"])
	assert.Equal(t, 1.0, payload["pointIndex"])
	assert.Equal(t, "control-handler", body["strategy"])

	resp, body = do(t, app, http.MethodPost, base+"/pointer/wheel", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "unknown pointer event")
}

func TestStrategyErrors(t *testing.T) {
	app := newApp(t, nil)
	base := "/sessions/" + createSession(t, app)

	resp, _ := do(t, app, http.MethodPost, base+"/strategy", map[string]any{"kind": "lasso"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, base+"/strategy", map[string]any{"kind": "control-handler", "shapeId": "nope"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/sessions/missing/strategy", map[string]any{"kind": "idle"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestObjectRoutes(t *testing.T) {
	app := newApp(t, nil)
	base := "/sessions/" + createSession(t, app)

	resp, rect := do(t, app, http.MethodPost, base+"/rects", map[string]any{
		"points": []map[string]float64{{"x": 0, "y": 0}, {"x": 20, "y": 10}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	rectID := rect["id"].(string)
	assert.Len(t, rect["points"], 4)

	resp, line := do(t, app, http.MethodPost, base+"/lines", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	lineID := line["id"].(string)

	resp, body := do(t, app, http.MethodPatch, base+"/objects/"+rectID, map[string]any{"name": "room"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "room", body["name"])

	resp, body = do(t, app, http.MethodPost, base+"/objects/"+rectID+"/layer", map[string]any{"op": "top"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["moved"])
	objects := body["objects"].([]any)
	assert.Equal(t, rectID, objects[1].(map[string]any)["id"])

	resp, _ = do(t, app, http.MethodPost, base+"/objects/"+rectID+"/layer", map[string]any{"op": "sideways"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodPost, base+"/objects/missing/layer", map[string]any{"op": "up"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "object not found")

	for _, points := range [][]map[string]float64{{}, {{"x": 1, "y": 1}}} {
		resp, body = do(t, app, http.MethodPatch, base+"/objects/"+lineID, map[string]any{"points": points})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "invalid point count")
	}
	_, body = do(t, app, http.MethodGet, base+"/objects", nil)
	for _, o := range body["objects"].([]any) {
		if obj := o.(map[string]any); obj["id"] == lineID {
			assert.Len(t, obj["points"], 2)
		}
	}

	resp, body = do(t, app, http.MethodPost, base+"/handlers", map[string]any{"target": rectID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["handlers"], 4)

	resp, body = do(t, app, http.MethodPut, base+"/handlers/radius", map[string]any{"radius": 9})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 9.0, body["radius"])

	resp, _ = do(t, app, http.MethodPut, base+"/handlers/radius", map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, base+"/hit?x=10&y=0", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["hit"])
	assert.Equal(t, rectID, body["object"].(map[string]any)["id"])

	resp, _ = do(t, app, http.MethodGet, base+"/hit?x=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, base+"/objects/"+lineID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, base+"/objects/"+lineID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMeasureAndRender(t *testing.T) {
	app := newApp(t, nil)
	base := "/sessions/" + createSession(t, app)

	resp, body := do(t, app, http.MethodGet, base+"/measure", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 5.0, body["rulerCm"])
	assert.Equal(t, 0.0, body["scale"])

	resp, body = do(t, app, http.MethodPut, base+"/ruler", map[string]any{"cm": 12})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 12.0, body["rulerCm"])

	do(t, app, http.MethodPost, base+"/lines", map[string]any{
		"points": []map[string]float64{{"x": 0, "y": 0}, {"x": 50, "y": 50}},
	})

	resp, _ = do(t, app, http.MethodGet, base+"/render.svg", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	resp, _ = do(t, app, http.MethodGet, base+"/render.png", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestImportRawAndMultipart(t *testing.T) {
	app := newApp(t, nil)
	base := "/sessions/" + createSession(t, app)
	doc := `<svg xmlns="http://www.w3.org/2000/svg"><line id="a" x1="0" y1="0" x2="5" y2="5"/></svg>`

	req := httptest.NewRequest(http.MethodPost, base+"/import", strings.NewReader(doc))
	req.Header.Set("Content-Type", "image/svg+xml")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var form bytes.Buffer
	w := multipart.NewWriter(&form)
	part, err := w.CreateFormFile("file", "plan.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req = httptest.NewRequest(http.MethodPost, base+"/import", &form)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, body := do(t, app, http.MethodGet, base+"/objects", nil)
	assert.Len(t, body["objects"], 2)

	req = httptest.NewRequest(http.MethodPost, base+"/import", strings.NewReader("<html/>"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDiagnosticsRoute(t *testing.T) {
	db, err := diagnostics.OpenSQLite(filepath.Join(t.TempDir(), "diag.db"))
	require.NoError(t, err)
	journal := diagnostics.NewJournal(db)
	require.NoError(t, journal.Init(context.Background()))
	t.Cleanup(func() { _ = journal.Close() })

	app := newApp(t, journal)
	base := "/sessions/" + createSession(t, app)

	resp, _ := do(t, app, http.MethodPatch, base+"/objects/ghost", map[string]any{"name": "x"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body := do(t, app, http.MethodGet, base+"/diagnostics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := body["diagnostics"].([]any)
	require.Len(t, list, 1)
	entry := list[0].(map[string]any)
	assert.Equal(t, "updateObject", entry["op"])
	assert.Equal(t, "ghost", entry["objectId"])

	resp, body = do(t, app, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
}

func TestDiagnosticsDisabled(t *testing.T) {
	app := newApp(t, nil)
	base := "/sessions/" + createSession(t, app)

	resp, _ := do(t, app, http.MethodGet, base+"/diagnostics", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
