package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxc1802/REMB/pkg/pipeline"
)

const testProject = `
site:
  - [0, 0]
  - [100, 0]
  - [100, 100]
  - [0, 100]
  - [0, 0]
config:
  layout_method: grid
  spacing_min: 20
  spacing_max: 30
  population_size: 10
  generations: 4
  target_lot_width: 10
  min_lot_width: 8
  max_lot_width: 20
  setback_distance: 2
  road_main_width: 8
  road_internal_width: 4
  min_block_area: 150
  min_lot_area: 100
  seed: 42
`

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.yaml"), []byte(testProject), 0o644))
	return New(dir, 0, log.New(io.Discard))
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestHandleLayout(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.handleLayout(rec, httptest.NewRequest(http.MethodGet, "/api/layout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pipeline.StatusOK))

	// A second request reuses the cached layout.
	srv.mu.Lock()
	cached := srv.cached
	srv.mu.Unlock()
	require.NotNil(t, cached)

	rec2 := httptest.NewRecorder()
	srv.handleLayout(rec2, httptest.NewRequest(http.MethodGet, "/api/layout", nil))
	assert.Equal(t, rec.Body.String(), rec2.Body.String())
}

func TestHandlePlanInvalidatesCache(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.handleLayout(rec, httptest.NewRequest(http.MethodGet, "/api/layout", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec2 := httptest.NewRecorder()
	srv.handlePlan(rec2, httptest.NewRequest(http.MethodPost, "/api/plan", nil))
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestHandleConfig(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grid")
}

func TestHandleRender(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.handleRender(rec, httptest.NewRequest(http.MethodGet, "/api/render", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestMissingProject(t *testing.T) {
	srv := New(t.TempDir(), 0, log.New(io.Discard))
	rec := httptest.NewRecorder()
	srv.handleLayout(rec, httptest.NewRequest(http.MethodGet, "/api/layout", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
