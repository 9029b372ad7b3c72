// routes_test.go - End-to-end tests through the router and middleware
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb-markers/backend/internal/adb"
	"github.com/adb-markers/backend/internal/config"
	"github.com/adb-markers/backend/internal/markers"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Advanced.EnableRequestLogging = false

	source := adb.NewSource(scriptedRunner())
	pipeline := markers.NewPipeline(source, quietLogger())

	e := echo.New()
	SetupMiddleware(e, cfg, quietLogger())
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Source:   source,
		Pipeline: pipeline,
		Captures: newCaptureManager(source),
		Version:  "test",
	}))
	return e
}

func TestRoutes_Health(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.EqualValues(t, 0, body["captures"])
}

func TestRoutes_ErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"markers without origin", http.MethodGet, "/markers", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown capture", http.MethodGet, "/api/captures/missing", http.StatusNotFound, "NOT_FOUND"},
		{"unknown capture markers", http.MethodGet, "/api/captures/missing/markers", http.StatusNotFound, "NOT_FOUND"},
		{"unknown route", http.MethodGet, "/profile", http.StatusNotFound, "HTTP_ERROR"},
	}

	e := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var apiErr APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestRoutes_Markers(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/markers?start=1700000000000", nil)
	req.Header.Set(echo.HeaderOrigin, "https://profiler.firefox.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	var body struct {
		Categories []map[string]interface{} `json:"categories"`
		Markers    struct {
			Data   [][]interface{}    `json:"data"`
			Schema map[string]float64 `json:"schema"`
		} `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Categories, 2)
	assert.Len(t, body.Markers.Data, 3)
	assert.Equal(t, float64(5), body.Markers.Schema["data"])
}
