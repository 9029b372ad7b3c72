// handlers_capture_test.go - Tests for capture handlers
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adb-markers/backend/internal/adb"
	"github.com/adb-markers/backend/internal/capture"
	"github.com/adb-markers/backend/internal/markers"
	"github.com/adb-markers/backend/internal/models"
)

func newCaptureManager(source markers.Source, opts ...capture.Option) *capture.Manager {
	logger := quietLogger()
	opts = append([]capture.Option{capture.WithLogger(logger)}, opts...)
	return capture.NewManager(markers.NewPipeline(source, logger), opts...)
}

type uploadPart struct {
	field   string
	content string
}

func multipartRequest(t *testing.T, start string, parts ...uploadPart) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if start != "" {
		require.NoError(t, writer.WriteField("start", start))
	}
	for i, p := range parts {
		part, err := writer.CreateFormFile(p.field, p.field+string(rune('a'+i))+".txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/captures/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func decodeCapture(t *testing.T, rec *httptest.ResponseRecorder) models.Capture {
	t.Helper()
	var c models.Capture
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func TestCaptureHandler_HandleUploadCapture(t *testing.T) {
	tests := []struct {
		name        string
		start       string
		parts       []uploadPart
		wantStatus  int
		wantErr     bool
		errCode     string
		wantMarkers int
	}{
		{
			name:        "labelled dumps",
			start:       "1700000000000",
			parts:       []uploadPart{{"checkin", deviceCheckin}, {"logcat", deviceLogcat}},
			wantStatus:  http.StatusCreated,
			wantMarkers: 3,
		},
		{
			name:        "unlabelled dumps are classified",
			start:       "1700000000000",
			parts:       []uploadPart{{"file", deviceLogcat}, {"file", deviceCheckin}},
			wantStatus:  http.StatusCreated,
			wantMarkers: 3,
		},
		{
			name:        "checkin only without origin",
			parts:       []uploadPart{{"checkin", deviceCheckin}},
			wantStatus:  http.StatusCreated,
			wantMarkers: 2,
		},
		{
			name:       "no dumps",
			start:      "0",
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "malformed start",
			start:      "soon",
			parts:      []uploadPart{{"checkin", deviceCheckin}},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "unrecognized file",
			parts:      []uploadPart{{"file", "hello\nworld\n"}},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "BAD_REQUEST",
		},
		{
			name:       "missing string table entry",
			parts:      []uploadPart{{"checkin", "9,h,0:RESET:TIME:0\n9,h,5,+Ewl=4\n"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    true,
			errCode:    "UNPROCESSABLE_DUMP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h := NewCaptureHandler(newCaptureManager(nil))

			rec := httptest.NewRecorder()
			c := e.NewContext(multipartRequest(t, tt.start, tt.parts...), rec)

			err := h.HandleUploadCapture(c)
			if tt.wantErr {
				assertAPIError(t, err, tt.wantStatus, tt.errCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			got := decodeCapture(t, rec)
			assert.Equal(t, models.CaptureStatusComplete, got.Status)
			assert.Equal(t, models.CaptureSourceUpload, got.Source)
			assert.Equal(t, tt.wantMarkers, got.MarkerCount)
		})
	}
}

func TestCaptureHandler_HandleUploadCaptureNotMultipart(t *testing.T) {
	e := echo.New()
	h := NewCaptureHandler(newCaptureManager(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/captures/upload", strings.NewReader(`{"checkin":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	assertAPIError(t, h.HandleUploadCapture(c), http.StatusBadRequest, "BAD_REQUEST")
}

func uploadCapture(t *testing.T, mgr *capture.Manager) string {
	t.Helper()
	c, err := mgr.DecodeUpload(1700000000000, deviceCheckin, deviceLogcat)
	require.NoError(t, err)
	return c.ID
}

func idContext(e *echo.Echo, method, path, id string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, path, nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestCaptureHandler_HandleGetCapture(t *testing.T) {
	e := echo.New()
	mgr := newCaptureManager(nil)
	h := NewCaptureHandler(mgr)
	id := uploadCapture(t, mgr)

	c, rec := idContext(e, http.MethodGet, "/api/captures/"+id, id)
	require.NoError(t, h.HandleGetCapture(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeCapture(t, rec)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 1, got.Intervals.Paired)
	assert.Equal(t, 1, got.SkippedLines)

	c, _ = idContext(e, http.MethodGet, "/api/captures/nope", "nope")
	assertAPIError(t, h.HandleGetCapture(c), http.StatusNotFound, "NOT_FOUND")
}

func TestCaptureHandler_HandleCaptureMarkers(t *testing.T) {
	e := echo.New()
	mgr := newCaptureManager(nil)
	h := NewCaptureHandler(mgr)
	id := uploadCapture(t, mgr)

	c, rec := idContext(e, http.MethodGet, "/api/captures/"+id+"/markers", id)
	require.NoError(t, h.HandleCaptureMarkers(c))
	assert.Contains(t, rec.Body.String(), `"schema":{"name":0,"startTime":1,"endTime":2,"phase":3,"category":4,"data":5}`)
	assert.Contains(t, rec.Body.String(), `["sync",1750,null,0,0,{"type":"abs","raw":"Esy=0","uid":10077,"name":"com.example.sync"}]`)

	c, rec = idContext(e, http.MethodGet, "/api/captures/"+id+"/markers/msgpack", id)
	require.NoError(t, h.HandleCaptureMarkersMsgpack(c))
	assert.Equal(t, MIMEMsgpack, rec.Header().Get(echo.HeaderContentType))

	var decoded map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Len(t, decoded["markerSchema"], 2)

	c, _ = idContext(e, http.MethodGet, "/api/captures/nope/markers", "nope")
	assertAPIError(t, h.HandleCaptureMarkers(c), http.StatusNotFound, "NOT_FOUND")
}

// stalledSource never returns before its context ends.
type stalledSource struct{}

func (stalledSource) BatteryHistory(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stalledSource) Logcat(ctx context.Context, startSeconds float64) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCaptureHandler_MarkersOfRunningCapture(t *testing.T) {
	e := echo.New()
	mgr := newCaptureManager(stalledSource{}, capture.WithMaxCaptures(1))
	h := NewCaptureHandler(mgr)

	started, err := mgr.StartDevice(0)
	require.NoError(t, err)
	defer mgr.Delete(started.ID)

	c, _ := idContext(e, http.MethodGet, "/api/captures/"+started.ID+"/markers", started.ID)
	assertAPIError(t, h.HandleCaptureMarkers(c), http.StatusConflict, "CONFLICT")

	req := httptest.NewRequest(http.MethodPost, "/api/captures", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	assertAPIError(t, h.HandleStartCapture(c), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
}

func TestCaptureHandler_HandleStartCapture(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		query       string
		wantLogcat  string
		wantErr     bool
		wantErrCode string
	}{
		{
			name:       "origin in body",
			body:       `{"start":1700000000000}`,
			wantLogcat: "logcat -t 1700000000 --format=epoch,UTC,usec,printable,long",
		},
		{
			name:       "origin in query",
			query:      "?start=1700000000000",
			wantLogcat: "logcat -t 1700000000 --format=epoch,UTC,usec,printable,long",
		},
		{
			name:       "no origin",
			wantLogcat: "logcat -t 1000 --format=epoch,UTC,usec,printable,long",
		},
		{
			name:        "malformed query origin",
			query:       "?start=now",
			wantErr:     true,
			wantErrCode: "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := scriptedRunner()
			mgr := newCaptureManager(adb.NewSource(runner))
			h := NewCaptureHandler(mgr)
			e := echo.New()

			req := httptest.NewRequest(http.MethodPost, "/api/captures"+tt.query, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := h.HandleStartCapture(c)
			if tt.wantErr {
				assertAPIError(t, err, http.StatusBadRequest, tt.wantErrCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusAccepted, rec.Code)

			started := decodeCapture(t, rec)
			assert.Equal(t, models.CaptureSourceDevice, started.Source)

			require.Eventually(t, func() bool {
				got, ok := mgr.Get(started.ID)
				return ok && got.Status == models.CaptureStatusComplete
			}, 2*time.Second, 10*time.Millisecond)
			assert.Contains(t, runner.Calls(), tt.wantLogcat)
		})
	}
}

func TestCaptureHandler_HandleDeleteCapture(t *testing.T) {
	e := echo.New()
	mgr := newCaptureManager(nil)
	h := NewCaptureHandler(mgr)
	id := uploadCapture(t, mgr)

	c, rec := idContext(e, http.MethodDelete, "/api/captures/"+id, id)
	require.NoError(t, h.HandleDeleteCapture(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, _ = idContext(e, http.MethodDelete, "/api/captures/"+id, id)
	assertAPIError(t, h.HandleDeleteCapture(c), http.StatusNotFound, "NOT_FOUND")
}
