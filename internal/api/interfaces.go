// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/adb-markers/backend/internal/markers"
	"github.com/adb-markers/backend/internal/models"
)

// DeviceHandler serves markers and raw dumps straight from the attached device
type DeviceHandler interface {
	HandleMarkers(c echo.Context) error
	HandleMarkersMsgpack(c echo.Context) error
	HandleEvents(c echo.Context) error
	HandleEventsJSON(c echo.Context) error
	HandleLogcatJSON(c echo.Context) error
	HandleDump(c echo.Context) error
	HandleDumpVerbose(c echo.Context) error
	HandleReset(c echo.Context) error
}

// CaptureHandler handles stored capture operations
type CaptureHandler interface {
	HandleStartCapture(c echo.Context) error
	HandleUploadCapture(c echo.Context) error
	HandleGetCapture(c echo.Context) error
	HandleCaptureMarkers(c echo.Context) error
	HandleCaptureMarkersMsgpack(c echo.Context) error
	HandleDeleteCapture(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// DeviceSource is the adb side of the device endpoints.
// This allows mocking in tests
type DeviceSource interface {
	markers.Source
	Dump(ctx context.Context) (string, error)
	DumpVerbose(ctx context.Context) (string, error)
	Reset(ctx context.Context) (string, error)
}

// CaptureManager defines the interface for capture management
// This allows mocking in tests
type CaptureManager interface {
	StartDevice(origin float64) (*models.Capture, error)
	DecodeUpload(origin float64, checkinText, logcatText string) (*models.Capture, error)
	Classify(files []string) (checkinText, logcatText string, err error)
	Get(id string) (*models.Capture, bool)
	Result(id string) (*markers.Result, models.CaptureStatus, bool)
	Touch(id string) bool
	Delete(id string) bool
	Count() int
}
