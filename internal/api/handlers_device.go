// handlers_device.go - Markers and raw dumps acquired from the attached device
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adb-markers/backend/internal/markers"
	"github.com/adb-markers/backend/internal/models"
)

// MIMEMsgpack is the content type of msgpack responses
const MIMEMsgpack = "application/msgpack"

// DeviceHandlerImpl implements the DeviceHandler interface
type DeviceHandlerImpl struct {
	source   DeviceSource
	pipeline *markers.Pipeline
}

// NewDeviceHandler creates a new device handler instance
func NewDeviceHandler(source DeviceSource, pipeline *markers.Pipeline) DeviceHandler {
	return &DeviceHandlerImpl{
		source:   source,
		pipeline: pipeline,
	}
}

// HandleMarkers acquires both dumps and returns the marker table relative to
// the "start" query parameter (absolute device milliseconds)
func (h *DeviceHandlerImpl) HandleMarkers(c echo.Context) error {
	result, err := h.markers(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// HandleMarkersMsgpack returns the same marker table in MessagePack format
func (h *DeviceHandlerImpl) HandleMarkersMsgpack(c echo.Context) error {
	result, err := h.markers(c)
	if err != nil {
		return err
	}
	return respondMsgpack(c, result)
}

func (h *DeviceHandlerImpl) markers(c echo.Context) (*markers.Result, error) {
	origin, apiErr := parseOrigin(c)
	if apiErr != nil {
		return nil, apiErr
	}

	result, _, err := h.pipeline.FromDevice(c.Request().Context(), origin)
	if err != nil {
		return nil, domainOrInternal("failed to build markers", err)
	}
	return result, nil
}

// HandleEvents returns the string table followed by the history events with
// times relative to the history reset, as plain text
func (h *DeviceHandlerImpl) HandleEvents(c echo.Context) error {
	dump, err := h.pipeline.BatteryEvents(c.Request().Context())
	if err != nil {
		return domainOrInternal("failed to read battery history", err)
	}
	return c.String(http.StatusOK, formatEvents(dump))
}

func formatEvents(dump *models.CheckinDump) string {
	indexes := make([]int, 0, len(dump.StringTable))
	for i := range dump.StringTable {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var b strings.Builder
	for n, i := range indexes {
		if n > 0 {
			b.WriteByte('\n')
		}
		entry := dump.StringTable[i]
		fmt.Fprintf(&b, "%d=%s,%s", i, entry.OwnerID, entry.Text)
	}
	b.WriteString("\n\n")
	for n, e := range dump.Events {
		if n > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d, %s", e.Time-dump.ResetTime, e.Code)
	}
	return b.String()
}

// HandleEventsJSON returns every resolved history event, one marker tuple per line
func (h *DeviceHandlerImpl) HandleEventsJSON(c echo.Context) error {
	events, err := h.pipeline.ResolvedEvents(c.Request().Context())
	if err != nil {
		return domainOrInternal("failed to resolve battery history", err)
	}
	return respondNDJSON(c, events)
}

// HandleLogcatJSON returns the most recent logcat records, one object per line
func (h *DeviceHandlerImpl) HandleLogcatJSON(c echo.Context) error {
	events, err := h.pipeline.LogcatEvents(c.Request().Context(), 0)
	if err != nil {
		return domainOrInternal("failed to read logcat", err)
	}
	return respondNDJSON(c, events)
}

// HandleDump returns the checkin-format battery stats unchanged
func (h *DeviceHandlerImpl) HandleDump(c echo.Context) error {
	out, err := h.source.Dump(c.Request().Context())
	if err != nil {
		return NewBadGatewayError("failed to dump battery stats", err)
	}
	return c.String(http.StatusOK, out)
}

// HandleDumpVerbose returns the human-readable battery stats unchanged
func (h *DeviceHandlerImpl) HandleDumpVerbose(c echo.Context) error {
	out, err := h.source.DumpVerbose(c.Request().Context())
	if err != nil {
		return NewBadGatewayError("failed to dump battery stats", err)
	}
	return c.String(http.StatusOK, out)
}

// HandleReset clears the device's battery history and syncs its clock
func (h *DeviceHandlerImpl) HandleReset(c echo.Context) error {
	out, err := h.source.Reset(c.Request().Context())
	if err != nil {
		return NewBadGatewayError("failed to reset battery stats", err)
	}
	return c.String(http.StatusOK, out)
}

// parseOrigin reads the time origin from the "start" query parameter. A
// request carrying only "end" is measured from zero.
func parseOrigin(c echo.Context) (float64, *APIError) {
	start := c.QueryParam("start")
	if start == "" && c.QueryParam("end") == "" {
		return 0, NewBadRequestError("markers: unexpected case", nil)
	}
	if start == "" {
		return 0, nil
	}
	return parseStart(start)
}

func parseStart(s string) (float64, *APIError) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewValidationError("start")
	}
	return v, nil
}

// respondMsgpack encodes v with msgpack
func respondMsgpack(c echo.Context, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, MIMEMsgpack, data)
}

// respondNDJSON writes one JSON document per line
func respondNDJSON[T any](c echo.Context, items []T) error {
	var buf bytes.Buffer
	for i, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return NewInternalError("failed to encode event", err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
}
