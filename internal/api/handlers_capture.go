// handlers_capture.go - Stored capture handlers
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adb-markers/backend/internal/markers"
	"github.com/adb-markers/backend/internal/models"
)

// Multipart field names of an upload
const (
	uploadFieldCheckin = "checkin"
	uploadFieldLogcat  = "logcat"
	uploadFieldFile    = "file"
	uploadFieldStart   = "start"
)

// CaptureHandlerImpl implements the CaptureHandler interface
type CaptureHandlerImpl struct {
	captures CaptureManager
}

// NewCaptureHandler creates a new capture handler instance
func NewCaptureHandler(captures CaptureManager) CaptureHandler {
	return &CaptureHandlerImpl{
		captures: captures,
	}
}

type startCaptureRequest struct {
	Start *float64 `json:"start"`
}

// HandleStartCapture starts a background acquisition from the device. The
// origin comes from the JSON body or the "start" query parameter.
func (h *CaptureHandlerImpl) HandleStartCapture(c echo.Context) error {
	var req startCaptureRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	var origin float64
	switch {
	case req.Start != nil:
		origin = *req.Start
	case c.QueryParam(uploadFieldStart) != "":
		v, apiErr := parseStart(c.QueryParam(uploadFieldStart))
		if apiErr != nil {
			return apiErr
		}
		origin = v
	}

	capture, err := h.captures.StartDevice(origin)
	if err != nil {
		return domainOrInternal("failed to start capture", err)
	}

	return c.JSON(http.StatusAccepted, capture)
}

// HandleUploadCapture decodes uploaded dumps. Labelled "checkin" and "logcat"
// parts are taken as is; "file" parts are classified by content.
func (h *CaptureHandlerImpl) HandleUploadCapture(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form", err)
	}

	var origin float64
	if start := form.Value[uploadFieldStart]; len(start) > 0 && start[0] != "" {
		v, apiErr := parseStart(start[0])
		if apiErr != nil {
			return apiErr
		}
		origin = v
	}

	checkinText, err := readParts(form.File[uploadFieldCheckin])
	if err != nil {
		return NewBadRequestError("failed to read checkin dump", err)
	}
	logcatText, err := readParts(form.File[uploadFieldLogcat])
	if err != nil {
		return NewBadRequestError("failed to read logcat dump", err)
	}

	if files := form.File[uploadFieldFile]; len(files) > 0 {
		texts := make([]string, 0, len(files))
		for _, fh := range files {
			text, err := readPart(fh)
			if err != nil {
				return NewBadRequestError("failed to read uploaded file", err)
			}
			texts = append(texts, text)
		}
		checkin, logcat, err := h.captures.Classify(texts)
		if err != nil {
			return domainOrInternal("failed to classify uploaded files", err)
		}
		checkinText = joinNonEmpty(checkinText, checkin)
		logcatText = joinNonEmpty(logcatText, logcat)
	}

	if checkinText == "" && logcatText == "" {
		return NewValidationError("checkin, logcat or file")
	}

	capture, err := h.captures.DecodeUpload(origin, checkinText, logcatText)
	if err != nil {
		return domainOrInternal("failed to decode upload", err)
	}

	return c.JSON(http.StatusCreated, capture)
}

// HandleGetCapture returns capture metadata and decode diagnostics
func (h *CaptureHandlerImpl) HandleGetCapture(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	capture, ok := h.captures.Get(id)
	if !ok {
		return NewNotFoundError("capture", id)
	}

	// Touch capture to prevent cleanup while being viewed
	h.captures.Touch(id)

	return c.JSON(http.StatusOK, capture)
}

// HandleCaptureMarkers returns the marker table of a complete capture
func (h *CaptureHandlerImpl) HandleCaptureMarkers(c echo.Context) error {
	result, err := h.result(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// HandleCaptureMarkersMsgpack returns the marker table in MessagePack format
func (h *CaptureHandlerImpl) HandleCaptureMarkersMsgpack(c echo.Context) error {
	result, err := h.result(c)
	if err != nil {
		return err
	}
	return respondMsgpack(c, result)
}

func (h *CaptureHandlerImpl) result(c echo.Context) (*markers.Result, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}

	result, status, ok := h.captures.Result(id)
	if !ok {
		return nil, NewNotFoundError("capture", id)
	}
	if status != models.CaptureStatusComplete || result == nil {
		return nil, NewConflictError(fmt.Sprintf("capture %s is %s", id, status))
	}

	h.captures.Touch(id)
	return result, nil
}

// HandleDeleteCapture removes a capture, cancelling it if still running
func (h *CaptureHandlerImpl) HandleDeleteCapture(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if !h.captures.Delete(id) {
		return NewNotFoundError("capture", id)
	}

	return c.NoContent(http.StatusNoContent)
}

func readParts(files []*multipart.FileHeader) (string, error) {
	var text string
	for _, fh := range files {
		part, err := readPart(fh)
		if err != nil {
			return "", err
		}
		text = joinNonEmpty(text, part)
	}
	return text, nil
}

func readPart(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}
