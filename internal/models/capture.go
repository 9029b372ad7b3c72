package models

// CaptureStatus represents the status of a capture.
type CaptureStatus string

const (
	CaptureStatusPending  CaptureStatus = "pending"
	CaptureStatusDecoding CaptureStatus = "decoding"
	CaptureStatusComplete CaptureStatus = "complete"
	CaptureStatusError    CaptureStatus = "error"
)

// Capture sources.
const (
	CaptureSourceDevice = "device"
	CaptureSourceUpload = "upload"
)

// Capture is one acquisition and decode of the two diagnostic streams.
type Capture struct {
	ID               string        `json:"id"`
	Source           string        `json:"source"`
	Status           CaptureStatus `json:"status"`
	Origin           float64       `json:"origin"`
	MarkerCount      int           `json:"markerCount,omitempty"`
	BatteryMarkers   int           `json:"batteryMarkers,omitempty"`
	LogcatMarkers    int           `json:"logcatMarkers,omitempty"`
	SkippedLines     int           `json:"skippedLines,omitempty"`
	Intervals        IntervalStats `json:"intervals"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	CreatedAt        int64         `json:"createdAt"` // Unix ms
	Errors           []ParseError  `json:"errors,omitempty"`
}

// ParseError represents a malformed record skipped while decoding.
type ParseError struct {
	Source  string `json:"source,omitempty"` // "checkin" or "logcat"
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// NewCapture creates a new Capture in pending status.
func NewCapture(id, source string, origin float64) *Capture {
	return &Capture{
		ID:     id,
		Source: source,
		Status: CaptureStatusPending,
		Origin: origin,
		Errors: make([]ParseError, 0),
	}
}
