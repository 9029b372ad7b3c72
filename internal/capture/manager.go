// Package capture keeps decoded marker tables in memory so clients can fetch
// them after the acquisition finished.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adb-markers/backend/internal/markers"
	"github.com/adb-markers/backend/internal/models"
	"github.com/adb-markers/backend/internal/parser"
)

// DefaultMaxCaptures limits stored captures to bound memory use.
const DefaultMaxCaptures = 10

// DefaultTimeout bounds one device acquisition and decode.
const DefaultTimeout = 2 * time.Minute

// CaptureMaxAge is how long finished captures are kept before cleanup.
const CaptureMaxAge = 30 * time.Minute

// CaptureKeepAliveWindow protects captures that were read recently from cleanup.
const CaptureKeepAliveWindow = 5 * time.Minute

var (
	// ErrTooManyCaptures is returned when the store is full of captures that
	// are still being decoded.
	ErrTooManyCaptures = errors.New("too many captures in progress")
	// ErrUnknownDump is returned when an uploaded file is neither a checkin
	// dump nor a logcat dump.
	ErrUnknownDump = errors.New("unrecognized dump")
)

// Manager owns the captures and runs device acquisitions in the background.
type Manager struct {
	captures    map[string]*captureState
	mu          sync.RWMutex
	pipeline    *markers.Pipeline
	registry    *parser.Registry
	maxCaptures int
	timeout     time.Duration
	logger      *slog.Logger
}

type captureState struct {
	Capture      *models.Capture
	Result       *markers.Result
	LastAccessed time.Time
	cancel       context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

func WithMaxCaptures(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxCaptures = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a capture manager that decodes through pipeline.
func NewManager(pipeline *markers.Pipeline, opts ...Option) *Manager {
	m := &Manager{
		captures:    make(map[string]*captureState),
		pipeline:    pipeline,
		registry:    parser.GetGlobalRegistry(),
		maxCaptures: DefaultMaxCaptures,
		timeout:     DefaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartDevice registers a capture and acquires both dumps from the device in
// the background. Poll Get until the capture is complete or failed.
func (m *Manager) StartDevice(origin float64) (*models.Capture, error) {
	id, err := m.register(models.CaptureSourceDevice, origin)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	m.mu.Lock()
	state := m.captures[id]
	state.cancel = cancel
	snapshot := *state.Capture
	m.mu.Unlock()

	go m.runDevice(ctx, cancel, id, origin)

	return &snapshot, nil
}

func (m *Manager) runDevice(ctx context.Context, cancel context.CancelFunc, id string, origin float64) {
	defer cancel()
	logger := m.logger.With("capture", shortID(id))

	// A panicking decode must not take the server down.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("capture panicked", "panic", r)
			m.fail(id, fmt.Errorf("capture panicked: %v", r))
		}
	}()

	start := time.Now()
	logger.Info("acquiring from device", "origin", origin)

	result, report, err := m.pipeline.WithLogger(logger).FromDevice(ctx, origin)
	if err != nil {
		logger.Error("device capture failed", "error", err)
		m.fail(id, err)
		return
	}
	m.complete(id, result, report, time.Since(start))
}

// DecodeUpload decodes dump text supplied by the client. The capture is
// stored even when decoding fails, so its error can be inspected later.
func (m *Manager) DecodeUpload(origin float64, checkinText, logcatText string) (*models.Capture, error) {
	id, err := m.register(models.CaptureSourceUpload, origin)
	if err != nil {
		return nil, err
	}
	logger := m.logger.With("capture", shortID(id))

	start := time.Now()
	result, report, err := m.pipeline.WithLogger(logger).FromText(origin, checkinText, logcatText)
	if err != nil {
		logger.Error("upload decode failed", "error", err)
		m.fail(id, err)
		c, _ := m.Get(id)
		return c, err
	}
	m.complete(id, result, report, time.Since(start))

	c, _ := m.Get(id)
	return c, nil
}

// Classify sorts unlabelled uploaded files into checkin and logcat text.
// Several files of the same kind are concatenated in order.
func (m *Manager) Classify(files []string) (checkinText, logcatText string, err error) {
	var checkins, logcats []string
	for i, text := range files {
		d, err := m.registry.Detect(text)
		if err != nil {
			return "", "", fmt.Errorf("%w: file %d: %v", ErrUnknownDump, i, err)
		}
		switch d.Name() {
		case "checkin":
			checkins = append(checkins, text)
		case "logcat":
			logcats = append(logcats, text)
		default:
			return "", "", fmt.Errorf("%w: file %d detected as %s", ErrUnknownDump, i, d.Name())
		}
	}
	return strings.Join(checkins, "\n"), strings.Join(logcats, "\n"), nil
}

func (m *Manager) register(source string, origin float64) (string, error) {
	m.cleanupOldCapturesIfNeeded()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.captures) >= m.maxCaptures {
		return "", ErrTooManyCaptures
	}

	id := uuid.New().String()
	c := models.NewCapture(id, source, origin)
	c.Status = models.CaptureStatusDecoding
	c.CreatedAt = time.Now().UnixMilli()

	m.captures[id] = &captureState{
		Capture:      c,
		LastAccessed: time.Now(),
	}
	return id, nil
}

func (m *Manager) complete(id string, result *markers.Result, report *markers.Report, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.captures[id]
	if !ok {
		return
	}

	state.Result = result
	c := state.Capture
	c.Status = models.CaptureStatusComplete
	c.MarkerCount = len(result.Markers.Data)
	c.BatteryMarkers = report.BatteryMarkers
	c.LogcatMarkers = report.LogcatMarkers
	c.SkippedLines = report.SkippedLines
	c.Intervals = report.Intervals
	c.ProcessingTimeMs = elapsed.Milliseconds()
	c.Errors = append(c.Errors, report.ParseErrors...)
}

func (m *Manager) fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.captures[id]
	if !ok {
		return
	}

	state.Capture.Status = models.CaptureStatusError
	state.Capture.Errors = append(state.Capture.Errors, models.ParseError{
		Reason: err.Error(),
	})
}

// cleanupOldCapturesIfNeeded evicts the least recently used finished
// captures until there is room for one more.
func (m *Manager) cleanupOldCapturesIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.captures) < m.maxCaptures {
		return
	}

	var finished []string
	for id, state := range m.captures {
		if isFinished(state.Capture.Status) {
			finished = append(finished, id)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return m.captures[finished[i]].LastAccessed.Before(m.captures[finished[j]].LastAccessed)
	})

	toFree := len(m.captures) - m.maxCaptures + 1
	for _, id := range finished {
		if toFree <= 0 {
			break
		}
		delete(m.captures, id)
		toFree--
		m.logger.Info("evicted capture to free memory", "capture", shortID(id))
	}
}

// CleanupOldCaptures removes finished captures not accessed within maxAge,
// keeping those read within CaptureKeepAliveWindow.
func (m *Manager) CleanupOldCaptures(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-CaptureKeepAliveWindow)

	removed := 0
	for id, state := range m.captures {
		if !isFinished(state.Capture.Status) {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.captures, id)
			removed++
			m.logger.Info("cleaned up aged capture",
				"capture", shortID(id),
				"idle", now.Sub(state.LastAccessed).Round(time.Second))
		}
	}
	return removed
}

// Get returns a snapshot of the capture.
func (m *Manager) Get(id string) (*models.Capture, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.captures[id]
	if !ok {
		return nil, false
	}
	c := *state.Capture
	c.Errors = append([]models.ParseError(nil), state.Capture.Errors...)
	return &c, true
}

// Result returns the marker table of a capture together with its status.
// The table is nil until the capture is complete.
func (m *Manager) Result(id string) (*markers.Result, models.CaptureStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.captures[id]
	if !ok {
		return nil, "", false
	}
	return state.Result, state.Capture.Status, true
}

// Touch marks the capture as used so cleanup keeps it.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.captures[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// Delete removes a capture, cancelling its acquisition if still running.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.captures[id]
	if !ok {
		return false
	}
	if state.cancel != nil {
		state.cancel()
	}
	delete(m.captures, id)
	return true
}

// Count returns the number of stored captures.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.captures)
}

func isFinished(status models.CaptureStatus) bool {
	return status == models.CaptureStatusComplete || status == models.CaptureStatusError
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
