package markers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adb-markers/backend/internal/models"
	"github.com/adb-markers/backend/internal/parser"
)

// ErrAcquisition wraps failures of the external tool that produces the dumps.
var ErrAcquisition = errors.New("acquisition failed")

// Source provides raw dumps from a device.
type Source interface {
	BatteryHistory(ctx context.Context) (string, error)
	Logcat(ctx context.Context, startSeconds float64) (string, error)
}

// Report describes what a decode skipped or could not pair.
type Report struct {
	ParseErrors    []models.ParseError  `json:"parseErrors"`
	SkippedLines   int                  `json:"skippedLines"`
	Intervals      models.IntervalStats `json:"intervals"`
	BatteryMarkers int                  `json:"batteryMarkers"`
	LogcatMarkers  int                  `json:"logcatMarkers"`
}

// Pipeline decodes both dumps and assembles their markers. Decoding is
// synchronous; only the Source calls block.
type Pipeline struct {
	source  Source
	checkin *parser.CheckinDecoder
	logcat  *parser.LogcatDecoder
	logger  *slog.Logger
}

// NewPipeline creates a pipeline. source may be nil when only text input is decoded.
func NewPipeline(source Source, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:  source,
		checkin: parser.NewCheckinDecoder(),
		logcat:  parser.NewLogcatDecoder(),
		logger:  logger,
	}
}

// WithLogger returns a copy of the pipeline that logs to logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	cp := *p
	cp.logger = logger
	return &cp
}

// FromText decodes already acquired dump text.
func (p *Pipeline) FromText(origin float64, checkinText, logcatText string) (*Result, *Report, error) {
	report := &Report{ParseErrors: make([]models.ParseError, 0)}

	dump, err := p.decodeCheckin(checkinText, report)
	if err != nil {
		return nil, nil, err
	}
	logs := p.decodeLogcat(logcatText, report)

	result, stats, err := Assemble(origin, dump, logs)
	if err != nil {
		return nil, nil, err
	}
	report.Intervals = stats
	report.BatteryMarkers, report.LogcatMarkers = result.Counts()

	if stats.OverwrittenStarts > 0 {
		p.logger.Warn("interval starts overwritten before their end", "count", stats.OverwrittenStarts)
	}
	p.logger.Info("markers assembled",
		"origin", origin,
		"battery", report.BatteryMarkers,
		"logcat", report.LogcatMarkers,
		"paired", stats.Paired,
		"unmatchedStarts", stats.UnmatchedStarts,
		"unmatchedEnds", stats.UnmatchedEnds)

	return result, report, nil
}

// FromDevice acquires both dumps from the device and decodes them. The
// logcat dump is requested from origin onwards.
func (p *Pipeline) FromDevice(ctx context.Context, origin float64) (*Result, *Report, error) {
	checkinText, err := p.acquireBatteryHistory(ctx)
	if err != nil {
		return nil, nil, err
	}
	logcatText, err := p.acquireLogcat(ctx, origin/1000)
	if err != nil {
		return nil, nil, err
	}
	return p.FromText(origin, checkinText, logcatText)
}

// BatteryEvents acquires and decodes the battery history without resolving names.
func (p *Pipeline) BatteryEvents(ctx context.Context) (*models.CheckinDump, error) {
	text, err := p.acquireBatteryHistory(ctx)
	if err != nil {
		return nil, err
	}
	return p.decodeCheckin(text, &Report{})
}

// ResolvedEvents acquires the battery history and resolves every event into
// a marker, without pairing intervals or shifting times.
func (p *Pipeline) ResolvedEvents(ctx context.Context) ([]models.Marker, error) {
	dump, err := p.BatteryEvents(ctx)
	if err != nil {
		return nil, err
	}
	return parser.NewResolver(dump.StringTable).ResolveEvents(dump.Events)
}

// LogcatEvents acquires and decodes the logcat dump from startSeconds onwards,
// or its default tail when startSeconds is zero.
func (p *Pipeline) LogcatEvents(ctx context.Context, startSeconds float64) ([]models.LogcatEvent, error) {
	text, err := p.acquireLogcat(ctx, startSeconds)
	if err != nil {
		return nil, err
	}
	return p.decodeLogcat(text, &Report{}), nil
}

func (p *Pipeline) acquireBatteryHistory(ctx context.Context) (string, error) {
	if p.source == nil {
		return "", fmt.Errorf("%w: no device source configured", ErrAcquisition)
	}
	text, err := p.source.BatteryHistory(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: battery history: %w", ErrAcquisition, err)
	}
	return text, nil
}

func (p *Pipeline) acquireLogcat(ctx context.Context, startSeconds float64) (string, error) {
	if p.source == nil {
		return "", fmt.Errorf("%w: no device source configured", ErrAcquisition)
	}
	text, err := p.source.Logcat(ctx, startSeconds)
	if err != nil {
		return "", fmt.Errorf("%w: logcat: %w", ErrAcquisition, err)
	}
	return text, nil
}

func (p *Pipeline) decodeCheckin(text string, report *Report) (*models.CheckinDump, error) {
	dump, parseErrors, err := p.checkin.Decode(text)
	if err != nil {
		return nil, err
	}
	report.SkippedLines += dump.SkippedLines
	p.collect(p.checkin.Name(), parseErrors, report)
	return dump, nil
}

func (p *Pipeline) decodeLogcat(text string, report *Report) []models.LogcatEvent {
	events, parseErrors := p.logcat.Decode(text)
	p.collect(p.logcat.Name(), parseErrors, report)
	return events
}

func (p *Pipeline) collect(source string, parseErrors []*models.ParseError, report *Report) {
	if len(parseErrors) == 0 {
		return
	}
	p.logger.Warn("malformed records skipped", "source", source, "count", len(parseErrors))
	for _, e := range parseErrors {
		if e == nil {
			continue
		}
		p.logger.Debug("failed to parse", "source", source, "line", e.Line, "reason", e.Reason, "content", e.Content)
		report.ParseErrors = append(report.ParseErrors, *e)
	}
}
