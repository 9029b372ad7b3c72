// Package markers assembles decoded battery history and logcat events into
// the marker table consumed by the profiler.
package markers

import (
	"fmt"
	"strings"

	"github.com/adb-markers/backend/internal/models"
	"github.com/adb-markers/backend/internal/parser"
)

// MarkerTable is the marker list with its tuple layout.
type MarkerTable struct {
	Data   []models.Marker    `json:"data" msgpack:"data"`
	Schema models.TupleSchema `json:"schema" msgpack:"schema"`
}

// Result is the complete marker document returned to the profiler.
type Result struct {
	Categories   []models.Category     `json:"categories" msgpack:"categories"`
	Markers      MarkerTable           `json:"markers" msgpack:"markers"`
	MarkerSchema []models.MarkerSchema `json:"markerSchema" msgpack:"markerSchema"`
}

// Counts returns the number of battery and logcat markers in the result,
// by payload type.
func (r *Result) Counts() (battery, logcat int) {
	for _, m := range r.Markers.Data {
		if m.Data == nil {
			continue
		}
		switch m.Data.MarkerType() {
		case models.MarkerTypeBattery:
			battery++
		case models.MarkerTypeLogcat:
			logcat++
		}
	}
	return battery, logcat
}

// Assemble builds the marker table for origin, an absolute device time in
// milliseconds that becomes time zero. Battery markers come first in
// history order, followed by one instant marker per logcat record. Markers
// whose relevant time precedes origin are dropped.
//
// Battery times are the device clock in milliseconds; logcat times are
// epoch seconds scaled by 1000.
func Assemble(origin float64, dump *models.CheckinDump, logs []models.LogcatEvent) (*Result, models.IntervalStats, error) {
	resolved, err := parser.NewResolver(dump.StringTable).ResolveEvents(dump.Events)
	if err != nil {
		return nil, models.IntervalStats{}, fmt.Errorf("resolving battery events: %w", err)
	}
	battery, stats := parser.ReconstructIntervals(resolved)

	out := make([]models.Marker, 0, len(battery)+len(logs))
	for _, m := range battery {
		if boundary(m) < origin {
			continue
		}
		out = append(out, finishBatteryMarker(shift(m, origin)))
	}

	for _, e := range logs {
		t := e.Time * 1000
		if t < origin {
			continue
		}
		out = append(out, models.Marker{
			Name:      e.Tag,
			StartTime: models.TimeOf(t - origin),
			Phase:     models.PhaseInstant,
			Category:  CategoryLogcat,
			Data: &models.LogcatData{
				Type:    models.MarkerTypeLogcat,
				Msg:     e.Message,
				Level:   LevelName(e.Level),
				PID:     e.PID,
				TID:     e.TID,
				Section: e.Section,
				Raw:     e.Raw,
			},
		})
	}

	return &Result{
		Categories: Categories(),
		Markers: MarkerTable{
			Data:   out,
			Schema: models.MarkerTupleSchema,
		},
		MarkerSchema: Schemas(),
	}, stats, nil
}

// boundary is the time a marker is filtered on: its end for end and
// interval markers, its start otherwise.
func boundary(m models.Marker) float64 {
	if m.Phase == models.PhaseEnd || m.Phase == models.PhaseInterval {
		return *m.EndTime
	}
	return *m.StartTime
}

func shift(m models.Marker, origin float64) models.Marker {
	if m.StartTime != nil {
		m.StartTime = models.TimeOf(*m.StartTime - origin)
	}
	if m.EndTime != nil {
		m.EndTime = models.TimeOf(*m.EndTime - origin)
	}
	return m
}

// finishBatteryMarker tags the payload type and moves the value of a
// "name=value" marker name into data.name.
func finishBatteryMarker(m models.Marker) models.Marker {
	data := *m.Battery()
	data.Type = models.MarkerTypeBattery
	if i := strings.IndexByte(m.Name, '='); i >= 0 {
		if v := m.Name[i+1:]; v != "" {
			data.Name = v
		}
		m.Name = m.Name[:i]
	}
	m.Data = &data
	return m
}
