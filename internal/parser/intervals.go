package parser

import (
	"strings"

	"github.com/adb-markers/backend/internal/models"
)

// pairKey returns the code a start or end marker is paired on: the raw code
// without its +/- prefix, with wake lock values dropped.
func pairKey(raw string) string {
	key := raw[1:]
	if strings.HasPrefix(key, "w=") {
		return "w"
	}
	return key
}

type intervalRecord struct {
	marker   models.Marker
	consumed bool
}

// ReconstructIntervals pairs each "-x" end marker with the most recent
// unmatched "+x" start marker and replaces the pair by one interval marker at
// the end marker's position. A second "+x" before "-x" replaces the pending
// start; the earlier one stays an unmatched start marker and is counted in
// OverwrittenStarts. Unmatched ends stay end markers.
func ReconstructIntervals(markers []models.Marker) ([]models.Marker, models.IntervalStats) {
	var stats models.IntervalStats

	records := make([]*intervalRecord, 0, len(markers))
	pending := make(map[string]*intervalRecord)

	for _, m := range markers {
		rec := &intervalRecord{marker: m}
		records = append(records, rec)

		data := m.Battery()
		if data == nil {
			continue
		}

		switch m.Phase {
		case models.PhaseStart:
			if !strings.HasPrefix(data.Raw, "+") {
				continue
			}
			key := pairKey(data.Raw)
			if _, ok := pending[key]; ok {
				stats.OverwrittenStarts++
			}
			pending[key] = rec

		case models.PhaseEnd:
			if !strings.HasPrefix(data.Raw, "-") {
				continue
			}
			key := pairKey(data.Raw)
			start, ok := pending[key]
			if !ok {
				stats.UnmatchedEnds++
				continue
			}
			delete(pending, key)
			start.consumed = true

			merged := *data
			merged.Raw = start.marker.Data.RawText() + " " + data.Raw
			rec.marker.Phase = models.PhaseInterval
			rec.marker.StartTime = start.marker.StartTime
			rec.marker.Data = &merged
			stats.Paired++
		}
	}
	stats.UnmatchedStarts = len(pending) + stats.OverwrittenStarts

	out := make([]models.Marker, 0, len(records))
	for _, rec := range records {
		if !rec.consumed {
			out = append(out, rec.marker)
		}
	}
	return out, stats
}
