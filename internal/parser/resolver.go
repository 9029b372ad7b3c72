package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/adb-markers/backend/internal/models"
)

// noUID is the owner id of string-table entries not tied to an app.
const noUID = "0"

var stringRefRegex = regexp.MustCompile(`^E([a-z]{2})=([0-9]+)$`)

// Resolver turns raw history codes into named events using the string table
// of the dump they came from.
type Resolver struct {
	table models.StringTable
}

func NewResolver(table models.StringTable) *Resolver {
	return &Resolver{table: table}
}

// Resolve classifies the phase of code and resolves its name. Unknown codes
// keep their text as name; only a missing string-table entry is an error.
func (r *Resolver) Resolve(code string) (models.DecodedEvent, error) {
	ev := models.DecodedEvent{RawCode: code, Phase: models.PhaseInstant}

	name := code
	switch {
	case strings.HasPrefix(code, "+"):
		ev.Phase = models.PhaseStart
		name = code[1:]
	case strings.HasPrefix(code, "-"):
		ev.Phase = models.PhaseEnd
		name = code[1:]
	}

	// +w=<n> is closed by a plain -w.
	if strings.HasPrefix(name, "w=") {
		name = "w"
	}

	if m := stringRefRegex.FindStringSubmatch(name); m != nil {
		index, err := strconv.Atoi(m[2])
		if err != nil {
			return ev, fmt.Errorf("%w: index %s in %q", ErrUnresolvedString, m[2], code)
		}
		entry, ok := r.table[index]
		if !ok {
			return ev, fmt.Errorf("%w: index %d in %q", ErrUnresolvedString, index, code)
		}
		name = EventName(m[1]) + "=" + trimQuotes(entry.Text)
		if entry.OwnerID != noUID {
			if uid, err := strconv.Atoi(entry.OwnerID); err == nil {
				ev.UID = &uid
			}
		}
	} else if long, ok := symbolNames[name]; ok {
		name = long
	}

	if i := strings.IndexByte(name, '='); i >= 0 {
		key := name[:i]
		if long, ok := symbolNames[key]; ok {
			name = long + "=" + ValueName(key, name[i+1:])
		}
	}

	ev.Name = name
	return ev, nil
}

// ResolveEvents resolves every event into a battery marker in category 0.
// Start and instant markers carry the event time as start time, end markers
// as end time.
func (r *Resolver) ResolveEvents(events []models.BatteryEvent) ([]models.Marker, error) {
	markers := make([]models.Marker, 0, len(events))
	for _, e := range events {
		ev, err := r.Resolve(e.Code)
		if err != nil {
			return nil, err
		}

		m := models.Marker{
			Name:  ev.Name,
			Phase: ev.Phase,
			Data: &models.BatteryData{
				Type: models.MarkerTypeBattery,
				Raw:  e.Code,
				UID:  ev.UID,
			},
		}
		if ev.Phase == models.PhaseEnd {
			m.EndTime = models.TimeOf(float64(e.Time))
		} else {
			m.StartTime = models.TimeOf(float64(e.Time))
		}
		markers = append(markers, m)
	}
	return markers, nil
}

func trimQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
