package models

// Phase discriminates instantaneous, interval, start-only and end-only markers.
// The integer values are part of the profiler's marker format.
type Phase int

const (
	PhaseInstant Phase = iota
	PhaseInterval
	PhaseStart
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseInstant:
		return "instant"
	case PhaseInterval:
		return "interval"
	case PhaseStart:
		return "start"
	case PhaseEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Marker data type discriminators.
const (
	MarkerTypeBattery = "abs"
	MarkerTypeLogcat  = "alc"
)

// MarkerData is the type-specific payload of a marker.
type MarkerData interface {
	MarkerType() string
	RawText() string
}

// BatteryData is the payload of a battery-history marker.
type BatteryData struct {
	Type string `json:"type" msgpack:"type"`
	Raw  string `json:"raw" msgpack:"raw"`
	UID  *int   `json:"uid,omitempty" msgpack:"uid,omitempty"`
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
}

func (d *BatteryData) MarkerType() string { return d.Type }
func (d *BatteryData) RawText() string    { return d.Raw }

// LogcatData is the payload of a logcat marker.
type LogcatData struct {
	Type    string `json:"type" msgpack:"type"`
	Msg     string `json:"msg" msgpack:"msg"`
	Level   string `json:"level" msgpack:"level"`
	PID     string `json:"pid" msgpack:"pid"`
	TID     int    `json:"tid" msgpack:"tid"`
	Section string `json:"section" msgpack:"section"`
	Raw     string `json:"raw" msgpack:"raw"`
}

func (d *LogcatData) MarkerType() string { return d.Type }
func (d *LogcatData) RawText() string    { return d.Raw }

// Marker is one timeline entry.
//
// For PhaseInstant and PhaseStart only StartTime is set, for PhaseEnd only
// EndTime, and for PhaseInterval both with StartTime <= EndTime.
type Marker struct {
	Name      string
	StartTime *float64
	EndTime   *float64
	Phase     Phase
	Category  int
	Data      MarkerData
}

// Valid reports whether the time fields agree with the phase.
func (m Marker) Valid() bool {
	switch m.Phase {
	case PhaseInstant, PhaseStart:
		return m.StartTime != nil && m.EndTime == nil
	case PhaseEnd:
		return m.StartTime == nil && m.EndTime != nil
	case PhaseInterval:
		return m.StartTime != nil && m.EndTime != nil && *m.StartTime <= *m.EndTime
	}
	return false
}

// Battery returns the battery payload, or nil for other marker types.
func (m Marker) Battery() *BatteryData {
	d, _ := m.Data.(*BatteryData)
	return d
}

// TimeOf returns a pointer to a copy of v.
func TimeOf(v float64) *float64 {
	return &v
}

// Category is a profiler marker category. Markers reference categories by
// position, so the order of a category list is significant.
type Category struct {
	Name          string   `json:"name" msgpack:"name"`
	Color         string   `json:"color" msgpack:"color"`
	Subcategories []string `json:"subcategories" msgpack:"subcategories"`
}

// MarkerSchema describes how the profiler displays markers of one data type.
type MarkerSchema struct {
	Name         string              `json:"name" msgpack:"name"`
	TooltipLabel string              `json:"tooltipLabel,omitempty" msgpack:"tooltipLabel,omitempty"`
	TableLabel   string              `json:"tableLabel,omitempty" msgpack:"tableLabel,omitempty"`
	ChartLabel   string              `json:"chartLabel,omitempty" msgpack:"chartLabel,omitempty"`
	Display      []string            `json:"display" msgpack:"display"`
	Data         []MarkerSchemaField `json:"data" msgpack:"data"`
}

// MarkerSchemaField is one displayed data field of a MarkerSchema.
type MarkerSchemaField struct {
	Key        string `json:"key" msgpack:"key"`
	Label      string `json:"label" msgpack:"label"`
	Format     string `json:"format" msgpack:"format"`
	Searchable bool   `json:"searchable,omitempty" msgpack:"searchable,omitempty"`
}
