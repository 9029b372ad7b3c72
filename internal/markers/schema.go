package markers

import "github.com/adb-markers/backend/internal/models"

// Category indices. Markers refer to categories by position.
const (
	CategoryBattery = 0
	CategoryLogcat  = 1
)

// Categories returns the marker categories in index order.
func Categories() []models.Category {
	return []models.Category{
		{Name: "Android - BatteryStats", Color: "yellow", Subcategories: []string{"Other"}},
		{Name: "Android - logcat", Color: "yellow", Subcategories: []string{"Other"}},
	}
}

var displayLocations = []string{"marker-chart", "marker-table"}

// Schemas returns the presentation schemas for the "abs" and "alc" marker types.
func Schemas() []models.MarkerSchema {
	return []models.MarkerSchema{
		{
			Name:         models.MarkerTypeBattery,
			TooltipLabel: "{marker.name} {marker.data.name}",
			TableLabel:   "{marker.data.name}",
			ChartLabel:   "{marker.data.name}",
			Display:      displayLocations,
			Data: []models.MarkerSchemaField{
				{Key: "name", Label: "Name event", Format: "string", Searchable: true},
				{Key: "uid", Label: "User id", Format: "string", Searchable: true},
				{Key: "raw", Label: "Checkin event", Format: "string"},
			},
		},
		{
			Name:         models.MarkerTypeLogcat,
			TooltipLabel: "{marker.name} {marker.data.msg}",
			TableLabel:   "[{marker.data.section}] {marker.data.level} — {marker.data.msg}",
			Display:      displayLocations,
			Data: []models.MarkerSchemaField{
				{Key: "msg", Label: "Message", Format: "string", Searchable: true},
				{Key: "level", Label: "Log level", Format: "string", Searchable: true},
				{Key: "pid", Label: "Process", Format: "pid", Searchable: true},
				{Key: "tid", Label: "Thread", Format: "tid", Searchable: true},
				{Key: "section", Label: "Section", Format: "string"},
			},
		},
	}
}

var levelNames = map[string]string{
	"V": "Verbose",
	"D": "Debug",
	"I": "Info",
	"W": "Warning",
	"E": "Error",
	"F": "Fatal",
}

// LevelName returns the display name of a logcat priority letter.
func LevelName(level string) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return level
}
