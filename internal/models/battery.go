// Package models contains domain types for the adb marker server.
package models

// StringTableEntry is one "9,hsp," record of a checkin dump.
type StringTableEntry struct {
	Index   int    `json:"index"`
	OwnerID string `json:"ownerId"`
	Text    string `json:"text"` // as dumped, quotes included
}

// StringTable maps string-table indices to entries. Indices may be sparse.
type StringTable map[int]StringTableEntry

// BatteryEvent is one history event code at an absolute device time in milliseconds.
type BatteryEvent struct {
	Time int64  `json:"time"`
	Code string `json:"event"`
}

// CheckinDump is the decoded form of a battery-history checkin dump.
type CheckinDump struct {
	Events       []BatteryEvent `json:"events"`
	StringTable  StringTable    `json:"stringTable"`
	ResetTime    int64          `json:"resetTime"`
	SkippedLines int            `json:"skippedLines"`
}

// NewCheckinDump creates an empty CheckinDump.
func NewCheckinDump() *CheckinDump {
	return &CheckinDump{
		Events:      make([]BatteryEvent, 0),
		StringTable: make(StringTable),
	}
}

// DecodedEvent is a battery event code after name and value resolution.
type DecodedEvent struct {
	Name    string `json:"name"`
	RawCode string `json:"rawCode"`
	UID     *int   `json:"uid,omitempty"`
	Phase   Phase  `json:"phase"`
}

// IntervalStats counts how start and end codes were paired.
type IntervalStats struct {
	Paired            int `json:"paired"`
	UnmatchedStarts   int `json:"unmatchedStarts"`
	UnmatchedEnds     int `json:"unmatchedEnds"`
	OverwrittenStarts int `json:"overwrittenStarts"`
}
