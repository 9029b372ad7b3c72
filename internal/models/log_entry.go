package models

// LogcatEvent is a single record of a logcat dump in "long" format.
type LogcatEvent struct {
	Section string  `json:"section"`
	Time    float64 `json:"time"` // epoch seconds, microsecond precision
	PID     string  `json:"pid"`
	TID     int     `json:"tid"`
	Level   string  `json:"level"`
	Tag     string  `json:"tag"`
	Message string  `json:"msg"`
	Raw     string  `json:"-"`
}
