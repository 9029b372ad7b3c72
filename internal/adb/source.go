package adb

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the MMDDhhmmYY.ss argument of the device's date command.
const dateLayout = "0102150406.05"

// DefaultLogcatTail is the record count requested when no start time is known.
const DefaultLogcatTail = 1000

// Source issues the adb commands behind each dump.
type Source struct {
	runner Runner
	tail   int
	now    func() time.Time
	sleep  func(time.Duration)
}

func NewSource(runner Runner) *Source {
	return &Source{
		runner: runner,
		tail:   DefaultLogcatTail,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// WithLogcatTail sets the record count requested when Logcat has no start
// time. Values below one are ignored.
func (s *Source) WithLogcatTail(n int) *Source {
	if n > 0 {
		s.tail = n
	}
	return s
}

// BatteryHistory returns the checkin-format battery history.
func (s *Source) BatteryHistory(ctx context.Context) (string, error) {
	return s.runner.Run(ctx, "shell", "dumpsys", "batterystats", "-c", "--history")
}

// Logcat returns the logcat records since startSeconds (epoch seconds), or
// the most recent records when startSeconds is not positive.
func (s *Source) Logcat(ctx context.Context, startSeconds float64) (string, error) {
	start := strconv.Itoa(s.tail)
	if startSeconds > 0 && !math.IsInf(startSeconds, 0) {
		start = strconv.FormatFloat(startSeconds, 'f', -1, 64)
	}
	return s.runner.Run(ctx, "logcat", "-t", start, "--format=epoch,UTC,usec,printable,long")
}

// Dump returns the full checkin-format battery stats.
func (s *Source) Dump(ctx context.Context) (string, error) {
	return s.runner.Run(ctx, "shell", "dumpsys", "batterystats", "-c")
}

// DumpVerbose returns the human-readable battery stats.
func (s *Source) DumpVerbose(ctx context.Context) (string, error) {
	return s.runner.Run(ctx, "shell", "dumpsys", "batterystats")
}

// Reset unplugs the battery, clears the stats, enables full history and sets
// the device clock to the host's next whole second. The outputs of the four
// commands are joined by newlines. The device clock needs root.
func (s *Source) Reset(ctx context.Context) (string, error) {
	steps := [][]string{
		{"shell", "dumpsys", "battery", "unplug"},
		{"shell", "dumpsys", "batterystats", "--reset"},
		{"shell", "dumpsys", "batterystats", "--enable", "full-history"},
	}

	outputs := make([]string, 0, len(steps)+1)
	for _, args := range steps {
		out, err := s.runner.Run(ctx, args...)
		if err != nil {
			return "", err
		}
		outputs = append(outputs, out)
	}

	out, err := s.runner.Run(ctx, "shell", "su", "-c", "date", s.nextSecond().Format(dateLayout))
	if err != nil {
		return "", err
	}
	outputs = append(outputs, out)

	return strings.Join(outputs, "\n"), nil
}

// nextSecond waits for the next whole second of the host clock and returns it.
func (s *Source) nextSecond() time.Time {
	now := s.now()
	next := now.Truncate(time.Second)
	if next.Before(now) {
		next = next.Add(time.Second)
		s.sleep(next.Sub(now))
	}
	return next
}
