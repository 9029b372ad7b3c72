package adb

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb-markers/backend/internal/testutil"
)

var _ Runner = (*testutil.FakeRunner)(nil)

func TestSource_Commands(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("shell dumpsys batterystats -c --history", "history").
		On("shell dumpsys batterystats -c", "checkin").
		On("shell dumpsys batterystats", "verbose")
	s := NewSource(runner)
	ctx := context.Background()

	out, err := s.BatteryHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "history", out)

	out, err = s.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, "checkin", out)

	out, err = s.DumpVerbose(ctx)
	require.NoError(t, err)
	assert.Equal(t, "verbose", out)
}

func TestSource_Logcat(t *testing.T) {
	runner := testutil.NewFakeRunner().OnPrefix("logcat -t ", "records")
	s := NewSource(runner)

	tests := []struct {
		start float64
		want  string
	}{
		{1700000000.5, "logcat -t 1700000000.5 --format=epoch,UTC,usec,printable,long"},
		{1700000000, "logcat -t 1700000000 --format=epoch,UTC,usec,printable,long"},
		{0, "logcat -t 1000 --format=epoch,UTC,usec,printable,long"},
		{-1, "logcat -t 1000 --format=epoch,UTC,usec,printable,long"},
	}

	for _, tt := range tests {
		runner.Reset()
		out, err := s.Logcat(context.Background(), tt.start)
		require.NoError(t, err)
		assert.Equal(t, "records", out)
		assert.Equal(t, []string{tt.want}, runner.Calls())
	}
}

func TestSource_WithLogcatTail(t *testing.T) {
	runner := testutil.NewFakeRunner().OnPrefix("logcat -t ", "records")
	s := NewSource(runner).WithLogcatTail(250).WithLogcatTail(0)

	_, err := s.Logcat(context.Background(), math.NaN())
	require.NoError(t, err)
	assert.Equal(t, []string{"logcat -t 250 --format=epoch,UTC,usec,printable,long"}, runner.Calls())
}

func TestSource_Reset(t *testing.T) {
	now := time.Date(2026, time.March, 7, 9, 5, 41, 250_000_000, time.Local)
	var slept time.Duration

	runner := testutil.NewFakeRunner().
		On("shell dumpsys battery unplug", "").
		On("shell dumpsys batterystats --reset", "Battery stats reset.").
		On("shell dumpsys batterystats --enable full-history", "Enabled: full-history").
		On("shell su -c date 0307090526.42", "Sat Mar  7 09:05:42 CET 2026")
	s := NewSource(runner)
	s.now = func() time.Time { return now }
	s.sleep = func(d time.Duration) { slept = d }

	out, err := s.Reset(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, slept)
	assert.Equal(t, "\nBattery stats reset.\nEnabled: full-history\nSat Mar  7 09:05:42 CET 2026", out)
	assert.Equal(t, 4, runner.CallCount())
}

func TestSource_ResetOnWholeSecond(t *testing.T) {
	now := time.Date(2026, time.December, 31, 23, 59, 59, 0, time.Local)
	slept := false

	runner := testutil.NewFakeRunner().OnPrefix("shell ", "")
	s := NewSource(runner)
	s.now = func() time.Time { return now }
	s.sleep = func(time.Duration) { slept = true }

	_, err := s.Reset(context.Background())
	require.NoError(t, err)

	assert.False(t, slept)
	calls := runner.Calls()
	assert.Equal(t, "shell su -c date 1231235926.59", calls[len(calls)-1])
}

func TestSource_ResetStopsOnFailure(t *testing.T) {
	cause := errors.New("no devices/emulators found")
	runner := testutil.NewFakeRunner().
		On("shell dumpsys battery unplug", "").
		OnError("shell dumpsys batterystats --reset", cause)
	s := NewSource(runner)

	_, err := s.Reset(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, runner.CallCount())
}
