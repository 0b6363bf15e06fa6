package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExecAtAcceptsFutureHKT(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// 21:00 HKT is 13:00 UTC, an hour out.
	got, err := ParseExecAt("2026-03-01T21:00:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), got)
}

func TestParseExecAtAcceptsMinuteLayout(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := ParseExecAt("2026-03-01T21:30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC), got)
}

func TestParseExecAtKeepsExplicitOffset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := ParseExecAt("2026-03-01T14:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC), got)
}

func TestParseExecAtRejectsUnderOneMinute(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 20:00:59 HKT is 59s after now.
	_, err := ParseExecAt("2026-03-01T20:00:59", now)
	assert.ErrorIs(t, err, ErrExecAtClose)

	// Exactly 60s out is accepted.
	_, err = ParseExecAt("2026-03-01T20:01:00", now)
	assert.NoError(t, err)
}

func TestParseExecAtRejectsPast(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := ParseExecAt("2026-03-01T10:00:00", now)
	assert.ErrorIs(t, err, ErrExecAtClose)
}

func TestParseExecAtRejectsGarbage(t *testing.T) {
	now := time.Now()
	for _, input := range []string{"", "tomorrow", "2026/03/01 12:00", "2026-13-40T99:99"} {
		_, err := ParseExecAt(input, now)
		assert.ErrorIs(t, err, ErrBadExecAt, "input %q", input)
	}
}
