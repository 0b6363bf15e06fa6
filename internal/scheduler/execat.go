package scheduler

import (
	"errors"
	"time"
)

// Schedules are submitted as naive ISO-8601 datetimes in Hong Kong time and
// must point at least one minute into the future.
const MinLead = 60 * time.Second

var hkt = mustLoadHKT()

func mustLoadHKT() *time.Location {
	loc, err := time.LoadLocation("Asia/Hong_Kong")
	if err != nil {
		return time.FixedZone("HKT", 8*60*60)
	}
	return loc
}

var execAtLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

var (
	ErrBadExecAt   = errors.New("exec_at must be an ISO-8601 datetime (YYYY-MM-DDThh:mm)")
	ErrExecAtClose = errors.New("exec_at must be at least 60 seconds in the future")
)

// ParseExecAt converts an exec_at string into UTC. Naive datetimes are
// interpreted as HKT; offset-qualified ones keep their instant. The result
// must be at least MinLead after now.
func ParseExecAt(execAt string, now time.Time) (time.Time, error) {
	var parsed time.Time
	ok := false
	for _, layout := range execAtLayouts {
		t, err := time.ParseInLocation(layout, execAt, hkt)
		if err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return time.Time{}, ErrBadExecAt
	}

	utc := parsed.UTC()
	if utc.Sub(now.UTC()) < MinLead {
		return time.Time{}, ErrExecAtClose
	}
	return utc, nil
}
