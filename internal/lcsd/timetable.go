package lcsd

import "time"

// TimetableEntry is the availability skeleton for one facility and month:
// every day of the month with its weekly maintenance closures applied.
type TimetableEntry struct {
	DID        string         `json:"did"`
	Name       string         `json:"name"`
	LCSDNumber string         `json:"lcsd_number"`
	Days       []TimetableDay `json:"days"`
}

type TimetableDay struct {
	Date    string `json:"date"`
	Weekday int    `json:"weekday"`
	Closed  bool   `json:"closed"`
	Start   string `json:"closed_from,omitempty"`
	End     string `json:"closed_until,omitempty"`
}

// BuildTimetable expands the master facility list into day-level entries
// for the given month.
func BuildTimetable(facilities []Facility, year int, month time.Month) []TimetableEntry {
	entries := make([]TimetableEntry, 0, len(facilities))

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	for _, fac := range facilities {
		entry := TimetableEntry{
			DID:        fac.DID,
			Name:       fac.Name,
			LCSDNumber: fac.LCSDNumber,
			Days:       make([]TimetableDay, 0, daysInMonth),
		}

		closures := map[int]MaintenanceDay{}
		for _, m := range fac.MaintenanceDays {
			closures[m.Weekday] = m
		}

		for d := 1; d <= daysInMonth; d++ {
			date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
			weekday := isoWeekday(date.Weekday())

			day := TimetableDay{
				Date:    date.Format("2006-01-02"),
				Weekday: weekday,
			}
			if closure, ok := closures[weekday]; ok {
				day.Closed = true
				day.Start = closure.Start
				day.End = closure.End
			}
			entry.Days = append(entry.Days, day)
		}

		entries = append(entries, entry)
	}
	return entries
}

// isoWeekday maps Go's Sunday-first weekday onto 1=Monday..7=Sunday.
func isoWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}
