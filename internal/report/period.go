package report

import (
	"fmt"
	"time"
)

// Period is the reporting week [Start, End) containing an anchor date.
type Period struct {
	Start time.Time `json:"start"` // Monday 00:00 local time
	End   time.Time `json:"end"`   // Start + 7 days
	Week  int       `json:"week"`  // ISO 8601 week number
	Year  int       `json:"year"`  // ISO 8601 week-numbering year
	ID    string    `json:"id"`    // "{year}-W{week}"
}

// WeekStart returns Monday 00:00 of d's week in d's location. Sunday
// belongs to the week that started six days earlier.
func WeekStart(d time.Time) time.Time {
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	offset := (int(midnight.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return midnight.AddDate(0, 0, -offset)
}

// PeriodFor derives the reporting week for anchor.
func PeriodFor(anchor time.Time) Period {
	start := WeekStart(anchor)
	year, week := start.ISOWeek()
	return Period{
		Start: start,
		End:   start.AddDate(0, 0, 7),
		Week:  week,
		Year:  year,
		ID:    fmt.Sprintf("%d-W%d", year, week),
	}
}

// Contains reports whether t falls inside [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// DateRange renders the header range Monday to Saturday as printed on the
// report form, e.g. "11.03.2024 - 16.03.2024".
func (p Period) DateRange() string {
	const layout = "02.01.2006"
	return p.Start.Format(layout) + " - " + p.Start.AddDate(0, 0, 5).Format(layout)
}

// ParseDate reads a YYYY-MM-DD anchor date as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}
