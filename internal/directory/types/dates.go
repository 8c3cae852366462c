package types

import (
	"strings"
	"time"
)

// DateLayout is the wire format for all date fields.
const DateLayout = "2006-01-02"

// DaysRemaining returns the number of whole days between today and the given
// ISO date (negative when the date has passed). ok is false for empty or
// unparseable dates, which callers must treat as "no date" rather than
// already-expired.
func DaysRemaining(date string, today time.Time) (days int, ok bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, false
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, false
	}
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(midnight).Hours() / 24), true
}
