package domain

import "time"

// dayLayout is the canonical encoding of a calendar day.
const dayLayout = "2006-01-02"

// Day is a UTC calendar day. The engine keys all streak, daily-reset, and
// review-scheduling decisions on server UTC days, never on client-local time.
//
// The zero value ("") means absent. The fixed-width ISO layout makes string
// ordering identical to chronological ordering.
type Day string

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(dayLayout))
}

// ParseDay parses a day in YYYY-MM-DD form.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", err
	}
	return DayOf(t), nil
}

// IsZero reports whether the day is absent.
func (d Day) IsZero() bool {
	return d == ""
}

// Time returns midnight UTC of the day. Absent days map to the zero time.
func (d Day) Time() time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// AddDays returns the day n calendar days after d.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	return string(d) < string(other)
}

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool {
	return string(d) > string(other)
}

// DaysUntil returns the number of calendar days from d to other.
// Negative when other is earlier than d.
func (d Day) DaysUntil(other Day) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}
