package utils

import (
	"math"
	"time"
)

// MoodFromPolarity converts a positivity score in [0,1] to an integer mood in [0,100].
func MoodFromPolarity(polarity float64) int {
	return int(math.Floor(polarity * 100))
}

// DayWindow returns the half-open interval [start, start+24h) of the calendar
// day containing t in loc.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}
