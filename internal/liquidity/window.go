package liquidity

import (
	"time"
)

// ReferenceDay returns the calendar day of now, expressed as UTC midnight so it
// compares directly with parsed chart dates.
func ReferenceDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WindowStart returns the first calendar day included in a trailing window ending today
func WindowStart(window Window, now time.Time) time.Time {
	return ReferenceDay(now).AddDate(0, 0, -window.Days())
}

// InWindow reports whether date lies in [today - window, today]
func InWindow(date time.Time, window Window, now time.Time) bool {
	today := ReferenceDay(now)
	day := truncateDay(date)
	return !day.Before(WindowStart(window, now)) && !day.After(today)
}

// FilterWindow selects the observations whose date falls within the trailing
// window ending on the calendar day of now. Relative order is preserved and the
// volumes of the selected observations are summed.
func FilterWindow(series Series, window Window, now time.Time) WindowResult {
	result := WindowResult{
		Observations: make([]Observation, 0, len(series.Observations)),
	}

	for _, o := range series.Observations {
		if !InWindow(o.Date, window, now) {
			continue
		}
		result.Observations = append(result.Observations, o)
		result.TotalVolume += o.Volume
	}

	return result
}
