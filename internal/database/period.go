package database

import (
	"fmt"
	"strings"
	"time"
)

// GetToday returns today's date as YYYY-MM-DD.
func GetToday() string {
	return time.Now().Format("2006-01-02")
}

// MakePeriodID creates a period_id from start and end dates.
// If start == end, returns just the date (e.g., "2026-09-01").
// Otherwise returns a range (e.g., "2026-08-25..2026-09-01").
func MakePeriodID(start, end string) string {
	if start == end {
		return start
	}
	return start + ".." + end
}

// PeriodRange resolves a period_id to its [start, end] time bounds.
// The end bound extends to the last instant of the end date so that
// records created any time that day fall inside the period.
func PeriodRange(periodID string) (start, end time.Time, err error) {
	startStr, endStr := periodID, periodID
	if strings.Contains(periodID, "..") {
		parts := strings.SplitN(periodID, "..", 2)
		startStr, endStr = parts[0], parts[1]
	}

	start, err = time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: %w", periodID, err)
	}
	end, err = time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: %w", periodID, err)
	}
	end = end.Add(24*time.Hour - time.Second)
	return start, end, nil
}

// FormatPeriodDisplay formats a period_id for human-readable display.
// Single day: "Sep 01, 2026"
// Range: "Aug 25 - Sep 01, 2026"
func FormatPeriodDisplay(periodID string) string {
	if strings.Contains(periodID, "..") {
		parts := strings.SplitN(periodID, "..", 2)
		if len(parts) != 2 {
			return periodID
		}
		start, err := time.Parse("2006-01-02", parts[0])
		if err != nil {
			return periodID
		}
		end, err := time.Parse("2006-01-02", parts[1])
		if err != nil {
			return periodID
		}
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	}

	d, err := time.Parse("2006-01-02", periodID)
	if err != nil {
		return periodID
	}
	return d.Format("Jan 02, 2006")
}
