package service

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// maxGenerationDays bounds a single generateInstances window.
	maxGenerationDays = 366
)

// parseClock parses an "HH:MM" wall-clock time into minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an HH:MM time", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// validateTimeRange checks both clocks parse and end is after start on the same day.
func validateTimeRange(start, end string) (int, int, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return 0, 0, withDetail(ErrInvalidTimeRange, "%v", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return 0, 0, withDetail(ErrInvalidTimeRange, "%v", err)
	}
	if endMin <= startMin {
		return 0, 0, withDetail(ErrInvalidTimeRange, "%s is not after %s", end, start)
	}
	return startMin, endMin, nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, withDetail(ErrInvalidInput, "%q is not a YYYY-MM-DD date", s)
	}
	return t, nil
}

// at combines a calendar date with minutes after midnight in loc.
func at(date time.Time, minutes int, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc)
}
