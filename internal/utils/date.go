package utils

import (
	"fmt"
	"time"
)

const (
	FormatISO8601Date = "2006-01-02"
	FormatTime24      = "15:04:05"
	FormatTimeShort   = "15:04"
)

// ParseDate parses a calendar date (YYYY-MM-DD) at UTC midnight.
func ParseDate(input string) (time.Time, error) {
	parsed, err := time.ParseInLocation(FormatISO8601Date, input, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", input)
	}
	return parsed, nil
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(input string) (hour, minute, second int, err error) {
	for _, layout := range []string{FormatTime24, FormatTimeShort} {
		parsed, parseErr := time.Parse(layout, input)
		if parseErr == nil {
			return parsed.Hour(), parsed.Minute(), parsed.Second(), nil
		}
	}
	return 0, 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", input)
}

// ParseDateRange validates an inclusive filter range. Both bounds are needed
// for the range to apply; a lone bound is ignored.
func ParseDateRange(start, end string) (*time.Time, *time.Time, error) {
	if start == "" || end == "" {
		return nil, nil, nil
	}

	startDate, err := ParseDate(start)
	if err != nil {
		return nil, nil, err
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return nil, nil, err
	}
	if endDate.Before(startDate) {
		return nil, nil, fmt.Errorf("endDate must not be before startDate")
	}

	return &startDate, &endDate, nil
}
