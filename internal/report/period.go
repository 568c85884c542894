// Package report generates dispatch summary workbooks for dispatchers and
// commanders.
package report

import (
	"fmt"
	"strings"
	"time"
)

// ParsePeriod turns a period phrase into a half-open interval [from, to).
// Accepted: "today", "yesterday", "week", "month", or an explicit
// "DD.MM.YYYY-DD.MM.YYYY" range. Keywords resolve relative to now in its
// location.
func ParsePeriod(text string, now time.Time) (time.Time, time.Time, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "today":
		return day, day.AddDate(0, 0, 1), nil
	case "yesterday":
		return day.AddDate(0, 0, -1), day, nil
	case "week":
		return day.AddDate(0, 0, -7), day.AddDate(0, 0, 1), nil
	case "month":
		return day.AddDate(0, -1, 0), day.AddDate(0, 0, 1), nil
	}

	parts := strings.SplitN(strings.TrimSpace(text), "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("unrecognized period %q", text)
	}

	from, err := time.ParseInLocation("02.01.2006", strings.TrimSpace(parts[0]), now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start date: %w", err)
	}
	to, err := time.ParseInLocation("02.01.2006", strings.TrimSpace(parts[1]), now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end date: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("period end %s before start %s", parts[1], parts[0])
	}

	// The end date is inclusive.
	return from, to.AddDate(0, 0, 1), nil
}
