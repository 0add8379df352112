package service

import (
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
)

// localDate formats an instant as the calendar date in loc.
func localDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DateLayout)
}

// parseDate parses a stored calendar date. Date-only values are kept
// in UTC so day arithmetic never crosses a DST boundary.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, s, time.UTC)
}

func addDays(date string, days int) string {
	t, err := parseDate(date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(models.DateLayout)
}

// weekStartOf returns the Monday of the week containing t, as a local
// calendar date. Leaderboard weeks run Monday through Sunday.
func weekStartOf(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	return monday.Format(models.DateLayout)
}

// normalizeWeekStart snaps an arbitrary date string to its Monday.
func normalizeWeekStart(date string) (string, error) {
	t, err := parseDate(date)
	if err != nil {
		return "", err
	}
	return weekStartOf(t, time.UTC), nil
}
