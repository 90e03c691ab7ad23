package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ISOWeek resolves the ISO-8601 year and week of the calendar date in t.
// The date is moved to the Thursday of its Monday-start week; that Thursday's
// calendar year is the ISO year, so late-December and early-January dates land
// in the neighbouring year when the week does.
func ISOWeek(t time.Time) (year, week int) {
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := date.AddDate(0, 0, 4-weekday)

	year = thursday.Year()
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(yearStart).Hours() / 24)
	week = (days + 1 + 6) / 7
	return year, week
}

// WeekID formats the ISO week of t as YYYY-Wnn.
func WeekID(t time.Time) string {
	year, week := ISOWeek(t)
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// WeekLabel is the display form of WeekID, e.g. "2025 W31".
func WeekLabel(t time.Time) string {
	year, week := ISOWeek(t)
	return fmt.Sprintf("%04d W%02d", year, week)
}

func MonthID(t time.Time) string {
	return t.Format(MonthLayout)
}

// LabelFromID derives a cosmetic label from an imported period id by
// inserting a space before the week marker.
func LabelFromID(id string) string {
	return strings.Replace(id, "W", " W", 1)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
