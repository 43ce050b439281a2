// Package analytics computes derived statistics over an already-filtered
// set of events. Everything here is a pure function of its input: no
// storage access, and an empty input yields zero values rather than an
// error.
package analytics

import (
	"math"
	"time"

	"github.com/sladosa/diary-multiuser/internal/models"
)

// Placeholder labels for events whose taxonomy rows were deleted.
const (
	OrphanCategory = "N/A"
	OrphanArea     = "Unknown"
)

var weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Summary is the full aggregate block rendered by the dashboard.
type Summary struct {
	Total         int            `json:"total"`
	ActiveDays    int            `json:"active_days"`
	AveragePerDay float64        `json:"average_per_day"`
	TotalDuration int            `json:"total_duration_minutes"`
	ByDay         map[string]int `json:"by_day"`
	ByCategory    map[string]int `json:"by_category"`
	ByArea        map[string]int `json:"by_area"`
	ByWeekday     map[string]int `json:"by_weekday"`
}

// Summarize aggregates events with all calendar math done in loc.
func Summarize(events []models.LabeledEvent, loc *time.Location) Summary {
	s := Summary{
		Total:      len(events),
		ByDay:      ByDay(events, loc),
		ByCategory: ByCategory(events),
		ByArea:     ByArea(events),
		ByWeekday:  ByWeekday(events, loc),
	}
	s.ActiveDays = len(s.ByDay)
	s.AveragePerDay = AveragePerDay(s.Total, s.ActiveDays)
	s.TotalDuration = TotalDuration(events)
	return s
}

// ByDay maps the calendar date of occurred_at to a count.
func ByDay(events []models.LabeledEvent, loc *time.Location) map[string]int {
	out := make(map[string]int)
	for _, e := range events {
		out[e.OccurredAt.In(loc).Format("2006-01-02")]++
	}
	return out
}

// ByCategory counts events per category display name. Events whose
// category was deleted land in the "N/A" bucket instead of vanishing.
func ByCategory(events []models.LabeledEvent) map[string]int {
	out := make(map[string]int)
	for _, e := range events {
		name := OrphanCategory
		if e.CategoryName != nil {
			name = *e.CategoryName
		}
		out[name]++
	}
	return out
}

// ByArea counts events per area display name, with "Unknown" for orphans.
func ByArea(events []models.LabeledEvent) map[string]int {
	out := make(map[string]int)
	for _, e := range events {
		name := OrphanArea
		if e.AreaName != nil {
			name = *e.AreaName
		}
		out[name]++
	}
	return out
}

// ByWeekday always returns all seven weekday names, zero-filled, so the
// chart axis is stable regardless of input.
func ByWeekday(events []models.LabeledEvent, loc *time.Location) map[string]int {
	out := make(map[string]int, len(weekdays))
	for _, name := range weekdays {
		out[name] = 0
	}
	for _, e := range events {
		out[e.OccurredAt.In(loc).Weekday().String()]++
	}
	return out
}

// AveragePerDay is total/activeDays rounded to one decimal, guarding the
// zero-day case.
func AveragePerDay(total, activeDays int) float64 {
	if activeDays < 1 {
		activeDays = 1
	}
	return math.Round(float64(total)/float64(activeDays)*10) / 10
}

// TotalDuration sums duration_minutes, treating a missing value as 0.
func TotalDuration(events []models.LabeledEvent) int {
	sum := 0
	for _, e := range events {
		if e.DurationMinutes != nil {
			sum += *e.DurationMinutes
		}
	}
	return sum
}
