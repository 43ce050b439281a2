package analytics

import (
	"testing"
	"time"

	"github.com/sladosa/diary-multiuser/internal/models"
)

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func event(ts time.Time, category, area *string, duration *int) models.LabeledEvent {
	return models.LabeledEvent{
		Event: models.Event{
			OccurredAt:      ts,
			DurationMinutes: duration,
		},
		CategoryName: category,
		AreaName:     area,
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	s := Summarize(nil, time.UTC)
	if s.Total != 0 || s.ActiveDays != 0 || s.AveragePerDay != 0 || s.TotalDuration != 0 {
		t.Fatalf("empty input must yield zeros: %+v", s)
	}
	if len(s.ByWeekday) != 7 {
		t.Fatalf("weekday buckets must always be present, got %d", len(s.ByWeekday))
	}
	if len(s.ByDay) != 0 || len(s.ByCategory) != 0 || len(s.ByArea) != 0 {
		t.Fatalf("expected empty maps: %+v", s)
	}
}

func TestSummarizeAveragePerDay(t *testing.T) {
	// 10 events spread over 4 distinct days: average 2.5
	var events []models.LabeledEvent
	days := []int{1, 1, 1, 2, 2, 2, 3, 3, 4, 4}
	for _, d := range days {
		ts := time.Date(2024, time.May, d, 12, 0, 0, 0, time.UTC)
		events = append(events, event(ts, strptr("Run"), strptr("Sport"), nil))
	}
	s := Summarize(events, time.UTC)
	if s.Total != 10 {
		t.Fatalf("total = %d, want 10", s.Total)
	}
	if s.ActiveDays != 4 {
		t.Fatalf("active days = %d, want 4", s.ActiveDays)
	}
	if s.AveragePerDay != 2.5 {
		t.Fatalf("average = %v, want 2.5", s.AveragePerDay)
	}
}

func TestAveragePerDayRounding(t *testing.T) {
	tests := []struct {
		total, days int
		want        float64
	}{
		{0, 0, 0},
		{1, 0, 1},
		{1, 3, 0.3},
		{2, 3, 0.7},
		{7, 2, 3.5},
	}
	for _, tt := range tests {
		if got := AveragePerDay(tt.total, tt.days); got != tt.want {
			t.Errorf("AveragePerDay(%d, %d) = %v, want %v", tt.total, tt.days, got, tt.want)
		}
	}
}

func TestByWeekdayStableAxis(t *testing.T) {
	// a Monday and two Sundays
	events := []models.LabeledEvent{
		event(time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC), nil, nil, nil),
		event(time.Date(2024, time.May, 5, 9, 0, 0, 0, time.UTC), nil, nil, nil),
		event(time.Date(2024, time.May, 12, 9, 0, 0, 0, time.UTC), nil, nil, nil),
	}
	got := ByWeekday(events, time.UTC)
	if len(got) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(got))
	}
	if got["Monday"] != 1 || got["Sunday"] != 2 {
		t.Fatalf("unexpected counts: %v", got)
	}
	sum := 0
	for _, n := range got {
		sum += n
	}
	if sum != len(events) {
		t.Fatalf("weekday counts sum to %d, want %d", sum, len(events))
	}
}

func TestByWeekdayRespectsLocation(t *testing.T) {
	// 23:30 UTC on a Monday is already Tuesday in UTC+2
	loc := time.FixedZone("UTC+2", 2*60*60)
	events := []models.LabeledEvent{
		event(time.Date(2024, time.May, 6, 23, 30, 0, 0, time.UTC), nil, nil, nil),
	}
	got := ByWeekday(events, loc)
	if got["Tuesday"] != 1 {
		t.Fatalf("expected the event on Tuesday in UTC+2, got %v", got)
	}
}

func TestOrphanBuckets(t *testing.T) {
	events := []models.LabeledEvent{
		event(time.Now(), strptr("Run"), strptr("Sport"), nil),
		event(time.Now(), nil, nil, nil),
		event(time.Now(), nil, nil, nil),
	}
	byCat := ByCategory(events)
	if byCat["Run"] != 1 || byCat[OrphanCategory] != 2 {
		t.Fatalf("unexpected category buckets: %v", byCat)
	}
	byArea := ByArea(events)
	if byArea["Sport"] != 1 || byArea[OrphanArea] != 2 {
		t.Fatalf("unexpected area buckets: %v", byArea)
	}
}

func TestTotalDurationSkipsMissing(t *testing.T) {
	events := []models.LabeledEvent{
		event(time.Now(), nil, nil, intptr(30)),
		event(time.Now(), nil, nil, nil),
		event(time.Now(), nil, nil, intptr(45)),
	}
	if got := TotalDuration(events); got != 75 {
		t.Fatalf("total duration = %d, want 75", got)
	}
}
