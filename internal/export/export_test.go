package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sladosa/diary-multiuser/internal/models"
)

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func sampleEvents() []models.LabeledEvent {
	return []models.LabeledEvent{
		{
			Event: models.Event{
				OccurredAt:      time.Date(2024, time.May, 6, 7, 30, 0, 0, time.UTC),
				Comment:         strptr("morning run"),
				DurationMinutes: intptr(40),
			},
			CategoryName: strptr("Run"),
			AreaName:     strptr("Sport"),
		},
		{
			Event: models.Event{
				OccurredAt: time.Date(2024, time.May, 7, 21, 15, 0, 0, time.UTC),
			},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleEvents(), time.UTC)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := Row{Date: "2024-05-06", Time: "07:30", Area: "Sport", Category: "Run", Comment: "morning run", Duration: "40"}
	if rows[0] != want {
		t.Fatalf("row 0 = %+v, want %+v", rows[0], want)
	}
	// second event lost its taxonomy and has no optional fields
	want = Row{Date: "2024-05-07", Time: "21:15", Area: "Unknown", Category: "N/A"}
	if rows[1] != want {
		t.Fatalf("row 1 = %+v, want %+v", rows[1], want)
	}
}

func TestRowsRendersInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	rows := Rows(sampleEvents()[:1], loc)
	if rows[0].Time != "10:30" {
		t.Fatalf("time = %q, want 10:30 in UTC+3", rows[0].Time)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Rows(sampleEvents(), time.UTC)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], []string{"Date", "Time", "Area", "Category", "Comment", "Duration"}) {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][4] != "morning run" || records[2][2] != "Unknown" {
		t.Fatalf("unexpected data rows: %v", records[1:])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Rows(sampleEvents(), time.UTC)); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading workbook back: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Events")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[1][3] != "Run" {
		t.Fatalf("unexpected sheet content: %v", rows)
	}
}

func TestParseImport(t *testing.T) {
	in := strings.Join([]string{
		"category_id,occurred_at,comment,duration_minutes",
		"cat-1,2024-05-06 07:30,morning run,40",
		"cat-2,2024-05-07,,",
		",2024-05-08,missing category,10",
		"cat-3,not-a-date,bad timestamp,",
		"cat-4,2024-05-09 08:00,bad duration,soon",
	}, "\n")

	drafts, warnings, err := ParseImport(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d: %+v", len(drafts), drafts)
	}
	if drafts[0].CategoryID != "cat-1" || drafts[0].Comment == nil || *drafts[0].Comment != "morning run" {
		t.Fatalf("unexpected first draft: %+v", drafts[0])
	}
	if drafts[0].DurationMinutes == nil || *drafts[0].DurationMinutes != 40 {
		t.Fatalf("unexpected duration: %+v", drafts[0])
	}
	if drafts[1].Comment != nil || drafts[1].DurationMinutes != nil {
		t.Fatalf("empty optional fields must stay nil: %+v", drafts[1])
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", warnings)
	}
	for i, prefix := range []string{"row 4:", "row 5:", "row 6:"} {
		if !strings.HasPrefix(warnings[i], prefix) {
			t.Errorf("warning %d = %q, want prefix %q", i, warnings[i], prefix)
		}
	}
}

func TestParseImportHeaderErrors(t *testing.T) {
	if _, _, err := ParseImport(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty file")
	}
	if _, _, err := ParseImport(strings.NewReader("date,note\n2024-05-06,x\n")); err == nil {
		t.Fatal("expected error for missing required columns")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-06T07:30:00Z", time.Date(2024, time.May, 6, 7, 30, 0, 0, time.UTC)},
		{"2024-05-06T07:30:00", time.Date(2024, time.May, 6, 7, 30, 0, 0, time.UTC)},
		{"2024-05-06 07:30:00", time.Date(2024, time.May, 6, 7, 30, 0, 0, time.UTC)},
		{"2024-05-06 07:30", time.Date(2024, time.May, 6, 7, 30, 0, 0, time.UTC)},
		{"2024-05-06", time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "06.05.2024", "yesterday"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q): expected error", bad)
		}
	}
}
