package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sladosa/diary-multiuser/internal/models"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseImport reads the bulk-import CSV: required columns category_id and
// occurred_at, optional comment and duration_minutes. Rows that fail to
// parse are skipped individually and reported as warnings; only a missing
// or unusable header is fatal.
func ParseImport(r io.Reader) ([]models.EventDraft, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, nil, errors.New("empty import file")
	}
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	catCol, okCat := cols["category_id"]
	tsCol, okTS := cols["occurred_at"]
	if !okCat || !okTS {
		return nil, nil, errors.New("import requires category_id and occurred_at columns")
	}
	commentCol, hasComment := cols["comment"]
	durationCol, hasDuration := cols["duration_minutes"]

	var (
		drafts   []models.EventDraft
		warnings []string
	)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		draft, err := parseRecord(record, catCol, tsCol, commentCol, hasComment, durationCol, hasDuration)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts, warnings, nil
}

func parseRecord(record []string, catCol, tsCol, commentCol int, hasComment bool, durationCol int, hasDuration bool) (models.EventDraft, error) {
	var d models.EventDraft

	d.CategoryID = strings.TrimSpace(field(record, catCol))
	if d.CategoryID == "" {
		return d, errors.New("missing category_id")
	}
	ts, err := ParseTimestamp(field(record, tsCol))
	if err != nil {
		return d, err
	}
	d.OccurredAt = ts

	if hasComment {
		if c := strings.TrimSpace(field(record, commentCol)); c != "" {
			d.Comment = &c
		}
	}
	if hasDuration {
		if raw := strings.TrimSpace(field(record, durationCol)); raw != "" {
			minutes, err := strconv.Atoi(raw)
			if err != nil {
				return d, fmt.Errorf("invalid duration_minutes %q", raw)
			}
			d.DurationMinutes = &minutes
		}
	}
	return d, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// ParseTimestamp accepts the timestamp shapes users paste into import
// files, from full RFC3339 down to a bare date.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing occurred_at")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid occurred_at %q", raw)
}
