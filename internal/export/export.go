// Package export renders filtered events into the tabular formats the
// dashboard offers for download, and parses the bulk-import format back
// into event drafts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sladosa/diary-multiuser/internal/analytics"
	"github.com/sladosa/diary-multiuser/internal/models"
)

var header = []string{"Date", "Time", "Area", "Category", "Comment", "Duration"}

// Row is the shared export shape for both CSV and XLSX.
type Row struct {
	Date     string
	Time     string
	Area     string
	Category string
	Comment  string
	Duration string
}

// Rows flattens labeled events for export, with calendar fields rendered
// in loc and taxonomy orphans labeled the same way the analytics do.
func Rows(events []models.LabeledEvent, loc *time.Location) []Row {
	out := make([]Row, 0, len(events))
	for _, e := range events {
		occurred := e.OccurredAt.In(loc)
		row := Row{
			Date:     occurred.Format("2006-01-02"),
			Time:     occurred.Format("15:04"),
			Area:     analytics.OrphanArea,
			Category: analytics.OrphanCategory,
		}
		if e.AreaName != nil {
			row.Area = *e.AreaName
		}
		if e.CategoryName != nil {
			row.Category = *e.CategoryName
		}
		if e.Comment != nil {
			row.Comment = *e.Comment
		}
		if e.DurationMinutes != nil {
			row.Duration = fmt.Sprintf("%d", *e.DurationMinutes)
		}
		out = append(out, row)
	}
	return out
}

// WriteCSV emits UTF-8 CSV with the display-name header row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Date, r.Time, r.Area, r.Category, r.Comment, r.Duration}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX emits a single-sheet workbook with the same rows.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Events"
	f.SetSheetName("Sheet1", sheet)
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for i, r := range rows {
		values := []string{r.Date, r.Time, r.Area, r.Category, r.Comment, r.Duration}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
