// Package csvexport writes events in the CSV layout Google Calendar imports.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"plancal/internal/caltime"
	"plancal/internal/model"
)

const (
	dateLayout = "01/02/2006"
	timeLayout = "03:04 PM"
)

var header = []string{
	"Subject", "Start Date", "Start Time", "End Date", "End Time",
	"All Day Event", "Description", "Location", "Private",
}

// Source is anything that can list its events; *calendar.Calendar is one.
type Source interface {
	AllEvents() []model.Event
}

// Export writes a header row and one row per event of src to w.
func Export(w io.Writer, src Source) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, e := range src.AllEvents() {
		if err := cw.Write(Row(e)); err != nil {
			return fmt.Errorf("csv row %s: %w", model.KeyOf(e), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// String is Export into a string.
func String(src Source) (string, error) {
	var sb strings.Builder
	if err := Export(&sb, src); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Row renders e as one CSV record. Missing times are left blank and a
// missing end date repeats the start date.
func Row(e model.Event) []string {
	endDate, ok := e.EndDate()
	if !ok {
		endDate = e.StartDate()
	}
	return []string{
		e.Subject(),
		formatDate(e.StartDate()),
		formatClock(e.StartTime()),
		formatDate(endDate),
		formatClock(e.EndTime()),
		formatBool(e.IsAllDay()),
		e.Description(),
		e.Location(),
		formatBool(e.Visibility() == model.Private),
	}
}

func formatDate(d caltime.Date) string {
	return d.Time().Format(dateLayout)
}

func formatClock(c caltime.Clock, ok bool) string {
	if !ok {
		return ""
	}
	return c.Format(timeLayout)
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
