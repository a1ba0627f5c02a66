package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"plancal/internal/caltime"
	"plancal/internal/model"
)

// writeAgenda prints events grouped by start date, one line each:
//
//	Mon 16 Jun
//	  09:30-11:00  Planning  (Room 1)
//	  all day      Offsite
func writeAgenda(w io.Writer, title string, events []model.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", title)
	if len(events) == 0 {
		fmt.Fprintln(tw, "  no events")
		return tw.Flush()
	}

	var day caltime.Date
	for _, e := range events {
		if d := e.StartDate(); d != day {
			day = d
			fmt.Fprintf(tw, "%s\n", d.Time().Format("Mon 02 Jan 2006"))
		}
		line := fmt.Sprintf("  %s\t%s", span(e), e.Subject())
		if loc := e.Location(); loc != "" {
			line += fmt.Sprintf("\t(%s)", loc)
		}
		if e.Visibility() == model.Private {
			line += "\t[private]"
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func span(e model.Event) string {
	if e.IsAllDay() {
		if end, ok := e.EndDate(); ok && end != e.StartDate() {
			return "all day until " + end.String()
		}
		return "all day"
	}
	start := model.StartDateTime(e)
	end := model.EndDateTime(e)
	if caltime.DateOf(end) != caltime.DateOf(start) {
		return fmt.Sprintf("%s-%s %s", start.Format("15:04"), end.Format("15:04"), caltime.DateOf(end))
	}
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}
