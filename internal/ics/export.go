package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"plancal/internal/model"
)

const floatingLayout = "20060102T150405"

// uidSpace scopes the name-based UIDs of exported events.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("plancal"))

// Source is a titled list of events; *calendar.Calendar is one.
type Source interface {
	Title() string
	AllEvents() []model.Event
}

// Export writes src as a VCALENDAR with one VEVENT per event. Recurring
// instances are written individually. Timed events use floating local
// times; all-day events use VALUE=DATE with an exclusive DTEND. Lines end
// in CRLF on every platform.
func Export(w io.Writer, src Source) error {
	return build(src, time.Now()).SerializeTo(w, ical.WithNewLineWindows)
}

func build(src Source, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendarFor("plancal")
	cal.SetMethod(ical.MethodPublish)
	cal.SetName(src.Title())

	for i, e := range src.AllEvents() {
		ve := cal.AddEvent(eventUID(i, e))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Subject())
		if d := e.Description(); d != "" {
			ve.SetDescription(d)
		}
		if l := e.Location(); l != "" {
			ve.SetLocation(l)
		}
		if e.Visibility() == model.Private {
			ve.SetClass(ical.ClassificationPrivate)
		} else {
			ve.SetClass(ical.ClassificationPublic)
		}

		if e.IsAllDay() {
			last, ok := e.EndDate()
			if !ok {
				last = e.StartDate()
			}
			ve.SetAllDayStartAt(e.StartDate().Time())
			ve.SetAllDayEndAt(last.AddDays(1).Time())
			continue
		}
		ve.SetProperty(ical.ComponentPropertyDtStart, model.StartDateTime(e).Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, model.EndDateTime(e).Format(floatingLayout))
	}
	return cal
}

// eventUID is stable for a given position and identity, so exporting the
// same calendar twice yields the same UIDs.
func eventUID(pos int, e model.Event) string {
	name := fmt.Sprintf("%d/%s", pos, model.KeyOf(e))
	return uuid.NewSHA1(uidSpace, []byte(name)).String() + "@plancal"
}
