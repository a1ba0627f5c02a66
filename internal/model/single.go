package model

import (
	"fmt"

	"plancal/internal/caltime"
)

// Single is a standalone, immutable event. Build one with a Builder.
type Single struct {
	subject     string
	startDate   caltime.Date
	startTime   *caltime.Clock
	visibility  Visibility
	description string
	endDate     *caltime.Date
	endTime     *caltime.Clock
	location    string
}

func (s *Single) Subject() string { return s.subject }
func (s *Single) StartDate() caltime.Date { return s.startDate }
func (s *Single) Visibility() Visibility { return s.visibility }
func (s *Single) Description() string { return s.description }
func (s *Single) Location() string { return s.location }
func (s *Single) IsAllDay() bool { return s.startTime == nil }
func (s *Single) StartTime() (caltime.Clock, bool) { return optClock(s.startTime) }
func (s *Single) EndDate() (caltime.Date, bool) { return optDate(s.endDate) }
func (s *Single) EndTime() (caltime.Clock, bool) { return optClock(s.endTime) }

func (s *Single) sealed() {}

func (s *Single) String() string {
	at := "all-day"
	if s.startTime != nil {
		at = s.startTime.String()
	}
	return fmt.Sprintf("Event[subject=%s, date=%s, time=%s]", s.subject, s.startDate, at)
}

func optClock(c *caltime.Clock) (caltime.Clock, bool) {
	if c == nil {
		return caltime.Clock{}, false
	}
	return *c, true
}

func optDate(d *caltime.Date) (caltime.Date, bool) {
	if d == nil {
		return caltime.Date{}, false
	}
	return *d, true
}
