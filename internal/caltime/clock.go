package caltime

import (
	"errors"
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Clock is a time of day, measured from midnight. The zero value is 00:00.
type Clock struct {
	sinceMidnight time.Duration
}

// Midnight is the first instant of a day.
var Midnight = Clock{}

// ClockOf returns the clock reading hour:minute.
func ClockOf(hour, minute int) Clock {
	return ClockFromDuration(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ClockFromDuration wraps d into a single day.
func ClockFromDuration(d time.Duration) Clock {
	d %= day
	if d < 0 {
		d += day
	}
	return Clock{sinceMidnight: d}
}

// ClockOfTime returns the wall-clock reading of t in t's own location.
func ClockOfTime(t time.Time) Clock {
	h, m, s := t.Clock()
	return ClockFromDuration(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

// ParseClock accepts "15:04" or "15:04:05".
func ParseClock(s string) (Clock, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOfTime(t), nil
		}
	}
	return Clock{}, fmt.Errorf("parse clock %q: want HH:MM", s)
}

func (c Clock) Hour() int { return int(c.sinceMidnight / time.Hour) }
func (c Clock) Minute() int { return int(c.sinceMidnight % time.Hour / time.Minute) }

// SinceMidnight returns the offset of c from 00:00.
func (c Clock) SinceMidnight() time.Duration {
	return c.sinceMidnight
}

// Add returns c shifted by d, wrapping around midnight.
func (c Clock) Add(d time.Duration) Clock {
	return ClockFromDuration(c.sinceMidnight + d)
}

// On returns the instant at which date d shows c on the wall clock.
func (c Clock) On(d Date) time.Time {
	return d.Time().Add(c.sinceMidnight)
}

// Compare returns -1, 0 or +1 depending on whether c is before, equal to or
// after o.
func (c Clock) Compare(o Clock) int {
	switch {
	case c.sinceMidnight < o.sinceMidnight:
		return -1
	case c.sinceMidnight > o.sinceMidnight:
		return 1
	}
	return 0
}

func (c Clock) Before(o Clock) bool { return c.sinceMidnight < o.sinceMidnight }
func (c Clock) After(o Clock) bool { return c.sinceMidnight > o.sinceMidnight }

// String formats c as HH:MM, or HH:MM:SS when seconds are set.
func (c Clock) String() string {
	s := int(c.sinceMidnight % time.Minute / time.Second)
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), s)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Format renders c with a time.Time layout; only the clock fields of the
// layout are meaningful.
func (c Clock) Format(layout string) string {
	return c.On(Date{Year: 2000, Month: time.January, Day: 1}).Format(layout)
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return errors.New("empty clock")
	}
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
