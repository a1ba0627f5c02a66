package caltime

import "time"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Spans that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DatesOverlap reports whether the inclusive day ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one day.
func DatesOverlap(aStart, aEnd, bStart, bEnd Date) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// StartOfDay returns the first instant of d.
func StartOfDay(d Date) time.Time {
	return d.Time()
}

// EndOfDay returns the last representable instant of d.
func EndOfDay(d Date) time.Time {
	return d.Time().Add(day - time.Nanosecond)
}

// Contains reports whether d lies within the inclusive range [start, end].
func Contains(start, end, d Date) bool {
	return !d.Before(start) && !d.After(end)
}
