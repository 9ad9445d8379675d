package businesscal

import "time"

// IsBusinessDay reports whether t falls on a business day: not Saturday, not
// Sunday, and not a configured holiday. The day is taken in UTC.
func IsBusinessDay(t time.Time, holidays HolidaySet) bool {
	u := t.UTC()
	if wd := u.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !holidays.Contains(u)
}

// HoursBetween counts the whole hours of elapsed time between start and end
// whose containing calendar day (UTC) is a business day. Returns 0 when
// end is not after start; the result is never negative.
//
// Counting is driven by absolute elapsed time rather than local wall-clock
// boundaries, so a span crossing a DST transition yields the same count as
// the equivalent span that does not.
func HoursBetween(start, end time.Time, holidays HolidaySet) int {
	s := start.UTC()
	e := end.UTC()
	if !e.After(s) {
		return 0
	}

	total := int(e.Sub(s).Hours())
	count := 0
	for i := 0; i < total; i++ {
		if IsBusinessDay(s.Add(time.Duration(i)*time.Hour), holidays) {
			count++
		}
	}
	return count
}

// HoursBetweenOrNil is the nullable form of HoursBetween for endpoints that
// may be missing from partially-synced data. Returns nil when either endpoint
// is nil or the zero time.
func HoursBetweenOrNil(start, end *time.Time, holidays HolidaySet) *int {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return nil
	}
	h := HoursBetween(*start, *end, holidays)
	return &h
}

// DaysBetween returns the whole business days between start and end, derived
// from the hour count so both stay consistent. Hours are the single source of
// truth; days are hours/24 floored.
func DaysBetween(start, end time.Time, holidays HolidaySet) int {
	return HoursBetween(start, end, holidays) / 24
}

// DaysSince returns the business days elapsed from value to now.
func DaysSince(value, now time.Time, holidays HolidaySet) int {
	return DaysBetween(value, now, holidays)
}

// DaysSinceOrNil returns the business days elapsed from value to now, or nil
// when value is missing. Downstream age computations must never fail on
// partially-synced data, so absence degrades to nil rather than an error.
func DaysSinceOrNil(value *time.Time, now time.Time, holidays HolidaySet) *int {
	if value == nil || value.IsZero() {
		return nil
	}
	d := DaysBetween(*value, now, holidays)
	return &d
}
