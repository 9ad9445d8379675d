// Package businesscal implements holiday-aware business-day and business-hour
// arithmetic. All computation happens in UTC so that results do not depend on
// the server's local timezone or DST transitions.
package businesscal

import (
	"strings"
	"time"
)

// DateKey is the canonical YYYY-MM-DD form of a holiday date.
const dateKeyLayout = "2006-01-02"

// HolidaySet is a deduplicated set of canonical date keys. It is built once
// per configuration load and immutable afterwards, so it is safe to share
// across concurrent readers.
type HolidaySet map[string]struct{}

// Contains reports whether the given UTC date is a configured holiday.
func (h HolidaySet) Contains(t time.Time) bool {
	_, ok := h[t.UTC().Format(dateKeyLayout)]
	return ok
}

// holidayLayouts are the accepted input formats, tried in order. Layouts
// without a zone are parsed by time.Parse in UTC, which keeps the extracted
// year/month/day stable for inputs near midnight.
var holidayLayouts = []string{
	dateKeyLayout,
	"January 2, 2006",
	"Jan 2, 2006",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
}

// NormalizeHolidayDate converts a free-text holiday date into its canonical
// YYYY-MM-DD key. It accepts ISO dates and timestamps, "Month D, YYYY",
// "YYYY/MM/DD", and "MM/DD/YYYY", each with an optional trailing "UTC".
// Returns ok=false for blank or unparseable input. Normalizing an
// already-canonical key returns the key unchanged.
func NormalizeHolidayDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, " UTC")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	// Full timestamps carry their own zone; convert to UTC before taking
	// the date so entries recorded near midnight do not shift by a day.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(dateKeyLayout), true
	}

	for _, layout := range holidayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(dateKeyLayout), true
		}
	}

	return "", false
}

// BuildHolidaySet normalizes each configured holiday string, drops entries
// that fail to parse, and deduplicates. Holiday lists come from
// loosely-validated configuration, so this is best-effort and never errors.
func BuildHolidaySet(raw []string) HolidaySet {
	set := make(HolidaySet, len(raw))
	for _, entry := range raw {
		key, ok := NormalizeHolidayDate(entry)
		if !ok {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}
