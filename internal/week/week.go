// Package week buckets calendar dates into week identifiers of the form
// "YYYY-W##".
//
// Weeks start on Sunday and are counted from January 1 of the date's own
// year, so the last days of December can land in week 53 while January 1 of
// the next year starts again at week 01. This is not ISO-8601 and is kept as
// is: the token is used verbatim as a filter value by clients.
package week

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ID is a week token such as "2024-W05". The zero value means the source
// date could not be parsed.
type ID string

// None is returned for unparseable dates.
const None ID = ""

func (id ID) Valid() bool    { return id != None }
func (id ID) String() string { return string(id) }

// now is swapped in tests.
var now = time.Now

// layouts accepted for report dates, most specific first.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06 15:04",
	"1/2/06",
	"01-02-2006",
	"01-02-06",
	"1-2-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2-Jan-06",
}

// ParseDate parses the date formats found in exported job reports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Of returns the week id for a date string, or None when it cannot be parsed.
func Of(date string) ID {
	t, ok := ParseDate(date)
	if !ok {
		return None
	}
	return FromTime(t)
}

// FromTime returns the week id of t in t's own location.
func FromTime(t time.Time) ID {
	year := t.Year()
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, t.Location())
	offset := t.YearDay() - 1
	// ceil((offset + weekday(jan1) + 1) / 7)
	n := (offset + int(jan1.Weekday()) + 1 + 6) / 7
	return ID(fmt.Sprintf("%d-W%02d", year, n))
}

// Current returns the week id of the present date.
func Current() ID { return FromTime(now()) }

// InRange walks from start to end (inclusive) in 7-day steps and returns the
// distinct week ids seen, sorted ascending.
func InRange(start, end time.Time) []ID {
	seen := map[ID]struct{}{}
	var out []ID
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 7) {
		id := FromTime(cur)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DisplayName renders "2024-W05" as "Week 05, 2024".
func DisplayName(id ID) string {
	if !id.Valid() {
		return "Unknown Week"
	}
	year, n, ok := strings.Cut(string(id), "-W")
	if !ok {
		return string(id)
	}
	return fmt.Sprintf("Week %s, %s", n, year)
}
