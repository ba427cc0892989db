package dataset

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
}

// ParseDate parses a date cell in one of the common spreadsheet and ISO
// layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Dates parses a whole text column. ok is false if any cell fails to parse.
func (d *Dataset) Dates(name string) (dates []time.Time, ok bool) {
	s, found := d.columns[name]
	if !found || s.Kind != Text {
		return nil, false
	}
	dates = make([]time.Time, s.Len())
	for i := range dates {
		if s.Missing[i] {
			return nil, false
		}
		t, parsed := ParseDate(s.Texts[i])
		if !parsed {
			return nil, false
		}
		dates[i] = t
	}
	return dates, true
}
