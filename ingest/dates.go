package ingest

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseReportDate tries the date layouts seen in field reports. An
// unparseable value yields the zero time, which downstream stages treat
// as "date unknown" rather than an error.
func ParseReportDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
