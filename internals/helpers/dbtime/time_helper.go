// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

const DateLayout = "2006-01-02"

var loc atomic.Pointer[time.Location]

// SetLocation sets the business timezone used to interpret calendar dates.
// An unknown name falls back to UTC.
func SetLocation(name string) *time.Location {
	l, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil || strings.TrimSpace(name) == "" {
		l = time.UTC
	}
	loc.Store(l)
	return l
}

func Location() *time.Location {
	if l := loc.Load(); l != nil {
		return l
	}
	return time.UTC
}

// ParseDate accepts YYYY-MM-DD (midnight in the business timezone) or RFC3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.ParseInLocation(DateLayout, s, Location()); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return t.In(Location()), nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func Today(now time.Time) time.Time {
	n := now.In(Location())
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, Location())
}
