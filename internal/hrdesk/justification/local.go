package justification

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Local is a wall-clock date/time with no zone. Justification dates are
// what the employee typed and what the backend stores, so they are never
// shifted into another zone. The underlying time.Time is only a container
// for field arithmetic and always sits in time.UTC.
type Local struct {
	t time.Time
}

const (
	LayoutDateTime = "2006-01-02T15:04:05"
	LayoutMinutes  = "2006-01-02T15:04"
	LayoutDate     = "2006-01-02"
)

var parseLayouts = []string{LayoutDateTime, LayoutMinutes, LayoutDate}

// ParseLocal accepts YYYY-MM-DD, YYYY-MM-DDTHH:mm and YYYY-MM-DDTHH:mm:ss.
func ParseLocal(s string) (Local, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Local{t: t}, nil
		}
	}
	return Local{}, fmt.Errorf("justification: invalid local date/time %q", s)
}

// LocalOf takes the wall clock of t as read in t's own location.
func LocalOf(t time.Time) Local {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return Local{t: time.Date(y, mo, d, h, mi, sec, 0, time.UTC)}
}

// WithSeconds appends ":00" to a 16 character YYYY-MM-DDTHH:mm value and
// returns anything else untouched.
func WithSeconds(raw string) string {
	if len(raw) == len(LayoutMinutes) {
		return raw + ":00"
	}
	return raw
}

func (l Local) IsZero() bool { return l.t.IsZero() }

// String formats as YYYY-MM-DDTHH:mm:ss.
func (l Local) String() string {
	if l.IsZero() {
		return ""
	}
	return l.t.Format(LayoutDateTime)
}

// Date truncates to midnight.
func (l Local) Date() Local {
	y, m, d := l.t.Date()
	return Local{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// EndOfDay is 23:59:59 on the same calendar day.
func (l Local) EndOfDay() Local {
	y, m, d := l.t.Date()
	return Local{t: time.Date(y, m, d, 23, 59, 59, 0, time.UTC)}
}

// SameDay reports whether both values fall on the same calendar day.
func (l Local) SameDay(o Local) bool {
	ly, lm, ld := l.t.Date()
	oy, om, od := o.t.Date()
	return ly == oy && lm == om && ld == od
}

func (l Local) Before(o Local) bool { return l.t.Before(o.t) }
func (l Local) Equal(o Local) bool  { return l.t.Equal(o.t) }

// HoursUntil is (end - l) in hours rounded to two decimals, never negative.
func (l Local) HoursUntil(end Local) float64 {
	h := end.t.Sub(l.t).Hours()
	if h <= 0 {
		return 0
	}
	return math.Round(h*100) / 100
}
