// Package kpi turns sales events into per-period quote and order metrics.
//
// Period windows are resolved by one strategy per period kind, each
// computing the first and last calendar day of the period containing a
// reference instant. Windows are expressed in the reference's location.
package kpi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Week    Period = "week"
	Month   Period = "month"
	Quarter Period = "quarter"
	Year    Period = "year"
)

// AllTime is accepted by ParsePeriodOrAll and means "no window".
const AllTime = "all"

var ErrUnknownPeriod = errors.New("unknown period")

type (
	Period string

	// Window is an inclusive time range. A zero bound leaves that side open;
	// the zero Window matches every instant.
	Window struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	// WindowResolver is the strategy interface for one period kind.
	WindowResolver interface {
		// Days returns the first and last calendar day of the period that
		// contains ref, as midnight instants in ref's location.
		Days(ref time.Time) (first, last time.Time)
	}
)

type weekResolver struct{}

// Days returns Sunday through Saturday of ref's week.
func (weekResolver) Days(ref time.Time) (time.Time, time.Time) {
	y, m, d := ref.Date()
	first := time.Date(y, m, d-int(ref.Weekday()), 0, 0, 0, 0, ref.Location())
	return first, first.AddDate(0, 0, 6)
}

type monthResolver struct{}

func (monthResolver) Days(ref time.Time) (time.Time, time.Time) {
	y, m, _ := ref.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, ref.Location()),
		time.Date(y, m+1, 0, 0, 0, 0, 0, ref.Location())
}

type quarterResolver struct{}

// Days returns the calendar quarter: Jan-Mar, Apr-Jun, Jul-Sep or Oct-Dec.
func (quarterResolver) Days(ref time.Time) (time.Time, time.Time) {
	y, m, _ := ref.Date()
	qm := time.Month((int(m)-1)/3*3 + 1)
	return time.Date(y, qm, 1, 0, 0, 0, 0, ref.Location()),
		time.Date(y, qm+3, 0, 0, 0, 0, 0, ref.Location())
}

type yearResolver struct{}

func (yearResolver) Days(ref time.Time) (time.Time, time.Time) {
	y := ref.Year()
	return time.Date(y, time.January, 1, 0, 0, 0, 0, ref.Location()),
		time.Date(y, time.December, 31, 0, 0, 0, 0, ref.Location())
}

var resolvers = map[Period]WindowResolver{
	Week:    weekResolver{},
	Month:   monthResolver{},
	Quarter: quarterResolver{},
	Year:    yearResolver{},
}

// Periods lists the supported period kinds, shortest first.
func Periods() []Period {
	return []Period{Week, Month, Quarter, Year}
}

func (p Period) IsValid() bool {
	_, ok := resolvers[p]
	return ok
}

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return p, nil
}

// ResolveWindow returns the window of the period containing ref. The start
// is midnight of the first day and the end is 23:59:59.999 of the last day.
// An unknown period resolves to the zero Window.
func ResolveWindow(p Period, ref time.Time) Window {
	r, ok := resolvers[p]
	if !ok {
		return Window{}
	}
	first, last := r.Days(ref)
	return Window{Start: first, End: endOfDay(last)}
}

// LastDays returns the window covering ref's day and the n-1 days before it.
func LastDays(n int, ref time.Time) Window {
	if n < 1 {
		n = 1
	}
	return Window{
		Start: startOfDay(ref.AddDate(0, 0, -(n - 1))),
		End:   endOfDay(ref),
	}
}

// DayRange returns the window from the start of from's day to the end of
// to's day. Either bound may be zero to leave that side open.
func DayRange(from, to time.Time) Window {
	var w Window
	if !from.IsZero() {
		w.Start = startOfDay(from)
	}
	if !to.IsZero() {
		w.End = endOfDay(to)
	}
	return w
}

// IsInRange reports whether ts lies within [start, end]. A zero bound is
// treated as open, so with both bounds unset every instant is in range.
// A half-set range still filters on its set side: a start alone excludes
// earlier instants instead of disabling the filter altogether.
func IsInRange(ts, start, end time.Time) bool {
	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && ts.After(end) {
		return false
	}
	return true
}

func (w Window) Contains(ts time.Time) bool {
	return IsInRange(ts, w.Start, w.End)
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) String() string {
	if w.IsZero() {
		return AllTime
	}
	return formatBound(w.Start) + ".." + formatBound(w.End)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
