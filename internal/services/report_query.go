package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"salesops/internal/core"
	"salesops/internal/kpi"
)

const (
	DimensionRepresentative Dimension = "representative"
	DimensionLineOfWork     Dimension = "line-of-work"
	DimensionOverall        Dimension = "overall"
)

var (
	ErrUnknownDimension = errors.New("unknown report dimension")
	ErrInvalidWindow    = errors.New("window start is after its end")
)

// Dimension is the axis a report groups events by.
type Dimension string

func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DimensionRepresentative, DimensionLineOfWork, DimensionOverall:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

func (d Dimension) GroupBy() kpi.GroupBy {
	switch d {
	case DimensionRepresentative:
		return kpi.ByRepresentative
	case DimensionLineOfWork:
		return kpi.ByLineOfWork
	}
	return kpi.NoGrouping
}

// Display returns the human label for a group of this dimension.
func (d Dimension) Display(label string) string {
	if d == DimensionLineOfWork {
		return core.LineOfWorkLabel(label)
	}
	return label
}

// ReportQuery selects what a report covers. An explicit Start or End wins
// over Period; Period "all" disables date filtering and an empty Period
// means a week. A zero Ref means now.
type ReportQuery struct {
	Dimension Dimension
	Period    string
	Ref       time.Time
	Start     time.Time
	End       time.Time
	Roster    bool
}

// window resolves the query to a window and the label describing it.
func (q ReportQuery) window(now time.Time) (kpi.Window, string, error) {
	if !q.Start.IsZero() || !q.End.IsZero() {
		if !q.Start.IsZero() && !q.End.IsZero() && q.Start.After(q.End) {
			return kpi.Window{}, "", ErrInvalidWindow
		}
		return kpi.DayRange(q.Start, q.End), "custom", nil
	}

	period := strings.ToLower(strings.TrimSpace(q.Period))
	switch period {
	case "":
		period = string(kpi.Week)
	case kpi.AllTime:
		return kpi.Window{}, kpi.AllTime, nil
	}
	p, err := kpi.ParsePeriod(period)
	if err != nil {
		return kpi.Window{}, "", err
	}

	ref := q.Ref
	if ref.IsZero() {
		ref = now
	}
	return kpi.ResolveWindow(p, ref), string(p), nil
}
