package kpi

import "salesops/internal/core"

type (
	// Totals folds every group of a Result into system-wide figures.
	Totals struct {
		TotalQuoteCount   int     `json:"totalQuoteCount"`
		TotalOrderCount   int     `json:"totalOrderCount"`
		TotalQuoteValue   float64 `json:"totalQuoteValue"`
		TotalOrderValue   float64 `json:"totalOrderValue"`
		OverallConversion float64 `json:"overallConversion"`
	}

	// Progress compares achieved order value against a target.
	Progress struct {
		Target    float64 `json:"target"`
		Achieved  float64 `json:"achieved"`
		Percent   float64 `json:"percent"`
		Remaining float64 `json:"remaining"`
	}
)

// Summarize totals a Result. OverallConversion is value based and 0 when
// there is no quoted value.
func Summarize(r Result) Totals {
	var t Totals
	for _, m := range r {
		t.TotalQuoteCount += m.QuoteCount
		t.TotalOrderCount += m.OrderCount
		t.TotalQuoteValue += m.QuoteValue
		t.TotalOrderValue += m.OrderValue
	}
	t.OverallConversion = percent(t.TotalOrderValue, t.TotalQuoteValue)
	return t
}

// TargetProgress reports how far achieved is toward target. Percent is 0
// for a non-positive target and Remaining never goes below zero.
func TargetProgress(achieved, target float64) Progress {
	p := Progress{Target: target, Achieved: achieved}
	if target > 0 {
		p.Percent = achieved * 100 / target
	}
	if rem := target - achieved; rem > 0 {
		p.Remaining = rem
	}
	return p
}

// CountEvents counts the events of type t inside window regardless of
// status. An empty t counts every event.
func CountEvents(events []core.Event, window Window, t core.EventType) int {
	n := 0
	for _, e := range events {
		if !window.Contains(e.Date) {
			continue
		}
		if t == "" || e.EventType == t {
			n++
		}
	}
	return n
}

// DistinctRepresentatives returns the sorted representative labels seen
// inside window.
func DistinctRepresentatives(events []core.Event, window Window) []string {
	seen := make(Result)
	for _, e := range events {
		if window.Contains(e.Date) {
			seen[e.Representative()] = Metrics{}
		}
	}
	return seen.Labels()
}
