package kpi

import (
	"strings"

	"salesops/internal/core"
)

// Statuses that take an event out of the quotation pipeline. Orders are
// counted regardless of status.
// Matching ignores case and surrounding whitespace.
var excludedStatuses = map[string]struct{}{
	"not interested in doing business with us": {},
	"company blacklisted":                      {},
	"completed":                                {},
	"cancelled":                                {},
}

// ExcludedStatuses returns the excluded status names in lower case.
func ExcludedStatuses() []string {
	out := make([]string, 0, len(excludedStatuses))
	for s := range excludedStatuses {
		out = append(out, s)
	}
	return out
}

func IsExcludedStatus(status string) bool {
	_, ok := excludedStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// IsQuotation reports whether e counts as a quotation: a quote was sent
// and the status is not excluded. The event type is not consulted.
func IsQuotation(e core.Event) bool {
	return e.QuoteSent && !IsExcludedStatus(e.Status)
}

// IsOrder reports whether e counts as an order: an ORDER event with a
// purchase order received. Status does not affect orders.
func IsOrder(e core.Event) bool {
	return e.EventType == core.EventOrder && e.PoReceived
}
