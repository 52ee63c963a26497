package kpi

import (
	"sort"

	"salesops/internal/core"
)

// AllLabel is the single group produced by NoGrouping.
const AllLabel = "All"

type (
	// Metrics holds quotation and order totals for one group.
	Metrics struct {
		QuoteCount            int     `json:"quoteCount"`
		QuoteValue            float64 `json:"quoteValue"`
		OrderCount            int     `json:"orderCount"`
		OrderValue            float64 `json:"orderValue"`
		ConversionRateByCount float64 `json:"conversionRateByCount"`
		ConversionRateByValue float64 `json:"conversionRateByValue"`
	}

	// Result maps a group label to its metrics.
	Result map[string]Metrics

	// GroupBy extracts the group label of an event. Blank labels are
	// normalized to core.Unknown by Aggregate.
	GroupBy func(core.Event) string

	// Metric selects the figure Result.Top ranks by.
	Metric func(Metrics) float64

	Option func(*options)

	options struct {
		knownLabels []string
	}
)

func ByRepresentative(e core.Event) string { return e.Representative() }

func ByLineOfWork(e core.Event) string { return e.LineOfWorkCode() }

func NoGrouping(core.Event) string { return AllLabel }

var (
	MetricOrderValue Metric = func(m Metrics) float64 { return m.OrderValue }
	MetricQuoteValue Metric = func(m Metrics) float64 { return m.QuoteValue }
	MetricOrderCount Metric = func(m Metrics) float64 { return float64(m.OrderCount) }
	MetricQuoteCount Metric = func(m Metrics) float64 { return float64(m.QuoteCount) }
	MetricConversion Metric = func(m Metrics) float64 { return m.ConversionRateByValue }
)

// WithKnownLabels seeds the result with a fixed roster. Every seeded label
// appears in the output, with zero metrics when nothing matched it.
func WithKnownLabels(labels ...string) Option {
	return func(o *options) {
		o.knownLabels = append(o.knownLabels, labels...)
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Aggregate groups the events inside window and totals their quotations and
// orders. Only groups with at least one quotation or order are returned,
// unless labels were seeded with WithKnownLabels.
func Aggregate(events []core.Event, window Window, groupBy GroupBy, opts ...Option) Result {
	o := buildOptions(opts)
	if groupBy == nil {
		groupBy = NoGrouping
	}

	res := make(Result, len(o.knownLabels))
	for _, l := range o.knownLabels {
		res[core.LabelOrUnknown(l)] = Metrics{}
	}

	for _, e := range events {
		if !window.Contains(e.Date) {
			continue
		}
		quote, order := IsQuotation(e), IsOrder(e)
		if !quote && !order {
			continue
		}
		label := core.LabelOrUnknown(groupBy(e))
		m := res[label]
		m.add(e, quote, order)
		res[label] = m
	}

	for label, m := range res {
		m.derive()
		res[label] = m
	}
	return res
}

func (m *Metrics) add(e core.Event, quote, order bool) {
	if quote {
		m.QuoteCount++
		m.QuoteValue += e.Amount()
	}
	if order {
		m.OrderCount++
		m.OrderValue += e.Amount()
	}
}

func (m *Metrics) derive() {
	m.ConversionRateByCount = percent(float64(m.OrderCount), float64(m.QuoteCount))
	m.ConversionRateByValue = percent(m.OrderValue, m.QuoteValue)
}

// AverageQuoteValue is the mean value of a quotation, 0 without quotations.
func (m Metrics) AverageQuoteValue() float64 {
	if m.QuoteCount == 0 {
		return 0
	}
	return m.QuoteValue / float64(m.QuoteCount)
}

// Labels returns the group labels in lexical order.
func (r Result) Labels() []string {
	out := make([]string, 0, len(r))
	for l := range r {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Top returns the group with the greatest metric. Ties go to the label that
// sorts first; ok is false for an empty result.
func (r Result) Top(by Metric) (label string, m Metrics, ok bool) {
	if by == nil {
		by = MetricOrderValue
	}
	for _, l := range r.Labels() {
		if !ok || by(r[l]) > by(m) {
			label, m, ok = l, r[l], true
		}
	}
	return label, m, ok
}

func percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num * 100 / den
}
