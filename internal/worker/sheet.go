package worker

import (
	"fmt"
	"math"

	"salesops/internal/services"
	"salesops/internal/store"
)

var sheetHeader = []string{
	"Group", "Quotations", "Quotation Value", "Orders", "Order Value",
	"Conversion % (count)", "Conversion % (value)", "Average Quote",
}

var sheetTitles = map[services.Dimension]string{
	services.DimensionRepresentative: "By Representative",
	services.DimensionLineOfWork:     "By Line of Work",
	services.DimensionOverall:        "Overall",
}

// ReportSheet renders a report as a table with one row per group, a
// totals row and a footer naming the window.
func ReportSheet(r services.Report) store.Sheet {
	title, ok := sheetTitles[r.Dimension]
	if !ok {
		title = string(r.Dimension)
	}

	rows := make([][]any, 0, len(r.Rows)+3)
	for _, row := range r.Rows {
		rows = append(rows, []any{
			row.Display,
			row.QuoteCount,
			round2(row.QuoteValue),
			row.OrderCount,
			round2(row.OrderValue),
			round2(row.ConversionRateByCount),
			round2(row.ConversionRateByValue),
			round2(row.AverageQuoteValue),
		})
	}
	rows = append(rows,
		[]any{
			"Total",
			r.Totals.TotalQuoteCount,
			round2(r.Totals.TotalQuoteValue),
			r.Totals.TotalOrderCount,
			round2(r.Totals.TotalOrderValue),
			"",
			round2(r.Totals.OverallConversion),
			"",
		},
		[]any{},
		[]any{fmt.Sprintf("Period: %s (%s)", r.Period, r.Window), "Generated: " + r.GeneratedAt.Format("2006-01-02 15:04")},
	)

	return store.Sheet{Title: title, Header: sheetHeader, Rows: rows}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
