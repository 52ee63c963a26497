package kpi

import "salesops/internal/core"

// CrossTab breaks metrics down along two dimensions, for example
// representative by line of work.
type CrossTab struct {
	Rows    []string                      `json:"rows"`
	Columns []string                      `json:"columns"`
	Cells   map[string]map[string]Metrics `json:"cells"`
}

// BuildCrossTab aggregates events inside window into row x column cells.
// Known labels seed the rows; columns are the labels observed. Missing
// cells read as zero metrics.
func BuildCrossTab(events []core.Event, window Window, rowBy, colBy GroupBy, opts ...Option) CrossTab {
	if rowBy == nil {
		rowBy = NoGrouping
	}
	if colBy == nil {
		colBy = NoGrouping
	}

	o := buildOptions(opts)
	cells := make(map[string]Result, len(o.knownLabels))
	for _, l := range o.knownLabels {
		cells[core.LabelOrUnknown(l)] = Result{}
	}

	for _, e := range events {
		if !window.Contains(e.Date) {
			continue
		}
		quote, order := IsQuotation(e), IsOrder(e)
		if !quote && !order {
			continue
		}
		row := core.LabelOrUnknown(rowBy(e))
		col := core.LabelOrUnknown(colBy(e))
		if cells[row] == nil {
			cells[row] = Result{}
		}
		acc := cells[row][col]
		acc.add(e, quote, order)
		cells[row][col] = acc
	}

	ct := CrossTab{Cells: make(map[string]map[string]Metrics, len(cells))}
	cols := Result{}
	for row, r := range cells {
		ct.Cells[row] = make(map[string]Metrics, len(r))
		for col, m := range r {
			m.derive()
			ct.Cells[row][col] = m
			cols[col] = Metrics{}
		}
	}
	ct.Rows = rowLabels(cells).Labels()
	ct.Columns = cols.Labels()
	return ct
}

// Cell returns the metrics at row and col, zero when absent.
func (c CrossTab) Cell(row, col string) Metrics {
	return c.Cells[row][col]
}

// RowTotal folds one row across every column.
func (c CrossTab) RowTotal(row string) Totals {
	return Summarize(c.Cells[row])
}

func rowLabels(cells map[string]Result) Result {
	out := make(Result, len(cells))
	for row := range cells {
		out[row] = Metrics{}
	}
	return out
}
