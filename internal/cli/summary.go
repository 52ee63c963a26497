package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"salesops/internal/services"
)

// ReportSource computes reports for the command line.
type ReportSource interface {
	Report(ctx context.Context, q services.ReportQuery) (services.Report, error)
	CrossTab(ctx context.Context, q services.ReportQuery) (services.CrossTabReport, error)
}

type summaryCmd struct {
	reports ReportSource
	period  string
	ref     string
	start   string
	end     string
	group   string
	roster  bool
	format  string
}

// NewSummaryCmd prints a KPI report for one period.
func NewSummaryCmd(reports ReportSource) *cobra.Command {
	sc := &summaryCmd{reports: reports}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print quotation and order KPIs for a period",
		Example: "  salesops-report summary --period month --group representative --roster\n" +
			"  salesops-report summary --start 2025-01-01 --end 2025-03-31 --group crosstab",
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.period, "period", "week", "Period: week, month, quarter, year or all")
	cmd.Flags().StringVar(&sc.ref, "ref", "", "Reference date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&sc.start, "start", "", "Explicit window start (YYYY-MM-DD), overrides --period")
	cmd.Flags().StringVar(&sc.end, "end", "", "Explicit window end (YYYY-MM-DD), overrides --period")
	cmd.Flags().StringVar(&sc.group, "group", "representative", "Group by: representative, line-of-work, overall or crosstab")
	cmd.Flags().BoolVar(&sc.roster, "roster", false, "Include every known group, even without activity")
	cmd.Flags().StringVar(&sc.format, "format", "table", "Output format: table or json")
	return cmd
}

// NewRootCmd returns the salesops-report command tree.
func NewRootCmd(reports ReportSource) *cobra.Command {
	root := &cobra.Command{
		Use:           "salesops-report",
		Short:         "Sales operations reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewSummaryCmd(reports))
	return root
}

func (sc *summaryCmd) run(cmd *cobra.Command, _ []string) error {
	q, err := sc.query()
	if err != nil {
		return err
	}
	if sc.format != "table" && sc.format != "json" {
		return fmt.Errorf("unsupported format %q", sc.format)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()
	out := cmd.OutOrStdout()

	if strings.EqualFold(sc.group, "crosstab") {
		ct, err := sc.reports.CrossTab(ctx, q)
		if err != nil {
			return fmt.Errorf("build crosstab: %w", err)
		}
		if sc.format == "json" {
			return writeJSON(out, ct)
		}
		return writeCrossTab(out, ct)
	}

	dim, err := services.ParseDimension(sc.group)
	if err != nil {
		return err
	}
	q.Dimension = dim

	report, err := sc.reports.Report(ctx, q)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if sc.format == "json" {
		return writeJSON(out, report)
	}
	return writeReport(out, report)
}

func (sc *summaryCmd) query() (services.ReportQuery, error) {
	q := services.ReportQuery{Period: sc.period, Roster: sc.roster}
	for _, f := range []struct {
		flag, value string
		dst         *time.Time
	}{
		{"ref", sc.ref, &q.Ref},
		{"start", sc.start, &q.Start},
		{"end", sc.end, &q.End},
	} {
		if f.value == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", f.value, time.Local)
		if err != nil {
			return services.ReportQuery{}, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", f.flag, f.value)
		}
		*f.dst = t
	}
	return q, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, r services.Report) error {
	fmt.Fprintf(w, "%s report, %s (%s)\n\n", r.Dimension, r.Period, r.Window)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Group\tQuotes\tQuote value\tOrders\tOrder value\tConv % (count)\tConv % (value)\t")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\t%.2f\t%.1f\t%.1f\t\n",
			row.Display, row.QuoteCount, row.QuoteValue, row.OrderCount, row.OrderValue,
			row.ConversionRateByCount, row.ConversionRateByValue)
	}
	fmt.Fprintf(tw, "Total\t%d\t%.2f\t%d\t%.2f\t\t%.1f\t\n",
		r.Totals.TotalQuoteCount, r.Totals.TotalQuoteValue,
		r.Totals.TotalOrderCount, r.Totals.TotalOrderValue, r.Totals.OverallConversion)
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.TopPerformer != "" {
		fmt.Fprintf(w, "\nTop performer: %s\n", r.TopPerformer)
	}
	return nil
}

func writeCrossTab(w io.Writer, ct services.CrossTabReport) error {
	fmt.Fprintf(w, "Order value by representative and line of work, %s (%s)\n\n", ct.Period, ct.Window)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Representative\t")
	for _, c := range ct.Columns {
		fmt.Fprintf(tw, "%s\t", ct.ColumnLabels[c])
	}
	fmt.Fprintln(tw, "Total\t")

	for _, row := range ct.Rows {
		fmt.Fprintf(tw, "%s\t", row)
		for _, c := range ct.Columns {
			fmt.Fprintf(tw, "%.2f\t", ct.Cell(row, c).OrderValue)
		}
		fmt.Fprintf(tw, "%.2f\t\n", ct.RowTotal(row).TotalOrderValue)
	}
	return tw.Flush()
}
