package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salesops/internal/kpi"
	"salesops/internal/services"
)

type mockReports struct {
	mock.Mock
}

func (m *mockReports) Report(ctx context.Context, q services.ReportQuery) (services.Report, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(services.Report), args.Error(1)
}

func (m *mockReports) CrossTab(ctx context.Context, q services.ReportQuery) (services.CrossTabReport, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(services.CrossTabReport), args.Error(1)
}

func run(t *testing.T, reports ReportSource, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(reports)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sampleReport() services.Report {
	return services.Report{
		Dimension: services.DimensionRepresentative,
		Period:    "month",
		Window: kpi.Window{
			Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 4, 30, 23, 59, 59, 999e6, time.UTC),
		},
		Rows: []services.Row{
			{Label: "Shaun", Display: "Shaun", Metrics: kpi.Metrics{QuoteCount: 2, QuoteValue: 3000, OrderCount: 1, OrderValue: 1500, ConversionRateByCount: 50, ConversionRateByValue: 50}},
			{Label: "Clare", Display: "Clare"},
		},
		Totals:       kpi.Totals{TotalQuoteCount: 2, TotalQuoteValue: 3000, TotalOrderCount: 1, TotalOrderValue: 1500, OverallConversion: 50},
		TopPerformer: "Shaun",
	}
}

func TestSummary_Table(t *testing.T) {
	reports := new(mockReports)
	reports.On("Report", mock.Anything, mock.MatchedBy(func(q services.ReportQuery) bool {
		return q.Dimension == services.DimensionRepresentative && q.Period == "month" && q.Roster &&
			q.Ref.Equal(time.Date(2025, 4, 15, 0, 0, 0, 0, time.Local))
	})).Return(sampleReport(), nil)

	out, err := run(t, reports, "summary", "--period", "month", "--ref", "2025-04-15", "--roster")
	require.NoError(t, err)

	assert.Contains(t, out, "representative report, month (2025-04-01..2025-04-30)")
	assert.Contains(t, out, "Shaun")
	assert.Contains(t, out, "1500.00")
	assert.Contains(t, out, "Top performer: Shaun")
	reports.AssertExpectations(t)
}

func TestSummary_JSON(t *testing.T) {
	reports := new(mockReports)
	reports.On("Report", mock.Anything, mock.Anything).Return(sampleReport(), nil)

	out, err := run(t, reports, "summary", "--group", "representative", "--format", "json")
	require.NoError(t, err)

	var got services.Report
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Shaun", got.TopPerformer)
	assert.Len(t, got.Rows, 2)
}

func TestSummary_CrossTab(t *testing.T) {
	ct := services.CrossTabReport{
		Period: "all",
		CrossTab: kpi.CrossTab{
			Rows:    []string{"Shaun"},
			Columns: []string{"EC"},
			Cells:   map[string]map[string]kpi.Metrics{"Shaun": {"EC": {OrderCount: 1, OrderValue: 900}}},
		},
		ColumnLabels: map[string]string{"EC": "Electro Motors"},
	}
	reports := new(mockReports)
	reports.On("CrossTab", mock.Anything, mock.Anything).Return(ct, nil)

	out, err := run(t, reports, "summary", "--group", "crosstab", "--period", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Electro Motors")
	assert.Contains(t, out, "900.00")
}

func TestSummary_InvalidFlags(t *testing.T) {
	reports := new(mockReports)

	_, err := run(t, reports, "summary", "--ref", "15/04/2025")
	assert.ErrorContains(t, err, "invalid --ref")

	_, err = run(t, reports, "summary", "--group", "region")
	assert.ErrorIs(t, err, services.ErrUnknownDimension)

	_, err = run(t, reports, "summary", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")

	reports.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}
