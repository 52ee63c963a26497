package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"salesops/internal/store"
)

type fakeSheetsAPI struct {
	mu      sync.Mutex
	calls   []string
	written map[string][][]any
	failOn  string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var call string
	switch {
	case r.Method == http.MethodGet:
		call = "get"
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		call = "add"
	case strings.HasSuffix(r.URL.Path, ":clear"):
		call = "clear"
	case r.Method == http.MethodPut:
		call = "update"
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
		return
	}
	f.calls = append(f.calls, call)

	if call == f.failOn {
		http.Error(w, `{"error":{"code":400,"message":"backend error"}}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch call {
	case "get":
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Overall"}}]}`))
	case "update":
		var body struct {
			Range  string  `json:"range"`
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if f.written == nil {
			f.written = make(map[string][][]any)
		}
		f.written[r.URL.Path] = body.Values
		_, _ = w.Write([]byte(`{}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeSheetsAPI) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

func newTestExporter(t *testing.T, api *fakeSheetsAPI) *Exporter {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	e, err := New(context.Background(), "sheet-id", nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return e
}

func TestExporter_ExportReportCreatesMissingTab(t *testing.T) {
	api := &fakeSheetsAPI{}
	e := newTestExporter(t, api)
	ctx := context.Background()

	sheet := store.Sheet{
		Title:  "By Representative",
		Header: []string{"Group", "Orders"},
		Rows:   [][]any{{"Shaun", 2}, nil},
	}
	require.NoError(t, e.ExportReport(ctx, sheet))
	assert.Equal(t, []string{"get", "add", "clear", "update"}, api.takeCalls())

	require.Len(t, api.written, 1)
	for _, values := range api.written {
		require.Len(t, values, 3)
		assert.Equal(t, []any{"Group", "Orders"}, values[0])
		assert.Equal(t, "Shaun", values[1][0])
	}

	require.NoError(t, e.ExportReport(ctx, sheet))
	assert.Equal(t, []string{"clear", "update"}, api.takeCalls())
}

func TestExporter_ExportReportExistingTab(t *testing.T) {
	api := &fakeSheetsAPI{}
	e := newTestExporter(t, api)

	require.NoError(t, e.ExportReport(context.Background(), store.Sheet{Title: "Overall"}))
	assert.Equal(t, []string{"get", "clear", "update"}, api.takeCalls())
}

func TestExporter_ExportReportErrors(t *testing.T) {
	api := &fakeSheetsAPI{failOn: "clear"}
	e := newTestExporter(t, api)
	ctx := context.Background()

	err := e.ExportReport(ctx, store.Sheet{Title: "Overall"})
	assert.ErrorContains(t, err, "clear Overall")

	err = e.ExportReport(ctx, store.Sheet{Title: "  "})
	assert.EqualError(t, err, "sheet title is required")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "", nil, goption.WithoutAuthentication())
	assert.EqualError(t, err, "missing spreadsheet id")
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	_, err := NewFromEnv(context.Background(), nil)
	assert.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestCredentials(t *testing.T) {
	_, err := Credentials("", "")
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = Credentials("", "/does/not/exist.json")
	assert.ErrorContains(t, err, "read service account file")

	opt, err := Credentials(`{"type":"service_account"}`, "/ignored")
	require.NoError(t, err)
	assert.NotNil(t, opt)
}

func TestToValues(t *testing.T) {
	got := toValues(store.Sheet{
		Header: []string{"A", "B"},
		Rows:   [][]any{{1, 2}, nil},
	})
	assert.Equal(t, [][]any{{"A", "B"}, {1, 2}, {}}, got)

	assert.Empty(t, toValues(store.Sheet{}))
}

func TestQuoteTitle(t *testing.T) {
	assert.Equal(t, "'Overall'", quoteTitle("Overall"))
	assert.Equal(t, "'Rep''s view'", quoteTitle("Rep's view"))
}
