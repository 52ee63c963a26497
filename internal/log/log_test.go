package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentReports, Output: &buf})

	l.Info("aggregated", FieldGroups, 3)

	out := buf.String()
	if !strings.Contains(out, "component=reports") || !strings.Contains(out, "groups=3") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("component logged more than once: %q", out)
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).WithComponent(ComponentWorker)
	if l.Component() != ComponentWorker {
		t.Fatalf("component = %q", l.Component())
	}

	l.WithFields(NewFields().WithReport("representative", "month", "2025-04-01..2025-04-30")).Info("exported")

	out := buf.String()
	for _, want := range []string{"dimension=representative", "period=month", "window=2025-04-01..2025-04-30"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a fallback logger")
	}
	l := New(DefaultConfig())
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("expected stored logger")
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})

	var seenID string
	h := RequestLogger(l, func(*http.Request) string { return "10.0.0.1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/overall?period=week", nil))

	if !regexp.MustCompile(`^req_[0-9a-f]{16}$`).MatchString(seenID) {
		t.Fatalf("unexpected request id %q", seenID)
	}
	if rec.Header().Get(RequestIDHeader) != seenID {
		t.Fatalf("response header %q != %q", rec.Header().Get(RequestIDHeader), seenID)
	}
	out := buf.String()
	if !strings.Contains(out, "request_id="+seenID) || !strings.Contains(out, "status_code=418") {
		t.Fatalf("unexpected log output %q", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Fatalf("4xx should log at WARN: %q", out)
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	l := New(Config{Output: &bytes.Buffer{}})
	var seenID string
	h := RequestLogger(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req_upstream")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seenID != "req_upstream" {
		t.Fatalf("got %q", seenID)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).With(FieldEventID, "e1").WithComponent(ComponentEvents).Info("saved")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=events") {
		t.Fatalf("unexpected component tagging %q", out)
	}
	if !strings.Contains(out, "event_id=e1") {
		t.Fatalf("attributes lost on component switch: %q", out)
	}
}
