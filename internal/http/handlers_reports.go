package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"salesops/internal/services"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	dim, err := services.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := parseReportQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	q.Dimension = dim

	report, err := s.deps.Reports.Report(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCrossTab(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ct, err := s.deps.Reports.CrossTab(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	var ref time.Time
	if v := strings.TrimSpace(r.URL.Query().Get("ref")); v != "" {
		t, err := parseDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ref = t
	}
	stats, err := s.deps.Reports.DashboardStats(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Reports.Banner(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
