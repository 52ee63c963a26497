package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"salesops/internal/core"
	"salesops/internal/kpi"
	"salesops/internal/log"
	"salesops/internal/services"
	"salesops/internal/store"
)

// errBadRequest marks malformed input detected by the handlers themselves.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as {"error": ...}.
// Unexpected errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		fields := log.NewFields().WithOperation(r.Method + " " + r.URL.Path).WithError(err)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrCompanyExists):
		return http.StatusConflict
	case isValidationError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var validationErrors = []error{
	errBadRequest,
	core.ErrEmptyCustomer,
	core.ErrEmptyRepresentative,
	core.ErrMissingDate,
	core.ErrInvalidEventType,
	core.ErrNegativePrice,
	core.ErrEmptyCompanyName,
	core.ErrInvalidAmount,
	kpi.ErrUnknownPeriod,
	services.ErrUnknownDimension,
	services.ErrInvalidWindow,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
