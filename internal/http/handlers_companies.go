package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"salesops/internal/core"
)

type companyPayload struct {
	CompanyName   string `json:"companyName"`
	CompanyNumber string `json:"companyNumber"`
	Location      string `json:"location"`
	Email         string `json:"email"`
	OnBoard       bool   `json:"onBoard"`
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Companies.ListCompanies(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var p companyPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.deps.Companies.CreateCompany(r.Context(), core.Company{
		CompanyName:   p.CompanyName,
		CompanyNumber: p.CompanyNumber,
		Location:      p.Location,
		Email:         p.Email,
		OnBoard:       p.OnBoard,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Companies.DeleteCompany(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
