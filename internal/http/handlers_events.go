package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Events.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var p eventPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := p.event()
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.deps.Events.CreateEvent(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var p eventPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := p.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.deps.Events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Events.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
