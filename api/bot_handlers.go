package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"lnbot/models"
	"lnbot/service"

	log "github.com/sirupsen/logrus"
)

func (s *Server) getBot(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}

	info, err := s.svc.GetBot(r.Context(), admin)
	if err != nil {
		s.serveError(w, err)
		return
	}
	if info == nil {
		s.serveError(w, service.ErrNoBot)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) createBot(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}

	var data models.CreateBotSettings
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if data.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	info, err := s.svc.CreateBot(r.Context(), admin, &data)
	if err != nil {
		s.serveError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) updateBot(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}

	var data models.UpdateBotSettings
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := s.svc.UpdateBot(r.Context(), admin, &data)
	if err != nil {
		s.serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) deleteBot(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteBot(r.Context(), admin); err != nil {
		s.serveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startBot(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}

	info, err := s.svc.StartBot(r.Context(), admin)
	if err != nil {
		s.serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) stopBot(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}

	info, err := s.svc.StopBot(r.Context(), admin)
	if err != nil {
		s.serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		s.serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// uninstall tears down the admin's bot and removes its settings. An
// admin with nothing registered is already uninstalled, not an error.
func (s *Server) uninstall(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}

	err := s.svc.DeleteBot(r.Context(), admin)
	if err != nil && !errors.Is(err, service.ErrNoBot) {
		s.serveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serveError maps service errors onto HTTP statuses. Lifecycle misuse
// is the caller's fault, everything else is ours.
func (s *Server) serveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoBot):
		writeError(w, http.StatusBadRequest, "no bot registered")
	case errors.Is(err, service.ErrStandalone):
		writeError(w, http.StatusBadRequest, "bot runs standalone")
	default:
		log.Errorf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
