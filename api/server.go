package api

import (
	"context"
	"encoding/json"
	"net/http"

	"lnbot/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// BotService is the extension's settings and lifecycle surface
type BotService interface {
	GetBot(ctx context.Context, adminID string) (*models.BotInfo, error)
	CreateBot(ctx context.Context, adminID string, data *models.CreateBotSettings) (*models.BotInfo, error)
	UpdateBot(ctx context.Context, adminID string, data *models.UpdateBotSettings) (*models.BotInfo, error)
	DeleteBot(ctx context.Context, adminID string) error
	StartBot(ctx context.Context, adminID string) (*models.BotInfo, error)
	StopBot(ctx context.Context, adminID string) (*models.BotInfo, error)
	ListUsers(ctx context.Context) ([]*models.DiscordUser, error)
}

// Server is the extension's HTTP surface. Every route sits under
// /api/v1 behind the host platform's X-API-KEY contract.
type Server struct {
	router chi.Router
	svc    BotService
	apiKey string
}

func NewServer(svc BotService, apiKey string) *Server {
	s := &Server{svc: svc, apiKey: apiKey}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Get("/bot", s.getBot)
		r.Post("/bot", s.createBot)
		r.Patch("/bot", s.updateBot)
		r.Delete("/bot", s.deleteBot)
		r.Get("/bot/start", s.startBot)
		r.Get("/bot/stop", s.stopBot)
		r.Get("/users", s.listUsers)
		// Uninstall hook: the host platform calls this when the
		// extension is removed for an admin.
		r.Delete("/", s.uninstall)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requireAPIKey rejects requests without the platform admin key
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminID pulls the acting admin from the usr query parameter
func adminID(w http.ResponseWriter, r *http.Request) (string, bool) {
	admin := r.URL.Query().Get("usr")
	if admin == "" {
		writeError(w, http.StatusBadRequest, "missing usr parameter")
		return "", false
	}
	return admin, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
