// Package web exposes the HTTP surface: the Telegram webhook endpoint
// and a small admin API for inspecting and unbanning users.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmkov83/enerhobot/internal/logging"
	"github.com/dmkov83/enerhobot/internal/server/config"
	"github.com/dmkov83/enerhobot/internal/server/models"
	"github.com/dmkov83/enerhobot/internal/server/telegram"
)

// UpdateHandler processes one incoming Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd *telegram.Update) error
}

// UserAdmin is the part of the auth service the admin API needs.
type UserAdmin interface {
	UserStatus(ctx context.Context, userID string) (*models.UserAccount, error)
	Unban(ctx context.Context, userID string) error
}

type Server struct {
	address       string
	updates       UpdateHandler
	users         UserAdmin
	webhookSecret string
	jwtSecret     []byte
	passwordHash  string
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewServer(cfg *config.Config, updates UpdateHandler, users UserAdmin, logger logging.Logger) *Server {
	return &Server{
		address:       cfg.EndpointAddr,
		updates:       updates,
		users:         users,
		webhookSecret: cfg.WebhookSecret,
		jwtSecret:     []byte(cfg.SecretKey),
		passwordHash:  cfg.AdminPasswordHash,
		tokenValidity: cfg.AccessTokenValidityDuration,
		logger:        logger.With("module", "web_server"),
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("POST /admin/login", s.handleAdminLogin)
	mux.Handle("GET /admin/users/{id}", s.requireAdmin(http.HandlerFunc(s.handleUserStatus)))
	mux.Handle("POST /admin/users/{id}/unban", s.requireAdmin(http.HandlerFunc(s.handleUnban)))
	return mux
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{Addr: s.address, Handler: s.routes()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
