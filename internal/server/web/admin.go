package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmkov83/enerhobot/internal/common"
	"github.com/dmkov83/enerhobot/internal/server/auth"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type userStatusResponse struct {
	ID             string     `json:"id"`
	Attempts       int        `json:"attempts"`
	IsBanned       bool       `json:"is_banned"`
	LinkedSecretID string     `json:"linked_secret_id,omitempty"`
	RegisteredAt   *time.Time `json:"registered_at,omitempty"`
}

// handleAdminLogin exchanges the admin password for a short-lived JWT.
// The API stays disabled until a password hash is configured.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.passwordHash == "" {
		http.Error(w, "admin api disabled", http.StatusForbidden)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken("admin", s.jwtSecret, s.tokenValidity)
	if err != nil {
		s.logger.Error(r.Context(), "token generation failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if _, err := auth.GetUserIDFromToken(token, s.jwtSecret); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	account, err := s.users.UserStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		s.logger.Error(r.Context(), "user status failed", "user_id", id, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := userStatusResponse{
		ID:             account.ID,
		Attempts:       account.Attempts,
		IsBanned:       account.IsBanned,
		LinkedSecretID: account.LinkedSecretID,
	}
	if !account.RegisteredAt.IsZero() {
		resp.RegisteredAt = &account.RegisteredAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnban(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.users.Unban(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		s.logger.Error(r.Context(), "unban failed", "user_id", id, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
