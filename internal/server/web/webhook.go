package web

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmkov83/enerhobot/internal/logging"
	"github.com/dmkov83/enerhobot/internal/server/telegram"
)

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// handleWebhook accepts one Bot API update per request. Processing
// failures are logged but still answered with 200 so Telegram does not
// keep redelivering the update.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookSecret != "" && r.Header.Get(webhookSecretHeader) != s.webhookSecret {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid update payload", http.StatusBadRequest)
		return
	}

	// the request-scoped logger travels with the context so every log
	// line for this update carries the same request id
	log := s.logger.With("request_id", uuid.NewString(), "update_id", upd.UpdateID)
	ctx := logging.ContextWithLogger(r.Context(), log)
	if err := s.updates.HandleUpdate(ctx, &upd); err != nil {
		log.Error(ctx, "update processing failed", "error", err.Error())
	}

	w.WriteHeader(http.StatusOK)
}
