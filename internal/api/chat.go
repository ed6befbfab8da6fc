package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fankeji/debtbook/internal/app/compose"
	"github.com/fankeji/debtbook/internal/domain"
	"github.com/fankeji/debtbook/internal/infra/deepseek"
)

// chatRequest is the browser-facing proxy payload. The system prompt is
// supplied by the server when the client omits it, so the key and the
// persona never live in the page.
type chatRequest struct {
	SystemPrompt string             `json:"systemPrompt"`
	Messages     []deepseek.Message `json:"messages"`
}

// handleChatProxy forwards a chat completion to the upstream model and
// returns the upstream response body verbatim on success.
func (s *Server) handleChatProxy(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusInternalServerError, "Server configuration error: Missing API Key")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required")
		return
	}
	if req.SystemPrompt == "" {
		req.SystemPrompt = compose.SystemPrompt
	}

	start := time.Now()
	raw, err := s.chat.ChatCompletion(r.Context(), req.SystemPrompt, req.Messages)
	observeChat(err, time.Since(start))
	if err != nil {
		s.log.Warn().Err(err).Msg("chat proxy upstream failure")
		msg := "AI 暂时不可用"
		if errors.Is(err, domain.ErrChatUnavailable) {
			msg = err.Error()
		}
		writeError(w, http.StatusBadGateway, msg)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
