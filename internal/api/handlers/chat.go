// Package handlers exposes the assistant over HTTP. Each handler maps the
// orchestrator's typed errors onto status codes and keeps the response
// bodies JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/assistant"
)

// ChatHandler handles the chat and insights endpoints.
type ChatHandler struct {
	orchestrator *assistant.Orchestrator
	log          zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orchestrator *assistant.Orchestrator, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		log:          log,
	}
}

// SendMessage handles POST /api/chat/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.orchestrator.SendMessage(ctx, middleware.CallerID(ctx), req.Message)
	if err != nil {
		h.writeAssistantError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"reply": reply,
	})
}

// GetHistory handles GET /api/chat/history
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID := middleware.CallerID(ctx)
	if callerID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, assistant.ErrUnauthorized.Error())
		return
	}

	turns := h.orchestrator.History(ctx, callerID)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": turns,
		"count":    len(turns),
	})
}

// ClearHistory handles DELETE /api/chat/history
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.orchestrator.ClearHistory(ctx, middleware.CallerID(ctx)); err != nil {
		h.writeAssistantError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "cleared",
	})
}

// GetInsights handles GET /api/insights
func (h *ChatHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	insights, err := h.orchestrator.Insights(ctx, middleware.CallerID(ctx))
	if err != nil {
		h.writeAssistantError(w, err)
		return
	}
	if insights == nil {
		insights = []string{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": insights,
		"count":    len(insights),
	})
}

// writeAssistantError maps the orchestrator's typed errors to status codes.
func (h *ChatHandler) writeAssistantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrUnauthorized):
		middleware.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, assistant.ErrMessageTooLong):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, assistant.ErrUserNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, assistant.ErrContextUnavailable):
		middleware.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, assistant.ErrSendFailed):
		middleware.WriteError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("Unhandled assistant error")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
