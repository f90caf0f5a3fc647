// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/middleware"
	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
)

const (
	defaultActivityWindow = 24 * time.Hour
	defaultActivityLimit  = 50
	maxActivityLimit      = 200
)

// ActivityReader reads a user's recent assistant activity.
type ActivityReader interface {
	Since(ctx context.Context, userID string, since time.Time, limit int) ([]model.ActivityEvent, error)
}

// AssistantHandler handles text conversation endpoints.
type AssistantHandler struct {
	conversations *assistant.Conversations
	activity      ActivityReader
	logger        *logger.Logger
}

// NewAssistantHandler creates a new assistant handler. activity is nil when
// the event stream is disabled.
func NewAssistantHandler(convs *assistant.Conversations, activity ActivityReader, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		conversations: convs,
		activity:      activity,
		logger:        log,
	}
}

// Utterance handles POST /api/v1/assistant/utterances
func (h *AssistantHandler) Utterance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.UtteranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUtterance(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv := h.conversations.Get(userID)
	reply := conv.Handle(ctx, req.Text)

	h.logger.Debug("utterance routed",
		zap.String("user_id", userID),
		zap.String("intent", string(reply.Intent)),
		zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
	)

	writeJSON(w, http.StatusOK, &model.UtteranceResponse{
		Reply:       reply.Text,
		Intent:      string(reply.Intent),
		Effects:     reply.Effects,
		HistorySize: len(conv.History()),
	})
}

// Context handles GET /api/v1/assistant/context
func (h *AssistantHandler) Context(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	writeJSON(w, http.StatusOK, &model.ContextResponse{
		Entries: h.conversations.Get(userID).History(),
	})
}

// ClearContext handles DELETE /api/v1/assistant/context
func (h *AssistantHandler) ClearContext(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	h.conversations.Get(userID).Reset()

	w.WriteHeader(http.StatusNoContent)
}

// Activity handles GET /api/v1/assistant/activity
// Supports ?since=RFC3339 and ?limit=N
func (h *AssistantHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		writeError(w, http.StatusServiceUnavailable, "activity stream disabled")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	since := time.Now().Add(-defaultActivityWindow)
	if s := r.URL.Query().Get("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = parsed
	}

	limit := defaultActivityLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxActivityLimit {
			limit = parsed
		}
	}

	events, err := h.activity.Since(ctx, userID, since, limit)
	if err != nil {
		h.logger.Error("failed to read activity", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read activity")
		return
	}

	writeJSON(w, http.StatusOK, &model.ActivityResponse{Events: events})
}
