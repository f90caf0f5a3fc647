package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/middleware"
	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/internal/summarizer"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
)

// SummaryPublisher announces finished summaries.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, userID, meetingID string, pm *model.ProcessedMeeting)
}

// SummaryHandler handles meeting summarization.
type SummaryHandler struct {
	summarizer *summarizer.Summarizer
	gateways   assistant.GatewayFactory
	publisher  SummaryPublisher
	logger     *logger.Logger
}

// NewSummaryHandler creates a new summary handler. sum is nil when no
// language model is configured; publisher may be nil.
func NewSummaryHandler(
	sum *summarizer.Summarizer,
	gateways assistant.GatewayFactory,
	publisher SummaryPublisher,
	log *logger.Logger,
) *SummaryHandler {
	return &SummaryHandler{
		summarizer: sum,
		gateways:   gateways,
		publisher:  publisher,
		logger:     log,
	}
}

// Summarize handles POST /api/v1/summaries
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	if h.summarizer == nil {
		writeError(w, http.StatusServiceUnavailable, "summarization is not configured")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.SummarizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTranscript(req.Transcript); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMeetingID(req.MeetingID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CreateTasks && userID == "" {
		writeError(w, http.StatusUnauthorized, "sign in to create tasks from action items")
		return
	}

	pm, err := h.summarizer.SummarizeMeeting(ctx, userID, req.MeetingID, req.Transcript)
	if errors.Is(err, summarizer.ErrEmptyTranscript) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to summarize transcript", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to summarize transcript")
		return
	}

	resp := &model.SummarizeResponse{ProcessedMeeting: *pm}

	if req.CreateTasks {
		created, err := h.summarizer.CreateTasks(ctx, h.gateways.ForUser(userID), pm)
		if err != nil {
			h.logger.Warn("some action items were not saved as tasks",
				zap.String("user_id", userID),
				zap.Int("created", len(created)),
				zap.Error(err),
			)
		}
		resp.CreatedTasks = created
	}

	if h.publisher != nil && userID != "" {
		h.publisher.PublishSummary(ctx, userID, req.MeetingID, pm)
	}

	writeJSON(w, http.StatusOK, resp)
}
