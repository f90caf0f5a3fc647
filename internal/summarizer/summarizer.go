// Package summarizer turns meeting transcripts into structured summaries
// with action items using a language model.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/llm"
	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
	"github.com/capitalize-ai/voice-assistant/pkg/metrics"
)

// DefaultTimeout bounds a single summarization call.
const DefaultTimeout = 60 * time.Second

// persistTimeout bounds saving a meeting record.
const persistTimeout = 10 * time.Second

// ErrEmptyTranscript is returned for a blank transcript.
var ErrEmptyTranscript = errors.New("transcript is empty")

// RecordStore persists transcripts against meetings.
type RecordStore interface {
	SaveMeetingRecord(ctx context.Context, userID string, rec model.MeetingRecord) error
}

// TaskCreator creates tasks from action items.
type TaskCreator interface {
	CreateTask(ctx context.Context, t model.NewTask) (*model.Task, error)
}

// Summarizer sends transcripts to an LLM and parses the structured reply.
type Summarizer struct {
	client  llm.Client
	records RecordStore
	logger  *logger.Logger
	model   string
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithModel selects the model; empty uses the provider default.
func WithModel(model string) Option {
	return func(s *Summarizer) { s.model = model }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Summarizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the time source used for due dates and records.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) { s.now = now }
}

// New creates a Summarizer. records may be nil to disable persistence.
func New(client llm.Client, records RecordStore, log *logger.Logger, opts ...Option) *Summarizer {
	s := &Summarizer{
		client:  client,
		records: records,
		logger:  log,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize produces a structured summary of transcript. A reply that
// cannot be parsed yields Fallback() rather than an error; errors are
// returned only for an empty transcript or a failed model call.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (*model.ProcessedMeeting, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}

	ctx, span := otel.Tracer("summarizer").Start(ctx, "summarizer.Summarize")
	defer span.End()
	span.SetAttributes(attribute.Int("transcript.length", len(transcript)))

	// The call runs to completion even if the caller goes away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	resp, err := s.client.Complete(ctx, &llm.CompletionRequest{
		Model:       s.model,
		Messages:    buildPrompt(transcript),
		MaxTokens:   2048,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		metrics.SummariesTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("summarize transcript: %w", err)
	}

	pm, ok := Parse(resp.Content)
	if !ok {
		metrics.SummariesTotal.WithLabelValues("fallback").Inc()
		s.logger.Warn("unparseable summary from model",
			zap.String("provider", s.client.Name()),
			zap.Int("content_length", len(resp.Content)),
		)
		return &pm, nil
	}

	metrics.SummariesTotal.WithLabelValues("success").Inc()
	s.logger.Info("transcript summarized",
		zap.String("provider", s.client.Name()),
		zap.Int("action_items", len(pm.ActionItems)),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	return &pm, nil
}

// SummarizeMeeting summarizes transcript and, when both userID and
// meetingID are set, stores the result against the meeting. A storage
// failure is logged and does not fail the call.
func (s *Summarizer) SummarizeMeeting(ctx context.Context, userID, meetingID, transcript string) (*model.ProcessedMeeting, error) {
	pm, err := s.Summarize(ctx, transcript)
	if err != nil {
		return nil, err
	}

	if userID == "" || meetingID == "" || s.records == nil {
		return pm, nil
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err = s.records.SaveMeetingRecord(saveCtx, userID, model.MeetingRecord{
		MeetingID:  meetingID,
		Transcript: strings.TrimSpace(transcript),
		Processed:  *pm,
		SavedAt:    s.now(),
	})
	if err != nil {
		s.logger.Error("failed to save meeting record",
			zap.String("user_id", userID),
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
	}

	return pm, nil
}
