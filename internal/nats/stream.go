package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
	"github.com/capitalize-ai/voice-assistant/pkg/metrics"
)

const (
	// StreamName is the name of the assistant activity stream.
	StreamName = "ASSISTANT"

	// SubjectPrefix is the prefix for all activity subjects.
	SubjectPrefix = "assistant"

	publishTimeout = 5 * time.Second
)

// ActivityStream publishes assistant activity to JetStream and reads it back.
type ActivityStream struct {
	client *Client
	logger *logger.Logger
}

var _ assistant.TurnObserver = (*ActivityStream)(nil)

// NewActivityStream creates a new activity stream.
func NewActivityStream(client *Client, log *logger.Logger) *ActivityStream {
	return &ActivityStream{client: client, logger: log}
}

// EnsureStream ensures the activity stream exists with proper configuration.
func (s *ActivityStream) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Assistant turns and meeting summaries",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// subjectToken makes an arbitrary id safe to use as one subject token.
func subjectToken(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, id)
}

// ActivitySubject returns the subject for a user's event.
func ActivitySubject(userID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, subjectToken(userID), eventType)
}

// UserFilter returns the filter subject for all of a user's activity.
func UserFilter(userID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, subjectToken(userID))
}

// Publish publishes an event to JetStream.
func (s *ActivityStream) Publish(ctx context.Context, event *model.ActivityEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := s.client.JetStream().Publish(ctx, ActivitySubject(event.UserID, event.Type), data)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "success").Inc()
	return ack.Sequence, nil
}

// TurnRouted publishes a turn event. Failures are logged only.
func (s *ActivityStream) TurnRouted(ctx context.Context, userID, utterance string, reply assistant.Reply) {
	event := &model.ActivityEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Type:      model.EventTypeTurn,
		Intent:    string(reply.Intent),
		Utterance: utterance,
		Reply:     reply.Text,
		CreatedAt: time.Now().UTC(),
	}
	if len(reply.Effects) > 0 {
		event.Metadata = map[string]any{"effects": reply.Effects}
	}
	s.publishDetached(ctx, event)
}

// PublishSummary publishes a summary event. Failures are logged only.
func (s *ActivityStream) PublishSummary(ctx context.Context, userID, meetingID string, pm *model.ProcessedMeeting) {
	s.publishDetached(ctx, &model.ActivityEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Type:      model.EventTypeSummary,
		MeetingID: meetingID,
		Metadata: map[string]any{
			"action_items": len(pm.ActionItems),
			"participants": pm.Participants,
		},
		CreatedAt: time.Now().UTC(),
	})
}

func (s *ActivityStream) publishDetached(ctx context.Context, event *model.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := s.Publish(ctx, event); err != nil {
		s.logger.Warn("activity event not published",
			zap.String("user_id", event.UserID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// Since returns up to limit of a user's events published at or after
// since, oldest first.
func (s *ActivityStream) Since(ctx context.Context, userID string, since time.Time, limit int) ([]model.ActivityEvent, error) {
	js := s.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject:     UserFilter(userID),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverByStartTimePolicy,
		OptStartTime:      &since,
		InactiveThreshold: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	events := []model.ActivityEvent{}
	for msg := range batch.Messages() {
		var event model.ActivityEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			continue
		}
		events = append(events, event)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		return nil, fmt.Errorf("batch error: %w", err)
	}

	return events, nil
}
