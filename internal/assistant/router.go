package assistant

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
	"github.com/capitalize-ai/voice-assistant/pkg/metrics"
)

// Intent names the rule that produced a reply.
type Intent string

const (
	IntentCreateTask    Intent = "create_task"
	IntentRemoveTask    Intent = "remove_task"
	IntentCreateMeeting Intent = "create_meeting"
	IntentCancelMeeting Intent = "cancel_meeting"
	IntentFollowUp      Intent = "follow_up"
	IntentQueryTasks    Intent = "query_tasks"
	IntentQueryMeetings Intent = "query_meetings"
	IntentQueryMessages Intent = "query_messages"
	IntentQueryCalls    Intent = "query_calls"
	IntentHelp          Intent = "help"
	IntentFallback      Intent = "fallback"
	IntentUnavailable   Intent = "unavailable"
)

// Effect kinds recorded on a Reply.
const (
	EffectTaskCreated      = "task_created"
	EffectTaskDeleted      = "task_deleted"
	EffectMeetingCreated   = "meeting_created"
	EffectMeetingCancelled = "meeting_cancelled"
)

// DefaultGatewayTimeout bounds every gateway call made during a turn.
const DefaultGatewayTimeout = 10 * time.Second

// Reply is the outcome of routing one utterance.
type Reply struct {
	Text    string
	Intent  Intent
	Effects []model.Effect
}

// turn carries per-utterance state through the rule cascade.
type turn struct {
	ctx     context.Context
	raw     string
	lower   string
	now     time.Time
	history *ContextStore
	data    Snapshot
	gateway Gateway
	effects []model.Effect
}

func (t *turn) effect(kind, id string) {
	t.effects = append(t.effects, model.Effect{Kind: kind, EntityID: id})
}

type rule struct {
	intent Intent
	match  func(t *turn) bool
	handle func(r *Router, t *turn) string
}

// Router maps utterances to replies through an ordered rule cascade.
// The first matching rule wins. A Router holds no per-user state and may
// be shared.
type Router struct {
	logger  *logger.Logger
	now     func() time.Time
	timeout time.Duration
	rules   []rule
}

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the router's time source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithGatewayTimeout overrides the per-call gateway timeout.
func WithGatewayTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRouter creates a router with the standard rule cascade.
func NewRouter(log *logger.Logger, opts ...Option) *Router {
	r := &Router{
		logger:  log,
		now:     time.Now,
		timeout: DefaultGatewayTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rules = []rule{
		{IntentCreateTask, matchPhrases(taskCreatePhrases), (*Router).createTask},
		{IntentRemoveTask, matchPhrases(taskRemovePhrases), (*Router).removeTask},
		{IntentCreateMeeting, matchPhrases(meetingCreatePhrases), (*Router).createMeeting},
		{IntentCancelMeeting, matchPhrases(meetingCancelPhrases), (*Router).cancelMeeting},
		{IntentFollowUp, matchFollowUp, (*Router).followUp},
		{IntentQueryTasks, matchKeyword("task"), (*Router).queryTasks},
		{IntentQueryMeetings, matchKeyword("meeting"), (*Router).queryMeetings},
		{IntentQueryMessages, matchKeyword("message"), (*Router).queryMessages},
		{IntentQueryCalls, matchKeyword("call"), (*Router).queryCalls},
		{IntentHelp, matchKeyword("help"), (*Router).help},
		{IntentFallback, func(*turn) bool { return true }, (*Router).fallback},
	}
	return r
}

func matchPhrases(phrases []string) func(t *turn) bool {
	return func(t *turn) bool { return containsAny(t.lower, phrases...) }
}

func matchKeyword(keyword string) func(t *turn) bool {
	return func(t *turn) bool { return containsAny(t.lower, keyword) }
}

// Route interprets one utterance against the user's data and conversation
// history, performing at most one mutation through gw. The turn is
// appended to history before Route returns.
func (r *Router) Route(ctx context.Context, utterance string, history *ContextStore, gw Gateway) Reply {
	ctx, span := otel.Tracer("assistant").Start(ctx, "assistant.Route")
	defer span.End()

	start := time.Now()
	n := Normalize(utterance)
	t := &turn{
		ctx:     ctx,
		raw:     n.Raw,
		lower:   n.Lower,
		now:     r.now(),
		history: history,
		gateway: gw,
	}

	reply := r.dispatch(t)
	span.SetAttributes(attribute.String("assistant.intent", string(reply.Intent)))

	history.Append(model.ConversationEntry{
		Timestamp:  t.now,
		UserInput:  utterance,
		AIResponse: reply.Text,
	})

	metrics.RecordRoute(string(reply.Intent), time.Since(start).Seconds())
	r.logger.Debug("utterance routed",
		zap.String("intent", string(reply.Intent)),
		zap.Int("effects", len(reply.Effects)),
		zap.Duration("duration", time.Since(start)),
	)

	return reply
}

func (r *Router) dispatch(t *turn) Reply {
	loadCtx, cancel := context.WithTimeout(t.ctx, r.timeout)
	data, err := LoadSnapshot(loadCtx, t.gateway)
	cancel()
	if err != nil {
		r.gatewayFailure(t.ctx, "load_snapshot", err)
		return Reply{Text: replyUnavailable, Intent: IntentUnavailable}
	}
	t.data = data

	for _, rl := range r.rules {
		if rl.match(t) {
			text := rl.handle(r, t)
			return Reply{Text: text, Intent: rl.intent, Effects: t.effects}
		}
	}

	// The fallback rule always matches.
	return Reply{Text: r.fallback(t), Intent: IntentFallback}
}

// call returns a context bounded by the gateway timeout.
func (r *Router) call(t *turn) (context.Context, context.CancelFunc) {
	return context.WithTimeout(t.ctx, r.timeout)
}

func (r *Router) gatewayFailure(ctx context.Context, op string, err error) {
	metrics.GatewayFailuresTotal.WithLabelValues(op).Inc()
	r.logger.Warn("gateway call failed", zap.String("operation", op), zap.Error(err))
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
}
