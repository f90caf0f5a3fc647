package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/llm"
	"github.com/capitalize-ai/voice-assistant/internal/middleware"
	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/internal/store"
	"github.com/capitalize-ai/voice-assistant/internal/summarizer"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
)

var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestConversations(s *store.SQLiteStore) *assistant.Conversations {
	router := assistant.NewRouter(logger.NewNop(), assistant.WithClock(func() time.Time { return testNow }))
	return assistant.NewConversations(router, s, nil)
}

// asUser stands in for the auth middleware.
func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assistantRouter(h *AssistantHandler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(asUser(userID))
	r.Post("/assistant/utterances", h.Utterance)
	r.Get("/assistant/context", h.Context)
	r.Delete("/assistant/context", h.ClearContext)
	r.Get("/assistant/activity", h.Activity)
	return r
}

func TestUtteranceRoutesAndRemembers(t *testing.T) {
	s := newTestStore(t)
	h := assistantRouter(NewAssistantHandler(newTestConversations(s), nil, logger.NewNop()), "alice")

	rec := doJSON(t, h, http.MethodPost, "/assistant/utterances", model.UtteranceRequest{Text: "add task buy milk"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.UtteranceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "create_task", resp.Intent)
	assert.Equal(t, 1, resp.HistorySize)
	require.Len(t, resp.Effects, 1)
	assert.Equal(t, assistant.EffectTaskCreated, resp.Effects[0].Kind)

	tasks, err := s.User("alice").ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, resp.Effects[0].EntityID, tasks[0].ID)

	rec = doJSON(t, h, http.MethodGet, "/assistant/context", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ctxResp model.ContextResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ctxResp))
	require.Len(t, ctxResp.Entries, 1)
	assert.Equal(t, "add task buy milk", ctxResp.Entries[0].UserInput)

	rec = doJSON(t, h, http.MethodDelete, "/assistant/context", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/assistant/context", nil)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ctxResp))
	assert.Empty(t, ctxResp.Entries)
}

func TestUtteranceIsolatesUsers(t *testing.T) {
	s := newTestStore(t)
	convs := newTestConversations(s)
	alice := assistantRouter(NewAssistantHandler(convs, nil, logger.NewNop()), "alice")
	bob := assistantRouter(NewAssistantHandler(convs, nil, logger.NewNop()), "bob")

	doJSON(t, alice, http.MethodPost, "/assistant/utterances", model.UtteranceRequest{Text: "add task secret plan"})

	rec := doJSON(t, bob, http.MethodPost, "/assistant/utterances", model.UtteranceRequest{Text: "how many tasks"})
	var resp model.UtteranceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "You have 0 pending tasks.", resp.Reply)
	assert.Equal(t, 1, resp.HistorySize)
}

func TestUtteranceRejectsBadInput(t *testing.T) {
	h := assistantRouter(NewAssistantHandler(newTestConversations(newTestStore(t)), nil, logger.NewNop()), "alice")

	rec := doJSON(t, h, http.MethodPost, "/assistant/utterances", model.UtteranceRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/assistant/utterances", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeActivity struct {
	userID string
	since  time.Time
	limit  int
	err    error
}

func (f *fakeActivity) Since(ctx context.Context, userID string, since time.Time, limit int) ([]model.ActivityEvent, error) {
	f.userID, f.since, f.limit = userID, since, limit
	if f.err != nil {
		return nil, f.err
	}
	return []model.ActivityEvent{{ID: "e1", UserID: userID, Type: model.EventTypeTurn}}, nil
}

func TestActivity(t *testing.T) {
	convs := newTestConversations(newTestStore(t))

	disabled := assistantRouter(NewAssistantHandler(convs, nil, logger.NewNop()), "alice")
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, disabled, http.MethodGet, "/assistant/activity", nil).Code)

	fa := &fakeActivity{}
	h := assistantRouter(NewAssistantHandler(convs, fa, logger.NewNop()), "alice")

	rec := doJSON(t, h, http.MethodGet, "/assistant/activity?since=2024-01-01T09:00:00Z&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.ActivityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "alice", fa.userID)
	assert.Equal(t, 5, fa.limit)
	assert.True(t, fa.since.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/assistant/activity?since=yesterday", nil).Code)

	fa.err = errors.New("stream gone")
	assert.Equal(t, http.StatusInternalServerError, doJSON(t, h, http.MethodGet, "/assistant/activity", nil).Code)
}

type stubLLM struct {
	content string
	err     error
}

func (s *stubLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func (s *stubLLM) Name() string { return "stub" }

type recordingPublisher struct {
	userID    string
	meetingID string
	calls     int
}

func (p *recordingPublisher) PublishSummary(ctx context.Context, userID, meetingID string, pm *model.ProcessedMeeting) {
	p.userID, p.meetingID = userID, meetingID
	p.calls++
}

const summaryJSON = `{"summary":"Agreed to ship.","actionItems":[{"task":"Write release notes","assignee":"Bo","dueDate":"2024-01-03","priority":"high"}],"participants":["Al","Bo"],"keyDecisions":["Ship Friday"],"topics":["release"]}`

func summaryRouter(h *SummaryHandler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(asUser(userID))
	r.Post("/summaries", h.Summarize)
	return r
}

func TestSummarizeCreatesTasksAndPersists(t *testing.T) {
	s := newTestStore(t)
	sum := summarizer.New(&stubLLM{content: summaryJSON}, s, logger.NewNop(),
		summarizer.WithClock(func() time.Time { return testNow }))
	pub := &recordingPublisher{}
	h := summaryRouter(NewSummaryHandler(sum, s, pub, logger.NewNop()), "alice")

	meetingID := "0190a4f6-3c5e-7b1a-8a3e-2f1d9c6b5a4e"
	rec := doJSON(t, h, http.MethodPost, "/summaries", model.SummarizeRequest{
		Transcript:  "Al: ship Friday. Bo: I'll write the notes.",
		MeetingID:   meetingID,
		CreateTasks: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SummarizeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Agreed to ship.", resp.Summary)
	require.Len(t, resp.CreatedTasks, 1)
	assert.Equal(t, "Write release notes", resp.CreatedTasks[0].Title)
	assert.Equal(t, model.PriorityHigh, resp.CreatedTasks[0].Priority)

	record, err := s.GetMeetingRecord(context.Background(), "alice", meetingID)
	require.NoError(t, err)
	assert.Equal(t, "Agreed to ship.", record.Processed.Summary)

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, "alice", pub.userID)
	assert.Equal(t, meetingID, pub.meetingID)
}

func TestSummarizeAnonymous(t *testing.T) {
	s := newTestStore(t)
	sum := summarizer.New(&stubLLM{content: "not json at all"}, s, logger.NewNop())
	pub := &recordingPublisher{}
	h := summaryRouter(NewSummaryHandler(sum, s, pub, logger.NewNop()), "")

	rec := doJSON(t, h, http.MethodPost, "/summaries", model.SummarizeRequest{Transcript: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SummarizeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, summarizer.FallbackSummary, resp.Summary)
	assert.Empty(t, resp.ActionItems)
	assert.Zero(t, pub.calls)

	rec = doJSON(t, h, http.MethodPost, "/summaries", model.SummarizeRequest{Transcript: "hello", CreateTasks: true})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSummarizeErrors(t *testing.T) {
	s := newTestStore(t)

	unconfigured := summaryRouter(NewSummaryHandler(nil, s, nil, logger.NewNop()), "alice")
	assert.Equal(t, http.StatusServiceUnavailable,
		doJSON(t, unconfigured, http.MethodPost, "/summaries", model.SummarizeRequest{Transcript: "hi"}).Code)

	failing := summarizer.New(&stubLLM{err: errors.New("upstream down")}, s, logger.NewNop())
	h := summaryRouter(NewSummaryHandler(failing, s, nil, logger.NewNop()), "alice")

	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, h, http.MethodPost, "/summaries", model.SummarizeRequest{Transcript: ""}).Code)
	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, h, http.MethodPost, "/summaries", model.SummarizeRequest{Transcript: "hi", MeetingID: "nope"}).Code)
	assert.Equal(t, http.StatusBadGateway,
		doJSON(t, h, http.MethodPost, "/summaries", model.SummarizeRequest{Transcript: "hi"}).Code)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeConn bool

func (c fakeConn) IsConnected() bool { return bool(c) }

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		events Connectivity
		want   int
	}{
		{"database only", fakePinger{}, nil, http.StatusOK},
		{"database down", fakePinger{err: errors.New("closed")}, nil, http.StatusServiceUnavailable},
		{"nats up", fakePinger{}, fakeConn(true), http.StatusOK},
		{"nats down", fakePinger{}, fakeConn(false), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.events, logger.NewNop())
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
