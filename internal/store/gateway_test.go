package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
)

func TestRouterAgainstStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	router := assistant.NewRouter(logger.NewNop(), assistant.WithClock(func() time.Time { return now }))
	conv := assistant.NewConversation("alice", router, s.ForUser("alice"), nil)

	reply := conv.Handle(ctx, "schedule meeting budget review at 2pm")
	require.Equal(t, assistant.IntentCreateMeeting, reply.Intent)

	reply = conv.Handle(ctx, "add task prepare budget slides high priority")
	require.Equal(t, assistant.IntentCreateTask, reply.Intent)

	reply = conv.Handle(ctx, "how many meetings")
	assert.Equal(t, "You have 1 meeting today.", reply.Text)

	reply = conv.Handle(ctx, "cancel meeting budget")
	assert.Equal(t, assistant.IntentCancelMeeting, reply.Intent)
	require.Len(t, reply.Effects, 1)

	meeting, err := s.User("alice").GetMeeting(ctx, reply.Effects[0].EntityID)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingCancelled, meeting.Status)

	reply = conv.Handle(ctx, "complete task slides")
	assert.Equal(t, assistant.IntentRemoveTask, reply.Intent)

	tasks, err := s.User("alice").ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
