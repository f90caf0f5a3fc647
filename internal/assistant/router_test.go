package assistant

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
)

var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestRouter() *Router {
	return NewRouter(logger.NewNop(), WithClock(func() time.Time { return testNow }))
}

func route(r *Router, gw Gateway, history *ContextStore, utterance string) Reply {
	return r.Route(context.Background(), utterance, history, gw)
}

func TestRouteCreateTask(t *testing.T) {
	gw := newFakeGateway()
	history := NewContextStore(DefaultContextCapacity)

	reply := route(newTestRouter(), gw, history, "Add task call the dentist tomorrow high priority")

	require.Len(t, gw.created, 1)
	assert.Equal(t, "call the dentist", gw.created[0].Title)
	assert.Equal(t, model.PriorityHigh, gw.created[0].Priority)
	assert.Equal(t, IntentCreateTask, reply.Intent)
	assert.Contains(t, reply.Text, `"call the dentist"`)
	assert.Contains(t, reply.Text, "high priority")
	assert.Contains(t, reply.Text, "due Jan 2")
	require.Len(t, reply.Effects, 1)
	assert.Equal(t, EffectTaskCreated, reply.Effects[0].Kind)
	assert.Equal(t, 1, history.Len())
}

func TestRouteCreateTaskDueToday(t *testing.T) {
	gw := newFakeGateway()

	reply := route(newTestRouter(), gw, NewContextStore(5), "new task file expenses today")

	assert.Contains(t, reply.Text, "due today")
}

func TestRouteCreateTaskEmptyTitleAsksAgain(t *testing.T) {
	gw := newFakeGateway()

	reply := route(newTestRouter(), gw, NewContextStore(5), "add task tomorrow")

	assert.Empty(t, gw.created)
	assert.Equal(t, IntentCreateTask, reply.Intent)
	assert.Contains(t, reply.Text, "What should the task be")
}

func TestRouteCreateTaskGatewayFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.failMutate = true

	reply := route(newTestRouter(), gw, NewContextStore(5), "add task buy milk")

	assert.Equal(t, IntentCreateTask, reply.Intent)
	assert.Contains(t, reply.Text, "couldn't create that task")
	assert.Empty(t, reply.Effects)
}

func TestRouteCommandPrecedence(t *testing.T) {
	gw := newFakeGateway()

	reply := route(newTestRouter(), gw, NewContextStore(5), "add task schedule meeting with design")

	assert.Equal(t, IntentCreateTask, reply.Intent)
	assert.Len(t, gw.created, 1)
	assert.Empty(t, gw.newMeetings)
}

func TestRouteRemoveTask(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks = []model.Task{
		{ID: "t1", Title: "Quarterly report", Completed: true},
		{ID: "t2", Title: "Draft quarterly report"},
	}

	reply := route(newTestRouter(), gw, NewContextStore(5), "delete task quarterly report")

	assert.Equal(t, []string{"t2"}, gw.deleted)
	assert.Contains(t, reply.Text, `"Draft quarterly report"`)
	require.Len(t, reply.Effects, 1)
	assert.Equal(t, EffectTaskDeleted, reply.Effects[0].Kind)
}

func TestRouteRemoveTaskWithoutKeywordListsChoices(t *testing.T) {
	gw := newFakeGateway()
	for i := 1; i <= 4; i++ {
		gw.tasks = append(gw.tasks, model.Task{ID: fmt.Sprint(i), Title: fmt.Sprintf("task %d", i)})
	}

	reply := route(newTestRouter(), gw, NewContextStore(5), "remove task")

	assert.Empty(t, gw.deleted)
	assert.Contains(t, reply.Text, "task 1, task 2 and task 3")
	assert.NotContains(t, reply.Text, "task 4")
}

func TestRouteRemoveTaskNoMatch(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks = []model.Task{{ID: "t1", Title: "Buy milk"}}

	reply := route(newTestRouter(), gw, NewContextStore(5), "complete task laundry")

	assert.Empty(t, gw.deleted)
	assert.Contains(t, reply.Text, "more specific")
}

func TestRouteCreateMeeting(t *testing.T) {
	gw := newFakeGateway()

	reply := route(newTestRouter(), gw, NewContextStore(5), "schedule meeting roadmap sync at 3pm")

	require.Len(t, gw.newMeetings, 1)
	m := gw.newMeetings[0]
	assert.Equal(t, "roadmap sync", m.Title)
	assert.Equal(t, time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), m.StartTime)
	assert.Equal(t, m.StartTime.Add(time.Hour), m.EndTime)
	assert.Equal(t, `I've scheduled "roadmap sync" for today at 3:00 PM.`, reply.Text)
}

func TestRouteCancelMeetingWithoutMatchAsksForMore(t *testing.T) {
	gw := newFakeGateway()
	gw.meetings = []model.Meeting{
		{ID: "m1", Title: "Team Standup", StartTime: testNow.Add(2 * time.Hour)},
		{ID: "m2", Title: "Team Retro", StartTime: testNow.Add(26 * time.Hour)},
	}

	reply := route(newTestRouter(), gw, NewContextStore(5), "Cancel meeting with team")

	assert.Equal(t, IntentCancelMeeting, reply.Intent)
	assert.Contains(t, reply.Text, "more specific")
	assert.Empty(t, gw.meetingUpdate)
}

func TestRouteCancelMeetingOnlyMatchesFutureMeetings(t *testing.T) {
	gw := newFakeGateway()
	gw.meetings = []model.Meeting{
		{ID: "past", Title: "Standup", StartTime: testNow.Add(-time.Hour)},
		{ID: "future", Title: "Standup", StartTime: testNow.Add(23 * time.Hour)},
	}

	reply := route(newTestRouter(), gw, NewContextStore(5), "cancel meeting standup")

	require.Contains(t, gw.meetingUpdate, "future")
	assert.NotContains(t, gw.meetingUpdate, "past")
	require.NotNil(t, gw.meetingUpdate["future"].Status)
	assert.Equal(t, model.MeetingCancelled, *gw.meetingUpdate["future"].Status)
	assert.Contains(t, reply.Text, "Jan 2 at 9:00 AM")
}

func TestRouteCancelMeetingWithoutKeywordListsToday(t *testing.T) {
	gw := newFakeGateway()
	gw.meetings = []model.Meeting{
		{ID: "m1", Title: "Standup", StartTime: testNow.Add(time.Hour)},
		{ID: "m2", Title: "Planning", StartTime: testNow.Add(30 * time.Hour)},
	}

	reply := route(newTestRouter(), gw, NewContextStore(5), "cancel meeting")

	assert.Contains(t, reply.Text, "Standup at 11:00 AM")
	assert.NotContains(t, reply.Text, "Planning")
	assert.Empty(t, gw.meetingUpdate)
}

func TestRouteFollowUpNeedsHistory(t *testing.T) {
	gw := newFakeGateway()
	r := newTestRouter()
	history := NewContextStore(5)

	first := route(r, gw, history, "cancel that")
	assert.Equal(t, IntentFallback, first.Intent)

	history.Clear()
	route(r, gw, history, "how many meetings")
	second := route(r, gw, history, "cancel that")
	assert.Equal(t, IntentFollowUp, second.Intent)
	assert.Contains(t, second.Text, "don't have any upcoming meetings")
}

func TestRouteFollowUpInspectsOnlyLatestTurn(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks = []model.Task{
		{ID: "1", Title: "a", Priority: model.PriorityHigh},
		{ID: "2", Title: "b", Priority: model.PriorityLow},
		{ID: "3", Title: "c", Priority: model.PriorityLow},
	}
	r := newTestRouter()
	history := NewContextStore(5)

	route(r, gw, history, "how many meetings")
	route(r, gw, history, "how many tasks")
	reply := route(r, gw, history, "prioritize them")

	assert.Equal(t, IntentFollowUp, reply.Intent)
	assert.Contains(t, reply.Text, "1 high, 0 medium and 2 low priority")
	assert.Contains(t, reply.Text, "start with the high priority")
}

func TestRouteFollowUpGeneric(t *testing.T) {
	gw := newFakeGateway()
	r := newTestRouter()
	history := NewContextStore(5)

	route(r, gw, history, "hello there")
	reply := route(r, gw, history, "do it again")

	assert.Equal(t, IntentFollowUp, reply.Intent)
	assert.Contains(t, reply.Text, `"hello there"`)
}

func TestRouteTaskQueries(t *testing.T) {
	gw := newFakeGateway()
	due := testNow.Add(3 * time.Hour)
	for i := 1; i <= 7; i++ {
		gw.tasks = append(gw.tasks, model.Task{ID: fmt.Sprint(i), Title: fmt.Sprintf("t%d", i), Priority: model.PriorityMedium})
	}
	gw.tasks[0].DueDate = &due
	gw.tasks = append(gw.tasks, model.Task{ID: "done", Title: "finished", Completed: true})
	r := newTestRouter()

	count := route(r, gw, NewContextStore(5), "how many tasks do I have")
	assert.Equal(t, IntentQueryTasks, count.Intent)
	assert.Equal(t, "You have 7 pending tasks.", count.Text)

	again := route(r, gw, NewContextStore(5), "how many tasks do I have")
	assert.Equal(t, count.Text, again.Text)

	today := route(r, gw, NewContextStore(5), "how many tasks today")
	assert.Equal(t, "You have 1 pending task due today.", today.Text)

	detail := route(r, gw, NewContextStore(5), "show tasks")
	assert.Contains(t, detail.Text, "t5 (medium priority)")
	assert.NotContains(t, detail.Text, "t6")
	assert.Contains(t, detail.Text, "+2 more")

	summary := route(r, gw, NewContextStore(5), "tasks please")
	assert.Contains(t, summary.Text, `Say "show tasks"`)
}

func TestRouteMeetingQueriesAreTodayScoped(t *testing.T) {
	gw := newFakeGateway()
	gw.meetings = []model.Meeting{
		{ID: "1", Title: "Standup", StartTime: testNow.Add(-time.Hour)},
		{ID: "2", Title: "Review", StartTime: testNow.Add(4 * time.Hour)},
		{ID: "3", Title: "Offsite", StartTime: testNow.Add(48 * time.Hour)},
	}
	r := newTestRouter()

	count := route(r, gw, NewContextStore(5), "how many meetings")
	assert.Equal(t, "You have 2 meetings today.", count.Text)

	detail := route(r, gw, NewContextStore(5), "list meetings")
	assert.Equal(t, "Today's meetings: Standup at 9:00 AM; Review at 2:00 PM.", detail.Text)
}

func TestRouteMessageAndCallQueries(t *testing.T) {
	gw := newFakeGateway()
	for i := 1; i <= 4; i++ {
		gw.messages = append(gw.messages, model.Message{ID: fmt.Sprint(i), Sender: fmt.Sprintf("s%d", i), Content: "hi"})
	}
	gw.messages = append(gw.messages, model.Message{ID: "read", Sender: "old", Read: true})
	gw.calls = []model.Call{
		{ID: "c1", Contact: "Ana", Missed: true, CalledAt: testNow.Add(-time.Hour)},
		{ID: "c2", Contact: "Ben", Missed: false, CalledAt: testNow.Add(-time.Hour)},
	}
	r := newTestRouter()

	msgs := route(r, gw, NewContextStore(5), "show messages")
	assert.Equal(t, IntentQueryMessages, msgs.Intent)
	assert.Contains(t, msgs.Text, "from s3: hi")
	assert.Contains(t, msgs.Text, "+1 more")
	assert.NotContains(t, msgs.Text, "old")

	calls := route(r, gw, NewContextStore(5), "how many calls")
	assert.Equal(t, IntentQueryCalls, calls.Intent)
	assert.Equal(t, "You have 1 missed call.", calls.Text)
}

func TestRouteHelpAndFallback(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks = []model.Task{{ID: "1", Title: "a"}}
	r := newTestRouter()
	history := NewContextStore(5)

	help := route(r, gw, history, "help")
	assert.Equal(t, IntentHelp, help.Intent)
	assert.Contains(t, help.Text, "1 pending task, 0 meetings today, 0 unread messages and 0 missed calls")

	history.Clear()
	fallback := route(r, gw, history, "what's the weather")
	assert.Equal(t, IntentFallback, fallback.Intent)
	assert.Contains(t, fallback.Text, `I heard "what's the weather"`)

	history.Clear()
	route(r, gw, history, "how many tasks")
	followed := route(r, gw, history, "what's the weather")
	assert.Contains(t, followed.Text, "Still on tasks?")
}

func TestRouteSnapshotFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.failList = true
	history := NewContextStore(5)

	reply := route(newTestRouter(), gw, history, "add task buy milk")

	assert.Equal(t, IntentUnavailable, reply.Intent)
	assert.Empty(t, gw.created)
	assert.Equal(t, 1, history.Len())
}

func TestRouteRecordsEveryTurn(t *testing.T) {
	gw := newFakeGateway()
	r := newTestRouter()
	history := NewContextStore(DefaultContextCapacity)

	for i := 0; i < 6; i++ {
		route(r, gw, history, fmt.Sprintf("help %d", i))
	}

	entries := history.Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, "help 1", entries[0].UserInput)
	assert.Equal(t, testNow, entries[4].Timestamp)
}
