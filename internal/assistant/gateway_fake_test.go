package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

var errGatewayDown = errors.New("gateway down")

// fakeGateway is an in-memory Gateway that counts mutations.
type fakeGateway struct {
	mu       sync.Mutex
	tasks    []model.Task
	meetings []model.Meeting
	messages []model.Message
	calls    []model.Call

	failList   bool
	failMutate bool

	created       []model.NewTask
	deleted       []string
	newMeetings   []model.NewMeeting
	meetingUpdate map[string]model.MeetingUpdate
	nextID        int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{meetingUpdate: map[string]model.MeetingUpdate{}}
}

func (g *fakeGateway) id() string {
	g.nextID++
	return fmt.Sprintf("id-%d", g.nextID)
}

func (g *fakeGateway) ListTasks(ctx context.Context) ([]model.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failList {
		return nil, errGatewayDown
	}
	return append([]model.Task(nil), g.tasks...), nil
}

func (g *fakeGateway) CreateTask(ctx context.Context, t model.NewTask) (*model.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failMutate {
		return nil, errGatewayDown
	}
	g.created = append(g.created, t)
	task := model.Task{ID: g.id(), Title: t.Title, Priority: t.Priority, DueDate: t.DueDate}
	g.tasks = append(g.tasks, task)
	return &task, nil
}

func (g *fakeGateway) UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (*model.Task, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) DeleteTask(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failMutate {
		return errGatewayDown
	}
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *fakeGateway) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failList {
		return nil, errGatewayDown
	}
	return append([]model.Meeting(nil), g.meetings...), nil
}

func (g *fakeGateway) CreateMeeting(ctx context.Context, m model.NewMeeting) (*model.Meeting, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failMutate {
		return nil, errGatewayDown
	}
	g.newMeetings = append(g.newMeetings, m)
	meeting := model.Meeting{ID: g.id(), Title: m.Title, StartTime: m.StartTime, EndTime: m.EndTime, Status: model.MeetingScheduled}
	return &meeting, nil
}

func (g *fakeGateway) UpdateMeeting(ctx context.Context, id string, u model.MeetingUpdate) (*model.Meeting, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failMutate {
		return nil, errGatewayDown
	}
	g.meetingUpdate[id] = u
	return &model.Meeting{ID: id}, nil
}

func (g *fakeGateway) ListMessages(ctx context.Context) ([]model.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Message(nil), g.messages...), nil
}

func (g *fakeGateway) ListCalls(ctx context.Context) ([]model.Call, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Call(nil), g.calls...), nil
}

type fakeFactory struct {
	gateways map[string]*fakeGateway
}

func (f *fakeFactory) ForUser(userID string) Gateway {
	if g, ok := f.gateways[userID]; ok {
		return g
	}
	g := newFakeGateway()
	f.gateways[userID] = g
	return g
}
