// Package assistant interprets spoken or typed utterances into task and
// meeting actions, keeping a short conversational memory per user.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// Gateway is the capability set the router uses to read and change a
// user's data. Implemented by the storage layer.
type Gateway interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.NewTask) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListMeetings(ctx context.Context) ([]model.Meeting, error)
	CreateMeeting(ctx context.Context, m model.NewMeeting) (*model.Meeting, error)
	UpdateMeeting(ctx context.Context, id string, u model.MeetingUpdate) (*model.Meeting, error)

	ListMessages(ctx context.Context) ([]model.Message, error)
	ListCalls(ctx context.Context) ([]model.Call, error)
}

// GatewayFactory hands out a Gateway scoped to one user.
type GatewayFactory interface {
	ForUser(userID string) Gateway
}

// Snapshot is the user's data as read at the start of a turn.
type Snapshot struct {
	Tasks    []model.Task
	Meetings []model.Meeting
	Messages []model.Message
	Calls    []model.Call
}

// LoadSnapshot reads all four collections through the gateway.
func LoadSnapshot(ctx context.Context, gw Gateway) (Snapshot, error) {
	var (
		snap Snapshot
		errs []error
		err  error
	)

	if snap.Tasks, err = gw.ListTasks(ctx); err != nil {
		errs = append(errs, fmt.Errorf("list tasks: %w", err))
	}
	if snap.Meetings, err = gw.ListMeetings(ctx); err != nil {
		errs = append(errs, fmt.Errorf("list meetings: %w", err))
	}
	if snap.Messages, err = gw.ListMessages(ctx); err != nil {
		errs = append(errs, fmt.Errorf("list messages: %w", err))
	}
	if snap.Calls, err = gw.ListCalls(ctx); err != nil {
		errs = append(errs, fmt.Errorf("list calls: %w", err))
	}

	return snap, errors.Join(errs...)
}

// PendingTasks returns tasks that are not completed.
func (s Snapshot) PendingTasks() []model.Task {
	var out []model.Task
	for _, t := range s.Tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// PendingTasksDueOn returns pending tasks whose due date falls on day's calendar date.
func (s Snapshot) PendingTasksDueOn(day time.Time) []model.Task {
	var out []model.Task
	for _, t := range s.PendingTasks() {
		if t.DueDate != nil && sameDay(*t.DueDate, day) {
			out = append(out, t)
		}
	}
	return out
}

// MeetingsOn returns meetings starting on day's calendar date.
func (s Snapshot) MeetingsOn(day time.Time) []model.Meeting {
	var out []model.Meeting
	for _, m := range s.Meetings {
		if sameDay(m.StartTime, day) {
			out = append(out, m)
		}
	}
	return out
}

// UpcomingMeetings returns meetings starting strictly after now.
func (s Snapshot) UpcomingMeetings(now time.Time) []model.Meeting {
	var out []model.Meeting
	for _, m := range s.Meetings {
		if m.StartTime.After(now) {
			out = append(out, m)
		}
	}
	return out
}

// UnreadMessages returns messages not yet read.
func (s Snapshot) UnreadMessages() []model.Message {
	var out []model.Message
	for _, m := range s.Messages {
		if !m.Read {
			out = append(out, m)
		}
	}
	return out
}

// MissedCalls returns calls that were missed.
func (s Snapshot) MissedCalls() []model.Call {
	var out []model.Call
	for _, c := range s.Calls {
		if c.Missed {
			out = append(out, c)
		}
	}
	return out
}

// sameDay reports whether t falls on ref's calendar date in ref's location.
func sameDay(t, ref time.Time) bool {
	y1, m1, d1 := t.In(ref.Location()).Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
