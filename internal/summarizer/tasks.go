package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// CreateTasks turns each action item into a task through gw. Items are
// attempted independently; every failure is reported in the joined error.
func (s *Summarizer) CreateTasks(ctx context.Context, gw TaskCreator, pm *model.ProcessedMeeting) ([]model.Task, error) {
	now := s.now()
	created := make([]model.Task, 0, len(pm.ActionItems))
	var errs []error

	for _, item := range pm.ActionItems {
		if item.Task == "" {
			continue
		}

		nt := model.NewTask{
			Title:       item.Task,
			Description: "Action item from meeting",
			Priority:    model.ParsePriority(string(item.Priority)),
			DueDate:     parseDueDate(item.DueDate, now),
		}
		if item.Assignee != "" {
			nt.Description += fmt.Sprintf(", assigned to %s", item.Assignee)
		}

		task, err := gw.CreateTask(ctx, nt)
		if err != nil {
			errs = append(errs, fmt.Errorf("create task %q: %w", item.Task, err))
			continue
		}
		created = append(created, *task)
	}

	return created, errors.Join(errs...)
}

// parseDueDate accepts an ISO date or a spoken expression like "tomorrow".
func parseDueDate(s string, now time.Time) *time.Time {
	if s == "" {
		return nil
	}
	if d, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return &d
	}
	if d, ok := assistant.Resolve(s, now); ok {
		return &d
	}
	return nil
}
