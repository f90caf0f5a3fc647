package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

func TestExtractTaskDetails(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	d := ExtractTaskDetails("Add task call the dentist tomorrow high priority", now)

	assert.Equal(t, "call the dentist", d.Title)
	assert.Equal(t, model.PriorityHigh, d.Priority)
	require.NotNil(t, d.DueDate)
	want, _ := Resolve("tomorrow", now)
	assert.True(t, want.Equal(*d.DueDate))
}

func TestExtractTaskDetailsPriority(t *testing.T) {
	now := time.Now()

	tests := []struct {
		raw   string
		title string
		want  model.Priority
	}{
		{"new task fix the build URGENT", "fix the build", model.PriorityHigh},
		{"create task water plants low priority", "water plants", model.PriorityLow},
		{"add task Email Bob", "Email Bob", model.PriorityMedium},
		{"add task review deck medium priority", "review deck", model.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d := ExtractTaskDetails(tt.raw, now)
			assert.Equal(t, tt.title, d.Title)
			assert.Equal(t, tt.want, d.Priority)
			assert.Nil(t, d.DueDate)
		})
	}
}

func TestExtractTaskDetailsEmptyTitle(t *testing.T) {
	d := ExtractTaskDetails("add task tomorrow at 3pm", time.Now())
	assert.Empty(t, d.Title)
}

func TestExtractMeetingDetails(t *testing.T) {
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	d := ExtractMeetingDetails("Schedule meeting Design Review at 3pm", now)

	assert.Equal(t, "Design Review", d.Title)
	assert.Equal(t, time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), d.StartTime)
	assert.Equal(t, d.StartTime.Add(time.Hour), d.EndTime)
}

func TestExtractMeetingDetailsDefaultsToAnHourFromNow(t *testing.T) {
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	d := ExtractMeetingDetails("new meeting with legal", now)

	assert.Equal(t, "with legal", d.Title)
	assert.Equal(t, now.Add(time.Hour), d.StartTime)
	assert.Equal(t, now.Add(2*time.Hour), d.EndTime)
}

func TestNormalize(t *testing.T) {
	n := Normalize("  Show My TASKS ")
	assert.Equal(t, "show my tasks", n.Lower)
	assert.Equal(t, "  Show My TASKS ", n.Raw)
}
