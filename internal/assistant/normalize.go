package assistant

import (
	"regexp"
	"strings"
	"time"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// Command phrases recognized by the router, in the order they are checked.
var (
	taskCreatePhrases    = []string{"add task", "create task", "new task"}
	taskRemovePhrases    = []string{"remove task", "delete task", "complete task"}
	meetingCreatePhrases = []string{"add meeting", "create meeting", "new meeting", "schedule meeting"}
	meetingCancelPhrases = []string{"remove meeting", "delete meeting", "cancel meeting"}
)

var (
	taskCreateRe    = phraseRe(taskCreatePhrases)
	taskRemoveRe    = phraseRe(taskRemovePhrases)
	meetingCreateRe = phraseRe(meetingCreatePhrases)
	meetingCancelRe = phraseRe(meetingCancelPhrases)
	priorityRe      = phraseRe([]string{"high priority", "medium priority", "low priority", "urgent"})
	dayWordRe       = phraseRe([]string{"today", "tomorrow"})
)

// phraseRe builds a case-insensitive alternation of literal phrases.
func phraseRe(phrases []string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// NormalizedUtterance is an utterance prepared for rule matching.
type NormalizedUtterance struct {
	Raw   string
	Lower string
}

// Normalize lower-cases and trims raw recognized text.
func Normalize(raw string) NormalizedUtterance {
	return NormalizedUtterance{
		Raw:   raw,
		Lower: strings.ToLower(strings.TrimSpace(raw)),
	}
}

// TaskDetails are the fields pulled out of a task-creation utterance.
type TaskDetails struct {
	Title    string
	Priority model.Priority
	DueDate  *time.Time
}

// MeetingDetails are the fields pulled out of a meeting-creation utterance.
type MeetingDetails struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
}

// DefaultMeetingDuration is applied to every meeting created by voice.
const DefaultMeetingDuration = time.Hour

// ExtractTaskDetails pulls title, priority and due date out of raw text.
// An empty Title means the utterance named no task.
func ExtractTaskDetails(raw string, now time.Time) TaskDetails {
	d := TaskDetails{
		Title:    stripTitle(raw, taskCreateRe),
		Priority: extractPriority(raw),
	}
	if due, ok := Resolve(raw, now); ok {
		d.DueDate = &due
	}
	return d
}

// ExtractMeetingDetails pulls title and times out of raw text. Without a
// temporal expression the meeting starts an hour from now.
func ExtractMeetingDetails(raw string, now time.Time) MeetingDetails {
	start, ok := Resolve(raw, now)
	if !ok {
		start = now.Add(time.Hour)
	}
	return MeetingDetails{
		Title:     stripTitle(raw, meetingCreateRe),
		StartTime: start,
		EndTime:   start.Add(DefaultMeetingDuration),
	}
}

func extractPriority(raw string) model.Priority {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "high priority"), strings.Contains(lower, "urgent"):
		return model.PriorityHigh
	case strings.Contains(lower, "low priority"):
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// stripTitle removes command, priority and temporal phrases, keeping the
// user's original casing for what remains.
func stripTitle(raw string, command *regexp.Regexp) string {
	s := command.ReplaceAllString(raw, "")
	s = priorityRe.ReplaceAllString(s, "")
	s = dayWordRe.ReplaceAllString(s, "")
	s = timeOfDayRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// stripKeyword removes command phrases from lower-cased text, leaving the
// search keyword used to find an existing item.
func stripKeyword(lower string, command *regexp.Regexp) string {
	return strings.TrimSpace(command.ReplaceAllString(lower, ""))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
