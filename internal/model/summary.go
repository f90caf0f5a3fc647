package model

import (
	"time"
)

// ActionItem is a follow-up extracted from a meeting transcript.
type ActionItem struct {
	Task     string   `json:"task"`
	Assignee string   `json:"assignee,omitempty"`
	DueDate  string   `json:"dueDate,omitempty"`
	Priority Priority `json:"priority"`
}

// ProcessedMeeting is the structured summary of a transcript.
type ProcessedMeeting struct {
	Summary      string       `json:"summary"`
	ActionItems  []ActionItem `json:"actionItems"`
	Participants []string     `json:"participants"`
	KeyDecisions []string     `json:"keyDecisions"`
	Topics       []string     `json:"topics"`
}

// MeetingRecord is a persisted transcript with its structured summary.
type MeetingRecord struct {
	MeetingID  string           `json:"meeting_id"`
	Transcript string           `json:"transcript"`
	Processed  ProcessedMeeting `json:"processed"`
	SavedAt    time.Time        `json:"saved_at"`
}

// SummarizeRequest is the request to summarize a transcript.
type SummarizeRequest struct {
	Transcript  string `json:"transcript"`
	MeetingID   string `json:"meeting_id,omitempty"`
	CreateTasks bool   `json:"create_tasks,omitempty"`
}

// SummarizeResponse is the summarization result.
type SummarizeResponse struct {
	ProcessedMeeting
	CreatedTasks []Task `json:"created_tasks,omitempty"`
}
