package model

import (
	"time"
)

// EventType represents the type of assistant activity event.
type EventType string

const (
	EventTypeTurn    EventType = "turn"
	EventTypeSummary EventType = "summary"
)

// ActivityEvent is published to the event stream after assistant activity.
type ActivityEvent struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      EventType      `json:"type"`
	Intent    string         `json:"intent,omitempty"`
	Utterance string         `json:"utterance,omitempty"`
	Reply     string         `json:"reply,omitempty"`
	MeetingID string         `json:"meeting_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActivityResponse lists activity events for the caller.
type ActivityResponse struct {
	Events []ActivityEvent `json:"events"`
}
