package model

import (
	"time"
)

// ConversationEntry is one routed turn. Immutable once created.
type ConversationEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	UserInput  string    `json:"user_input"`
	AIResponse string    `json:"ai_response"`
}

// UtteranceRequest is the request to route a typed or transcribed utterance.
type UtteranceRequest struct {
	Text string `json:"text"`
}

// Effect describes a side effect performed while routing a turn.
type Effect struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
}

// UtteranceResponse is the reply to a routed utterance.
type UtteranceResponse struct {
	Reply       string   `json:"reply"`
	Intent      string   `json:"intent"`
	Effects     []Effect `json:"effects,omitempty"`
	HistorySize int      `json:"history_size"`
}

// ContextResponse lists the retained conversation entries.
type ContextResponse struct {
	Entries []ConversationEntry `json:"entries"`
}
