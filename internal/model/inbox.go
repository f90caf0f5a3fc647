package model

import (
	"time"
)

// Message is an inbox message. Read-only for the assistant.
type Message struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	ReceivedAt time.Time `json:"received_at"`
}

// Call is a phone call log entry. Read-only for the assistant.
type Call struct {
	ID       string    `json:"id"`
	Contact  string    `json:"contact"`
	Number   string    `json:"number,omitempty"`
	Missed   bool      `json:"missed"`
	Duration int       `json:"duration_seconds"`
	CalledAt time.Time `json:"called_at"`
}
