// Package model defines data structures shared by the assistant.
package model

import (
	"time"
)

// Priority is a task or action item priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps free text onto a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	case "urgent", "critical":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Task is a to-do item owned by a user.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewTask holds the fields needed to create a task.
type NewTask struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     *time.Time
}

// TaskUpdate holds optional task fields to change.
type TaskUpdate struct {
	Title     *string
	Priority  *Priority
	DueDate   *time.Time
	Completed *bool
}
