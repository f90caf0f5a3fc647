package model

import (
	"time"
)

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingCompleted MeetingStatus = "completed"
	MeetingCancelled MeetingStatus = "cancelled"
)

// Meeting is a calendar entry. EndTime is always after StartTime.
type Meeting struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Location    string        `json:"location,omitempty"`
	Attendees   []string      `json:"attendees"`
	Status      MeetingStatus `json:"status"`
}

// NewMeeting holds the fields needed to create a meeting.
type NewMeeting struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	Attendees   []string
}

// MeetingUpdate holds optional meeting fields to change.
type MeetingUpdate struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *MeetingStatus
}
