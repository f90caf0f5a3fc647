package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// ErrInvalidMeetingTimes is returned when a meeting would not end after it starts.
var ErrInvalidMeetingTimes = errors.New("meeting must end after it starts")

const meetingColumns = `id, title, description, start_time, end_time, location, attendees, status`

// ListMeetings returns the user's meetings ordered by start time.
func (u *UserStore) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	rows, err := u.store.db.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE user_id = ? ORDER BY start_time ASC`, u.userID)
	if err != nil {
		return nil, fmt.Errorf("query meetings: %w", err)
	}
	defer rows.Close()

	meetings := []model.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// GetMeeting returns one meeting.
func (u *UserStore) GetMeeting(ctx context.Context, id string) (*model.Meeting, error) {
	row := u.store.db.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE user_id = ? AND id = ?`, u.userID, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMeeting inserts a scheduled meeting.
func (u *UserStore) CreateMeeting(ctx context.Context, nm model.NewMeeting) (*model.Meeting, error) {
	if nm.Title == "" {
		return nil, errors.New("meeting title is required")
	}
	if !nm.EndTime.After(nm.StartTime) {
		return nil, ErrInvalidMeetingTimes
	}

	m := model.Meeting{
		ID:          newID(),
		Title:       nm.Title,
		Description: nm.Description,
		StartTime:   nm.StartTime,
		EndTime:     nm.EndTime,
		Location:    nm.Location,
		Attendees:   nm.Attendees,
		Status:      model.MeetingScheduled,
	}
	if m.Attendees == nil {
		m.Attendees = []string{}
	}
	attendees, err := json.Marshal(m.Attendees)
	if err != nil {
		return nil, err
	}

	_, err = u.store.db.ExecContext(ctx,
		`INSERT INTO meetings (id, user_id, title, description, start_time, end_time, location, attendees, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, u.userID, m.Title, m.Description, formatTime(m.StartTime), formatTime(m.EndTime),
		m.Location, string(attendees), string(m.Status), formatTime(u.store.now()))
	if err != nil {
		return nil, fmt.Errorf("insert meeting: %w", err)
	}
	return &m, nil
}

// UpdateMeeting applies the non-nil fields of upd.
func (u *UserStore) UpdateMeeting(ctx context.Context, id string, upd model.MeetingUpdate) (*model.Meeting, error) {
	m, err := u.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		m.Title = *upd.Title
	}
	if upd.StartTime != nil {
		m.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		m.EndTime = *upd.EndTime
	}
	if upd.Status != nil {
		m.Status = *upd.Status
	}
	if !m.EndTime.After(m.StartTime) {
		return nil, ErrInvalidMeetingTimes
	}

	_, err = u.store.db.ExecContext(ctx,
		`UPDATE meetings SET title = ?, start_time = ?, end_time = ?, status = ?
		 WHERE user_id = ? AND id = ?`,
		m.Title, formatTime(m.StartTime), formatTime(m.EndTime), string(m.Status), u.userID, id)
	if err != nil {
		return nil, fmt.Errorf("update meeting: %w", err)
	}
	return m, nil
}

func scanMeeting(row scanner) (model.Meeting, error) {
	var (
		m                model.Meeting
		start, end       string
		attendees, state string
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &start, &end, &m.Location, &attendees, &state); err != nil {
		return m, err
	}

	var err error
	if m.StartTime, err = parseTime(start); err != nil {
		return m, fmt.Errorf("parse start_time: %w", err)
	}
	if m.EndTime, err = parseTime(end); err != nil {
		return m, fmt.Errorf("parse end_time: %w", err)
	}
	if err := json.Unmarshal([]byte(attendees), &m.Attendees); err != nil {
		return m, fmt.Errorf("parse attendees: %w", err)
	}
	m.Status = model.MeetingStatus(state)
	return m, nil
}
