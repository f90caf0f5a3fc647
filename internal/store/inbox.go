package store

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// ListMessages returns the user's messages, newest first.
func (u *UserStore) ListMessages(ctx context.Context) ([]model.Message, error) {
	rows, err := u.store.db.QueryContext(ctx,
		`SELECT id, sender, content, read, received_at FROM messages
		 WHERE user_id = ? ORDER BY received_at DESC`, u.userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var (
			m        model.Message
			received string
		)
		if err := rows.Scan(&m.ID, &m.Sender, &m.Content, &m.Read, &received); err != nil {
			return nil, err
		}
		if m.ReceivedAt, err = parseTime(received); err != nil {
			return nil, fmt.Errorf("parse received_at: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// RecordMessage stores an incoming message. An empty ID is assigned.
func (u *UserStore) RecordMessage(ctx context.Context, m model.Message) (*model.Message, error) {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = u.store.now()
	}

	_, err := u.store.db.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, sender, content, read, received_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, u.userID, m.Sender, m.Content, m.Read, formatTime(m.ReceivedAt))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

// ListCalls returns the user's call log, newest first.
func (u *UserStore) ListCalls(ctx context.Context) ([]model.Call, error) {
	rows, err := u.store.db.QueryContext(ctx,
		`SELECT id, contact, number, missed, duration_seconds, called_at FROM calls
		 WHERE user_id = ? ORDER BY called_at DESC`, u.userID)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []model.Call{}
	for rows.Next() {
		var (
			c      model.Call
			called string
		)
		if err := rows.Scan(&c.ID, &c.Contact, &c.Number, &c.Missed, &c.Duration, &called); err != nil {
			return nil, err
		}
		if c.CalledAt, err = parseTime(called); err != nil {
			return nil, fmt.Errorf("parse called_at: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// RecordCall stores a call log entry. An empty ID is assigned.
func (u *UserStore) RecordCall(ctx context.Context, c model.Call) (*model.Call, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CalledAt.IsZero() {
		c.CalledAt = u.store.now()
	}

	_, err := u.store.db.ExecContext(ctx,
		`INSERT INTO calls (id, user_id, contact, number, missed, duration_seconds, called_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, u.userID, c.Contact, c.Number, c.Missed, c.Duration, formatTime(c.CalledAt))
	if err != nil {
		return nil, fmt.Errorf("insert call: %w", err)
	}
	return &c, nil
}
