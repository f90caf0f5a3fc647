package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// SaveMeetingRecord stores a transcript and its summary against a
// meeting, replacing any earlier record.
func (s *SQLiteStore) SaveMeetingRecord(ctx context.Context, userID string, rec model.MeetingRecord) error {
	processed, err := json.Marshal(rec.Processed)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meeting_records (user_id, meeting_id, transcript, processed, saved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, meeting_id) DO UPDATE SET
			transcript = excluded.transcript,
			processed = excluded.processed,
			saved_at = excluded.saved_at`,
		userID, rec.MeetingID, rec.Transcript, string(processed), formatTime(rec.SavedAt))
	if err != nil {
		return fmt.Errorf("save meeting record: %w", err)
	}
	return nil
}

// GetMeetingRecord returns the stored record for a meeting.
func (s *SQLiteStore) GetMeetingRecord(ctx context.Context, userID, meetingID string) (*model.MeetingRecord, error) {
	var (
		rec       model.MeetingRecord
		processed string
		savedAt   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT meeting_id, transcript, processed, saved_at FROM meeting_records
		 WHERE user_id = ? AND meeting_id = ?`, userID, meetingID).
		Scan(&rec.MeetingID, &rec.Transcript, &processed, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(processed), &rec.Processed); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if rec.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, fmt.Errorf("parse saved_at: %w", err)
	}
	return &rec, nil
}
