package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxUtteranceLength  = 1000
	maxTranscriptLength = 200000
)

// ValidateUtterance validates a typed or transcribed utterance.
func ValidateUtterance(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(text) > maxUtteranceLength {
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateTranscript validates a meeting transcript.
func ValidateTranscript(transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return errors.New("transcript cannot be empty")
	}
	if len(transcript) > maxTranscriptLength {
		return errors.New("transcript exceeds maximum length")
	}
	if !utf8.ValidString(transcript) {
		return errors.New("transcript must be valid UTF-8")
	}
	return nil
}

// ValidateMeetingID validates an optional meeting ID.
func ValidateMeetingID(id string) error {
	if id == "" {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid meeting ID format")
	}
	return nil
}
