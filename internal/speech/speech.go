// Package speech runs the hands-free conversation loop: listen for an
// utterance, route it, speak the reply, then listen again.
package speech

import (
	"context"
	"errors"
)

// State is the loop's position in a turn.
type State int

const (
	StateIdle State = iota
	StateListening
	StateRouting
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateRouting:
		return "routing"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Result is one recognition result. Interim results are partial
// transcriptions and never trigger routing.
type Result struct {
	Text  string
	Final bool
}

// ErrorCode classifies a recognition failure.
type ErrorCode string

const (
	ErrNoSpeech          ErrorCode = "no-speech"
	ErrAborted           ErrorCode = "aborted"
	ErrNetwork           ErrorCode = "network"
	ErrNotAllowed        ErrorCode = "not-allowed"
	ErrServiceNotAllowed ErrorCode = "service-not-allowed"
	ErrAudioCapture      ErrorCode = "audio-capture"
)

// Recoverable reports whether listening may resume after the error.
func (c ErrorCode) Recoverable() bool {
	switch c {
	case ErrNotAllowed, ErrServiceNotAllowed, ErrAudioCapture:
		return false
	default:
		return true
	}
}

// Notice is the user-facing explanation for a fatal error.
func (c ErrorCode) Notice() string {
	switch c {
	case ErrNotAllowed, ErrServiceNotAllowed:
		return "Microphone access was denied. Allow microphone access and turn conversation mode back on."
	case ErrAudioCapture:
		return "No microphone was found. Connect a microphone and turn conversation mode back on."
	default:
		return "Speech recognition stopped unexpectedly."
	}
}

// RecognitionError is returned by a Recognizer that cannot start.
type RecognitionError struct {
	Code ErrorCode
	Err  error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// codeOf extracts the error code, treating unknown failures as a capture failure.
func codeOf(err error) ErrorCode {
	var re *RecognitionError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrAudioCapture
}

// Recognizer turns microphone audio into Results delivered to
// Session.HandleResult. Stop releases the microphone.
type Recognizer interface {
	Start(ctx context.Context) error
	Stop() error
}

// Synthesizer speaks text. Speak blocks until playback completes or ctx
// is done. Stop interrupts playback.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// Interpreter produces the reply for a final utterance.
type Interpreter interface {
	Interpret(ctx context.Context, utterance string) string
}

// Observer is told about loop progress. Methods must not block for long.
type Observer interface {
	StateChanged(state State)
	Interim(text string)
	Turn(utterance, reply string)
	Notice(message string)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) StateChanged(State)  {}
func (NopObserver) Interim(string)      {}
func (NopObserver) Turn(string, string) {}
func (NopObserver) Notice(string)       {}
