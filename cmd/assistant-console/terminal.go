package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/capitalize-ai/voice-assistant/internal/speech"
)

// terminal plays the microphone and speaker for a console session. Typed
// lines are final recognition results; replies are printed.
type terminal struct {
	out io.Writer

	mu        sync.Mutex
	listening bool
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) print(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// termMic is the terminal's recognizer.
type termMic struct{ *terminal }

func (m termMic) Start(ctx context.Context) error {
	m.mu.Lock()
	m.listening = true
	m.mu.Unlock()
	m.print("you> ")
	return nil
}

func (m termMic) Stop() error {
	m.mu.Lock()
	m.listening = false
	m.mu.Unlock()
	return nil
}

// termSpeaker is the terminal's synthesizer.
type termSpeaker struct{ *terminal }

func (s termSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.print("assistant> %s\n", text)
	return nil
}

func (s termSpeaker) Stop() {}

func (t *terminal) StateChanged(speech.State) {}

func (t *terminal) Interim(string) {}

func (t *terminal) Turn(string, string) {}

func (t *terminal) Notice(message string) {
	t.print("\n[%s]\n", message)
}

// Listening reports whether a typed line would be accepted.
func (t *terminal) Listening() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listening
}
