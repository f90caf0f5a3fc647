package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/pkg/logger"
	"github.com/capitalize-ai/voice-assistant/pkg/metrics"
)

// DefaultRestartDelay is how long to wait before listening again after a
// recoverable recognition error.
const DefaultRestartDelay = 300 * time.Millisecond

// Session is one user's conversation mode. At most one utterance is
// routed at a time; results that arrive while a turn is in progress are
// dropped. All methods are safe for concurrent use.
type Session struct {
	recognizer   Recognizer
	synthesizer  Synthesizer
	interpreter  Interpreter
	observer     Observer
	logger       *logger.Logger
	restartDelay time.Duration

	mu         sync.Mutex
	active     bool
	processing bool
	generation uint64
	state      State
	restart    *time.Timer
	ctx        context.Context
	cancel     context.CancelFunc

	inflight sync.WaitGroup
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRestartDelay sets the delay before listening resumes after a
// recoverable error.
func WithRestartDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.restartDelay = d
		}
	}
}

// WithObserver sets the observer notified of loop progress.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.observer = o }
}

// NewSession creates an idle session.
func NewSession(rec Recognizer, syn Synthesizer, interp Interpreter, log *logger.Logger, opts ...SessionOption) *Session {
	s := &Session{
		recognizer:   rec,
		synthesizer:  syn,
		interpreter:  interp,
		observer:     NopObserver{},
		logger:       log,
		restartDelay: DefaultRestartDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enable turns conversation mode on and starts listening. The session
// stays bound to ctx until Disable.
func (s *Session) Enable(ctx context.Context) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.processing = false
	s.generation++
	gen := s.generation
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Debug("conversation mode enabled")
	s.listen(gen)
}

// Disable turns conversation mode off. Recognition and playback stop,
// a pending restart is cancelled and any turn still being routed will
// neither speak nor resume listening.
func (s *Session) Disable() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.processing = false
	s.generation++
	if s.restart != nil {
		s.restart.Stop()
		s.restart = nil
	}
	cancel := s.cancel
	s.cancel = nil
	s.state = StateIdle
	s.mu.Unlock()

	cancel()
	if err := s.recognizer.Stop(); err != nil {
		s.logger.Debug("stop recognizer", zap.Error(err))
	}
	s.synthesizer.Stop()
	s.observer.StateChanged(StateIdle)
	s.logger.Debug("conversation mode disabled")
}

// Active reports whether conversation mode is on.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// State returns the current loop state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until every routed turn has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// HandleResult accepts a recognition result.
func (s *Session) HandleResult(r Result) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	if !r.Final {
		s.mu.Unlock()
		s.observer.Interim(r.Text)
		return
	}

	text := strings.TrimSpace(r.Text)
	if text == "" {
		s.mu.Unlock()
		return
	}
	if s.processing {
		s.mu.Unlock()
		s.logger.Debug("dropping result while a turn is in progress", zap.String("text", text))
		return
	}

	s.processing = true
	s.state = StateRouting
	gen := s.generation
	ctx := s.ctx
	s.inflight.Add(1)
	s.mu.Unlock()

	if err := s.recognizer.Stop(); err != nil {
		s.logger.Debug("stop recognizer", zap.Error(err))
	}
	s.observer.StateChanged(StateRouting)

	go s.process(ctx, gen, text)
}

// HandleError accepts a recognition error. Recoverable errors resume
// listening after the restart delay; others end conversation mode.
func (s *Session) HandleError(code ErrorCode) {
	metrics.RecognitionErrorsTotal.WithLabelValues(string(code)).Inc()

	s.mu.Lock()
	if !s.active || s.processing {
		s.mu.Unlock()
		return
	}

	if code.Recoverable() {
		s.scheduleRestart()
		s.mu.Unlock()
		s.logger.Debug("recoverable recognition error", zap.String("code", string(code)))
		return
	}
	s.mu.Unlock()

	s.logger.Warn("recognition failed", zap.String("code", string(code)))
	s.Disable()
	s.observer.Notice(code.Notice())
}

// HandleEnd accepts the recognizer ending without a final result.
func (s *Session) HandleEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.processing || s.restart != nil {
		return
	}
	s.scheduleRestart()
}

// scheduleRestart must be called with s.mu held.
func (s *Session) scheduleRestart() {
	if s.restart != nil {
		s.restart.Stop()
	}
	gen := s.generation
	s.state = StateIdle
	s.restart = time.AfterFunc(s.restartDelay, func() { s.listen(gen) })
}

func (s *Session) process(ctx context.Context, gen uint64, text string) {
	defer s.inflight.Done()

	// Routing may mutate data, so it runs to completion even if the
	// session is disabled meanwhile.
	reply := s.interpreter.Interpret(context.WithoutCancel(ctx), text)
	s.observer.Turn(text, reply)

	if !s.advance(gen, StateSpeaking) {
		return
	}
	if err := s.synthesizer.Speak(ctx, reply); err != nil {
		s.logger.Debug("speak", zap.Error(err))
	}

	s.mu.Lock()
	if !s.active || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.processing = false
	s.mu.Unlock()

	s.listen(gen)
}

// advance moves to state if gen is still the live generation.
func (s *Session) advance(gen uint64, state State) bool {
	s.mu.Lock()
	if !s.active || gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.state = state
	s.mu.Unlock()

	s.observer.StateChanged(state)
	return true
}

func (s *Session) listen(gen uint64) {
	s.mu.Lock()
	if !s.active || gen != s.generation || s.processing {
		s.mu.Unlock()
		return
	}
	s.restart = nil
	s.state = StateListening
	ctx := s.ctx
	s.mu.Unlock()

	s.observer.StateChanged(StateListening)
	if err := s.recognizer.Start(ctx); err != nil {
		s.HandleError(codeOf(err))
	}
}
