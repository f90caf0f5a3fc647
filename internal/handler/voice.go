package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/middleware"
	"github.com/capitalize-ai/voice-assistant/internal/model"
	"github.com/capitalize-ai/voice-assistant/internal/speech"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
	"github.com/capitalize-ai/voice-assistant/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxSpeakDuration bounds a speak frame whose playback_done never arrives.
	maxSpeakDuration = 2 * time.Minute
)

// VoiceHandler bridges WebSocket clients to speech sessions.
type VoiceHandler struct {
	conversations *assistant.Conversations
	restartDelay  time.Duration
	upgrader      websocket.Upgrader
	logger        *logger.Logger
}

// NewVoiceHandler creates a new voice handler.
func NewVoiceHandler(convs *assistant.Conversations, restartDelay time.Duration, log *logger.Logger) *VoiceHandler {
	return &VoiceHandler{
		conversations: convs,
		restartDelay:  restartDelay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Callers are authenticated by token, not by cookie.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Serve handles GET /api/v1/voice
func (h *VoiceHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.IncrementVoiceSessions()
	defer metrics.DecrementVoiceSessions()

	log := h.logger.With(zap.String("user_id", userID))
	bridge := newVoiceBridge(conn, log)
	session := speech.NewSession(voiceMic{bridge}, voiceSpeaker{bridge}, h.conversations.Get(userID), log,
		speech.WithRestartDelay(h.restartDelay),
		speech.WithObserver(bridge),
	)

	log.Info("voice session connected")
	h.run(ctx, conn, bridge, session)
	log.Info("voice session closed")
}

func (h *VoiceHandler) run(ctx context.Context, conn *websocket.Conn, bridge *voiceBridge, session *speech.Session) {
	done := make(chan struct{})
	defer func() {
		close(done)
		session.Disable()
		session.Wait()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg model.VoiceClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				bridge.logger.Debug("voice read ended", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case model.VoiceStart:
			session.Enable(ctx)
			bridge.mode(session.Active())
		case model.VoiceStop:
			session.Disable()
			bridge.mode(false)
		case model.VoiceResult:
			session.HandleResult(speech.Result{Text: msg.Text, Final: msg.Final})
		case model.VoiceError:
			session.HandleError(speech.ErrorCode(msg.Code))
			if !session.Active() {
				bridge.mode(false)
			}
		case model.VoiceEnd:
			session.HandleEnd()
		case model.VoicePlaybackDone:
			bridge.playbackDone()
		default:
			bridge.logger.Debug("unknown voice message", zap.String("type", msg.Type))
		}
	}
}

// voiceMic is the client's recognizer.
type voiceMic struct{ *voiceBridge }

func (m voiceMic) Start(ctx context.Context) error { return m.listen() }

func (m voiceMic) Stop() error {
	return m.send(model.VoiceServerMessage{Type: model.VoiceStopListening})
}

// voiceSpeaker is the client's synthesizer.
type voiceSpeaker struct{ *voiceBridge }

func (s voiceSpeaker) Speak(ctx context.Context, text string) error { return s.speak(ctx, text) }

func (s voiceSpeaker) Stop() {
	s.sendQuiet(model.VoiceServerMessage{Type: model.VoiceStopSpeaking})
	s.playbackDone()
}

// voiceBridge drives the client's microphone and speaker over the socket
// and reports session progress to it.
type voiceBridge struct {
	conn   *websocket.Conn
	logger *logger.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	playback chan struct{}
}

func newVoiceBridge(conn *websocket.Conn, log *logger.Logger) *voiceBridge {
	return &voiceBridge{conn: conn, logger: log}
}

func (b *voiceBridge) send(msg model.VoiceServerMessage) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return b.conn.WriteJSON(msg)
}

func (b *voiceBridge) sendQuiet(msg model.VoiceServerMessage) {
	if err := b.send(msg); err != nil {
		b.logger.Debug("voice write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

// listen asks the client to start recognition.
func (b *voiceBridge) listen() error {
	if err := b.send(model.VoiceServerMessage{Type: model.VoiceListen}); err != nil {
		return &speech.RecognitionError{Code: speech.ErrNetwork, Err: err}
	}
	return nil
}

// speak sends text for playback and waits for the client to finish it.
func (b *voiceBridge) speak(ctx context.Context, text string) error {
	done := make(chan struct{})
	b.mu.Lock()
	b.playback = done
	b.mu.Unlock()

	if err := b.send(model.VoiceServerMessage{Type: model.VoiceSpeak, Text: text}); err != nil {
		b.playbackDone()
		return err
	}

	timer := time.NewTimer(maxSpeakDuration)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		b.playbackDone()
		return nil
	}
}

// playbackDone releases a pending speak.
func (b *voiceBridge) playbackDone() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playback != nil {
		close(b.playback)
		b.playback = nil
	}
}

func (b *voiceBridge) mode(active bool) {
	b.sendQuiet(model.VoiceServerMessage{Type: model.VoiceMode, Active: &active})
}

func (b *voiceBridge) StateChanged(state speech.State) {
	b.sendQuiet(model.VoiceServerMessage{Type: model.VoiceState, State: state.String()})
}

func (b *voiceBridge) Interim(text string) {
	b.sendQuiet(model.VoiceServerMessage{Type: model.VoiceInterim, Text: text})
}

func (b *voiceBridge) Turn(utterance, reply string) {
	b.sendQuiet(model.VoiceServerMessage{Type: model.VoiceTurn, Utterance: utterance, Reply: reply})
}

func (b *voiceBridge) Notice(message string) {
	b.sendQuiet(model.VoiceServerMessage{Type: model.VoiceNotice, Message: message})
}
