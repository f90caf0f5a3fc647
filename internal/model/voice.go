package model

// Voice session message types sent by the client.
const (
	VoiceStart        = "start"
	VoiceStop         = "stop"
	VoiceResult       = "result"
	VoiceError        = "error"
	VoiceEnd          = "end"
	VoicePlaybackDone = "playback_done"
)

// Voice session message types sent by the server.
const (
	VoiceListen        = "listen"
	VoiceStopListening = "stop_listening"
	VoiceSpeak         = "speak"
	VoiceStopSpeaking  = "stop_speaking"
	VoiceState         = "state"
	VoiceInterim       = "interim"
	VoiceTurn          = "turn"
	VoiceNotice        = "notice"
	VoiceMode          = "mode"
)

// VoiceClientMessage is a frame received on a voice session.
type VoiceClientMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Final bool   `json:"final,omitempty"`
	Code  string `json:"code,omitempty"`
}

// VoiceServerMessage is a frame sent on a voice session.
type VoiceServerMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	State     string `json:"state,omitempty"`
	Utterance string `json:"utterance,omitempty"`
	Reply     string `json:"reply,omitempty"`
	Message   string `json:"message,omitempty"`
	Active    *bool  `json:"active,omitempty"`
}
