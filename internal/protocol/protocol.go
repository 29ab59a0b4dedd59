// Package protocol defines the JSON frames exchanged with clients over the
// duplex connection. Binary frames are raw PCM16 audio and never appear here.
package protocol

// MaxAudioFrameBytes gates inbound binary frames; anything larger is dropped
// without a reply.
const MaxAudioFrameBytes = 65536

// Control actions.
const (
	ActionJoin   = "join"
	ActionMicOn  = "mic_on"
	ActionMicOff = "mic_off"
	ActionStop   = "stop"
)

// Server event types.
const (
	TypeJoined  = "joined"
	TypeCaption = "caption"
	TypeAudio   = "audio"
	TypeError   = "error"
)

// ControlMessage is a client text frame, discriminated by Action. Fields
// beyond Action are only set on join.
type ControlMessage struct {
	Action         string `json:"action"`
	MeetingID      string `json:"meetingId,omitempty"`
	AttendeeID     string `json:"attendeeId,omitempty"`
	AttendeeName   string `json:"attendeeName,omitempty"`
	SpokenLanguage string `json:"spokenLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
}

// JoinedEvent acknowledges a join.
type JoinedEvent struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

// CaptionEvent carries one translated transcript segment to the partner.
type CaptionEvent struct {
	Type              string `json:"type"`
	SpeakerAttendeeID string `json:"speakerAttendeeId"`
	SpeakerName       string `json:"speakerName"`
	OriginalText      string `json:"originalText"`
	TranslatedText    string `json:"translatedText"`
	IsFinal           bool   `json:"isFinal"`
	DetectedLanguage  string `json:"detectedLanguage"`
	TargetLanguage    string `json:"targetLanguage"`
	StartTimeMs       int64  `json:"startTimeMs,omitempty"`
	EndTimeMs         int64  `json:"endTimeMs,omitempty"`
}

// AudioEvent carries one synthesized clip to the partner.
type AudioEvent struct {
	Type              string `json:"type"`
	SpeakerAttendeeID string `json:"speakerAttendeeId"`
	AudioData         string `json:"audioData"` // base64
	TargetLanguage    string `json:"targetLanguage"`
}

// ErrorEvent reports a protocol or capacity error to the client.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewJoined(connectionID string) JoinedEvent {
	return JoinedEvent{Type: TypeJoined, ConnectionID: connectionID}
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}
