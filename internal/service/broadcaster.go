package service

// Console event types
const (
	EventAskCreated       = "ask_created"
	EventFeedbackRecorded = "feedback_recorded"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}
