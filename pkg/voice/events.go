package voice

// Event is the interface for all voice session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// ConnectedEvent is emitted once the remote side acknowledges setup.
type ConnectedEvent struct{}

func (e *ConnectedEvent) EventType() string { return "connected" }

// TextEvent carries the accumulated assistant text for the in-flight turn.
// It is emitted with Final=false on every delta and exactly once with
// Final=true when the turn completes with non-empty text.
type TextEvent struct {
	Content string `json:"content"`
	Final   bool   `json:"final,omitempty"`
}

func (e *TextEvent) EventType() string { return "text" }

// AudioStartedEvent is emitted on the first audio chunk of a turn.
type AudioStartedEvent struct{}

func (e *AudioStartedEvent) EventType() string { return "audio.started" }

// AudioDoneEvent is emitted when every scheduled chunk has finished
// playing, coalescing a burst of chunks into one speaking indicator.
type AudioDoneEvent struct{}

func (e *AudioDoneEvent) EventType() string { return "audio.done" }

// AudioChunkEvent carries one scheduled audio segment for relaying to the
// kiosk UI.
type AudioChunkEvent struct {
	Chunk Chunk `json:"-"`
}

func (e *AudioChunkEvent) EventType() string { return "audio.chunk" }

// TurnCompleteEvent is emitted when the remote side signals the end of a
// turn, whether or not any text was produced.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// DisconnectedEvent is emitted when the connection closes for any reason.
type DisconnectedEvent struct{}

func (e *DisconnectedEvent) EventType() string { return "disconnected" }

// ErrorEvent is emitted for transport errors, unclean closures, handshake
// failures, and sends attempted while disconnected.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "error" }
