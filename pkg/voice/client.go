// Package voice implements the duplex voice session client for the kiosk.
//
// A Client owns one persistent bidirectional connection to the Gemini Live
// endpoint. It sends complete conversational turns (user text wrapped with a
// machine-readable context prefix) and receives interleaved text deltas and
// inline PCM audio, which it hands to a gapless Playback scheduler. All
// lifecycle activity surfaces as typed events on a single channel, so the
// session state machine can be driven synthetically in tests without a real
// network connection.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeTimeout bounds individual frame writes once connected.
const writeTimeout = 5 * time.Second

// State is the connection state of a Client.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Client is a duplex voice session client. It never reconnects on its own;
// the caller owns retry policy.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	playback *Playback
	events   chan Event

	mu        sync.Mutex
	ws        *websocket.Conn
	state     State
	pending   strings.Builder
	turnAudio bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a voice session client. The playback scheduler is owned
// by the client; its chunk and done signals surface as AudioChunkEvent and
// AudioDoneEvent.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
		events: make(chan Event, 64),
		state:  StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.playback = NewPlayback(c.cfg.Audio,
		WithChunkSink(func(ch Chunk) { c.emit(&AudioChunkEvent{Chunk: ch}) }),
		WithDoneFunc(func() { c.emit(&AudioDoneEvent{}) }),
	)
	return c
}

// Events returns the channel of session events. The channel is never
// closed; a DisconnectedEvent marks the end of a connection's activity.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the session is live.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Playback exposes the audio scheduler, mainly for inspection in tests.
func (c *Client) Playback() *Playback {
	return c.playback
}

// Connect opens the duplex connection, sends the one-time setup frame, and
// waits for the remote acknowledgment. It returns an error if the transport
// fails or no acknowledgment arrives within the handshake timeout.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return fmt.Errorf("already %s", c.state)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	endpoint := c.cfg.Endpoint
	if c.cfg.APIKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.cfg.APIKey)
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return c.connectFailed(fmt.Errorf("could not reach voice endpoint: %w", err))
	}

	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(c.setupFrame()); err != nil {
		conn.Close()
		return c.connectFailed(fmt.Errorf("send setup: %w", err))
	}

	// Wait for the setup acknowledgment within the handshake bound.
	conn.SetReadDeadline(deadline)
	for {
		var frame serverFrame
		if err := conn.ReadJSON(&frame); err != nil {
			conn.Close()
			return c.connectFailed(fmt.Errorf("no setup acknowledgment within %s: %w", c.cfg.HandshakeTimeout, err))
		}
		if ackReceived(frame.SetupComplete) {
			break
		}
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	c.mu.Lock()
	c.ws = conn
	c.state = StateConnected
	c.pending.Reset()
	c.turnAudio = false
	c.mu.Unlock()

	c.emit(&ConnectedEvent{})
	go c.readLoop(conn)
	return nil
}

func (c *Client) connectFailed(err error) error {
	c.mu.Lock()
	c.state = StateError
	c.mu.Unlock()
	c.emit(&ErrorEvent{Message: err.Error()})
	return err
}

// ackReceived treats any non-null setupComplete payload as the handshake
// acknowledgment; the upstream sends both `true` and `{}` in the wild.
func ackReceived(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "false"
}

func (c *Client) setupFrame() setupFrame {
	return setupFrame{Setup: setupPayload{
		Model: c.cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO", "TEXT"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.cfg.Voice},
				},
			},
		},
		SystemInstruction: &wireContent{
			Parts: []wirePart{{Text: c.cfg.SystemPrompt + contextRider}},
		},
	}}
}

// SendText sends one complete conversational turn. The context snapshot is
// marshaled into a hidden prefix so the model can condition its reply on
// application state without speaking the prefix aloud. Requires a connected
// session; otherwise an ErrorEvent is emitted and nothing is sent.
func (c *Client) SendText(message string, contextSnapshot any) error {
	c.mu.Lock()
	conn := c.ws
	if c.state != StateConnected || conn == nil {
		c.mu.Unlock()
		err := fmt.Errorf("not connected")
		c.emit(&ErrorEvent{Message: "Not connected — retry the connection first."})
		return err
	}

	text := message
	if contextSnapshot != nil {
		if blob, err := json.Marshal(contextSnapshot); err == nil {
			text = "[Context: " + string(blob) + "]\nCustomer says: " + message
		} else {
			c.logger.Warn("marshal context snapshot", "err", err)
		}
	}

	frame := clientContentFrame{ClientContent: clientContent{
		Turns:        []wireContent{{Role: "user", Parts: []wirePart{{Text: text}}}},
		TurnComplete: true,
	}}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(frame)
	c.mu.Unlock()

	if err != nil {
		c.emit(&ErrorEvent{Message: "send failed: " + err.Error()})
		return fmt.Errorf("send turn: %w", err)
	}
	return nil
}

// StopAudio halts all in-flight playback and resets the scheduling cursor.
// Used for barge-in: the customer starts talking while the assistant is
// still speaking.
func (c *Client) StopAudio() {
	c.playback.StopAll()
}

// Disconnect stops audio, closes the transport, and releases the audio
// output context. Safe to call when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.ws
	c.ws = nil
	wasLive := c.state == StateConnected || c.state == StateConnecting
	c.state = StateDisconnected
	c.pending.Reset()
	c.turnAudio = false
	c.mu.Unlock()

	c.playback.Close()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	if wasLive {
		c.emit(&DisconnectedEvent{})
	}
}

// readLoop consumes inbound frames until the connection closes. A clean
// closure emits only DisconnectedEvent; an unclean one emits ErrorEvent
// first.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			owned := c.ws == conn
			if owned {
				c.ws = nil
			}
			c.mu.Unlock()
			if !owned {
				// Deliberate Disconnect already reported this connection.
				return
			}

			clean := websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway)
			c.mu.Lock()
			if clean {
				c.state = StateDisconnected
			} else {
				c.state = StateError
			}
			c.mu.Unlock()

			if !clean {
				c.emit(&ErrorEvent{Message: "connection dropped: " + err.Error()})
			}
			c.emit(&DisconnectedEvent{})
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("unparseable server frame", "err", err)
			continue
		}
		if frame.ServerContent != nil {
			c.handleContent(frame.ServerContent)
		}
	}
}

// handleContent processes one serverContent frame: inline audio goes to the
// playback scheduler, text deltas accumulate into the per-turn buffer, and
// turnComplete flushes the buffer as final.
func (c *Client) handleContent(sc *serverContent) {
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				c.mu.Lock()
				first := !c.turnAudio
				c.turnAudio = true
				c.mu.Unlock()
				if first {
					c.emit(&AudioStartedEvent{})
				}
				if _, err := c.playback.ScheduleChunk(part.InlineData.Data); err != nil {
					c.logger.Warn("schedule audio chunk", "err", err)
				}
			}
			if part.Text != "" {
				c.mu.Lock()
				c.pending.WriteString(part.Text)
				text := c.pending.String()
				c.mu.Unlock()
				c.emit(&TextEvent{Content: text})
			}
		}
	}

	if sc.TurnComplete {
		c.mu.Lock()
		text := c.pending.String()
		c.pending.Reset()
		c.turnAudio = false
		c.mu.Unlock()

		if text != "" {
			c.emit(&TextEvent{Content: text, Final: true})
		}
		c.emit(&TurnCompleteEvent{})
	}
}

// emit sends an event without blocking; a full channel drops the event.
func (c *Client) emit(event Event) {
	select {
	case c.events <- event:
	default:
		c.logger.Warn("event channel full, dropping", "type", event.EventType())
	}
}
