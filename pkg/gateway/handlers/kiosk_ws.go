package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banki-go/banki/pkg/gateway/config"
	"github.com/banki-go/banki/pkg/gateway/metrics"
	"github.com/banki-go/banki/pkg/kiosk"
	"github.com/banki-go/banki/pkg/voice"
)

// LiveClient is the slice of the voice client the relay needs.
type LiveClient interface {
	Connect(ctx context.Context) error
	SendText(message string, contextSnapshot any) error
	StopAudio()
	Disconnect()
	Events() <-chan voice.Event
}

// KioskHandler serves GET /v1/kiosk: one WebSocket per kiosk session. It
// owns the session state and the upstream voice connection, and relays
// assistant events down to the kiosk UI.
type KioskHandler struct {
	Config  config.Config
	Store   kiosk.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// NewLiveClient lets tests substitute the upstream voice connection.
	NewLiveClient func(cfg voice.Config) LiveClient
}

// clientFrame is a message from the kiosk UI.
type clientFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Step      string `json:"step,omitempty"`
	Name      string `json:"name,omitempty"`
	Value     string `json:"value,omitempty"`
	ProductID string `json:"productId,omitempty"`
}

// serverFrame is a message to the kiosk UI.
type serverFrame struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	Step       string `json:"step,omitempty"`
	Content    string `json:"content,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Chunk      string `json:"chunk,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (h KioskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(req *http.Request) bool { return h.originAllowed(req) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	lang := r.URL.Query().Get("lang")
	opts := []kiosk.Option{kiosk.WithLogger(h.Logger)}
	if lang != "" {
		opts = append(opts, kiosk.WithLanguage(lang))
	}
	session := kiosk.NewSession(opts...)

	live := h.newLive()
	started := time.Now()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	if h.Store != nil {
		saver := kiosk.NewSaver(session, h.Store, h.Config.SaveInterval, h.Logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			saver.Run(ctx)
		}()
	}

	relay := &kioskRelay{
		conn:         conn,
		session:      session,
		live:         live,
		metrics:      h.Metrics,
		logger:       h.Logger,
		writeTimeout: h.Config.KioskWSWriteTimeout,
	}

	if h.Metrics != nil {
		h.Metrics.RecordSessionStart()
		defer func() {
			outcome := "abandoned"
			if session.Step() == kiosk.StepComplete {
				outcome = "submitted"
			}
			h.Metrics.RecordSessionEnd(outcome, time.Since(started))
		}()
	}

	relay.send(serverFrame{
		Type:       "session",
		SessionID:  session.ID(),
		CustomerID: session.CustomerID(),
		Step:       string(session.Step()),
	})

	if err := live.Connect(ctx); err != nil {
		h.Logger.Error("live connect failed", "session", session.ID(), "error", err)
		relay.send(serverFrame{Type: "error", Message: "voice assistant unavailable"})
		cancel()
		wg.Wait()
		return
	}
	defer live.Disconnect()

	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.pumpEvents(ctx)
	}()

	relay.readLoop()
	cancel()
	wg.Wait()
}

func (h KioskHandler) newLive() LiveClient {
	cfg := voice.Config{
		APIKey:           h.Config.GeminiAPIKey,
		Model:            h.Config.LiveModel,
		Voice:            h.Config.LiveVoice,
		SystemPrompt:     kiosk.SystemPrompt,
		HandshakeTimeout: h.Config.LiveHandshakeTimeout,
	}
	if h.NewLiveClient != nil {
		return h.NewLiveClient(cfg)
	}
	return voice.NewClient(cfg, voice.WithLogger(h.Logger))
}

func (h KioskHandler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.Config.CORSAllowedOrigins) == 0 {
		return true
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

// kioskRelay couples one kiosk WebSocket to one session and voice client.
type kioskRelay struct {
	conn         *websocket.Conn
	session      *kiosk.Session
	live         LiveClient
	metrics      *metrics.Metrics
	logger       *slog.Logger
	writeTimeout time.Duration

	writeMu sync.Mutex
}

func (rl *kioskRelay) send(frame serverFrame) {
	rl.writeMu.Lock()
	defer rl.writeMu.Unlock()
	if rl.writeTimeout > 0 {
		_ = rl.conn.SetWriteDeadline(time.Now().Add(rl.writeTimeout))
	}
	if err := rl.conn.WriteJSON(frame); err != nil {
		rl.logger.Warn("kiosk write failed", "session", rl.session.ID(), "error", err)
	}
}

// pumpEvents forwards voice events to the kiosk until the voice client
// disconnects or ctx is cancelled.
func (rl *kioskRelay) pumpEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-rl.live.Events():
			if !ok {
				return
			}
			if done := rl.handleEvent(ev); done {
				return
			}
		}
	}
}

func (rl *kioskRelay) handleEvent(ev voice.Event) (done bool) {
	switch e := ev.(type) {
	case *voice.ConnectedEvent:
		// Kick off the assistant's opening turn.
		if err := rl.live.SendText("hello", rl.session.Context()); err != nil {
			rl.logger.Warn("greeting send failed", "session", rl.session.ID(), "error", err)
		}
	case *voice.TextEvent:
		rl.send(serverFrame{Type: "text", Content: e.Content, Final: e.Final})
		if e.Final {
			rl.session.AppendTranscript("assistant", e.Content)
			if step, changed := rl.session.AdvanceFromUtterance(e.Content); changed {
				rl.send(serverFrame{Type: "step", Step: string(step)})
				if rl.metrics != nil {
					rl.metrics.RecordStepTransition(string(step))
				}
			}
		}
	case *voice.AudioStartedEvent:
		rl.send(serverFrame{Type: "audio_started"})
	case *voice.AudioChunkEvent:
		rl.send(serverFrame{Type: "audio", Chunk: e.Chunk.Base64()})
		if rl.metrics != nil {
			rl.metrics.AudioChunksTotal.Inc()
		}
	case *voice.AudioDoneEvent:
		rl.send(serverFrame{Type: "audio_done"})
	case *voice.TurnCompleteEvent:
		rl.send(serverFrame{Type: "turn_complete"})
		if rl.metrics != nil {
			rl.metrics.TurnsTotal.Inc()
		}
	case *voice.ErrorEvent:
		rl.send(serverFrame{Type: "error", Message: e.Message})
	case *voice.DisconnectedEvent:
		rl.send(serverFrame{Type: "disconnected"})
		return true
	}
	return false
}

// readLoop dispatches kiosk UI frames until the connection closes.
func (rl *kioskRelay) readLoop() {
	for {
		_, data, err := rl.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			rl.send(serverFrame{Type: "error", Message: "invalid frame"})
			continue
		}
		rl.handleFrame(frame)
	}
}

func (rl *kioskRelay) handleFrame(frame clientFrame) {
	switch frame.Type {
	case "text":
		if frame.Message == "" {
			return
		}
		// Barge-in: the customer talking over the assistant halts all
		// in-flight audio before the new turn goes out. The playback done
		// hook emits audio_done, clearing the speaking indicator.
		rl.live.StopAudio()
		rl.session.AppendTranscript("user", frame.Message)
		if err := rl.live.SendText(frame.Message, rl.session.Context()); err != nil {
			rl.send(serverFrame{Type: "error", Message: "assistant not connected"})
		}
	case "set_step":
		if err := rl.session.SetStep(kiosk.Step(frame.Step)); err != nil {
			rl.send(serverFrame{Type: "error", Message: err.Error()})
			return
		}
		rl.send(serverFrame{Type: "step", Step: string(rl.session.Step())})
		if rl.metrics != nil {
			rl.metrics.RecordStepTransition(string(rl.session.Step()))
		}
	case "field":
		if err := rl.session.SetPersonalField(frame.Name, frame.Value); err != nil {
			rl.send(serverFrame{Type: "error", Message: err.Error()})
		}
	case "toggle_product":
		rl.session.ToggleProduct(frame.ProductID)
	case "stop_audio":
		rl.live.StopAudio()
	default:
		rl.send(serverFrame{Type: "error", Message: "unknown frame type"})
	}
}
