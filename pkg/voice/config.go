package voice

import "time"

// DefaultModel is the Gemini Live model the kiosk speaks to.
const DefaultModel = "models/gemini-2.0-flash-exp"

// DefaultVoice is the prebuilt synthetic voice used when none is configured.
const DefaultVoice = "Aoede"

// DefaultEndpoint is the Gemini bidirectional streaming endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/" +
	"google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// contextRider is appended to every system instruction so the model knows
// how to treat the machine-readable prefix on user turns without reading it
// aloud.
const contextRider = "\n\n## CONTEXT MESSAGES\nYou may receive messages " +
	"prefixed with [Context: {...}]. Use this JSON to understand the current " +
	"application state. Never mention the context prefix — respond naturally."

// Config holds all configuration for a duplex voice session.
type Config struct {
	// APIKey authenticates against the Gemini Live endpoint.
	APIKey string

	// Model is the Live model identity. Default: DefaultModel.
	Model string

	// Voice is the prebuilt voice name. Default: DefaultVoice.
	Voice string

	// SystemPrompt is the persona and operating rules for the assistant.
	SystemPrompt string

	// Endpoint overrides the upstream URL; tests point this at an
	// in-process WebSocket server.
	Endpoint string

	// HandshakeTimeout bounds the wait for the setup acknowledgment.
	// Default: 10s.
	HandshakeTimeout time.Duration

	// Audio is the inbound audio format. Default: 24kHz mono PCM16.
	Audio AudioConfig
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.Audio == (AudioConfig{}) {
		c.Audio = DefaultAudioConfig()
	}
	return c
}

// AudioConfig specifies audio format parameters.
type AudioConfig struct {
	// SampleRate in Hz. Gemini Live emits 24000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono.
	Channels int `json:"channels"`

	// BitsPerSample: 16 for PCM16LE.
	BitsPerSample int `json:"bits_per_sample"`
}

// DefaultAudioConfig returns the format Gemini Live streams in.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:    24000,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// BytesPerSecond returns the raw byte rate.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// Duration returns the playback time of the given byte count.
func (c AudioConfig) Duration(bytes int) time.Duration {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(bytes) * time.Second / time.Duration(bps)
}
