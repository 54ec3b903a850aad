package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// PostgreSQL connection string.
	DatabaseURL string

	// Gemini credentials and model selection.
	GeminiAPIKey string
	GeminiModel  string
	LiveModel    string
	LiveVoice    string

	// Face comparison sidecar.
	FaceServiceURL     string
	FaceMatchThreshold float64

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Kiosk session behavior.
	SaveInterval         time.Duration
	LiveHandshakeTimeout time.Duration
	KioskWSWriteTimeout  time.Duration
	MaxBodyBytes         int64

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                 envOr("BANKI_ADDR", ":8080"),
		DatabaseURL:          envOr("BANKI_DATABASE_URL", ""),
		GeminiAPIKey:         envOr("BANKI_GEMINI_API_KEY", os.Getenv("GEMINI_API_KEY")),
		GeminiModel:          envOr("BANKI_GEMINI_MODEL", "gemini-2.0-flash"),
		LiveModel:            envOr("BANKI_LIVE_MODEL", "models/gemini-2.0-flash-exp"),
		LiveVoice:            envOr("BANKI_LIVE_VOICE", "Aoede"),
		FaceServiceURL:       envOr("BANKI_FACE_SERVICE_URL", "http://localhost:8000"),
		FaceMatchThreshold:   envFloat64Or("BANKI_FACE_MATCH_THRESHOLD", 0.85),
		CORSAllowedOrigins:   make(map[string]struct{}),
		SaveInterval:         envDurationOr("BANKI_SAVE_INTERVAL", 10*time.Second),
		LiveHandshakeTimeout: envDurationOr("BANKI_LIVE_HANDSHAKE_TIMEOUT", 10*time.Second),
		KioskWSWriteTimeout:  envDurationOr("BANKI_KIOSK_WS_WRITE_TIMEOUT", 5*time.Second),
		MaxBodyBytes:         envInt64Or("BANKI_MAX_BODY_BYTES", 12<<20), // images arrive base64-encoded
		ReadHeaderTimeout:    envDurationOr("BANKI_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:          envDurationOr("BANKI_READ_TIMEOUT", 60*time.Second),
		ShutdownGracePeriod:  envDurationOr("BANKI_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("BANKI_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("BANKI_DATABASE_URL must be set")
	}
	if cfg.FaceMatchThreshold <= 0 || cfg.FaceMatchThreshold > 1 {
		return Config{}, fmt.Errorf("BANKI_FACE_MATCH_THRESHOLD must be in (0,1]")
	}
	if cfg.SaveInterval <= 0 {
		return Config{}, fmt.Errorf("BANKI_SAVE_INTERVAL must be > 0")
	}
	if cfg.LiveHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("BANKI_LIVE_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.KioskWSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("BANKI_KIOSK_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("BANKI_MAX_BODY_BYTES must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("BANKI_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("BANKI_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("BANKI_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
