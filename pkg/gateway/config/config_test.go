package config

import (
	"strings"
	"testing"
	"time"
)

var gatewayEnvKeys = []string{
	"BANKI_ADDR",
	"BANKI_DATABASE_URL",
	"BANKI_GEMINI_API_KEY",
	"GEMINI_API_KEY",
	"BANKI_GEMINI_MODEL",
	"BANKI_LIVE_MODEL",
	"BANKI_LIVE_VOICE",
	"BANKI_FACE_SERVICE_URL",
	"BANKI_FACE_MATCH_THRESHOLD",
	"BANKI_CORS_ORIGINS",
	"BANKI_SAVE_INTERVAL",
	"BANKI_LIVE_HANDSHAKE_TIMEOUT",
	"BANKI_KIOSK_WS_WRITE_TIMEOUT",
	"BANKI_MAX_BODY_BYTES",
	"BANKI_READ_HEADER_TIMEOUT",
	"BANKI_READ_TIMEOUT",
	"BANKI_SHUTDOWN_GRACE_PERIOD",
}

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range gatewayEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("BANKI_DATABASE_URL", "postgres://localhost/banki")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.LiveModel != "models/gemini-2.0-flash-exp" {
		t.Fatalf("LiveModel = %q", cfg.LiveModel)
	}
	if cfg.LiveVoice != "Aoede" {
		t.Fatalf("LiveVoice = %q", cfg.LiveVoice)
	}
	if cfg.FaceServiceURL != "http://localhost:8000" {
		t.Fatalf("FaceServiceURL = %q", cfg.FaceServiceURL)
	}
	if cfg.FaceMatchThreshold != 0.85 {
		t.Fatalf("FaceMatchThreshold = %v", cfg.FaceMatchThreshold)
	}
	if cfg.SaveInterval != 10*time.Second {
		t.Fatalf("SaveInterval = %v", cfg.SaveInterval)
	}
	if cfg.LiveHandshakeTimeout != 10*time.Second {
		t.Fatalf("LiveHandshakeTimeout = %v", cfg.LiveHandshakeTimeout)
	}
	if cfg.MaxBodyBytes != 12<<20 {
		t.Fatalf("MaxBodyBytes = %d", cfg.MaxBodyBytes)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("CORSAllowedOrigins = %v, want empty", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_RequiresDatabaseURL(t *testing.T) {
	clearGatewayEnv(t)

	_, err := LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "BANKI_DATABASE_URL") {
		t.Fatalf("err = %v, want missing database url", err)
	}
}

func TestLoadFromEnv_GeminiKeyFallback(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("BANKI_DATABASE_URL", "postgres://localhost/banki")
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiAPIKey != "fallback-key" {
		t.Fatalf("GeminiAPIKey = %q, want fallback from GEMINI_API_KEY", cfg.GeminiAPIKey)
	}

	t.Setenv("BANKI_GEMINI_API_KEY", "primary-key")
	cfg, err = LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeminiAPIKey != "primary-key" {
		t.Fatalf("GeminiAPIKey = %q, want BANKI_GEMINI_API_KEY to win", cfg.GeminiAPIKey)
	}
}

func TestLoadFromEnv_CORSOrigins(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("BANKI_DATABASE_URL", "postgres://localhost/banki")
	t.Setenv("BANKI_CORS_ORIGINS", "https://kiosk.example.com, https://admin.example.com ,")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://kiosk.example.com"]; !ok {
		t.Fatal("missing kiosk origin")
	}
}

func TestLoadFromEnv_Validation(t *testing.T) {
	cases := []struct {
		key, value, want string
	}{
		{"BANKI_FACE_MATCH_THRESHOLD", "1.5", "BANKI_FACE_MATCH_THRESHOLD"},
		{"BANKI_SAVE_INTERVAL", "-1s", "BANKI_SAVE_INTERVAL"},
		{"BANKI_MAX_BODY_BYTES", "-1", "BANKI_MAX_BODY_BYTES"},
		{"BANKI_SHUTDOWN_GRACE_PERIOD", "-5s", "BANKI_SHUTDOWN_GRACE_PERIOD"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			clearGatewayEnv(t)
			t.Setenv("BANKI_DATABASE_URL", "postgres://localhost/banki")
			t.Setenv(tc.key, tc.value)

			_, err := LoadFromEnv()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoadFromEnv_MalformedValuesFallBack(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("BANKI_DATABASE_URL", "postgres://localhost/banki")
	t.Setenv("BANKI_SAVE_INTERVAL", "not-a-duration")
	t.Setenv("BANKI_FACE_MATCH_THRESHOLD", "not-a-float")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SaveInterval != 10*time.Second {
		t.Fatalf("SaveInterval = %v, want default", cfg.SaveInterval)
	}
	if cfg.FaceMatchThreshold != 0.85 {
		t.Fatalf("FaceMatchThreshold = %v, want default", cfg.FaceMatchThreshold)
	}
}
