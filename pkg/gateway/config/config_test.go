package config

import (
	"log/slog"
	"testing"
	"time"
)

func setStubEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_STUB", "true")
	t.Setenv("GEMINI_API_KEY", "")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setStubEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.GeminiModel != "gemini-2.0-flash-live-001" {
		t.Fatalf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.GeminiTextModel != "gemini-2.0-flash" {
		t.Fatalf("GeminiTextModel = %q", cfg.GeminiTextModel)
	}
	if cfg.Voice != "Charon" {
		t.Fatalf("Voice = %q", cfg.Voice)
	}
	if _, ok := cfg.CORSAllowedOrigins["http://localhost:3000"]; !ok {
		t.Fatalf("default CORS origin missing: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.WSPingInterval != 20*time.Second {
		t.Fatalf("WSPingInterval = %v", cfg.WSPingInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoadFromEnvRequiresAPIKeyWithoutStub(t *testing.T) {
	t.Setenv("GEMINI_STUB", "false")
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestLoadFromEnvAcceptsRealKey(t *testing.T) {
	t.Setenv("GEMINI_STUB", "false")
	t.Setenv("GEMINI_API_KEY", "key-123")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.GeminiAPIKey != "key-123" {
		t.Fatalf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
	if cfg.GeminiStub {
		t.Fatalf("GeminiStub = true, want false")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	setStubEnv(t)
	t.Setenv("FAHEEM_ADDR", ":9999")
	t.Setenv("GEMINI_MODEL", "gemini-next-live")
	t.Setenv("FAHEEM_VOICE", "Puck")
	t.Setenv("FAHEEM_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FAHEEM_MAX_SESSION_DURATION", "30m")
	t.Setenv("FAHEEM_LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.GeminiModel != "gemini-next-live" || cfg.Voice != "Puck" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://b.example"]; !ok {
		t.Fatalf("CSV origin not trimmed: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MaxSessionDuration != 30*time.Minute {
		t.Fatalf("MaxSessionDuration = %v", cfg.MaxSessionDuration)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoadFromEnvRejectsBadDurations(t *testing.T) {
	setStubEnv(t)
	t.Setenv("FAHEEM_WS_WRITE_TIMEOUT", "0s")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error for zero write timeout")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"warn":     slog.LevelWarn,
		"error":    slog.LevelError,
		"nonsense": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLogLevel(raw); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
