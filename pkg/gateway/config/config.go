package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config carries every tunable the gateway needs. It is constructed once at
// process start and passed by reference to the components that use it; there
// is no cached global.
type Config struct {
	Addr string

	// Gemini upstream.
	GeminiAPIKey    string
	GeminiModel     string // Live API (audio)
	GeminiTextModel string // standard text API
	GeminiStub      bool   // GEMINI_STUB=true skips real API calls
	Voice           string

	// WebSocket origin allowlist for browser connections. Empty => cross
	// origin requests rejected.
	CORSAllowedOrigins map[string]struct{}

	// Session archive. Empty path disables persistence.
	ArchivePath string

	// Live WebSocket operational settings.
	WSWriteTimeout     time.Duration
	WSPingInterval     time.Duration
	MaxSessionDuration time.Duration // 0 disables the cap

	// HTTP server defaults.
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration

	LogLevel slog.Level
}

const (
	defaultGeminiModel     = "gemini-2.0-flash-live-001"
	defaultGeminiTextModel = "gemini-2.0-flash"
	defaultVoice           = "Charon"
)

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("FAHEEM_ADDR", ":8080"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         envOr("GEMINI_MODEL", defaultGeminiModel),
		GeminiTextModel:     envOr("GEMINI_TEXT_MODEL", defaultGeminiTextModel),
		GeminiStub:          envBoolOr("GEMINI_STUB", false),
		Voice:               envOr("FAHEEM_VOICE", defaultVoice),
		CORSAllowedOrigins:  make(map[string]struct{}),
		ArchivePath:         strings.TrimSpace(os.Getenv("FAHEEM_ARCHIVE_PATH")),
		WSWriteTimeout:      envDurationOr("FAHEEM_WS_WRITE_TIMEOUT", 5*time.Second),
		WSPingInterval:      envDurationOr("FAHEEM_WS_PING_INTERVAL", 20*time.Second),
		MaxSessionDuration:  envDurationOr("FAHEEM_MAX_SESSION_DURATION", 0),
		ReadHeaderTimeout:   envDurationOr("FAHEEM_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("FAHEEM_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		LogLevel:            parseLogLevel(envOr("FAHEEM_LOG_LEVEL", "info")),
	}

	for _, origin := range splitCSV(envOr("FAHEEM_CORS_ORIGINS", "http://localhost:3000")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if !cfg.GeminiStub && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY must be set unless GEMINI_STUB=true")
	}
	if strings.TrimSpace(cfg.GeminiModel) == "" {
		return Config{}, fmt.Errorf("GEMINI_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.GeminiTextModel) == "" {
		return Config{}, fmt.Errorf("GEMINI_TEXT_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.Voice) == "" {
		return Config{}, fmt.Errorf("FAHEEM_VOICE must not be empty")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("FAHEEM_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("FAHEEM_WS_PING_INTERVAL must be > 0")
	}
	if cfg.MaxSessionDuration < 0 {
		return Config{}, fmt.Errorf("FAHEEM_MAX_SESSION_DURATION must be >= 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("FAHEEM_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("FAHEEM_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
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
