package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/faheemlive/backend/pkg/gateway/config"
	"github.com/faheemlive/backend/pkg/gateway/live/session"
	"github.com/faheemlive/backend/pkg/gateway/live/sessions"
	"github.com/faheemlive/backend/pkg/gateway/metrics"
	"github.com/faheemlive/backend/pkg/gateway/store"
	"github.com/faheemlive/backend/pkg/gateway/tutor"
	"github.com/faheemlive/backend/pkg/gateway/upstream"
)

// SessionHandler upgrades /ws/session requests and runs one live tutoring
// session per connection.
type SessionHandler struct {
	Config   config.Config
	Logger   *slog.Logger
	Upstream upstream.Client
	Archive  store.Archive
	Metrics  *metrics.Metrics
	Tracker  *sessions.Tracker
	Draining *atomic.Bool
}

func (h SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Draining != nil && h.Draining.Load() {
		http.Error(w, "gateway is draining", http.StatusServiceUnavailable)
		return
	}
	if !h.originAllowed(r) {
		http.Error(w, "origin is not allowed", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("session opened", "session_id", sessionID, "remote", r.RemoteAddr)

	s := session.New(session.Dependencies{
		Conn:      conn,
		Logger:    logger,
		Upstream:  h.Upstream,
		Agent:     tutor.NewAgent(logger),
		Archive:   h.Archive,
		Metrics:   h.Metrics,
		SessionID: sessionID,
		Voice:     h.Config.Voice,
		Config: session.Config{
			WriteTimeout:       h.Config.WSWriteTimeout,
			PingInterval:       h.Config.WSPingInterval,
			MaxSessionDuration: h.Config.MaxSessionDuration,
		},
	})

	if h.Tracker != nil {
		unregister := h.Tracker.Register(sessionID, sessions.Handle{
			Cancel: s.Cancel,
			Warn:   s.Warn,
		})
		defer unregister()
	}

	if err := s.Run(r.Context()); err != nil {
		logger.Warn("session ended with error", "session_id", sessionID, "error", err)
	}
}

func (h SessionHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}
