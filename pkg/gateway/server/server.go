// Package server wires the gateway's routes, middleware, and shared
// dependencies into one http.Handler.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/faheemlive/backend/pkg/gateway/config"
	"github.com/faheemlive/backend/pkg/gateway/handlers"
	"github.com/faheemlive/backend/pkg/gateway/live/sessions"
	"github.com/faheemlive/backend/pkg/gateway/metrics"
	"github.com/faheemlive/backend/pkg/gateway/mw"
	"github.com/faheemlive/backend/pkg/gateway/store"
	"github.com/faheemlive/backend/pkg/gateway/upstream"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	upstream upstream.Client
	archive  store.Archive
	metrics  *metrics.Metrics
	tracker  *sessions.Tracker
	draining atomic.Bool
}

func New(cfg config.Config, logger *slog.Logger, up upstream.Client, archive store.Archive) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if archive == nil {
		archive = store.Discard{}
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		upstream: up,
		archive:  archive,
		metrics:  metrics.New(),
		tracker:  sessions.NewTracker(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/health", handlers.HealthHandler{Config: s.cfg})
	s.mux.Handle("/metrics", s.metrics.Handler())
	s.mux.Handle("/ws/session", handlers.SessionHandler{
		Config:   s.cfg,
		Logger:   s.logger,
		Upstream: s.upstream,
		Archive:  s.archive,
		Metrics:  s.metrics,
		Tracker:  s.tracker,
		Draining: &s.draining,
	})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining stops new websocket sessions from being accepted.
func (s *Server) SetDraining() {
	s.draining.Store(true)
}

func (s *Server) SessionCount() int {
	return s.tracker.Count()
}

// WarnSessions notifies every open session that shutdown is imminent.
func (s *Server) WarnSessions(message string) int {
	return s.tracker.WarnAll(message)
}

// WaitSessions blocks until open sessions finish or ctx expires.
func (s *Server) WaitSessions(ctx context.Context) bool {
	return s.tracker.Wait(ctx)
}

// CancelSessions force-closes whatever is still running.
func (s *Server) CancelSessions() int {
	return s.tracker.CancelAll()
}
