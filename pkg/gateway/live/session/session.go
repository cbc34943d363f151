// Package session runs one live tutoring session: a websocket on one side,
// the conversational model on the other, with an audio relay bridge between
// them and a request/response path for text and image turns.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/faheemlive/backend/pkg/gateway/live/protocol"
	"github.com/faheemlive/backend/pkg/gateway/metrics"
	"github.com/faheemlive/backend/pkg/gateway/store"
	"github.com/faheemlive/backend/pkg/gateway/tutor"
	"github.com/faheemlive/backend/pkg/gateway/upstream"
)

const (
	fallbackText      = "Sorry, I ran into a problem. Please try again."
	fallbackImageRead = "Sorry, I couldn't read that image. Please try again."
	fallbackImageCall = "Sorry, I had trouble analysing that image. Please try again."
	fallbackNoImage   = "I didn't receive an image. Please try uploading again."
)

type Config struct {
	WriteTimeout        time.Duration
	PingInterval        time.Duration
	MaxSessionDuration  time.Duration
	OutboundQueueSize   int
	ArchiveWriteTimeout time.Duration
}

type Dependencies struct {
	Conn      *websocket.Conn
	Logger    *slog.Logger
	Upstream  upstream.Client
	Agent     *tutor.Agent
	Archive   store.Archive
	Metrics   *metrics.Metrics
	SessionID string
	Voice     string
	Config    Config
}

// Session owns all per-connection state. All mutable state (audio queue,
// chat history, agent event list) is touched only by this session's
// goroutines.
type Session struct {
	deps  Dependencies
	queue *AudioQueue
	outbd chan outboundFrame
	start time.Time

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	// outMu orders Warn's queue attempt against Run closing outbd.
	outMu     sync.Mutex
	outClosed bool

	closeOnce sync.Once

	// history is appended only from the receive loop.
	history []upstream.Turn
}

func New(deps Dependencies) *Session {
	size := deps.Config.OutboundQueueSize
	if size <= 0 {
		size = 64
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Archive == nil {
		deps.Archive = store.Discard{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Session{
		deps:  deps,
		queue: NewAudioQueue(),
		outbd: make(chan outboundFrame, size),
		start: time.Now(),
	}
}

// Run drives the session to completion: writer goroutine, relay bridge, and
// the websocket receive loop. It returns once the recap has been queued and
// the writer has drained.
func (s *Session) Run(ctx context.Context) error {
	var cancel context.CancelFunc
	if d := s.deps.Config.MaxSessionDuration; d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()
	defer cancel()

	s.deps.Metrics.SessionStarted()

	// If the writer dies (broken socket), cancelling the session context
	// keeps queued sends from blocking on a channel nobody drains.
	writerDone := make(chan error, 1)
	go func() {
		writerDone <- s.runWriter(ctx)
		cancel()
	}()

	s.sendJSON(ctx, protocol.StatusConnected(s.deps.SessionID))

	bridgeDone := make(chan struct{})
	go func() {
		defer close(bridgeDone)
		s.runBridge(ctx)
	}()

	recvErr := s.receiveLoop(ctx)

	// The bridge drains the remaining audio and shuts down its relays once
	// the end-of-input sentinel lands.
	s.queue.End()
	<-bridgeDone

	recap := s.deps.Agent.BuildRecap(s.deps.SessionID, time.Since(s.start))
	s.sendJSON(ctx, protocol.ServerRecap{Type: "recap", Data: recap})

	s.outMu.Lock()
	s.outClosed = true
	close(s.outbd)
	s.outMu.Unlock()
	<-writerDone

	s.archive(recap)

	status := "completed"
	if recvErr != nil && !errors.Is(recvErr, context.Canceled) {
		status = "error"
	}
	s.deps.Metrics.SessionEnded(status, time.Since(s.start).Seconds())
	s.deps.Logger.Info("session finished",
		"session_id", s.deps.SessionID,
		"status", status,
		"duration_seconds", time.Since(s.start).Seconds(),
	)
	return recvErr
}

// Cancel aborts the session from outside (shutdown, drain). Safe to call
// more than once.
func (s *Session) Cancel() {
	s.closeOnce.Do(func() {
		s.cancelMu.Lock()
		cancel := s.cancel
		s.cancelMu.Unlock()
		if cancel != nil {
			cancel()
		}
		_ = s.deps.Conn.Close()
	})
}

// Warn tells the client the session is about to be terminated. The notice
// goes through the session's writer like any other text frame; it is dropped
// when the writer is backed up or already gone.
func (s *Session) Warn(reason string) {
	frame, err := json.Marshal(protocol.ErrorFrame(reason))
	if err != nil {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.outClosed {
		return
	}
	select {
	case s.outbd <- outboundFrame{text: frame}:
	default:
	}
}

func (s *Session) writeTimeout() time.Duration {
	if s.deps.Config.WriteTimeout > 0 {
		return s.deps.Config.WriteTimeout
	}
	return 5 * time.Second
}

// receiveLoop reads browser frames until the connection closes or the
// client sends the end-of-stream sentinel. Binary frames are raw PCM for
// the bridge; text frames are either the sentinel or JSON requests handled
// inline, matching the one-logical-flow-per-session model.
func (s *Session) receiveLoop(ctx context.Context) error {
	for {
		msgType, data, err := s.deps.Conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read client frame: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.deps.Metrics.AudioBytes("inbound", len(data))
			s.queue.Put(data)
		case websocket.TextMessage:
			if string(data) == protocol.EndSignal {
				s.deps.Logger.Info("client signalled end of stream", "session_id", s.deps.SessionID)
				return nil
			}
			s.handleClientJSON(ctx, data)
		}
	}
}

func (s *Session) handleClientJSON(ctx context.Context, data []byte) {
	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		// Unparseable frames are dropped; the session carries on.
		s.deps.Logger.Warn("ignoring bad client frame",
			"session_id", s.deps.SessionID,
			"error", err,
		)
		return
	}

	switch m := msg.(type) {
	case protocol.ClientText:
		s.handleText(ctx, m)
	case protocol.ClientImage:
		s.handleImage(ctx, m)
	}
}

// handleText runs one non-streaming exchange: prior history plus the new
// user turn, against the mode-specific persona. The reply is appended to
// history so later turns see it.
func (s *Session) handleText(ctx context.Context, m protocol.ClientText) {
	s.history = append(s.history, upstream.Turn{Role: "user", Text: m.Text})

	reply, err := s.deps.Upstream.Generate(ctx, tutor.PromptForMode(m.Mode), s.history, nil)
	if err != nil {
		s.deps.Logger.Error("text generate failed", "session_id", s.deps.SessionID, "error", err)
		s.deps.Metrics.Error("generate")
		reply = fallbackText
	}

	s.history = append(s.history, upstream.Turn{Role: "model", Text: reply})
	s.sendJSON(ctx, protocol.TutorMessage(reply))
}

func (s *Session) handleImage(ctx context.Context, m protocol.ClientImage) {
	if m.Data == "" {
		s.sendJSON(ctx, protocol.TutorMessage(fallbackNoImage))
		return
	}

	raw, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		s.deps.Logger.Warn("image decode failed", "session_id", s.deps.SessionID, "error", err)
		s.sendJSON(ctx, protocol.TutorMessage(fallbackImageRead))
		return
	}

	img := &upstream.Image{MIMEType: m.MIMEType, Data: raw, Caption: m.Caption}
	reply, err := s.deps.Upstream.Generate(ctx, tutor.PromptForMode(m.Mode), s.history, img)
	if err != nil {
		s.deps.Logger.Error("image generate failed", "session_id", s.deps.SessionID, "error", err)
		s.deps.Metrics.Error("generate")
		reply = fallbackImageCall
	}

	sent := "[Image sent]"
	if m.Caption != "" {
		sent += " " + m.Caption
	}
	s.history = append(s.history, upstream.Turn{Role: "user", Text: sent})
	s.history = append(s.history, upstream.Turn{Role: "model", Text: reply})
	s.sendJSON(ctx, protocol.TutorMessage(reply))
}

// sendJSON queues a frame for the writer. Best effort: frames are dropped
// if the session is shutting down or the outbound queue is full.
func (s *Session) sendJSON(ctx context.Context, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.deps.Logger.Error("encode outbound frame", "session_id", s.deps.SessionID, "error", err)
		return
	}
	select {
	case s.outbd <- outboundFrame{text: payload}:
	case <-ctx.Done():
	}
}

func (s *Session) sendBinary(ctx context.Context, data []byte) {
	select {
	case s.outbd <- outboundFrame{binary: data}:
	case <-ctx.Done():
	}
}

func (s *Session) archive(recap protocol.Recap) {
	timeout := s.deps.Config.ArchiveWriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.deps.Archive.SaveSession(ctx, recap, s.deps.Agent.Events()); err != nil {
		s.deps.Logger.Error("archive session failed", "session_id", s.deps.SessionID, "error", err)
		s.deps.Metrics.Error("archive")
	}
}
