package session

import (
	"context"
	"errors"

	"github.com/faheemlive/backend/pkg/gateway/live/protocol"
	"github.com/faheemlive/backend/pkg/gateway/tutor"
	"github.com/faheemlive/backend/pkg/gateway/upstream"
)

// runBridge owns the live model connection and the two relay loops. The
// upstream relay runs on this goroutine; the downstream relay runs beside
// it and is cancelled only after the upstream relay finishes, so replies to
// late audio are not cut off mid-stream.
func (s *Session) runBridge(ctx context.Context) {
	live, err := s.deps.Upstream.OpenLive(ctx, upstream.LiveConfig{
		SystemPrompt: tutor.SystemPrompt,
		Voice:        s.deps.Voice,
		Tools:        tutor.Declarations(),
	})
	if err != nil {
		s.deps.Logger.Error("open live session failed", "session_id", s.deps.SessionID, "error", err)
		s.deps.Metrics.Error("live_connect")
		s.sendJSON(ctx, protocol.ErrorFrame("Could not reach the tutor. Please reconnect."))
		// Drain the queue so the receive loop's Puts stay cheap until the
		// client notices and disconnects.
		for {
			if _, err := s.queue.Get(ctx); err != nil {
				return
			}
		}
	}

	downCtx, downCancel := context.WithCancel(ctx)
	downDone := make(chan struct{})
	go func() {
		defer close(downDone)
		s.downstreamLoop(downCtx, live)
	}()

	s.upstreamLoop(ctx, live)

	downCancel()
	<-downDone
	_ = live.Close()
}

// upstreamLoop feeds queued PCM chunks to the model until the end-of-input
// sentinel or a send failure.
func (s *Session) upstreamLoop(ctx context.Context, live upstream.LiveSession) {
	for {
		chunk, err := s.queue.Get(ctx)
		if err != nil {
			if errors.Is(err, ErrEndOfInput) {
				s.deps.Logger.Debug("audio input drained", "session_id", s.deps.SessionID)
			}
			return
		}
		if err := live.SendAudio(chunk); err != nil {
			s.deps.Logger.Error("send audio upstream failed", "session_id", s.deps.SessionID, "error", err)
			s.deps.Metrics.Error("live_send")
			return
		}
	}
}

// downstreamLoop relays model events to the browser. Receive has no
// context parameter, so a pump goroutine feeds events into a channel and
// the loop selects between it and cancellation; closing the live session
// after cancellation unblocks the pump.
func (s *Session) downstreamLoop(ctx context.Context, live upstream.LiveSession) {
	type received struct {
		event *upstream.LiveEvent
		err   error
	}
	events := make(chan received)
	go func() {
		defer close(events)
		for {
			ev, err := live.Receive()
			select {
			case events <- received{event: ev, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	audioChunks := 0
	for {
		var r received
		var ok bool
		select {
		case <-ctx.Done():
			return
		case r, ok = <-events:
			if !ok {
				return
			}
		}
		if r.err != nil {
			if ctx.Err() == nil {
				s.deps.Logger.Error("receive from live session failed", "session_id", s.deps.SessionID, "error", r.err)
				s.deps.Metrics.Error("live_receive")
			}
			return
		}

		ev := r.event

		// A barge-in invalidates everything queued for the current turn.
		if ev.Interrupted {
			s.deps.Logger.Info("model turn interrupted", "session_id", s.deps.SessionID, "audio_chunks", audioChunks)
			audioChunks = 0
			s.sendJSON(ctx, protocol.StatusInterrupted())
			continue
		}

		if len(ev.ToolCalls) > 0 {
			for _, call := range ev.ToolCalls {
				s.deps.Metrics.ToolCall(call.Name)
			}
			results := s.deps.Agent.Dispatch(ev.ToolCalls)
			if err := live.SendToolResults(results); err != nil {
				s.deps.Logger.Error("send tool results failed", "session_id", s.deps.SessionID, "error", err)
				s.deps.Metrics.Error("live_send")
				return
			}
			continue
		}

		for _, part := range ev.AudioParts {
			s.deps.Metrics.AudioBytes("outbound", len(part))
			s.sendBinary(ctx, part)
			audioChunks++
		}

		if ev.TurnComplete {
			s.deps.Logger.Debug("model turn complete", "session_id", s.deps.SessionID, "audio_chunks", audioChunks)
			audioChunks = 0
		}
	}
}
