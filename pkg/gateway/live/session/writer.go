package session

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// outboundFrame carries exactly one websocket frame: a JSON text payload or
// a binary PCM chunk.
type outboundFrame struct {
	text   []byte
	binary []byte
}

// runWriter is the single goroutine allowed to write to the websocket. It
// drains the outbound queue, keeps the connection alive with pings, and
// sends a close frame when the queue is closed or the context ends.
func (s *Session) runWriter(ctx context.Context) error {
	writeTimeout := s.writeTimeout()
	pingInterval := s.deps.Config.PingInterval
	if pingInterval <= 0 {
		pingInterval = 20 * time.Second
	}

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	closeNormally := func() {
		deadline := time.Now().Add(writeTimeout)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.deps.Conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = s.deps.Conn.Close()
	}

	for {
		select {
		case <-ctx.Done():
			closeNormally()
			return ctx.Err()
		case <-pingTicker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := s.deps.Conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return err
			}
		case frame, ok := <-s.outbd:
			if !ok {
				closeNormally()
				return nil
			}
			if err := s.writeFrame(frame, writeTimeout); err != nil {
				return err
			}
		}
	}
}

func (s *Session) writeFrame(frame outboundFrame, writeTimeout time.Duration) error {
	deadline := time.Now().Add(writeTimeout)
	if err := s.deps.Conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if frame.binary != nil {
		return s.deps.Conn.WriteMessage(websocket.BinaryMessage, frame.binary)
	}
	return s.deps.Conn.WriteMessage(websocket.TextMessage, frame.text)
}
