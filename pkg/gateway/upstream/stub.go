package upstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Stub is a deterministic model client for running the full pipeline without
// credentials or network access. Live sessions echo silence sized to the
// incoming chunk so the browser audio path can be verified end to end, and
// Generate returns canned replies.
type Stub struct{}

func NewStub() Stub { return Stub{} }

func (Stub) OpenLive(ctx context.Context, cfg LiveConfig) (LiveSession, error) {
	return &stubLiveSession{
		events: make(chan *LiveEvent, 16),
		done:   make(chan struct{}),
	}, nil
}

func (Stub) Generate(ctx context.Context, system string, turns []Turn, image *Image) (string, error) {
	if image != nil {
		caption := ""
		if image.Caption != "" {
			caption = "Caption: " + image.Caption + ". "
		}
		return fmt.Sprintf("[Stub] I can see your math problem! %sLet me work through it step by step.", caption), nil
	}
	last := ""
	for _, t := range turns {
		if t.Role == "user" {
			last = t.Text
		}
	}
	return fmt.Sprintf("[Stub] You said: %s", last), nil
}

var errStubClosed = errors.New("stub live session closed")

type stubLiveSession struct {
	events    chan *LiveEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (s *stubLiveSession) SendAudio(pcm []byte) error {
	// Echo the same number of zero bytes back through the normal relay path.
	ev := &LiveEvent{AudioParts: [][]byte{make([]byte, len(pcm))}}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return errStubClosed
	}
}

func (s *stubLiveSession) Receive() (*LiveEvent, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-s.done:
		return nil, errStubClosed
	}
}

func (s *stubLiveSession) SendToolResults(results []ToolResult) error {
	select {
	case <-s.done:
		return errStubClosed
	default:
		return nil
	}
}

func (s *stubLiveSession) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
