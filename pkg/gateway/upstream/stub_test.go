package upstream

import (
	"context"
	"strings"
	"testing"

	"github.com/faheemlive/backend/pkg/gateway/config"
)

func stubConfig() config.Config {
	return config.Config{GeminiStub: true}
}

func TestStubGenerateEchoesLastUserTurn(t *testing.T) {
	stub := NewStub()
	turns := []Turn{
		{Role: "user", Text: "first"},
		{Role: "model", Text: "reply"},
		{Role: "user", Text: "second"},
	}
	got, err := stub.Generate(context.Background(), "persona", turns, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "[Stub] You said: second" {
		t.Fatalf("got %q", got)
	}
}

func TestStubGenerateImage(t *testing.T) {
	stub := NewStub()
	got, err := stub.Generate(context.Background(), "persona", nil, &Image{
		MIMEType: "image/png",
		Data:     []byte("png"),
		Caption:  "page 3",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(got, "I can see your math problem") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "page 3") {
		t.Fatalf("caption not echoed: %q", got)
	}
}

func TestStubLiveEchoesSilence(t *testing.T) {
	stub := NewStub()
	live, err := stub.OpenLive(context.Background(), LiveConfig{})
	if err != nil {
		t.Fatalf("OpenLive: %v", err)
	}
	defer live.Close()

	pcm := []byte{1, 2, 3, 4}
	if err := live.SendAudio(pcm); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	ev, err := live.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(ev.AudioParts) != 1 || len(ev.AudioParts[0]) != len(pcm) {
		t.Fatalf("unexpected echo: %+v", ev)
	}
	for _, b := range ev.AudioParts[0] {
		if b != 0 {
			t.Fatalf("echo not silent: %v", ev.AudioParts[0])
		}
	}
}

func TestStubLiveCloseUnblocksReceive(t *testing.T) {
	stub := NewStub()
	live, err := stub.OpenLive(context.Background(), LiveConfig{})
	if err != nil {
		t.Fatalf("OpenLive: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := live.Receive()
		done <- err
	}()

	if err := live.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-done; err == nil {
		t.Fatalf("Receive returned nil after Close")
	}

	// Close is idempotent.
	if err := live.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewSelectsStub(t *testing.T) {
	client, err := New(context.Background(), stubConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := client.(Stub); !ok {
		t.Fatalf("got %T, want Stub", client)
	}
}
