// Package upstream abstracts the conversational model behind the gateway.
// There are two implementations: a real Gemini client and a deterministic
// stub, selected by configuration at construction time.
package upstream

import (
	"context"

	"google.golang.org/genai"

	"github.com/faheemlive/backend/pkg/gateway/config"
)

// ToolCall is a model-issued function call carried by a live event.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the local function result sent back to the model.
type ToolResult struct {
	ID     string
	Name   string
	Result map[string]any
}

// LiveEvent is one message from the live session's inbound stream. A single
// event may carry multiple signals; consumers handle them in priority order
// (interruption, tool calls, audio, turn complete).
type LiveEvent struct {
	Interrupted  bool
	ToolCalls    []ToolCall
	AudioParts   [][]byte
	TurnComplete bool
}

// LiveSession is one open bidirectional audio session with the model.
//
// Receive blocks until the next event arrives and returns an error once the
// session is closed or the stream breaks. Close releases the session handle
// and unblocks any in-flight Receive; it is safe to call once.
type LiveSession interface {
	SendAudio(pcm []byte) error
	Receive() (*LiveEvent, error)
	SendToolResults(results []ToolResult) error
	Close() error
}

// LiveConfig is passed once when opening a live session.
type LiveConfig struct {
	SystemPrompt string
	Voice        string
	Tools        []*genai.Tool
}

// Turn is one prior conversation turn for the non-streaming generate path.
// Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

// Image is an uploaded image for a single multimodal exchange.
type Image struct {
	MIMEType string
	Data     []byte
	Caption  string
}

// Client is the gateway's view of the conversational model.
//
// Generate performs one non-streaming call: turns are the conversation so
// far (including the new user turn when image is nil); when image is non-nil
// it forms the new user turn and turns hold only prior history.
type Client interface {
	OpenLive(ctx context.Context, cfg LiveConfig) (LiveSession, error)
	Generate(ctx context.Context, system string, turns []Turn, image *Image) (string, error)
}

// New builds the model client selected by configuration.
func New(ctx context.Context, cfg config.Config) (Client, error) {
	if cfg.GeminiStub {
		return NewStub(), nil
	}
	return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTextModel)
}
