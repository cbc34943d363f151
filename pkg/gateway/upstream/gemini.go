package upstream

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Instruction attached to image turns that arrive without a caption.
const defaultImageInstruction = "This is a math problem. Please identify it and solve it step by step."

const inboundAudioMIMEType = "audio/pcm;rate=16000"

// GeminiClient talks to the Gemini API: the Live API for audio sessions and
// the standard generate API for text and image turns.
type GeminiClient struct {
	client    *genai.Client
	liveModel string
	textModel string
}

func NewGemini(ctx context.Context, apiKey, liveModel, textModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{
		client:    client,
		liveModel: liveModel,
		textModel: textModel,
	}, nil
}

func (g *GeminiClient) OpenLive(ctx context.Context, cfg LiveConfig) (LiveSession, error) {
	live, err := g.client.Live.Connect(ctx, g.liveModel, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction:  genai.NewContentFromText(cfg.SystemPrompt, genai.RoleUser),
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		},
		Tools: cfg.Tools,
	})
	if err != nil {
		return nil, fmt.Errorf("connect live session: %w", err)
	}
	return &geminiLiveSession{session: live}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, system string, turns []Turn, image *Image) (string, error) {
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, t := range turns {
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}
	if image != nil {
		caption := strings.TrimSpace(image.Caption)
		if caption == "" {
			caption = defaultImageInstruction
		}
		parts := []*genai.Part{
			genai.NewPartFromBytes(image.Data, image.MIMEType),
			genai.NewPartFromText(caption),
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, ""),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

type geminiLiveSession struct {
	session *genai.Session
}

func (s *geminiLiveSession) SendAudio(pcm []byte) error {
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: pcm, MIMEType: inboundAudioMIMEType},
	})
}

func (s *geminiLiveSession) Receive() (*LiveEvent, error) {
	msg, err := s.session.Receive()
	if err != nil {
		return nil, err
	}

	ev := &LiveEvent{}
	if sc := msg.ServerContent; sc != nil {
		ev.Interrupted = sc.Interrupted
		ev.TurnComplete = sc.TurnComplete
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					ev.AudioParts = append(ev.AudioParts, part.InlineData.Data)
				}
			}
		}
	}
	if msg.ToolCall != nil {
		for _, fc := range msg.ToolCall.FunctionCalls {
			if fc == nil {
				continue
			}
			ev.ToolCalls = append(ev.ToolCalls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
	}
	return ev, nil
}

func (s *geminiLiveSession) SendToolResults(results []ToolResult) error {
	responses := make([]*genai.FunctionResponse, 0, len(results))
	for _, r := range results {
		responses = append(responses, &genai.FunctionResponse{
			ID:       r.ID,
			Name:     r.Name,
			Response: r.Result,
		})
	}
	return s.session.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: responses})
}

func (s *geminiLiveSession) Close() error {
	return s.session.Close()
}
