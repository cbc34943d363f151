package tutor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/faheemlive/backend/pkg/gateway/live/protocol"
	"github.com/faheemlive/backend/pkg/gateway/upstream"
)

// ToolEvent records a single dispatched call for the session archive and
// the post-session recap. Unknown tool names are recorded too.
type ToolEvent struct {
	Tool   string
	Args   map[string]any
	Result map[string]any
	At     time.Time
}

// Agent executes model-issued tool calls against the local scoring
// functions and accumulates the per-session event history. Dispatch is
// called from the downstream relay goroutine while BuildRecap runs after
// the relays have stopped, so the history is guarded anyway.
type Agent struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []ToolEvent
}

func NewAgent(logger *slog.Logger) *Agent {
	return &Agent{logger: logger}
}

// Dispatch resolves every call in the batch, in order, and returns one
// result per call. It never fails: an unknown tool name or malformed
// arguments produce an error payload in that call's result so the model
// can recover in-conversation.
func (a *Agent) Dispatch(calls []upstream.ToolCall) []upstream.ToolResult {
	results := make([]upstream.ToolResult, 0, len(calls))
	for _, call := range calls {
		result := a.dispatchOne(call)
		results = append(results, upstream.ToolResult{
			ID:     call.ID,
			Name:   call.Name,
			Result: result,
		})

		a.mu.Lock()
		a.events = append(a.events, ToolEvent{
			Tool:   call.Name,
			Args:   call.Args,
			Result: result,
			At:     time.Now(),
		})
		a.mu.Unlock()
	}
	return results
}

func (a *Agent) dispatchOne(call upstream.ToolCall) map[string]any {
	kind, ok := kindOf(call.Name)
	if !ok {
		a.logger.Warn("unknown tool requested", "tool", call.Name)
		return map[string]any{"error": fmt.Sprintf("Unknown tool: %s", call.Name)}
	}

	a.logger.Info("dispatching tool", "tool", call.Name)

	switch kind {
	case toolDetectProblemType:
		r := Classify(stringArg(call.Args, "utterance"), stringArg(call.Args, "context"))
		return map[string]any{
			"problem_type": r.ProblemType,
			"confidence":   r.Confidence,
			"reasoning":    r.Reasoning,
		}
	case toolCheckAnswer:
		r := Grade(
			stringArg(call.Args, "question"),
			stringArg(call.Args, "student_answer"),
			stringArg(call.Args, "expected_answer"),
		)
		return map[string]any{
			"verdict":     string(r.Verdict),
			"correction":  r.Correction,
			"explanation": r.Explanation,
		}
	case toolGenerateNextHint:
		r := Hint(stringArg(call.Args, "problem"), intArg(call.Args, "hint_level"))
		return map[string]any{
			"hint":       r.Hint,
			"hint_level": r.HintLevel,
			"language":   "en",
		}
	case toolBuildSessionRecap:
		r := BuildRecapFromLists(
			stringArg(call.Args, "session_id"),
			stringsArg(call.Args, "topics"),
			stringsArg(call.Args, "mistakes"),
			stringsArg(call.Args, "corrections"),
		)
		return map[string]any{
			"session_id":     r.SessionID,
			"topics_covered": r.TopicsCovered,
			"mistakes":       r.Mistakes,
			"corrections":    r.Corrections,
			"summary":        r.Summary,
			"score":          r.Score,
		}
	default:
		return map[string]any{"error": fmt.Sprintf("Unknown tool: %s", call.Name)}
	}
}

// Events returns a snapshot of the dispatched-call history.
func (a *Agent) Events() []ToolEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ToolEvent, len(a.events))
	copy(out, a.events)
	return out
}

// BuildRecap derives the end-of-session recap from the accumulated tool
// history: topics come from detect_problem_type classifications and any
// mid-session recap calls, mistakes from incorrect check_answer verdicts,
// corrections from incorrect and partial verdicts.
func (a *Agent) BuildRecap(sessionID string, duration time.Duration) protocol.Recap {
	a.mu.Lock()
	events := make([]ToolEvent, len(a.events))
	copy(events, a.events)
	a.mu.Unlock()

	topics := []string{}
	seen := map[string]struct{}{}
	addTopic := func(t string) {
		if t == "" || t == ProblemTypeUnknown {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}

	mistakes := []string{}
	corrections := []string{}

	for _, ev := range events {
		switch ev.Tool {
		case ToolNameDetectProblemType:
			if pt, ok := ev.Result["problem_type"].(string); ok {
				addTopic(pt)
			}
		case ToolNameCheckAnswer:
			verdict, _ := ev.Result["verdict"].(string)
			if verdict == string(VerdictIncorrect) {
				mistakes = append(mistakes, stringArg(ev.Args, "student_answer"))
			}
			if verdict == string(VerdictIncorrect) || verdict == string(VerdictPartial) {
				if c, ok := ev.Result["correction"].(string); ok && c != "" {
					corrections = append(corrections, c)
				}
			}
		case ToolNameBuildSessionRecap:
			for _, t := range stringsArg(ev.Args, "topics") {
				addTopic(t)
			}
		}
	}

	summary := "Math session complete."
	if len(topics) > 0 {
		summary = fmt.Sprintf("Math session complete. Covered: %s.", joinComma(topics))
	}
	if n := len(mistakes); n > 0 {
		summary = fmt.Sprintf("%s %d answer(s) needed correction.", summary, n)
	}

	return protocol.Recap{
		SessionID:       sessionID,
		DurationSeconds: duration.Seconds(),
		TopicsCovered:   topics,
		Mistakes:        mistakes,
		Corrections:     corrections,
		Score:           sessionScore(len(mistakes)),
		Summary:         summary,
	}
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// Argument extraction helpers. The live API delivers arguments as decoded
// JSON, so numbers arrive as float64 and lists as []any.

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	if args == nil {
		return 0
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringsArg(args map[string]any, key string) []string {
	if args == nil {
		return nil
	}
	raw, ok := args[key].([]any)
	if !ok {
		if typed, ok := args[key].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
