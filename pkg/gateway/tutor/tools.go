package tutor

import (
	"fmt"
	"math"
	"strings"
)

// toolKind enumerates the local scoring operations. Dispatch switches over
// the kind exhaustively instead of going through a name->func map, so adding
// an operation without handling it fails at compile time.
type toolKind int

const (
	toolDetectProblemType toolKind = iota
	toolCheckAnswer
	toolGenerateNextHint
	toolBuildSessionRecap
)

const (
	ToolNameDetectProblemType = "detect_problem_type"
	ToolNameCheckAnswer       = "check_answer"
	ToolNameGenerateNextHint  = "generate_next_hint"
	ToolNameBuildSessionRecap = "build_session_recap"
)

func kindOf(name string) (toolKind, bool) {
	switch name {
	case ToolNameDetectProblemType:
		return toolDetectProblemType, true
	case ToolNameCheckAnswer:
		return toolCheckAnswer, true
	case ToolNameGenerateNextHint:
		return toolGenerateNextHint, true
	case ToolNameBuildSessionRecap:
		return toolBuildSessionRecap, true
	default:
		return 0, false
	}
}

// mistakePenalty is subtracted from a perfect 1.0 score per incorrect answer.
const mistakePenalty = 0.1

// sessionScore is the single scoring rule shared by the mid-conversation
// recap tool and the post-session recap: round(1 - 0.1*mistakes, 2) clamped
// to [0, 1].
func sessionScore(mistakes int) float64 {
	score := math.Round((1.0-mistakePenalty*float64(mistakes))*100) / 100
	return math.Max(0.0, math.Min(1.0, score))
}

// Problem categories in declaration order. Order is the tie-break: the first
// category with at least one keyword hit wins even if a later one would
// match more keywords.
var problemCategories = []struct {
	name     string
	keywords []string
}{
	{ProblemTypeAlgebra, []string{"solve", "equation", "variable", "simplify", "factor", "unknown"}},
	{ProblemTypeGeometry, []string{"area", "perimeter", "angle", "triangle", "circle", "volume"}},
	{ProblemTypeArithmetic, []string{"add", "subtract", "multiply", "divide", "plus", "minus", "times"}},
	{ProblemTypeCalculus, []string{"derivative", "integral", "limit", "differentiate", "rate of change"}},
	{ProblemTypeStatistics, []string{"mean", "median", "mode", "probability", "average", "standard deviation"}},
	{ProblemTypeTrigonometry, []string{"sin", "cos", "tan", "sine", "cosine", "tangent"}},
	{ProblemTypeWordProblem, []string{"how many", "how much", "total cost", "per hour", "altogether"}},
}

const (
	ProblemTypeAlgebra      = "algebra"
	ProblemTypeGeometry     = "geometry"
	ProblemTypeArithmetic   = "arithmetic"
	ProblemTypeCalculus     = "calculus"
	ProblemTypeStatistics   = "statistics"
	ProblemTypeTrigonometry = "trigonometry"
	ProblemTypeWordProblem  = "word_problem"
	ProblemTypeUnknown      = "unknown"
)

type ClassifyResult struct {
	ProblemType string
	Confidence  float64
	Reasoning   string
}

// Classify matches the utterance (plus optional context) against the fixed
// keyword table, case-insensitively.
func Classify(utterance, context string) ClassifyResult {
	haystack := strings.ToLower(utterance + " " + context)

	for _, cat := range problemCategories {
		matches := 0
		var hits []string
		for _, kw := range cat.keywords {
			if strings.Contains(haystack, kw) {
				matches++
				hits = append(hits, kw)
			}
		}
		if matches == 0 {
			continue
		}
		confidence := math.Min(0.5+0.1*float64(matches), 0.95)
		return ClassifyResult{
			ProblemType: cat.name,
			Confidence:  confidence,
			Reasoning:   fmt.Sprintf("matched keywords: %s", strings.Join(hits, ", ")),
		}
	}

	return ClassifyResult{
		ProblemType: ProblemTypeUnknown,
		Confidence:  0.0,
		Reasoning:   "no category keywords matched",
	}
}

type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictPartial   Verdict = "partial"
	VerdictIncorrect Verdict = "incorrect"
)

type GradeResult struct {
	Verdict     Verdict
	Correction  string
	Explanation string
}

// Grade compares a student answer against the expected answer after
// normalization (trim, lowercase). Exact match is correct; substring
// containment in either direction is partial; anything else is incorrect.
// Partial and incorrect verdicts carry the expected answer as a correction.
func Grade(question, studentAnswer, expectedAnswer string) GradeResult {
	s := strings.ToLower(strings.TrimSpace(studentAnswer))
	e := strings.ToLower(strings.TrimSpace(expectedAnswer))

	switch {
	case s == e:
		return GradeResult{
			Verdict:     VerdictCorrect,
			Explanation: "answer matches exactly",
		}
	case strings.Contains(e, s) || strings.Contains(s, e):
		return GradeResult{
			Verdict:     VerdictPartial,
			Correction:  expectedAnswer,
			Explanation: "answer partially matches the expected answer",
		}
	default:
		return GradeResult{
			Verdict:     VerdictIncorrect,
			Correction:  expectedAnswer,
			Explanation: "answer does not match the expected answer",
		}
	}
}

const (
	hintLevelMin = 1
	hintLevelMax = 3
)

type HintResult struct {
	Hint      string
	HintLevel int
}

// Hint produces a progressively more revealing hint. The level is clamped to
// [1, 3]: 1 is a strategy nudge, 3 hands over the worked answer.
func Hint(problem string, level int) HintResult {
	if level < hintLevelMin {
		level = hintLevelMin
	}
	if level > hintLevelMax {
		level = hintLevelMax
	}

	var hint string
	switch level {
	case 1:
		hint = "Think about what the problem is really asking, and write down what you already know."
	case 2:
		hint = fmt.Sprintf("Start from this part of the problem: %s", truncate(problem, 30))
	default:
		hint = fmt.Sprintf("Here is the full answer: %s", problem)
	}

	return HintResult{Hint: hint, HintLevel: level}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

type RecapResult struct {
	SessionID     string
	TopicsCovered []string
	Mistakes      []string
	Corrections   []string
	Summary       string
	Score         float64
}

// BuildRecapFromLists aggregates caller-supplied recap material. Used when
// the model requests a recap mid-conversation; the post-session recap in
// agent.go reuses the same scoring.
func BuildRecapFromLists(sessionID string, topics, mistakes, corrections []string) RecapResult {
	if topics == nil {
		topics = []string{}
	}
	if mistakes == nil {
		mistakes = []string{}
	}
	if corrections == nil {
		corrections = []string{}
	}

	parts := []string{"Great math session!"}
	if len(topics) > 0 {
		parts = append(parts, fmt.Sprintf("Topics: %s.", strings.Join(topics, ", ")))
	}
	if len(mistakes) > 0 {
		parts = append(parts, fmt.Sprintf("%d mistake(s) — review the corrections above.", len(mistakes)))
	} else {
		parts = append(parts, "No mistakes — well done.")
	}

	return RecapResult{
		SessionID:     sessionID,
		TopicsCovered: topics,
		Mistakes:      mistakes,
		Corrections:   corrections,
		Summary:       strings.Join(parts, " "),
		Score:         sessionScore(len(mistakes)),
	}
}
