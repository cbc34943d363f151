package tutor

import "google.golang.org/genai"

// Declarations returns the function schemas advertised to the model at
// live-session start. Names must match the dispatch table in tools.go.
func Declarations() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name: ToolNameDetectProblemType,
					Description: "Classify the type of math problem the student is working on. " +
						"Returns one of: algebra, geometry, arithmetic, calculus, " +
						"statistics, trigonometry, word_problem, or unknown.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"utterance": {
								Type:        genai.TypeString,
								Description: "The student's spoken or written math problem.",
							},
							"context": {
								Type:        genai.TypeString,
								Description: "Optional surrounding conversation context.",
							},
						},
						Required: []string{"utterance"},
					},
				},
				{
					Name: ToolNameCheckAnswer,
					Description: "Verify whether the student's answer to a math question is " +
						"correct, partially correct, or incorrect. Provide a correction " +
						"and brief explanation when wrong.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"question": {
								Type:        genai.TypeString,
								Description: "The math question that was posed.",
							},
							"student_answer": {
								Type:        genai.TypeString,
								Description: "The student's answer.",
							},
							"expected_answer": {
								Type:        genai.TypeString,
								Description: "The correct answer.",
							},
						},
						Required: []string{"question", "student_answer", "expected_answer"},
					},
				},
				{
					Name: ToolNameGenerateNextHint,
					Description: "Generate a progressively more revealing hint for a student stuck " +
						"on a math problem. Use hint_level=1 first, escalate to 2 then 3 " +
						"only if still stuck.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"problem": {
								Type:        genai.TypeString,
								Description: "The math problem the student is stuck on.",
							},
							"hint_level": {
								Type:        genai.TypeInteger,
								Description: "1=subtle strategy hint, 2=partial step, 3=full worked step.",
							},
						},
						Required: []string{"problem", "hint_level"},
					},
				},
				{
					Name: ToolNameBuildSessionRecap,
					Description: "Build a structured end-of-session recap. Call this when the " +
						"student says goodbye, finishes, or signals they are done.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"session_id": {Type: genai.TypeString},
							"topics": {
								Type:        genai.TypeArray,
								Items:       &genai.Schema{Type: genai.TypeString},
								Description: "Math topics or problem types covered in the session.",
							},
							"mistakes": {
								Type:        genai.TypeArray,
								Items:       &genai.Schema{Type: genai.TypeString},
								Description: "Incorrect student answers recorded during the session.",
							},
							"corrections": {
								Type:        genai.TypeArray,
								Items:       &genai.Schema{Type: genai.TypeString},
								Description: "Corrections or correct answers the tutor provided.",
							},
						},
						Required: []string{"session_id"},
					},
				},
			},
		},
	}
}
