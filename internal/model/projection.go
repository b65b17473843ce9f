package model

// Role is the domain role of a transcript line. It is derived from the
// event's type tag, never from the backend's own notion of who spoke.
type Role string

const (
	RoleQuestion   Role = "question"
	RoleAnswer     Role = "answer"
	RoleEvaluation Role = "evaluation"
)

// TranscriptLine is one event rendered for inspection.
type TranscriptLine struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TranscriptDump is the full transcript projection for one session.
type TranscriptDump struct {
	SessionID string           `json:"session_id"`
	Lines     []TranscriptLine `json:"lines"`
}

// EvaluatedQuestion pairs an evaluation with the answer that preceded it.
type EvaluatedQuestion struct {
	QuestionID   string  `json:"question_id"`
	OverallScore float64 `json:"overall_score"`
	AnswerText   string  `json:"answer_text"`
	Feedback     string  `json:"feedback"`
}

// EvaluationSummary is the aggregate projection over all evaluations in a
// session. AverageScore is 0 when the session holds no evaluations.
type EvaluationSummary struct {
	SessionID     string              `json:"session_id"`
	AverageScore  float64             `json:"average_score"`
	FeedbackBlock string              `json:"feedback_block"`
	Questions     []EvaluatedQuestion `json:"questions"`
}

// FollowupSequence reports the follow-up position for a parent question.
type FollowupSequence struct {
	ParentQuestionID string `json:"parent_question_id"`
	ExistingCount    int    `json:"existing_count"`
	NextIndex        int    `json:"next_index"`
	NextFollowupID   string `json:"next_followup_id"`
}
