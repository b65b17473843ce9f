package model

// RestoreStep describes one historical question from the system of record:
// the question itself, and optionally the answer and evaluation that
// followed it. Replaying a step emits one QuestionAsked, then an
// AnswerReceived iff Answer is set, then an AnswerEvaluated iff Evaluation
// is set.
type RestoreStep struct {
	QuestionID             string                  `json:"question_id"`
	ParentQuestionID       string                  `json:"parent_question_id,omitempty"`
	QuestionText           string                  `json:"question_text"`
	Category               string                  `json:"category,omitempty"`
	Criteria               []string                `json:"criteria,omitempty"`
	Skills                 []string                `json:"skills,omitempty"`
	Rationale              string                  `json:"rationale,omitempty"`
	EstimatedAnswerTimeSec int                     `json:"estimated_answer_time_sec,omitempty"`
	Answer                 *string                 `json:"answer,omitempty"`
	AnswerDurationSec      int                     `json:"answer_duration_sec,omitempty"`
	Evaluation             *AnswerEvaluatedPayload `json:"evaluation,omitempty"`
}

// IsFollowup reports whether the step represents a follow-up question.
func (s *RestoreStep) IsFollowup() bool {
	return s.ParentQuestionID != ""
}

// RestoreRequest is the bulk replay request body.
type RestoreRequest struct {
	Steps []RestoreStep `json:"steps"`
}

// RestoreResponse reports a completed replay.
type RestoreResponse struct {
	OK            bool `json:"ok"`
	RestoredSteps int  `json:"restored_steps"`
}
