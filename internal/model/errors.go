package model

import (
	"fmt"
	"regexp"
)

// questionIDPattern matches main question ids (q1) and follow-up ids
// (q1-fu2).
var questionIDPattern = regexp.MustCompile(`^q\d+(-fu\d+)?$`)

// ValidationError is a client-facing input error. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// RestoreError reports which replay step failed validation. The log is
// left untouched when restore fails this way.
type RestoreError struct {
	Step int
	Err  error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore step %d: %v", e.Step, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// ValidateQuestionID checks the id against the q<N>[-fu<N>] pattern.
func ValidateQuestionID(id string) error {
	if id == "" {
		return &ValidationError{Field: "question_id", Reason: "required"}
	}
	if !questionIDPattern.MatchString(id) {
		return &ValidationError{Field: "question_id", Reason: fmt.Sprintf("invalid format %q", id)}
	}
	return nil
}

// ValidateEvaluation checks the fields restore and the write endpoints
// depend on. Scores are graded 1-5.
func ValidateEvaluation(p *AnswerEvaluatedPayload) error {
	if p == nil {
		return &ValidationError{Field: "evaluation", Reason: "required"}
	}
	if err := ValidateQuestionID(p.QuestionID); err != nil {
		return err
	}
	if p.OverallScore < 1 || p.OverallScore > 5 {
		return &ValidationError{Field: "overall_score", Reason: fmt.Sprintf("must be between 1 and 5, got %v", p.OverallScore)}
	}
	if p.FollowupDecision != "" && p.FollowupDecision != FollowupCreate && p.FollowupDecision != FollowupSkip {
		return &ValidationError{Field: "followup_decision", Reason: fmt.Sprintf("must be %q or %q", FollowupCreate, FollowupSkip)}
	}
	return nil
}
