// Package model defines the event log data structures for the interview
// session core.
package model

import (
	"encoding/json"
	"fmt"
)

// EventType identifies what happened in a session.
type EventType string

const (
	EventQuestionAsked   EventType = "QUESTION_ASKED"
	EventAnswerReceived  EventType = "ANSWER_RECEIVED"
	EventAnswerEvaluated EventType = "ANSWER_EVALUATED"

	// Legacy type tags still present in older session logs. They decode
	// and normalize to the canonical types above.
	LegacyQuestionShown    EventType = "QUESTION_SHOWN"
	LegacyTailQuestion     EventType = "TAIL_QUESTION"
	LegacyUserAnswer       EventType = "USER_ANSWER"
	LegacyAnswerEvaluation EventType = "ANSWER_EVALUATION"
)

// Canonical maps legacy type tags onto the canonical event types. Unknown
// tags map to the empty type.
func (t EventType) Canonical() EventType {
	switch t {
	case EventQuestionAsked, LegacyQuestionShown, LegacyTailQuestion:
		return EventQuestionAsked
	case EventAnswerReceived, LegacyUserAnswer:
		return EventAnswerReceived
	case EventAnswerEvaluated, LegacyAnswerEvaluation:
		return EventAnswerEvaluated
	}
	return ""
}

// Event is one stored record: a type tag plus its payload. Events are
// immutable once appended; position in the log is append order.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes a stored record. The type tag must be a known
// (canonical or legacy) event type; payload decoding is deferred to the
// typed accessors so a record with a valid tag but odd payload can still
// be classified.
func ParseEvent(record []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(record, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.Type.Canonical() == "" {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}

// QuestionAskedPayload carries one presented question, main or follow-up.
// ParentQuestionID is set iff the question is a follow-up.
type QuestionAskedPayload struct {
	QuestionID             string   `json:"question_id"`
	QuestionText           string   `json:"question_text"`
	Category               string   `json:"category,omitempty"`
	Criteria               []string `json:"criteria,omitempty"`
	Skills                 []string `json:"skills,omitempty"`
	Rationale              string   `json:"rationale,omitempty"`
	EstimatedAnswerTimeSec int      `json:"estimated_answer_time_sec,omitempty"`
	ParentQuestionID       string   `json:"parent_question_id,omitempty"`
}

// questionAskedWire mirrors QuestionAskedPayload plus the legacy key
// variants used by QUESTION_SHOWN and TAIL_QUESTION records.
type questionAskedWire struct {
	QuestionID             string   `json:"question_id"`
	QuestionText           string   `json:"question_text"`
	Category               string   `json:"category"`
	Criteria               []string `json:"criteria"`
	Skills                 []string `json:"skills"`
	Rationale              string   `json:"rationale"`
	EstimatedAnswerTimeSec int      `json:"estimated_answer_time_sec"`
	ParentQuestionID       string   `json:"parent_question_id"`

	MainQuestionID        string   `json:"main_question_id"`
	FollowupID            string   `json:"followup_id"`
	Question              string   `json:"question"`
	FocusCriteria         []string `json:"focus_criteria"`
	ExpectedAnswerTimeSec int      `json:"expected_answer_time_sec"`
}

// UnmarshalJSON accepts both the canonical keys and the legacy
// QUESTION_SHOWN / TAIL_QUESTION key spellings.
func (p *QuestionAskedPayload) UnmarshalJSON(b []byte) error {
	var w questionAskedWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	p.QuestionID = firstNonEmpty(w.QuestionID, w.FollowupID, w.MainQuestionID)
	p.QuestionText = firstNonEmpty(w.QuestionText, w.Question)
	p.Category = w.Category
	p.Criteria = w.Criteria
	if p.Criteria == nil {
		p.Criteria = w.FocusCriteria
	}
	p.Skills = w.Skills
	p.Rationale = w.Rationale
	p.EstimatedAnswerTimeSec = w.EstimatedAnswerTimeSec
	if p.EstimatedAnswerTimeSec == 0 {
		p.EstimatedAnswerTimeSec = w.ExpectedAnswerTimeSec
	}
	p.ParentQuestionID = w.ParentQuestionID
	return nil
}

// AnswerReceivedPayload carries the candidate's answer to one question.
type AnswerReceivedPayload struct {
	QuestionID        string `json:"question_id"`
	Answer            string `json:"answer"`
	AnswerDurationSec int    `json:"answer_duration_sec"`
}

// CriterionScore is one per-criterion grade inside an evaluation.
type CriterionScore struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// Follow-up decisions an evaluation can carry.
const (
	FollowupCreate = "create"
	FollowupSkip   = "skip"
)

// AnswerEvaluatedPayload carries the evaluation produced for one answer.
type AnswerEvaluatedPayload struct {
	QuestionID        string           `json:"question_id"`
	Type              string           `json:"type,omitempty"`
	AnswerDurationSec int              `json:"answer_duration_sec,omitempty"`
	OverallScore      float64          `json:"overall_score"`
	Strengths         []string         `json:"strengths,omitempty"`
	Improvements      []string         `json:"improvements,omitempty"`
	RedFlags          []string         `json:"red_flags,omitempty"`
	CriterionScores   []CriterionScore `json:"criterion_scores,omitempty"`
	Feedback          string           `json:"feedback"`
	FollowupDecision  string           `json:"followup_decision,omitempty"`
	FollowupRationale string           `json:"followup_rationale,omitempty"`
}

// QuestionAsked decodes the payload as a QuestionAskedPayload. The caller
// is expected to have checked the canonical type first.
func (e *Event) QuestionAsked() (*QuestionAskedPayload, error) {
	var p QuestionAskedPayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, fmt.Errorf("decode question payload: %w", err)
	}
	return &p, nil
}

// AnswerReceived decodes the payload as an AnswerReceivedPayload.
func (e *Event) AnswerReceived() (*AnswerReceivedPayload, error) {
	var p AnswerReceivedPayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, fmt.Errorf("decode answer payload: %w", err)
	}
	return &p, nil
}

// AnswerEvaluated decodes the payload as an AnswerEvaluatedPayload.
func (e *Event) AnswerEvaluated() (*AnswerEvaluatedPayload, error) {
	var p AnswerEvaluatedPayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, fmt.Errorf("decode evaluation payload: %w", err)
	}
	return &p, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
