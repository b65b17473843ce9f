package session

import (
	"context"
	"strings"
	"testing"

	"github.com/prepview-ai/session-core/internal/model"
	"github.com/prepview-ai/session-core/internal/store"
	"github.com/prepview-ai/session-core/pkg/logger"
)

func seed(t *testing.T, tr *store.Transient, sessionID string, records ...string) {
	t.Helper()
	ctx := context.Background()
	for _, rec := range records {
		if err := tr.Append(ctx, sessionID, []byte(rec)); err != nil {
			t.Fatalf("seed append: %v", err)
		}
	}
}

func TestTranscriptRolesFromTypeTag(t *testing.T) {
	provider, tr := newTestProvider()
	seed(t, tr, "s1",
		`{"type":"QUESTION_ASKED","data":{"question_id":"q1","question_text":"Tell me about yourself"}}`,
		`{"type":"ANSWER_RECEIVED","data":{"question_id":"q1","answer":"I have 3 years of experience..."}}`,
		`{"type":"ANSWER_EVALUATED","data":{"question_id":"q1","overall_score":4,"feedback":"Solid answer"}}`,
	)

	p := NewProjector(provider, logger.NewNop())
	dump, err := p.Transcript(context.Background(), "s1")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if dump.SessionID != "s1" {
		t.Fatalf("session id %q", dump.SessionID)
	}

	wantRoles := []model.Role{model.RoleQuestion, model.RoleAnswer, model.RoleEvaluation}
	if len(dump.Lines) != len(wantRoles) {
		t.Fatalf("got %d lines, want %d", len(dump.Lines), len(wantRoles))
	}
	for i, line := range dump.Lines {
		if line.Role != wantRoles[i] {
			t.Fatalf("line %d role = %q, want %q", i, line.Role, wantRoles[i])
		}
		if line.Content == "" {
			t.Fatalf("line %d lost its content", i)
		}
	}
}

func TestTranscriptSkipsMalformedAndKeepsLegacy(t *testing.T) {
	provider, tr := newTestProvider()
	seed(t, tr, "s1",
		`{"type":"QUESTION_SHOWN","data":{"main_question_id":"q1","question_text":"?"}}`,
		`this record is not even json`,
		`{"type":"PDF_PARSE","data":{"file_name":"resume"}}`,
		`{"type":"USER_ANSWER","data":{"question_id":"q1","answer":"..."}}`,
		`{"type":"ANSWER_EVALUATION","data":{"question_id":"q1","overall_score":3,"feedback":"ok"}}`,
		`{"type":"TAIL_QUESTION","data":{"followup_id":"q1-fu1","parent_question_id":"q1","question":"?"}}`,
	)

	p := NewProjector(provider, logger.NewNop())
	dump, err := p.Transcript(context.Background(), "s1")
	if err != nil {
		t.Fatalf("legacy noise must never abort a read: %v", err)
	}

	wantRoles := []model.Role{model.RoleQuestion, model.RoleAnswer, model.RoleEvaluation, model.RoleQuestion}
	if len(dump.Lines) != len(wantRoles) {
		t.Fatalf("got %d lines, want %d", len(dump.Lines), len(wantRoles))
	}
	for i, line := range dump.Lines {
		if line.Role != wantRoles[i] {
			t.Fatalf("line %d role = %q, want %q", i, line.Role, wantRoles[i])
		}
	}
}

func TestEvaluationSummaryEmptySession(t *testing.T) {
	provider, _ := newTestProvider()
	p := NewProjector(provider, logger.NewNop())

	summary, err := p.EvaluationSummary(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("summary must never fail on an empty session: %v", err)
	}
	if summary.AverageScore != 0 {
		t.Fatalf("average = %v, want 0", summary.AverageScore)
	}
	if summary.FeedbackBlock != "" {
		t.Fatalf("feedback block = %q, want empty", summary.FeedbackBlock)
	}
	if len(summary.Questions) != 0 {
		t.Fatalf("questions = %+v, want none", summary.Questions)
	}
}

func TestEvaluationSummaryPairsAnswersWithEvaluations(t *testing.T) {
	provider, tr := newTestProvider()
	seed(t, tr, "s1",
		`{"type":"QUESTION_ASKED","data":{"question_id":"q1","question_text":"?"}}`,
		`{"type":"ANSWER_RECEIVED","data":{"question_id":"q1","answer":"first answer"}}`,
		`{"type":"ANSWER_EVALUATED","data":{"question_id":"q1","overall_score":4,"feedback":"good"}}`,
		`{"type":"QUESTION_ASKED","data":{"question_id":"q2","question_text":"?"}}`,
		`{"type":"ANSWER_RECEIVED","data":{"question_id":"q2","answer":"second answer"}}`,
		`{"type":"ANSWER_EVALUATED","data":{"question_id":"q2","overall_score":3,"feedback":"fair"}}`,
		// An unanswered question must not contribute a score.
		`{"type":"QUESTION_ASKED","data":{"question_id":"q3","question_text":"?"}}`,
	)

	p := NewProjector(provider, logger.NewNop())
	summary, err := p.EvaluationSummary(context.Background(), "s1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.AverageScore != 3.5 {
		t.Fatalf("average = %v, want 3.5", summary.AverageScore)
	}
	if len(summary.Questions) != 2 {
		t.Fatalf("got %d evaluated questions, want 2", len(summary.Questions))
	}
	if summary.Questions[0].AnswerText != "first answer" || summary.Questions[1].AnswerText != "second answer" {
		t.Fatalf("answers paired wrong: %+v", summary.Questions)
	}

	blocks := strings.Split(summary.FeedbackBlock, "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("got %d feedback blocks, want 2", len(blocks))
	}
	if blocks[0] != "QID: q1\nAnswer: first answer\nFeedback: good" {
		t.Fatalf("unexpected block: %q", blocks[0])
	}
}

func TestEvaluationSummaryEvaluationWithoutAnswer(t *testing.T) {
	provider, tr := newTestProvider()
	seed(t, tr, "s1",
		`{"type":"ANSWER_EVALUATED","data":{"question_id":"q1","overall_score":2,"feedback":"terse"}}`,
	)

	p := NewProjector(provider, logger.NewNop())
	summary, err := p.EvaluationSummary(context.Background(), "s1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(summary.Questions))
	}
	if summary.Questions[0].AnswerText != "" {
		t.Fatalf("answerless evaluation should carry an empty answer, got %q", summary.Questions[0].AnswerText)
	}
	if summary.AverageScore != 2 {
		t.Fatalf("average = %v, want 2", summary.AverageScore)
	}
}

func TestEvaluationSummaryAnswerConsumedOnce(t *testing.T) {
	provider, tr := newTestProvider()
	seed(t, tr, "s1",
		`{"type":"ANSWER_RECEIVED","data":{"question_id":"q1","answer":"only answer"}}`,
		`{"type":"ANSWER_EVALUATED","data":{"question_id":"q1","overall_score":4,"feedback":"a"}}`,
		`{"type":"ANSWER_EVALUATED","data":{"question_id":"q2","overall_score":4,"feedback":"b"}}`,
	)

	p := NewProjector(provider, logger.NewNop())
	summary, _ := p.EvaluationSummary(context.Background(), "s1")
	if summary.Questions[0].AnswerText != "only answer" {
		t.Fatalf("first evaluation lost its answer")
	}
	if summary.Questions[1].AnswerText != "" {
		t.Fatalf("answer must be cleared after being consumed, got %q", summary.Questions[1].AnswerText)
	}
}

func TestFollowupSequenceStructuredEquality(t *testing.T) {
	provider, tr := newTestProvider()
	seed(t, tr, "s1",
		`{"type":"QUESTION_ASKED","data":{"question_id":"q3","question_text":"parent"}}`,
		`{"type":"QUESTION_ASKED","data":{"question_id":"q3-fu1","parent_question_id":"q3","question_text":"first follow-up"}}`,
		`{"type":"QUESTION_ASKED","data":{"question_id":"q3-fu2","parent_question_id":"q3","question_text":"second follow-up"}}`,
		// Red herrings: the substring "q3" appears in payload text and in
		// other fields, and an answer mentions it too. None may count.
		`{"type":"QUESTION_ASKED","data":{"question_id":"q4","question_text":"what did you mean in q3 earlier?"}}`,
		`{"type":"ANSWER_RECEIVED","data":{"question_id":"q4","answer":"as I said for q3, parent_question_id q3 was tricky"}}`,
		`{"type":"QUESTION_ASKED","data":{"question_id":"q30-fu1","parent_question_id":"q30","question_text":"different parent"}}`,
	)

	p := NewProjector(provider, logger.NewNop())
	seq, err := p.FollowupSequence(context.Background(), "s1", "q3")
	if err != nil {
		t.Fatalf("followup sequence: %v", err)
	}
	if seq.ExistingCount != 2 {
		t.Fatalf("count = %d, want 2", seq.ExistingCount)
	}
	if seq.NextIndex != 3 {
		t.Fatalf("next index = %d, want 3", seq.NextIndex)
	}
	if seq.NextFollowupID != "q3-fu3" {
		t.Fatalf("next id = %q, want q3-fu3", seq.NextFollowupID)
	}
}

func TestFollowupSequenceCountsLegacyTailQuestions(t *testing.T) {
	provider, tr := newTestProvider()
	seed(t, tr, "s1",
		`{"type":"TAIL_QUESTION","data":{"followup_id":"q2-fu1","parent_question_id":"q2","question":"legacy follow-up"}}`,
	)

	p := NewProjector(provider, logger.NewNop())
	seq, err := p.FollowupSequence(context.Background(), "s1", "q2")
	if err != nil {
		t.Fatalf("followup sequence: %v", err)
	}
	if seq.ExistingCount != 1 {
		t.Fatalf("legacy tail question not counted: %d", seq.ExistingCount)
	}
	if seq.NextFollowupID != "q2-fu2" {
		t.Fatalf("next id = %q, want q2-fu2", seq.NextFollowupID)
	}
}

func TestFollowupSequenceRejectsBadParentID(t *testing.T) {
	provider, _ := newTestProvider()
	p := NewProjector(provider, logger.NewNop())

	if _, err := p.FollowupSequence(context.Background(), "s1", "not-an-id"); err == nil {
		t.Fatalf("invalid parent id should be rejected")
	}
	if _, err := p.FollowupSequence(context.Background(), "s1", ""); err == nil {
		t.Fatalf("empty parent id should be rejected")
	}
}
