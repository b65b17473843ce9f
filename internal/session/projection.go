package session

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/prepview-ai/session-core/internal/model"
	"github.com/prepview-ai/session-core/internal/store"
	"github.com/prepview-ai/session-core/pkg/logger"
	"github.com/prepview-ai/session-core/pkg/metrics"
)

// Projector computes derived read-only views by scanning a session's event
// stream. Malformed or legacy-format records never abort a read: records
// that do not decode are skipped and counted.
type Projector struct {
	provider *store.Provider
	logger   *logger.Logger
}

// NewProjector creates a projector over the given store provider.
func NewProjector(provider *store.Provider, log *logger.Logger) *Projector {
	return &Projector{provider: provider, logger: log}
}

// events reads and decodes the session's log, dropping undecodable records.
func (p *Projector) events(ctx context.Context, sessionID string) ([]*model.Event, error) {
	records, err := p.provider.Store().ReadAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	events := make([]*model.Event, 0, len(records))
	for _, rec := range records {
		event, err := model.ParseEvent(rec)
		if err != nil {
			metrics.EventsSkippedTotal.Inc()
			p.logger.Debug("skipping undecodable record",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Transcript renders one line per event, mapping the event's declared type
// to a domain role. The type tag inside the record is the only reliable
// discriminator; the backend has no usable notion of who spoke.
func (p *Projector) Transcript(ctx context.Context, sessionID string) (*model.TranscriptDump, error) {
	events, err := p.events(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lines := make([]model.TranscriptLine, 0, len(events))
	for _, e := range events {
		var role model.Role
		switch e.Type.Canonical() {
		case model.EventQuestionAsked:
			role = model.RoleQuestion
		case model.EventAnswerReceived:
			role = model.RoleAnswer
		case model.EventAnswerEvaluated:
			role = model.RoleEvaluation
		default:
			continue
		}
		lines = append(lines, model.TranscriptLine{Role: role, Content: string(e.Data)})
	}

	return &model.TranscriptDump{SessionID: sessionID, Lines: lines}, nil
}

// evalFold is the explicit fold state of the evaluation scan: the answer
// text seen since the last evaluation consumed one.
type evalFold struct {
	lastAnswer string
	scores     []float64
	blocks     []string
	questions  []model.EvaluatedQuestion
}

func (f *evalFold) answer(p *model.AnswerReceivedPayload) {
	f.lastAnswer = strings.TrimSpace(p.Answer)
}

func (f *evalFold) evaluate(p *model.AnswerEvaluatedPayload) {
	q := model.EvaluatedQuestion{
		QuestionID:   p.QuestionID,
		OverallScore: p.OverallScore,
		AnswerText:   f.lastAnswer,
		Feedback:     p.Feedback,
	}
	f.questions = append(f.questions, q)
	f.scores = append(f.scores, p.OverallScore)
	f.blocks = append(f.blocks, fmt.Sprintf("QID: %s\nAnswer: %s\nFeedback: %s", q.QuestionID, q.AnswerText, q.Feedback))
	f.lastAnswer = ""
}

// EvaluationSummary scans the log in order pairing each evaluation with
// the most recent answer. Not every question has a score; a session with
// no evaluations yields average 0 and an empty feedback block.
func (p *Projector) EvaluationSummary(ctx context.Context, sessionID string) (*model.EvaluationSummary, error) {
	events, err := p.events(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fold := &evalFold{}
	for _, e := range events {
		switch e.Type.Canonical() {
		case model.EventAnswerReceived:
			payload, err := e.AnswerReceived()
			if err != nil {
				metrics.EventsSkippedTotal.Inc()
				continue
			}
			fold.answer(payload)
		case model.EventAnswerEvaluated:
			payload, err := e.AnswerEvaluated()
			if err != nil {
				metrics.EventsSkippedTotal.Inc()
				continue
			}
			fold.evaluate(payload)
		}
	}

	avg := 0.0
	if len(fold.scores) > 0 {
		sum := 0.0
		for _, s := range fold.scores {
			sum += s
		}
		avg = math.Round(sum/float64(len(fold.scores))*100) / 100
	}

	return &model.EvaluationSummary{
		SessionID:     sessionID,
		AverageScore:  avg,
		FeedbackBlock: strings.Join(fold.blocks, "\n\n"),
		Questions:     fold.questions,
	}, nil
}

// FollowupSequence counts QuestionAsked events whose parsed parent id
// equals parentID exactly. Equality is checked on the decoded field, never
// by substring matching the raw record: a parent id appearing inside some
// other payload text must not count.
func (p *Projector) FollowupSequence(ctx context.Context, sessionID, parentID string) (*model.FollowupSequence, error) {
	if err := model.ValidateQuestionID(parentID); err != nil {
		return nil, err
	}

	events, err := p.events(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, e := range events {
		if e.Type.Canonical() != model.EventQuestionAsked {
			continue
		}
		payload, err := e.QuestionAsked()
		if err != nil {
			metrics.EventsSkippedTotal.Inc()
			continue
		}
		if payload.ParentQuestionID == parentID {
			count++
		}
	}

	next := count + 1
	return &model.FollowupSequence{
		ParentQuestionID: parentID,
		ExistingCount:    count,
		NextIndex:        next,
		NextFollowupID:   fmt.Sprintf("%s-fu%d", parentID, next),
	}, nil
}
