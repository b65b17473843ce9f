package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/prepview-ai/session-core/internal/model"
	"github.com/prepview-ai/session-core/internal/store"
	"github.com/prepview-ai/session-core/pkg/logger"
	"github.com/prepview-ai/session-core/pkg/metrics"
)

// RestoreEngine rebuilds a session's log from an ordered batch of
// historical steps held by an external system of record. Every step is
// validated and serialized before the existing log is touched, so invalid
// input can never leave the log half rewritten.
type RestoreEngine struct {
	provider       *store.Provider
	maxRecordBytes int
	logger         *logger.Logger
}

// NewRestoreEngine creates a restore engine.
func NewRestoreEngine(provider *store.Provider, maxRecordBytes int, log *logger.Logger) *RestoreEngine {
	if maxRecordBytes <= 0 {
		maxRecordBytes = DefaultMaxRecordBytes
	}
	return &RestoreEngine{provider: provider, maxRecordBytes: maxRecordBytes, logger: log}
}

// Restore replays steps in order: per step one QuestionAsked (carrying the
// parent id for follow-ups), an AnswerReceived iff the step has an answer,
// and an AnswerEvaluated iff it has an evaluation. Step order becomes log
// order exactly. Returns the number of steps restored; any invalid step
// aborts the whole call with a RestoreError before the log is cleared.
func (r *RestoreEngine) Restore(ctx context.Context, sessionID string, steps []model.RestoreStep) (int, error) {
	records, err := r.buildRecords(steps)
	if err != nil {
		metrics.RecordRestore("invalid", 0)
		return 0, err
	}

	st := r.provider.Store()
	if err := st.Clear(ctx, sessionID); err != nil {
		metrics.RecordRestore("storage_error", 0)
		return 0, err
	}
	for _, rec := range records {
		if err := st.Append(ctx, sessionID, rec); err != nil {
			metrics.RecordRestore("storage_error", 0)
			return 0, err
		}
	}

	metrics.RecordRestore("ok", len(steps))
	r.logger.Info("session restored",
		zap.String("session_id", sessionID),
		zap.Int("steps", len(steps)),
		zap.Int("records", len(records)),
	)
	return len(steps), nil
}

// buildRecords validates every step and serializes the full record batch
// up front.
func (r *RestoreEngine) buildRecords(steps []model.RestoreStep) ([][]byte, error) {
	var records [][]byte
	for i := range steps {
		step := &steps[i]
		if err := r.validateStep(step); err != nil {
			return nil, &model.RestoreError{Step: i, Err: err}
		}

		question := &model.QuestionAskedPayload{
			QuestionID:             step.QuestionID,
			QuestionText:           step.QuestionText,
			Category:               step.Category,
			Criteria:               step.Criteria,
			Skills:                 step.Skills,
			Rationale:              step.Rationale,
			EstimatedAnswerTimeSec: step.EstimatedAnswerTimeSec,
			ParentQuestionID:       step.ParentQuestionID,
		}
		rec, err := encodeRecord(model.EventQuestionAsked, question, r.maxRecordBytes)
		if err != nil {
			return nil, &model.RestoreError{Step: i, Err: err}
		}
		records = append(records, rec)

		if step.Answer != nil {
			answer := &model.AnswerReceivedPayload{
				QuestionID:        step.QuestionID,
				Answer:            *step.Answer,
				AnswerDurationSec: step.AnswerDurationSec,
			}
			rec, err := encodeRecord(model.EventAnswerReceived, answer, r.maxRecordBytes)
			if err != nil {
				return nil, &model.RestoreError{Step: i, Err: err}
			}
			records = append(records, rec)
		}

		if step.Evaluation != nil {
			rec, err := encodeRecord(model.EventAnswerEvaluated, step.Evaluation, r.maxRecordBytes)
			if err != nil {
				return nil, &model.RestoreError{Step: i, Err: err}
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (r *RestoreEngine) validateStep(step *model.RestoreStep) error {
	if err := model.ValidateQuestionID(step.QuestionID); err != nil {
		return err
	}
	if step.ParentQuestionID != "" {
		if err := model.ValidateQuestionID(step.ParentQuestionID); err != nil {
			return err
		}
	}
	if step.QuestionText == "" {
		return &model.ValidationError{Field: "question_text", Reason: "required"}
	}
	if step.Evaluation != nil {
		if step.Evaluation.QuestionID == "" {
			step.Evaluation.QuestionID = step.QuestionID
		}
		if err := model.ValidateEvaluation(step.Evaluation); err != nil {
			return err
		}
	}
	return nil
}
