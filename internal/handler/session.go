// Package handler provides HTTP handlers for the session API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/prepview-ai/session-core/internal/middleware"
	"github.com/prepview-ai/session-core/internal/model"
	"github.com/prepview-ai/session-core/internal/session"
	"github.com/prepview-ai/session-core/internal/store"
	"github.com/prepview-ai/session-core/pkg/logger"
)

// SessionHandler handles the session event log endpoints.
type SessionHandler struct {
	events    *session.EventLogger
	projector *session.Projector
	restore   *session.RestoreEngine
	ttl       *session.TTLRefresher
	stores    *store.Provider
	logger    *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(
	events *session.EventLogger,
	projector *session.Projector,
	restore *session.RestoreEngine,
	ttl *session.TTLRefresher,
	stores *store.Provider,
	log *logger.Logger,
) *SessionHandler {
	return &SessionHandler{
		events:    events,
		projector: projector,
		restore:   restore,
		ttl:       ttl,
		stores:    stores,
		logger:    log,
	}
}

// LogQuestionShown handles POST /api/v1/session/log/question-shown.
// A request carrying parent_question_id logs a follow-up question.
func (h *SessionHandler) LogQuestionShown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	var payload model.QuestionAskedPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidateQuestionID(payload.QuestionID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if payload.ParentQuestionID != "" {
		if err := model.ValidateQuestionID(payload.ParentQuestionID); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := middleware.ValidateQuestionText(payload.QuestionText); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.events.LogQuestionAsked(ctx, sessionID, &payload); err != nil {
		h.logger.Error("failed to log question", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to log question")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// LogUserAnswer handles POST /api/v1/session/log/user-answer.
func (h *SessionHandler) LogUserAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	var payload model.AnswerReceivedPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidateQuestionID(payload.QuestionID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateAnswerText(payload.Answer); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if payload.AnswerDurationSec < 0 {
		writeError(w, r, http.StatusBadRequest, "answer_duration_sec must not be negative")
		return
	}

	if err := h.events.LogAnswerReceived(ctx, sessionID, &payload); err != nil {
		h.logger.Error("failed to log answer", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to log answer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// LogEvaluation handles POST /api/v1/session/log/evaluation.
func (h *SessionHandler) LogEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	var payload model.AnswerEvaluatedPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidateEvaluation(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.events.LogAnswerEvaluated(ctx, sessionID, &payload); err != nil {
		h.logger.Error("failed to log evaluation", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to log evaluation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Dump handles GET /api/v1/session/dump.
func (h *SessionHandler) Dump(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	dump, err := h.projector.Transcript(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to dump session", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to dump session")
		return
	}

	writeJSON(w, http.StatusOK, dump)
}

// EvaluationSummary handles GET /api/v1/session/evaluation-summary.
func (h *SessionHandler) EvaluationSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	summary, err := h.projector.EvaluationSummary(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to summarize session", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to summarize session")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// NextFollowup handles GET /api/v1/session/followups/next.
func (h *SessionHandler) NextFollowup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	parentID := r.URL.Query().Get("parent_question_id")

	seq, err := h.projector.FollowupSequence(ctx, sessionID, parentID)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, http.StatusBadRequest, verr.Error())
			return
		}
		h.logger.Error("failed to count follow-ups", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to count follow-ups")
		return
	}

	writeJSON(w, http.StatusOK, seq)
}

// Restore handles POST /api/v1/session/restore.
func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	var req model.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	restored, err := h.restore.Restore(ctx, sessionID, req.Steps)
	if err != nil {
		var rerr *model.RestoreError
		if errors.As(err, &rerr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error": rerr.Error(),
				"step":  rerr.Step,
			})
			return
		}
		h.logger.Error("failed to restore session", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to restore session")
		return
	}

	writeJSON(w, http.StatusOK, model.RestoreResponse{OK: true, RestoredSteps: restored})
}

// Reset handles DELETE /api/v1/session/reset.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	if err := h.stores.Store().Clear(ctx, sessionID); err != nil {
		h.logger.Error("failed to clear session", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to clear session")
		return
	}

	h.logger.Info("session cleared",
		zap.String("session_id", sessionID),
		zap.String("caller_id", middleware.GetCallerID(ctx)),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"message": "session cleared",
	})
}

// RefreshTTL handles POST /api/v1/session/refresh-ttl.
func (h *SessionHandler) RefreshTTL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	refreshed, err := h.ttl.Refresh(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to refresh session TTL", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to refresh session TTL")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":             true,
		"refreshed_keys": refreshed,
	})
}
