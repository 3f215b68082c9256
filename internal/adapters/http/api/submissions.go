// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/domain/dedupe"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/pkg/metrics"
)

// SubmissionDependencies defines what the submission endpoint needs.
type SubmissionDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, c model.Completion) bool
}

// submissionRequest is the payload for POST /submissions.
type submissionRequest struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	CourseID     int64  `json:"course_id" validate:"required,gt=0"`
	ChapterIndex int    `json:"chapter_index" validate:"gte=0"`
	ChapterName  string `json:"chapter_name"`
	QuizScore    *int   `json:"quiz_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	SubmittedAt  string `json:"submitted_at,omitempty"`
}

// SubmissionsHandler handles chapter completion submissions.
type SubmissionsHandler struct {
	deps SubmissionDependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmissionDependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

// HandlePostSubmission handles POST /submissions requests.
func (h *SubmissionsHandler) HandlePostSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_submission"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	submittedAt := time.Now()
	if req.SubmittedAt != "" {
		ts, err := time.Parse(time.RFC3339, req.SubmittedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		submittedAt = ts
	}

	// Idempotency check - mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), req.SubmissionID) {
		metrics.RecordSubmissionDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	completion := model.Completion{
		SubmissionID: req.SubmissionID,
		UserID:       req.UserID,
		CourseID:     req.CourseID,
		ChapterIndex: req.ChapterIndex,
		ChapterName:  req.ChapterName,
		QuizScore:    req.QuizScore,
		SubmittedAt:  submittedAt,
	}

	if ok := h.deps.Enqueue(r.Context(), completion); !ok {
		// Roll back the "seen" status since enqueue failed.
		h.deps.Unrecord(r.Context(), req.SubmissionID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}

	metrics.RecordSubmissionAccepted()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
