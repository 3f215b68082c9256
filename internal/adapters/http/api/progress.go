// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/domain/model"
)

// ProgressDependencies defines the interface for progress operations.
type ProgressDependencies interface {
	Progress(ctx context.Context, userID string) ([]model.ProgressRecord, error)
}

// progressEntryResponse is one chapter's progress for a user.
type progressEntryResponse struct {
	CourseID     int64      `json:"course_id"`
	ChapterIndex int        `json:"chapter_index"`
	ChapterName  string     `json:"chapter_name"`
	ChapterScore *int       `json:"chapter_score,omitempty"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// progressResponse is the payload for GET /progress/{user_id}.
type progressResponse struct {
	UserID   string                  `json:"user_id"`
	Progress []progressEntryResponse `json:"progress"`
}

// ProgressHandler serves chapter progress for a user.
type ProgressHandler struct {
	deps ProgressDependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps ProgressDependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

// HandleGetProgress handles GET /progress/{user_id}?course_id=N requests.
// Without course_id the full progress log is returned.
func (h *ProgressHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progress"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/progress/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	var courseFilter *int64
	if raw := r.URL.Query().Get("course_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		courseFilter = &id
	}

	records, err := h.deps.Progress(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := progressResponse{
		UserID:   userID,
		Progress: make([]progressEntryResponse, 0, len(records)),
	}
	for _, p := range records {
		if courseFilter != nil && p.CourseID != *courseFilter {
			continue
		}
		resp.Progress = append(resp.Progress, progressEntryResponse{
			CourseID:     p.CourseID,
			ChapterIndex: p.ChapterIndex,
			ChapterName:  p.ChapterName,
			ChapterScore: p.ChapterScore,
			IsCompleted:  p.IsCompleted,
			CompletedAt:  p.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
