// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/domain/gamify"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
)

// recentEventLimit caps the history returned by the points endpoint.
const recentEventLimit = 10

// PointsDependencies defines the interface for points-history operations.
type PointsDependencies interface {
	Stats(ctx context.Context, userID string) (model.UserStats, error)
	Events(ctx context.Context, userID string) ([]model.PointsEvent, error)
}

// pointsEventResponse is one row of a user's points history.
type pointsEventResponse struct {
	PointsEarned int       `json:"points_earned"`
	Reason       string    `json:"reason"`
	CourseID     *int64    `json:"course_id,omitempty"`
	ChapterIndex *int      `json:"chapter_index,omitempty"`
	EarnedAt     time.Time `json:"earned_at"`
}

// pointsResponse is the payload for GET /points/{user_id}.
type pointsResponse struct {
	UserID      string                `json:"user_id"`
	TotalPoints int                   `json:"total_points"`
	Level       int                   `json:"level"`
	Tier        string                `json:"tier"`
	Events      []pointsEventResponse `json:"events"`
}

// PointsHandler serves a user's points total and recent history.
type PointsHandler struct {
	deps PointsDependencies
}

// NewPointsHandler creates a new points handler.
func NewPointsHandler(deps PointsDependencies) *PointsHandler {
	return &PointsHandler{deps: deps}
}

// HandleGetPoints handles GET /points/{user_id} requests.
func (h *PointsHandler) HandleGetPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_points"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/points/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	// A user with no activity has zero points and an empty history.
	total := 0
	if stats, err := h.deps.Stats(r.Context(), userID); err == nil {
		total = stats.Points
	} else if !isNotFound(err) {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	events, err := h.deps.Events(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := pointsResponse{
		UserID:      userID,
		TotalPoints: total,
		Level:       gamify.Level(total),
		Tier:        gamify.Tier(total),
		Events:      make([]pointsEventResponse, 0, recentEventLimit),
	}
	// Events arrive oldest first; report the most recent ones, newest first.
	for i := len(events) - 1; i >= 0 && len(resp.Events) < recentEventLimit; i-- {
		e := events[i]
		resp.Events = append(resp.Events, pointsEventResponse{
			PointsEarned: e.PointsEarned,
			Reason:       e.Reason,
			CourseID:     e.CourseID,
			ChapterIndex: e.ChapterIndex,
			EarnedAt:     e.EarnedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
