// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/padhaku/eduverse-analytics/internal/adapters/repository"
	"github.com/padhaku/eduverse-analytics/internal/domain/analytics"
	"github.com/padhaku/eduverse-analytics/internal/domain/dedupe"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a completion for async crediting. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, c model.Completion) bool

	// Summary computes the full analytics summary for a user.
	Summary(ctx context.Context, userID string) (analytics.Summary, error)

	// Read operations expose leaderboard and per-user data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, userID string) (Entry, error)
	Stats(ctx context.Context, userID string) (model.UserStats, error)
	Events(ctx context.Context, userID string) ([]model.PointsEvent, error)
	Progress(ctx context.Context, userID string) ([]model.ProgressRecord, error)

	// Catalog operations.
	Courses(ctx context.Context) ([]model.CourseRecord, error)
	Course(ctx context.Context, id int64) (model.CourseRecord, error)
	PutCourse(ctx context.Context, course model.CourseRecord) error
	DeleteCourse(ctx context.Context, id int64) error
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// validate is the shared struct validator for request payloads.
var validate = validator.New()

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submissionsHandler *SubmissionsHandler
	summaryHandler     *SummaryHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	pointsHandler      *PointsHandler
	progressHandler    *ProgressHandler
	coursesHandler     *CoursesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submissionsHandler: NewSubmissionsHandler(deps),
		summaryHandler:     NewSummaryHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
		pointsHandler:      NewPointsHandler(deps),
		progressHandler:    NewProgressHandler(deps),
		coursesHandler:     NewCoursesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/submissions", MetricsMiddleware(s.submissionsHandler.HandlePostSubmission, "submissions"))
	mux.HandleFunc("/analytics/", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "analytics"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/points/", MetricsMiddleware(s.pointsHandler.HandleGetPoints, "points"))
	mux.HandleFunc("/progress/", MetricsMiddleware(s.progressHandler.HandleGetProgress, "progress"))
	mux.HandleFunc("/courses", MetricsMiddleware(s.coursesHandler.HandleCourses, "courses"))
	mux.HandleFunc("/courses/", MetricsMiddleware(s.coursesHandler.HandleCourseByID, "courses"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrCourseNotFound)
}
