// Package repository defines the analytics store interface and errors.
package repository

import (
	"context"

	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/internal/domain/types"
)

// CompletionResult reports what applying a completion changed.
type CompletionResult struct {
	// Duplicate is true when the chapter was already completed for this
	// user; nothing was written.
	Duplicate bool
	// CourseCompleted is true when this completion finished the course and
	// the one-time bonus was credited.
	CourseCompleted bool
	// Events are the points events this write appended, in order.
	Events []model.PointsEvent
	// Stats are the user's counters after the write.
	Stats model.UserStats
}

// Store provides transactional writes and reads for the analytics state.
type Store interface {
	// RecordCompletion applies one chapter completion: marks the chapter
	// complete, credits points, maintains the counters, and credits the
	// course bonus exactly once when the last chapter lands. A chapter
	// that is already complete yields a Duplicate result and no writes.
	// Returns ErrCourseNotFound when the course is not in the catalog.
	RecordCompletion(ctx context.Context, c model.Completion, points, bonus int) (CompletionResult, error)

	// PutCourse inserts or replaces a catalog entry.
	PutCourse(ctx context.Context, course model.CourseRecord) error

	// DeleteCourse removes a catalog entry.
	// Returns ErrCourseNotFound when the course is unknown.
	DeleteCourse(ctx context.Context, id int64) error

	// Stats returns the write-time counters for a user.
	// Returns ErrNotFound for an unknown user.
	Stats(ctx context.Context, userID string) (model.UserStats, error)

	// Events returns a user's points history ordered by EarnedAt ascending.
	Events(ctx context.Context, userID string) ([]model.PointsEvent, error)

	// Progress returns a user's chapter progress records.
	Progress(ctx context.Context, userID string) ([]model.ProgressRecord, error)

	// Courses returns the full catalog in insertion order.
	Courses(ctx context.Context) ([]model.CourseRecord, error)

	// Course returns one catalog entry.
	// Returns ErrCourseNotFound when the course is unknown.
	Course(ctx context.Context, id int64) (model.CourseRecord, error)

	// TopN returns the top-N leaderboard entries ordered by points desc,
	// chapters completed desc, then user ID asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Rank returns the leaderboard entry for one user.
	// Returns ErrNotFound for an unknown user.
	Rank(ctx context.Context, userID string) (types.Entry, error)

	// Count returns the number of users tracked.
	Count(ctx context.Context) int

	// Close releases background resources held by the store.
	Close() error
}
