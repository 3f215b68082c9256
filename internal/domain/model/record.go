// Package model contains domain records passed between layers.
package model

import "time"

// Course levels as stored in the catalog.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// PointsEvent represents one reward event in a user's points history.
// Chronologically ordered by EarnedAt; a user may have many events per day.
type PointsEvent struct {
	ID           string     // unique id for idempotency
	UserID       string     // learner identifier
	PointsEarned int        // non-negative award amount
	Reason       string     // human-readable cause, e.g. "Completed chapter: Slices"
	CourseID     *int64     // nil for events not tied to a course
	ChapterIndex *int       // nil for events not tied to a chapter
	EarnedAt     time.Time  // event timestamp
}

// ProgressRecord tracks one (user, course, chapter) triple. Uniqueness on the
// triple is enforced by the store, not by this package.
type ProgressRecord struct {
	UserID       string
	CourseID     int64
	ChapterIndex int
	ChapterName  string
	ChapterScore *int // quiz score; nil when the chapter was completed without a quiz
	IsCompleted  bool
	CompletedAt  *time.Time
}

// CourseRecord is a read-only catalog entry.
type CourseRecord struct {
	ID            int64
	CID           string // client-facing course identifier
	Name          string
	Description   string
	Category      string
	Level         string // Beginner, Intermediate or Advanced
	TotalChapters int
	CourseJSON    string // opaque generated course payload
	OwnerID       string
}

// UserStats holds the write-time aggregate counters for a user. The store
// maintains them transactionally; the aggregator treats them as ground truth.
type UserStats struct {
	UserID                 string
	Points                 int
	TotalChaptersCompleted int
	TotalCoursesCompleted  int
	LastUpdated            time.Time
}

// Completion is the unit of work flowing through the submission queue:
// a learner finished a chapter, optionally with a quiz score.
type Completion struct {
	SubmissionID string
	UserID       string
	CourseID     int64
	ChapterIndex int
	ChapterName  string
	QuizScore    *int // nil for plain chapter completions
	SubmittedAt  time.Time
}
