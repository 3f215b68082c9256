// Package types contains common types shared across layers.
package types

// Entry represents a leaderboard row as exposed to readers.
type Entry struct {
	Rank                   int    `json:"rank"`
	UserID                 string `json:"user_id"`
	Points                 int    `json:"points"`
	TotalChaptersCompleted int    `json:"total_chapters_completed"`
	TotalCoursesCompleted  int    `json:"total_courses_completed"`
}
