package analytics

import "time"

// Summary is the full analytics payload rendered by the dashboard. Every
// field is always present: empty states serialize as zeroes, empty arrays or
// null, never as missing keys.
type Summary struct {
	CurrentStatus          CurrentStatus          `json:"currentStatus"`
	ProgressTrends         ProgressTrends         `json:"progressTrends"`
	StrengthsAndWeaknesses StrengthsAndWeaknesses `json:"strengthsAndWeaknesses"`
	EngagementSummary      EngagementSummary      `json:"engagementSummary"`
	Recommendation         Recommendation         `json:"recommendation"`
	ChapterWiseMarks       []ChapterMark          `json:"chapterWiseMarks"`
	UserCourses            []UserCourse           `json:"userCourses"`
}

// CurrentStatus is the headline card: level, tier, rank, streak, consistency.
type CurrentStatus struct {
	Level       int    `json:"level"`
	Tier        string `json:"tier"`
	TotalPoints int    `json:"totalPoints"`
	Rank        *int   `json:"rank"` // 1-based leaderboard position; null when unranked
	Streak      int    `json:"streak"`
	Consistency int    `json:"consistency"`
}

// TrendPoint is one calendar-day bucket in a trend series.
type TrendPoint struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Points   int    `json:"points"`
	Chapters int    `json:"chapters"`
}

// ProgressTrends holds the fixed-size trailing windows. Last7Days always has
// exactly 7 entries and Last30Days exactly 30, oldest first.
type ProgressTrends struct {
	Last7Days  []TrendPoint `json:"last7Days"`
	Last30Days []TrendPoint `json:"last30Days"`
}

// StrongCategory is a course the user is doing well in (completion >= 50%).
type StrongCategory struct {
	Category          string `json:"category"`
	CompletionRate    int    `json:"completionRate"`
	ChaptersCompleted int    `json:"chaptersCompleted"`
}

// WeakCategory is a course the user has started but largely not finished.
type WeakCategory struct {
	Category        string `json:"category"`
	CompletionRate  int    `json:"completionRate"`
	ChaptersStarted int    `json:"chaptersStarted"`
}

// StrengthsAndWeaknesses feeds the radar chart: top courses by completion
// rate on either side of the 50% threshold.
type StrengthsAndWeaknesses struct {
	StrongCategories []StrongCategory `json:"strongCategories"`
	WeakCategories   []WeakCategory   `json:"weakCategories"`
}

// EngagementSummary aggregates activity across the whole history.
type EngagementSummary struct {
	TotalActiveDays        int    `json:"totalActiveDays"`
	AveragePointsPerDay    int    `json:"averagePointsPerDay"`
	MostProductiveDay      string `json:"mostProductiveDay"` // weekday name, "N/A" with no events
	TotalCoursesStarted    int    `json:"totalCoursesStarted"`
	TotalCoursesCompleted  int    `json:"totalCoursesCompleted"`
	TotalChaptersCompleted int    `json:"totalChaptersCompleted"`
}

// Recommendation is the next-action suggestion from the rule table.
type Recommendation struct {
	Action          string  `json:"action"`
	Reason          string  `json:"reason"`
	SuggestedCourse *string `json:"suggestedCourse"`
}

// ChapterMark is one completed, scored chapter in the marks history.
type ChapterMark struct {
	ChapterIndex int       `json:"chapterIndex"`
	ChapterName  string    `json:"chapterName"`
	Score        int       `json:"score"`
	CourseName   string    `json:"courseName"`
	CourseID     int64     `json:"courseId"`
	CompletedAt  time.Time `json:"completedAt"`
}

// UserCourse is a catalog entry the user has progress in, with derived counts.
type UserCourse struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	ChaptersCompleted int    `json:"chaptersCompleted"`
	TotalChapters     int    `json:"totalChapters"`
}
