// Package analytics derives a learner's dashboard summary from raw activity
// records. The aggregation is a pure, deterministic transformation: it never
// performs I/O, never mutates its input and never fails on empty input: an
// inactive user yields a zeroed summary, not an error.
package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/domain/gamify"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/internal/domain/types"
)

// Window and list-size constants.
const (
	shortTrendDays  = 7
	longTrendDays   = 30
	consistencyDays = 30

	strongThreshold = 50 // completion-rate percentage splitting strong from weak
	maxStrong       = 5
	maxWeak         = 3

	percent = 100
)

// dayKeyFormat buckets timestamps into calendar days.
const dayKeyFormat = "2006-01-02"

// noProductiveDay is reported when there are no events at all.
const noProductiveDay = "N/A"

// Unknown-name fallbacks.
const (
	unknownCourseName = "Unknown Course"
	uncategorizedName = "Uncategorized"
)

// weekdayOrder fixes the tie-break for the most productive day. The source
// data carries no ordering guarantee, so ties resolve Monday-first.
var weekdayOrder = []time.Weekday{ //nolint:gochecknoglobals // fixed lookup table
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Snapshot is the complete read-only input for one user's aggregation.
// All slices are treated as immutable; the aggregator copies before sorting.
type Snapshot struct {
	UserID      string
	Stats       model.UserStats        // write-time counters (ground truth)
	Events      []model.PointsEvent    // full points history, any order
	Progress    []model.ProgressRecord // all (course, chapter) rows for the user
	Courses     []model.CourseRecord   // course catalog
	Leaderboard []types.Entry          // all ranked users, points descending
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source. Tests pin "today" with this.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLocation sets the time zone used for calendar-day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// Aggregator computes analytics summaries. Safe for concurrent use: it holds
// no mutable state beyond its clock and location.
type Aggregator struct {
	now func() time.Time
	loc *time.Location
}

// New creates an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		now: time.Now,
		loc: time.Local,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Summarize derives the full analytics summary for the snapshot's user.
func (a *Aggregator) Summarize(snap Snapshot) Summary {
	today := a.today()
	activeDays := a.activeDays(snap.Events)

	streak := a.streak(activeDays, today)
	weak, strong := a.analyzeCourses(snap.Progress, snap.Courses)

	return Summary{
		CurrentStatus: CurrentStatus{
			Level:       gamify.Level(snap.Stats.Points),
			Tier:        gamify.Tier(snap.Stats.Points),
			TotalPoints: snap.Stats.Points,
			Rank:        rank(snap.Leaderboard, snap.UserID, snap.Stats.Points),
			Streak:      streak,
			Consistency: a.consistency(activeDays, today),
		},
		ProgressTrends: ProgressTrends{
			Last7Days:  a.trend(snap.Events, today, shortTrendDays),
			Last30Days: a.trend(snap.Events, today, longTrendDays),
		},
		StrengthsAndWeaknesses: StrengthsAndWeaknesses{
			StrongCategories: strong,
			WeakCategories:   weak,
		},
		EngagementSummary: a.engagement(snap),
		Recommendation:    recommend(snap, streak, weak),
		ChapterWiseMarks:  chapterMarks(snap.Progress, snap.Courses),
		UserCourses:       userCourses(snap.Progress, snap.Courses),
	}
}

// today returns midnight of the current calendar day in the configured zone.
func (a *Aggregator) today() time.Time {
	now := a.now().In(a.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
}

func (a *Aggregator) dayKey(t time.Time) string {
	return t.In(a.loc).Format(dayKeyFormat)
}

// activeDays collects the distinct calendar days carrying at least one event.
func (a *Aggregator) activeDays(events []model.PointsEvent) map[string]struct{} {
	days := make(map[string]struct{}, len(events))
	for _, e := range events {
		days[a.dayKey(e.EarnedAt)] = struct{}{}
	}
	return days
}

// streak counts consecutive active days walking backward from today. A day
// without activity today ends the streak at zero: the streak only counts
// once today's activity has happened.
func (a *Aggregator) streak(activeDays map[string]struct{}, today time.Time) int {
	streak := 0
	for i := 0; ; i++ {
		expected := today.AddDate(0, 0, -i)
		if _, ok := activeDays[a.dayKey(expected)]; !ok {
			break
		}
		streak++
	}
	return streak
}

// consistency is the percentage of the last 30 calendar days (today
// inclusive) with at least one event.
func (a *Aggregator) consistency(activeDays map[string]struct{}, today time.Time) int {
	active := 0
	for i := 0; i < consistencyDays; i++ {
		day := today.AddDate(0, 0, -i)
		if _, ok := activeDays[a.dayKey(day)]; ok {
			active++
		}
	}
	return roundPercent(active, consistencyDays)
}

// trend produces one bucket per calendar day, oldest first. Days without
// events yield zero entries rather than being omitted, so the series length
// is always exactly n.
func (a *Aggregator) trend(events []model.PointsEvent, today time.Time, n int) []TrendPoint {
	byDay := make(map[string]*TrendPoint, n)
	out := make([]TrendPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := a.dayKey(day)
		out = append(out, TrendPoint{Date: key})
		byDay[key] = &out[len(out)-1]
	}

	for _, e := range events {
		bucket, ok := byDay[a.dayKey(e.EarnedAt)]
		if !ok {
			continue
		}
		bucket.Points += e.PointsEarned
		if e.ChapterIndex != nil {
			bucket.Chapters++
		}
	}

	return out
}

// courseStanding is the per-course completion tally behind both lists.
type courseStanding struct {
	name      string
	rate      int
	completed int
	started   int
}

// analyzeCourses groups progress by course and splits completion rates at the
// strong/weak threshold. Courses without any progress records appear in
// neither list.
func (a *Aggregator) analyzeCourses(progress []model.ProgressRecord, courses []model.CourseRecord) ([]WeakCategory, []StrongCategory) {
	byID := make(map[int64]model.CourseRecord, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	tallies := make(map[int64]*courseStanding)
	order := make([]int64, 0)
	for _, p := range progress {
		course, ok := byID[p.CourseID]
		if !ok {
			continue
		}
		tally, ok := tallies[p.CourseID]
		if !ok {
			name := course.Name
			if name == "" {
				name = uncategorizedName
			}
			tally = &courseStanding{name: name}
			tallies[p.CourseID] = tally
			order = append(order, p.CourseID)
		}
		tally.started++
		if p.IsCompleted {
			tally.completed++
		}
	}

	standings := make([]courseStanding, 0, len(order))
	for _, id := range order {
		tally := tallies[id]
		tally.rate = roundPercent(tally.completed, byID[id].TotalChapters)
		standings = append(standings, *tally)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].rate != standings[j].rate {
			return standings[i].rate > standings[j].rate
		}
		return standings[i].name < standings[j].name
	})

	strong := make([]StrongCategory, 0, maxStrong)
	weak := make([]WeakCategory, 0, maxWeak)
	for _, s := range standings {
		if s.rate >= strongThreshold {
			if len(strong) < maxStrong {
				strong = append(strong, StrongCategory{
					Category:          s.name,
					CompletionRate:    s.rate,
					ChaptersCompleted: s.completed,
				})
			}
		} else if len(weak) < maxWeak {
			weak = append(weak, WeakCategory{
				Category:        s.name,
				CompletionRate:  s.rate,
				ChaptersStarted: s.started,
			})
		}
	}

	return weak, strong
}

// engagement aggregates whole-history activity. The completed-course and
// completed-chapter counters come from the write-time stats, not from the
// raw events: the store maintains them transactionally and they are treated
// as ground truth here.
func (a *Aggregator) engagement(snap Snapshot) EngagementSummary {
	uniqueDays := len(a.activeDays(snap.Events))

	totalPoints := 0
	pointsByWeekday := make(map[time.Weekday]int)
	for _, e := range snap.Events {
		totalPoints += e.PointsEarned
		pointsByWeekday[e.EarnedAt.In(a.loc).Weekday()] += e.PointsEarned
	}

	avg := 0
	if uniqueDays > 0 {
		avg = int(math.Round(float64(totalPoints) / float64(uniqueDays)))
	}

	productive := noProductiveDay
	if len(snap.Events) > 0 {
		best := -1
		for _, day := range weekdayOrder {
			if pts, ok := pointsByWeekday[day]; ok && pts > best {
				best = pts
				productive = day.String()
			}
		}
	}

	started := make(map[int64]struct{})
	for _, p := range snap.Progress {
		started[p.CourseID] = struct{}{}
	}

	return EngagementSummary{
		TotalActiveDays:        uniqueDays,
		AveragePointsPerDay:    avg,
		MostProductiveDay:      productive,
		TotalCoursesStarted:    len(started),
		TotalCoursesCompleted:  snap.Stats.TotalCoursesCompleted,
		TotalChaptersCompleted: snap.Stats.TotalChaptersCompleted,
	}
}

// recommend walks the fixed rule table top to bottom; the first matching
// rule wins regardless of what later rules would say.
func recommend(snap Snapshot, streak int, weak []WeakCategory) Recommendation {
	courses := snap.Courses

	if snap.Stats.Points == 0 {
		return Recommendation{
			Action:          "Start your learning journey",
			Reason:          "You haven't started any courses yet. Begin with a beginner-level course to earn your first points!",
			SuggestedCourse: courseNameWhere(courses, func(c model.CourseRecord) bool { return c.Level == model.LevelBeginner }),
		}
	}

	if streak == 0 {
		return Recommendation{
			Action:          "Build your learning streak",
			Reason:          "You haven't been active recently. Complete a chapter today to start a new streak!",
			SuggestedCourse: firstCourseName(courses),
		}
	}

	if len(weak) > 0 {
		category := weak[0].Category
		return Recommendation{
			Action:          "Strengthen your " + category + " skills",
			Reason:          "You've started but not completed many " + category + " chapters. Focus on completing these to improve your mastery.",
			SuggestedCourse: courseNameWhere(courses, func(c model.CourseRecord) bool { return c.Category == category }),
		}
	}

	if snap.Stats.TotalChaptersCompleted > 0 && snap.Stats.TotalCoursesCompleted == 0 {
		return Recommendation{
			Action:          "Complete your first course",
			Reason:          "You're making progress! Finish a course to earn a 50-point completion bonus.",
			SuggestedCourse: firstCourseName(courses),
		}
	}

	return Recommendation{
		Action: "Explore advanced topics",
		Reason: "Great job! You've completed " + pluralCourses(snap.Stats.TotalCoursesCompleted) + ". Challenge yourself with more advanced content.",
		SuggestedCourse: courseNameWhere(courses, func(c model.CourseRecord) bool {
			return c.Level == model.LevelAdvanced || c.Level == model.LevelIntermediate
		}),
	}
}

// chapterMarks lists completed, scored chapters ordered by completion time.
func chapterMarks(progress []model.ProgressRecord, courses []model.CourseRecord) []ChapterMark {
	byID := make(map[int64]model.CourseRecord, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	marks := make([]ChapterMark, 0, len(progress))
	for _, p := range progress {
		if !p.IsCompleted || p.ChapterScore == nil {
			continue
		}

		name := p.ChapterName
		if name == "" {
			name = "Chapter " + strconv.Itoa(p.ChapterIndex+1)
		}
		courseName := unknownCourseName
		if c, ok := byID[p.CourseID]; ok && c.Name != "" {
			courseName = c.Name
		}
		completedAt := time.Time{}
		if p.CompletedAt != nil {
			completedAt = *p.CompletedAt
		}

		marks = append(marks, ChapterMark{
			ChapterIndex: p.ChapterIndex,
			ChapterName:  name,
			Score:        *p.ChapterScore,
			CourseName:   courseName,
			CourseID:     p.CourseID,
			CompletedAt:  completedAt,
		})
	}

	sort.SliceStable(marks, func(i, j int) bool {
		if !marks[i].CompletedAt.Equal(marks[j].CompletedAt) {
			return marks[i].CompletedAt.Before(marks[j].CompletedAt)
		}
		if marks[i].CourseID != marks[j].CourseID {
			return marks[i].CourseID < marks[j].CourseID
		}
		return marks[i].ChapterIndex < marks[j].ChapterIndex
	})

	return marks
}

// userCourses lists catalog entries the user has progress in, with derived
// chapter counts, in catalog order.
func userCourses(progress []model.ProgressRecord, courses []model.CourseRecord) []UserCourse {
	completedByCourse := make(map[int64]int)
	startedCourses := make(map[int64]struct{})
	for _, p := range progress {
		startedCourses[p.CourseID] = struct{}{}
		if p.IsCompleted {
			completedByCourse[p.CourseID]++
		}
	}

	out := make([]UserCourse, 0, len(startedCourses))
	for _, c := range courses {
		if _, ok := startedCourses[c.ID]; !ok {
			continue
		}
		title := c.Name
		if title == "" {
			title = "Untitled Course"
		}
		out = append(out, UserCourse{
			ID:                c.ID,
			Title:             title,
			ChaptersCompleted: completedByCourse[c.ID],
			TotalChapters:     c.TotalChapters,
		})
	}

	return out
}

// rank finds the user's 1-based leaderboard position. Users with zero points
// or absent from the board are unranked.
func rank(leaderboard []types.Entry, userID string, points int) *int {
	if points == 0 {
		return nil
	}
	for i, entry := range leaderboard {
		if entry.UserID == userID {
			r := i + 1
			return &r
		}
	}
	return nil
}

// roundPercent computes round(part/whole*100), clamped to [0,100]. A zero
// whole yields 0 rather than a division error: upstream data may be
// transiently inconsistent and the summary must still render.
func roundPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	rate := int(math.Round(float64(part) / float64(whole) * percent))
	if rate > percent {
		return percent
	}
	if rate < 0 {
		return 0
	}
	return rate
}

func courseNameWhere(courses []model.CourseRecord, match func(model.CourseRecord) bool) *string {
	for _, c := range courses {
		if match(c) && c.Name != "" {
			name := c.Name
			return &name
		}
	}
	return nil
}

func firstCourseName(courses []model.CourseRecord) *string {
	return courseNameWhere(courses, func(model.CourseRecord) bool { return true })
}

func pluralCourses(n int) string {
	if n == 1 {
		return "1 course"
	}
	return strconv.Itoa(n) + " courses"
}
