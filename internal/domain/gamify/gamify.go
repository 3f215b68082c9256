// Package gamify defines the points policy: how completions turn into points
// and how cumulative points map to levels and tiers.
package gamify

import (
	"context"
	"fmt"

	"github.com/padhaku/eduverse-analytics/internal/domain/model"
)

// Default policy constants.
const (
	defaultChapterPoints = 10 // flat award for a chapter completed without a quiz
	defaultCourseBonus   = 50 // one-time award when the last chapter of a course completes

	pointsPerLevel = 100
)

// Tier boundaries are inclusive on the lower end: 100 points is Intermediate.
const (
	tierIntermediateAt = 100
	tierAdvancedAt     = 500
	tierExpertAt       = 1000
)

// Tier names derived from cumulative points.
const (
	TierBeginner     = "Beginner"
	TierIntermediate = "Intermediate"
	TierAdvanced     = "Advanced"
	TierExpert       = "Expert"
)

// ReasonCourseBonus is the points-history reason marking a course-completion
// bonus. The store uses it to keep the bonus one-time per (user, course).
const ReasonCourseBonus = "Course completed bonus"

// ChapterReason builds the points-history reason for a completed chapter.
func ChapterReason(chapterName string) string {
	return fmt.Sprintf("Completed chapter: %s", chapterName)
}

// Level returns the 1-based level for a points total. Always >= 1.
func Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

// Tier returns the engagement band for a points total.
func Tier(points int) string {
	switch {
	case points < tierIntermediateAt:
		return TierBeginner
	case points < tierAdvancedAt:
		return TierIntermediate
	case points < tierExpertAt:
		return TierAdvanced
	default:
		return TierExpert
	}
}

// Policy computes the points awarded for a completion.
type Policy interface {
	// Award returns the points for a single completion, honoring ctx for
	// cancellation. It never returns a negative award.
	Award(ctx context.Context, c model.Completion) (int, error)

	// CourseBonus returns the one-time award for finishing a whole course.
	CourseBonus() int
}

// Option applies a configuration option to the StandardPolicy.
type Option func(*StandardPolicy)

// WithChapterPoints overrides the flat chapter-completion award.
func WithChapterPoints(points int) Option {
	return func(p *StandardPolicy) {
		if points > 0 {
			p.chapterPoints = points
		}
	}
}

// WithCourseBonus overrides the course-completion bonus.
func WithCourseBonus(points int) Option {
	return func(p *StandardPolicy) {
		if points > 0 {
			p.courseBonus = points
		}
	}
}

// StandardPolicy implements Policy with the EduVerse reward rules:
// quiz completions award the quiz score, plain completions a flat amount.
type StandardPolicy struct {
	chapterPoints int
	courseBonus   int
}

// NewStandardPolicy creates a policy with configuration options.
func NewStandardPolicy(opts ...Option) *StandardPolicy {
	p := &StandardPolicy{
		chapterPoints: defaultChapterPoints,
		courseBonus:   defaultCourseBonus,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Award returns the points for the given completion.
func (p *StandardPolicy) Award(ctx context.Context, c model.Completion) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("award cancelled: %w", ctx.Err())
	default:
	}

	if c.QuizScore == nil {
		return p.chapterPoints, nil
	}
	if *c.QuizScore < 0 {
		return 0, nil
	}
	return *c.QuizScore, nil
}

// CourseBonus returns the configured course-completion bonus.
func (p *StandardPolicy) CourseBonus() int {
	return p.courseBonus
}
