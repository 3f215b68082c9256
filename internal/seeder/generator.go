package seeder

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Course is the catalog payload POSTed to /courses.
type Course struct {
	ID            int64  `json:"id"`
	CID           string `json:"cid"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	Level         string `json:"level,omitempty"`
	TotalChapters int    `json:"total_chapters"`
	OwnerID       string `json:"owner_id,omitempty"`
}

// Submission is the activity payload POSTed to /submissions.
type Submission struct {
	SubmissionID string `json:"submission_id"`
	UserID       string `json:"user_id"`
	CourseID     int64  `json:"course_id"`
	ChapterIndex int    `json:"chapter_index"`
	ChapterName  string `json:"chapter_name"`
	QuizScore    *int   `json:"quiz_score,omitempty"`
	SubmittedAt  string `json:"submitted_at"`
}

// Learner archetypes shape how often a profile shows up and how well it quizzes.
const (
	archetypeGrinder  = iota // studies most days, strong quiz scores
	archetypeSteady          // a few sessions a week, mixed scores
	archetypeSporadic        // rare bursts of activity
	archetypeDropout         // starts strong, then disappears
	archetypeCount
)

type learner struct {
	id        string
	archetype int
}

// catalogTemplates are the synthetic courses every run seeds.
var catalogTemplates = []Course{
	{Name: "Python for Beginners", Category: "Programming", Level: "Beginner", TotalChapters: 8},
	{Name: "Data Structures in Go", Category: "Programming", Level: "Intermediate", TotalChapters: 12},
	{Name: "Intro to Machine Learning", Category: "Machine Learning", Level: "Intermediate", TotalChapters: 10},
	{Name: "Deep Learning Foundations", Category: "Machine Learning", Level: "Advanced", TotalChapters: 14},
	{Name: "Modern Web Development", Category: "Web Development", Level: "Beginner", TotalChapters: 9},
	{Name: "SQL and Data Modeling", Category: "Databases", Level: "Beginner", TotalChapters: 6},
	{Name: "Statistics for Data Science", Category: "Data Science", Level: "Intermediate", TotalChapters: 11},
	{Name: "Cloud Infrastructure Basics", Category: "DevOps", Level: "Beginner", TotalChapters: 7},
}

// Generator produces a reproducible stream of learner activity.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator builds a generator. A zero seed derives one from the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1)),
		now: time.Now().UTC(),
	}
}

// Catalog returns the course catalog with fresh sequential IDs.
func (g *Generator) Catalog() []Course {
	courses := make([]Course, len(catalogTemplates))
	for i, tmpl := range catalogTemplates {
		c := tmpl
		c.ID = int64(i + 1)
		c.CID = uuid.New().String()
		c.OwnerID = "seed-instructor"
		courses[i] = c
	}
	return courses
}

// Submissions generates chapter completions for the given number of learners
// over an activity window of the given number of days ending today. Chapters
// advance sequentially per course so the resulting analytics resemble a real
// cohort rather than uniform noise.
func (g *Generator) Submissions(learners, days int, catalog []Course) []Submission {
	if learners < 1 || days < 1 || len(catalog) == 0 {
		return nil
	}

	profiles := make([]learner, learners)
	for i := range profiles {
		profiles[i] = learner{
			id:        uuid.New().String(),
			archetype: g.rng.IntN(archetypeCount),
		}
	}

	var subs []Submission
	for _, p := range profiles {
		subs = append(subs, g.learnerActivity(p, days, catalog)...)
	}
	return subs
}

func (g *Generator) learnerActivity(p learner, days int, catalog []Course) []Submission {
	// Each learner works through one to three courses.
	courseCount := 1 + g.rng.IntN(3)
	if courseCount > len(catalog) {
		courseCount = len(catalog)
	}
	picks := g.rng.Perm(len(catalog))[:courseCount]

	var subs []Submission
	for _, idx := range picks {
		course := catalog[idx]
		nextChapter := 0

		for day := days - 1; day >= 0; day-- {
			if nextChapter >= course.TotalChapters {
				break
			}
			if !g.activeOn(p.archetype, day, days) {
				continue
			}

			// One to three chapters per study session.
			sessionSize := 1 + g.rng.IntN(3)
			for i := 0; i < sessionSize && nextChapter < course.TotalChapters; i++ {
				subs = append(subs, g.submission(p, course, nextChapter, day))
				nextChapter++
			}
		}
	}
	return subs
}

// activeOn decides whether the archetype studies on a day that many days ago.
func (g *Generator) activeOn(archetype, day, days int) bool {
	switch archetype {
	case archetypeGrinder:
		return g.rng.Float64() < 0.8
	case archetypeSteady:
		return g.rng.Float64() < 0.4
	case archetypeSporadic:
		return g.rng.Float64() < 0.15
	case archetypeDropout:
		// Active in the first third of the window, then silent.
		return day > days*2/3 && g.rng.Float64() < 0.7
	default:
		return false
	}
}

func (g *Generator) submission(p learner, course Course, chapter, daysAgo int) Submission {
	at := g.now.AddDate(0, 0, -daysAgo).Add(-time.Duration(g.rng.IntN(6)) * time.Hour)

	s := Submission{
		SubmissionID: uuid.New().String(),
		UserID:       p.id,
		CourseID:     course.ID,
		ChapterIndex: chapter,
		ChapterName:  fmt.Sprintf("%s - Chapter %d", course.Name, chapter+1),
		SubmittedAt:  at.Format(time.RFC3339),
	}

	// Roughly every other chapter ends with a quiz.
	if chapter%2 == 1 {
		score := g.quizScore(p.archetype)
		s.QuizScore = &score
	}
	return s
}

func (g *Generator) quizScore(archetype int) int {
	switch archetype {
	case archetypeGrinder:
		return 70 + g.rng.IntN(31)
	case archetypeSteady:
		return 50 + g.rng.IntN(46)
	default:
		return 20 + g.rng.IntN(61)
	}
}
