package seeder

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestGeneratorCatalog(t *testing.T) {
	convey.Convey("Given a generator", t, func() {
		gen := NewGenerator(42)
		catalog := gen.Catalog()

		convey.Convey("Then the catalog should have sequential IDs and chapters", func() {
			convey.So(len(catalog), convey.ShouldBeGreaterThan, 0)
			for i, c := range catalog {
				convey.So(c.ID, convey.ShouldEqual, int64(i+1))
				convey.So(c.CID, convey.ShouldNotBeEmpty)
				convey.So(c.Name, convey.ShouldNotBeEmpty)
				convey.So(c.TotalChapters, convey.ShouldBeGreaterThan, 0)
			}
		})
	})
}

func TestGeneratorSubmissions(t *testing.T) {
	convey.Convey("Given a seeded generator", t, func() {
		gen := NewGenerator(42)
		catalog := gen.Catalog()
		subs := gen.Submissions(20, 30, catalog)

		convey.Convey("Then it should produce activity", func() {
			convey.So(len(subs), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("Then submission IDs should be unique", func() {
			seen := make(map[string]struct{}, len(subs))
			for _, s := range subs {
				_, dup := seen[s.SubmissionID]
				convey.So(dup, convey.ShouldBeFalse)
				seen[s.SubmissionID] = struct{}{}
			}
		})

		convey.Convey("Then every submission should reference a catalog course", func() {
			byID := make(map[int64]Course, len(catalog))
			for _, c := range catalog {
				byID[c.ID] = c
			}
			for _, s := range subs {
				course, ok := byID[s.CourseID]
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(s.ChapterIndex, convey.ShouldBeGreaterThanOrEqualTo, 0)
				convey.So(s.ChapterIndex, convey.ShouldBeLessThan, course.TotalChapters)
			}
		})

		convey.Convey("Then quiz scores should stay within bounds", func() {
			for _, s := range subs {
				if s.QuizScore != nil {
					convey.So(*s.QuizScore, convey.ShouldBeGreaterThanOrEqualTo, 0)
					convey.So(*s.QuizScore, convey.ShouldBeLessThanOrEqualTo, 100)
				}
			}
		})

		convey.Convey("Then timestamps should parse and fall inside the window", func() {
			cutoff := time.Now().UTC().AddDate(0, 0, -31)
			for _, s := range subs {
				at, err := time.Parse(time.RFC3339, s.SubmittedAt)
				convey.So(err, convey.ShouldBeNil)
				convey.So(at.After(cutoff), convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then chapters should advance sequentially per learner and course", func() {
			type key struct {
				user   string
				course int64
			}
			next := make(map[key]int)
			for _, s := range subs {
				k := key{s.UserID, s.CourseID}
				convey.So(s.ChapterIndex, convey.ShouldEqual, next[k])
				next[k]++
			}
		})
	})

	convey.Convey("Given degenerate inputs", t, func() {
		gen := NewGenerator(7)

		convey.Convey("Then zero learners yield no submissions", func() {
			convey.So(gen.Submissions(0, 30, gen.Catalog()), convey.ShouldBeEmpty)
		})

		convey.Convey("Then an empty catalog yields no submissions", func() {
			convey.So(gen.Submissions(10, 30, nil), convey.ShouldBeEmpty)
		})
	})
}

func TestGeneratorDeterminism(t *testing.T) {
	convey.Convey("Given two generators with the same seed", t, func() {
		a := NewGenerator(99)
		b := NewGenerator(99)

		// Catalogs carry random CIDs, so compare activity shape only.
		subsA := a.Submissions(10, 14, a.Catalog())
		subsB := b.Submissions(10, 14, b.Catalog())

		convey.Convey("Then they should produce the same amount of activity", func() {
			convey.So(len(subsA), convey.ShouldEqual, len(subsB))
			for i := range subsA {
				convey.So(subsA[i].CourseID, convey.ShouldEqual, subsB[i].CourseID)
				convey.So(subsA[i].ChapterIndex, convey.ShouldEqual, subsB[i].ChapterIndex)
			}
		})
	})
}
