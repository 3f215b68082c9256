package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	repository "github.com/padhaku/eduverse-analytics/internal/adapters/repository"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestStore(t *testing.T) *repository.MemStore {
	t.Helper()
	s := repository.NewMemStore(context.Background(),
		repository.WithSnapshotInterval(time.Hour), // keep the ticker quiet during tests
	)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedCourse(t *testing.T, s *repository.MemStore, id int64, name string, chapters int) {
	t.Helper()
	err := s.PutCourse(context.Background(), model.CourseRecord{
		ID:            id,
		CID:           fmt.Sprintf("course-%d", id),
		Name:          name,
		TotalChapters: chapters,
	})
	So(err, ShouldBeNil)
}

func completion(userID string, courseID int64, chapter int, score *int) model.Completion {
	return model.Completion{
		SubmissionID: fmt.Sprintf("%s-%d-%d", userID, courseID, chapter),
		UserID:       userID,
		CourseID:     courseID,
		ChapterIndex: chapter,
		ChapterName:  fmt.Sprintf("Chapter %d", chapter+1),
		QuizScore:    score,
		SubmittedAt:  time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemStoreRecordCompletion(t *testing.T) {
	Convey("Given a store with a three-chapter course", t, func() {
		s := newTestStore(t)
		seedCourse(t, s, 1, "Go Fundamentals", 3)

		Convey("When a chapter completion is recorded", func() {
			res, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, nil), 10, 50)

			Convey("Then points and counters are credited", func() {
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
				So(res.CourseCompleted, ShouldBeFalse)
				So(res.Stats.Points, ShouldEqual, 10)
				So(res.Stats.TotalChaptersCompleted, ShouldEqual, 1)
				So(res.Stats.TotalCoursesCompleted, ShouldEqual, 0)
				So(len(res.Events), ShouldEqual, 1)
				So(res.Events[0].Reason, ShouldEqual, "Completed chapter: Chapter 1")
			})

			Convey("And the same chapter again is a duplicate no-op", func() {
				again, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, nil), 10, 50)
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.Stats.Points, ShouldEqual, 10)

				events, err := s.Events(context.Background(), "alice")
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
			})
		})

		Convey("When the last chapter of the course lands", func() {
			_, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, nil), 10, 50)
			So(err, ShouldBeNil)
			_, err = s.RecordCompletion(context.Background(), completion("alice", 1, 1, nil), 10, 50)
			So(err, ShouldBeNil)
			res, err := s.RecordCompletion(context.Background(), completion("alice", 1, 2, nil), 10, 50)
			So(err, ShouldBeNil)

			Convey("Then the bonus is credited exactly once", func() {
				So(res.CourseCompleted, ShouldBeTrue)
				So(res.Stats.Points, ShouldEqual, 80) // 3 chapters + 50 bonus
				So(res.Stats.TotalCoursesCompleted, ShouldEqual, 1)
				So(len(res.Events), ShouldEqual, 2)
				So(res.Events[1].Reason, ShouldEqual, "Course completed bonus")
				So(res.Events[1].PointsEarned, ShouldEqual, 50)
			})

			Convey("And repeating the last chapter awards nothing more", func() {
				again, err := s.RecordCompletion(context.Background(), completion("alice", 1, 2, nil), 10, 50)
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.Stats.Points, ShouldEqual, 80)
				So(again.Stats.TotalCoursesCompleted, ShouldEqual, 1)
			})

			Convey("And growing the course afterwards never re-awards the bonus", func() {
				seedCourse(t, s, 1, "Go Fundamentals", 4)
				res, err := s.RecordCompletion(context.Background(), completion("alice", 1, 3, nil), 10, 50)
				So(err, ShouldBeNil)
				So(res.CourseCompleted, ShouldBeFalse)
				So(res.Stats.Points, ShouldEqual, 90) // 4 chapters + the original bonus
				So(res.Stats.TotalCoursesCompleted, ShouldEqual, 1)
				So(len(res.Events), ShouldEqual, 1)
				So(res.Events[0].Reason, ShouldNotEqual, "Course completed bonus")
			})
		})

		Convey("When a quiz score rides along", func() {
			score := 85
			res, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, &score), 85, 50)
			So(err, ShouldBeNil)
			So(res.Stats.Points, ShouldEqual, 85)

			Convey("Then the score is kept on the progress record", func() {
				progress, err := s.Progress(context.Background(), "alice")
				So(err, ShouldBeNil)
				So(len(progress), ShouldEqual, 1)
				So(progress[0].ChapterScore, ShouldNotBeNil)
				So(*progress[0].ChapterScore, ShouldEqual, 85)
				So(progress[0].IsCompleted, ShouldBeTrue)
			})
		})

		Convey("When the course is not in the catalog", func() {
			_, err := s.RecordCompletion(context.Background(), completion("alice", 99, 0, nil), 10, 50)

			Convey("Then the completion is rejected", func() {
				So(err, ShouldEqual, repository.ErrCourseNotFound)
				So(s.Count(context.Background()), ShouldEqual, 0)
			})
		})
	})
}

func TestMemStoreCatalog(t *testing.T) {
	Convey("Given a store with catalog entries", t, func() {
		s := newTestStore(t)
		seedCourse(t, s, 1, "Go Fundamentals", 3)
		seedCourse(t, s, 2, "Linear Algebra", 10)

		Convey("Courses lists entries in insertion order", func() {
			courses, err := s.Courses(context.Background())
			So(err, ShouldBeNil)
			So(len(courses), ShouldEqual, 2)
			So(courses[0].Name, ShouldEqual, "Go Fundamentals")
			So(courses[1].Name, ShouldEqual, "Linear Algebra")
		})

		Convey("PutCourse replaces an existing entry in place", func() {
			seedCourse(t, s, 1, "Go Fundamentals, 2nd ed", 4)
			courses, err := s.Courses(context.Background())
			So(err, ShouldBeNil)
			So(len(courses), ShouldEqual, 2)
			So(courses[0].Name, ShouldEqual, "Go Fundamentals, 2nd ed")
			So(courses[0].TotalChapters, ShouldEqual, 4)
		})

		Convey("Course fetches one entry and reports unknown IDs", func() {
			course, err := s.Course(context.Background(), 2)
			So(err, ShouldBeNil)
			So(course.Name, ShouldEqual, "Linear Algebra")

			_, err = s.Course(context.Background(), 42)
			So(err, ShouldEqual, repository.ErrCourseNotFound)
		})

		Convey("DeleteCourse removes an entry and reports unknown IDs", func() {
			So(s.DeleteCourse(context.Background(), 1), ShouldBeNil)
			courses, err := s.Courses(context.Background())
			So(err, ShouldBeNil)
			So(len(courses), ShouldEqual, 1)

			So(s.DeleteCourse(context.Background(), 1), ShouldEqual, repository.ErrCourseNotFound)
		})
	})
}

func TestMemStoreLeaderboard(t *testing.T) {
	Convey("Given users with differing totals", t, func() {
		s := newTestStore(t)
		seedCourse(t, s, 1, "Go Fundamentals", 100)

		credit := func(userID string, chapters, pointsEach int) {
			for i := 0; i < chapters; i++ {
				_, err := s.RecordCompletion(context.Background(), completion(userID, 1, i, nil), pointsEach, 50)
				So(err, ShouldBeNil)
			}
		}
		credit("alice", 3, 10) // 30 points, 3 chapters
		credit("bob", 1, 90)   // 90 points, 1 chapter
		credit("carol", 3, 30) // 90 points, 3 chapters

		Convey("TopN orders by points desc, chapters desc, then user ID asc", func() {
			top, err := s.TopN(context.Background(), 10)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 3)
			So(top[0].UserID, ShouldEqual, "carol") // 90 points, more chapters than bob
			So(top[1].UserID, ShouldEqual, "bob")
			So(top[2].UserID, ShouldEqual, "alice")
			So(top[0].Rank, ShouldEqual, 1)
			So(top[2].Rank, ShouldEqual, 3)
		})

		Convey("TopN truncates to the requested size", func() {
			top, err := s.TopN(context.Background(), 2)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 2)
			So(top[1].UserID, ShouldEqual, "bob")
		})

		Convey("TopN rejects a non-positive limit", func() {
			_, err := s.TopN(context.Background(), 0)
			So(err, ShouldEqual, repository.ErrInvalidLimit)
		})

		Convey("Rank reports the 1-based position", func() {
			entry, err := s.Rank(context.Background(), "alice")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 3)
			So(entry.Points, ShouldEqual, 30)
		})

		Convey("Rank reports unknown users", func() {
			_, err := s.Rank(context.Background(), "nobody")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Count tracks distinct users", func() {
			So(s.Count(context.Background()), ShouldEqual, 3)
		})

		Convey("Ranks shift when a user overtakes another", func() {
			_, err := s.RecordCompletion(context.Background(), completion("alice", 1, 50, nil), 100, 50)
			So(err, ShouldBeNil) // alice now 130 points

			entry, err := s.Rank(context.Background(), "alice")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 1)
		})
	})
}

func TestMemStoreReads(t *testing.T) {
	Convey("Given read access for an untracked user", t, func() {
		s := newTestStore(t)

		Convey("Stats reports not found", func() {
			_, err := s.Stats(context.Background(), "ghost")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Events and Progress come back empty, not nil", func() {
			events, err := s.Events(context.Background(), "ghost")
			So(err, ShouldBeNil)
			So(events, ShouldNotBeNil)
			So(len(events), ShouldEqual, 0)

			progress, err := s.Progress(context.Background(), "ghost")
			So(err, ShouldBeNil)
			So(len(progress), ShouldEqual, 0)
		})
	})

	Convey("Given recorded activity", t, func() {
		s := newTestStore(t)
		seedCourse(t, s, 1, "Go Fundamentals", 3)
		_, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, nil), 10, 50)
		So(err, ShouldBeNil)

		Convey("Returned slices are copies, not internal state", func() {
			events, err := s.Events(context.Background(), "alice")
			So(err, ShouldBeNil)
			events[0].PointsEarned = 9999

			again, err := s.Events(context.Background(), "alice")
			So(err, ShouldBeNil)
			So(again[0].PointsEarned, ShouldEqual, 10)
		})
	})
}

func TestMemStoreConcurrency(t *testing.T) {
	Convey("Given concurrent completions for distinct users", t, func() {
		s := newTestStore(t)
		seedCourse(t, s, 1, "Go Fundamentals", 1000)

		const users = 8
		const perUser = 50

		var wg sync.WaitGroup
		for u := 0; u < users; u++ {
			wg.Add(1)
			go func(u int) {
				defer wg.Done()
				userID := fmt.Sprintf("user-%d", u)
				for i := 0; i < perUser; i++ {
					_, _ = s.RecordCompletion(context.Background(), completion(userID, 1, i, nil), 10, 50)
				}
			}(u)
		}
		wg.Wait()

		Convey("Every write lands exactly once", func() {
			So(s.Count(context.Background()), ShouldEqual, users)
			for u := 0; u < users; u++ {
				stats, err := s.Stats(context.Background(), fmt.Sprintf("user-%d", u))
				So(err, ShouldBeNil)
				So(stats.Points, ShouldEqual, perUser*10)
				So(stats.TotalChaptersCompleted, ShouldEqual, perUser)
			}
		})
	})
}
