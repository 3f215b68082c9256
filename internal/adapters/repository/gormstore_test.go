package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	repository "github.com/padhaku/eduverse-analytics/internal/adapters/repository"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var gormTestSeq int

func newGormTestStore(t *testing.T) *repository.GormStore {
	t.Helper()
	gormTestSeq++
	dsn := fmt.Sprintf("file:gormstore_test_%d?mode=memory&cache=shared", gormTestSeq)
	s, err := repository.NewGormStore(repository.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStoreUnknownDriver(t *testing.T) {
	Convey("Given an unsupported driver name", t, func() {
		_, err := repository.NewGormStore("oracle", "dsn")

		Convey("Then the store refuses to open", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown database driver")
		})
	})
}

func TestGormStoreCompletionFlow(t *testing.T) {
	Convey("Given a sqlite-backed store with a two-chapter course", t, func() {
		s := newGormTestStore(t)
		err := s.PutCourse(context.Background(), model.CourseRecord{
			ID: 1, CID: "course-1", Name: "Go Fundamentals", TotalChapters: 2,
		})
		So(err, ShouldBeNil)

		Convey("When both chapters complete", func() {
			res1, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, nil), 10, 50)
			So(err, ShouldBeNil)
			So(res1.Duplicate, ShouldBeFalse)
			So(res1.Stats.Points, ShouldEqual, 10)

			res2, err := s.RecordCompletion(context.Background(), completion("alice", 1, 1, nil), 10, 50)
			So(err, ShouldBeNil)

			Convey("Then the bonus lands with the final chapter", func() {
				So(res2.CourseCompleted, ShouldBeTrue)
				So(res2.Stats.Points, ShouldEqual, 70)
				So(res2.Stats.TotalChaptersCompleted, ShouldEqual, 2)
				So(res2.Stats.TotalCoursesCompleted, ShouldEqual, 1)
			})

			Convey("And the event log holds chapter events plus the bonus", func() {
				events, err := s.Events(context.Background(), "alice")
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 3)
				So(events[2].Reason, ShouldEqual, "Course completed bonus")
				So(events[2].PointsEarned, ShouldEqual, 50)
			})

			Convey("And replaying a chapter is a duplicate no-op", func() {
				again, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, nil), 10, 50)
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.Stats.Points, ShouldEqual, 70)

				events, err := s.Events(context.Background(), "alice")
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 3)
			})

			Convey("And growing the course afterwards never re-awards the bonus", func() {
				err := s.PutCourse(context.Background(), model.CourseRecord{
					ID: 1, CID: "course-1", Name: "Go Fundamentals", TotalChapters: 3,
				})
				So(err, ShouldBeNil)

				res, err := s.RecordCompletion(context.Background(), completion("alice", 1, 2, nil), 10, 50)
				So(err, ShouldBeNil)
				So(res.CourseCompleted, ShouldBeFalse)
				So(res.Stats.Points, ShouldEqual, 80) // 3 chapters + the original bonus
				So(res.Stats.TotalCoursesCompleted, ShouldEqual, 1)

				events, err := s.Events(context.Background(), "alice")
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 4)
				So(events[3].Reason, ShouldNotEqual, "Course completed bonus")
			})
		})

		Convey("When the course is unknown", func() {
			_, err := s.RecordCompletion(context.Background(), completion("alice", 404, 0, nil), 10, 50)
			So(err, ShouldEqual, repository.ErrCourseNotFound)
		})

		Convey("When a quiz score rides along", func() {
			score := 92
			res, err := s.RecordCompletion(context.Background(), completion("alice", 1, 0, &score), 92, 50)
			So(err, ShouldBeNil)
			So(res.Stats.Points, ShouldEqual, 92)

			progress, err := s.Progress(context.Background(), "alice")
			So(err, ShouldBeNil)
			So(len(progress), ShouldEqual, 1)
			So(*progress[0].ChapterScore, ShouldEqual, 92)
			So(progress[0].CompletedAt, ShouldNotBeNil)
		})
	})
}

func TestGormStoreLeaderboard(t *testing.T) {
	Convey("Given several users in a sqlite-backed store", t, func() {
		s := newGormTestStore(t)
		err := s.PutCourse(context.Background(), model.CourseRecord{
			ID: 1, CID: "course-1", Name: "Go Fundamentals", TotalChapters: 100,
		})
		So(err, ShouldBeNil)

		credit := func(userID string, chapters, pointsEach int) {
			for i := 0; i < chapters; i++ {
				_, err := s.RecordCompletion(context.Background(), completion(userID, 1, i, nil), pointsEach, 50)
				So(err, ShouldBeNil)
			}
		}
		credit("alice", 3, 10) // 30 points
		credit("bob", 1, 90)   // 90 points, 1 chapter
		credit("carol", 3, 30) // 90 points, 3 chapters

		Convey("TopN orders by points, chapters, then user ID", func() {
			top, err := s.TopN(context.Background(), 10)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 3)
			So(top[0].UserID, ShouldEqual, "carol")
			So(top[1].UserID, ShouldEqual, "bob")
			So(top[2].UserID, ShouldEqual, "alice")
			So(top[0].Rank, ShouldEqual, 1)
		})

		Convey("Rank agrees with the TopN ordering", func() {
			entry, err := s.Rank(context.Background(), "bob")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 2)
			So(entry.Points, ShouldEqual, 90)
		})

		Convey("Rank reports unknown users", func() {
			_, err := s.Rank(context.Background(), "nobody")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Count tracks distinct users", func() {
			So(s.Count(context.Background()), ShouldEqual, 3)
		})

		Convey("TopN rejects a non-positive limit", func() {
			_, err := s.TopN(context.Background(), 0)
			So(err, ShouldEqual, repository.ErrInvalidLimit)
		})
	})
}

func TestGormStoreCatalog(t *testing.T) {
	Convey("Given a sqlite-backed catalog", t, func() {
		s := newGormTestStore(t)
		put := func(id int64, name string) {
			err := s.PutCourse(context.Background(), model.CourseRecord{
				ID: id, CID: fmt.Sprintf("course-%d", id), Name: name, TotalChapters: 3,
			})
			So(err, ShouldBeNil)
		}
		put(1, "Go Fundamentals")
		put(2, "Linear Algebra")

		Convey("Courses lists all entries", func() {
			courses, err := s.Courses(context.Background())
			So(err, ShouldBeNil)
			So(len(courses), ShouldEqual, 2)
		})

		Convey("Course fetches one entry by ID", func() {
			course, err := s.Course(context.Background(), 2)
			So(err, ShouldBeNil)
			So(course.Name, ShouldEqual, "Linear Algebra")

			_, err = s.Course(context.Background(), 42)
			So(err, ShouldEqual, repository.ErrCourseNotFound)
		})

		Convey("PutCourse updates in place", func() {
			put(1, "Go Fundamentals, 2nd ed")
			course, err := s.Course(context.Background(), 1)
			So(err, ShouldBeNil)
			So(course.Name, ShouldEqual, "Go Fundamentals, 2nd ed")
		})

		Convey("DeleteCourse removes and reports unknown IDs", func() {
			So(s.DeleteCourse(context.Background(), 1), ShouldBeNil)
			So(s.DeleteCourse(context.Background(), 1), ShouldEqual, repository.ErrCourseNotFound)
		})
	})
}

func TestGormStoreStats(t *testing.T) {
	Convey("Given a sqlite-backed store", t, func() {
		s := newGormTestStore(t)

		Convey("Stats for an unknown user reports not found", func() {
			_, err := s.Stats(context.Background(), "ghost")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Stats reflects recorded activity", func() {
			err := s.PutCourse(context.Background(), model.CourseRecord{
				ID: 1, CID: "course-1", Name: "Go Fundamentals", TotalChapters: 3,
			})
			So(err, ShouldBeNil)
			_, err = s.RecordCompletion(context.Background(), completion("alice", 1, 0, nil), 10, 50)
			So(err, ShouldBeNil)

			stats, err := s.Stats(context.Background(), "alice")
			So(err, ShouldBeNil)
			So(stats.Points, ShouldEqual, 10)
			So(stats.TotalChaptersCompleted, ShouldEqual, 1)
			So(stats.LastUpdated, ShouldHappenOnOrBefore, time.Now())
		})
	})
}
