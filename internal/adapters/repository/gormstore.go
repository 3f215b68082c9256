package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/padhaku/eduverse-analytics/internal/domain/gamify"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/internal/domain/types"
	"github.com/padhaku/eduverse-analytics/pkg/metrics"
)

// Supported database drivers for the GORM-backed store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrUnknownDriver is returned for a driver name outside the supported set.
var ErrUnknownDriver = errors.New("unknown database driver")

type courseRow struct {
	ID            int64  `gorm:"primaryKey"`
	CID           string `gorm:"column:cid;uniqueIndex;size:64"`
	Name          string
	Description   string
	Category      string
	Level         string
	TotalChapters int
	CourseJSON    string `gorm:"type:text"`
	OwnerID       string `gorm:"index;size:64"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (courseRow) TableName() string { return "courses" }

type pointsEventRow struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	SubmissionID string `gorm:"index;size:128"`
	UserID       string `gorm:"index;size:64"`
	Points       int
	Reason       string
	CourseID     *int64
	ChapterIndex *int
	EarnedAt     time.Time `gorm:"index"`
}

func (pointsEventRow) TableName() string { return "points_events" }

type progressRow struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	UserID       string `gorm:"size:64;uniqueIndex:idx_user_course_chapter"`
	CourseID     int64  `gorm:"uniqueIndex:idx_user_course_chapter"`
	ChapterIndex int    `gorm:"uniqueIndex:idx_user_course_chapter"`
	ChapterName  string
	ChapterScore *int
	IsCompleted  bool
	CompletedAt  *time.Time
}

func (progressRow) TableName() string { return "chapter_progress" }

type statsRow struct {
	UserID            string `gorm:"primaryKey;size:64"`
	Points            int
	ChaptersCompleted int
	CoursesCompleted  int
	LastUpdated       time.Time
}

func (statsRow) TableName() string { return "user_stats" }

// GormStore is the database-backed Store. All completion writes run in a
// single transaction so the counters never drift from the event log.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore opens a database connection and migrates the schema.
func NewGormStore(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&courseRow{}, &pointsEventRow{}, &progressRow{}, &statsRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordCompletion implements Store.RecordCompletion.
func (s *GormStore) RecordCompletion(ctx context.Context, c model.Completion, points, bonus int) (CompletionResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	when := c.SubmittedAt
	if when.IsZero() {
		when = time.Now()
	}

	var result CompletionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course courseRow
		if err := tx.First(&course, "id = ?", c.CourseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}

		var prog progressRow
		err := tx.Where("user_id = ? AND course_id = ? AND chapter_index = ?",
			c.UserID, c.CourseID, c.ChapterIndex).First(&prog).Error
		switch {
		case err == nil && prog.IsCompleted:
			var st statsRow
			if err := tx.First(&st, "user_id = ?", c.UserID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			result = CompletionResult{Duplicate: true, Stats: statsFromRow(c.UserID, st)}
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		prog.UserID = c.UserID
		prog.CourseID = c.CourseID
		prog.ChapterIndex = c.ChapterIndex
		prog.ChapterName = c.ChapterName
		prog.ChapterScore = c.QuizScore
		prog.IsCompleted = true
		prog.CompletedAt = &when
		if err := tx.Save(&prog).Error; err != nil {
			return err
		}

		courseID := c.CourseID
		chapterIdx := c.ChapterIndex
		chapterEvent := pointsEventRow{
			SubmissionID: c.SubmissionID,
			UserID:       c.UserID,
			Points:       points,
			Reason:       gamify.ChapterReason(c.ChapterName),
			CourseID:     &courseID,
			ChapterIndex: &chapterIdx,
			EarnedAt:     when,
		}
		if err := tx.Create(&chapterEvent).Error; err != nil {
			return err
		}

		var st statsRow
		if err := tx.First(&st, "user_id = ?", c.UserID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			st = statsRow{UserID: c.UserID}
		}
		st.Points += points
		st.ChaptersCompleted++
		st.LastUpdated = when

		applied := []model.PointsEvent{eventFromRow(chapterEvent)}

		var completed int64
		if err := tx.Model(&progressRow{}).
			Where("user_id = ? AND course_id = ? AND is_completed = ?", c.UserID, c.CourseID, true).
			Count(&completed).Error; err != nil {
			return err
		}
		// The bonus is one-time per (user, course): a catalog update that
		// raises TotalChapters after the award must not grant it again.
		var priorBonus int64
		if err := tx.Model(&pointsEventRow{}).
			Where("user_id = ? AND course_id = ? AND reason = ?", c.UserID, c.CourseID, gamify.ReasonCourseBonus).
			Count(&priorBonus).Error; err != nil {
			return err
		}
		if course.TotalChapters > 0 && priorBonus == 0 && completed == int64(course.TotalChapters) {
			bonusCourseID := c.CourseID
			bonusEvent := pointsEventRow{
				SubmissionID: c.SubmissionID + ":bonus",
				UserID:       c.UserID,
				Points:       bonus,
				Reason:       gamify.ReasonCourseBonus,
				CourseID:     &bonusCourseID,
				EarnedAt:     when,
			}
			if err := tx.Create(&bonusEvent).Error; err != nil {
				return err
			}
			st.Points += bonus
			st.CoursesCompleted++
			applied = append(applied, eventFromRow(bonusEvent))
			result.CourseCompleted = true
		}

		if err := tx.Save(&st).Error; err != nil {
			return err
		}

		result.Events = applied
		result.Stats = statsFromRow(c.UserID, st)
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}
	return result, nil
}

// PutCourse implements Store.PutCourse.
func (s *GormStore) PutCourse(ctx context.Context, course model.CourseRecord) error {
	row := courseRow{
		ID:            course.ID,
		CID:           course.CID,
		Name:          course.Name,
		Description:   course.Description,
		Category:      course.Category,
		Level:         course.Level,
		TotalChapters: course.TotalChapters,
		CourseJSON:    course.CourseJSON,
		OwnerID:       course.OwnerID,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// DeleteCourse implements Store.DeleteCourse.
func (s *GormStore) DeleteCourse(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&courseRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// Stats implements Store.Stats.
func (s *GormStore) Stats(ctx context.Context, userID string) (model.UserStats, error) {
	var st statsRow
	if err := s.db.WithContext(ctx).First(&st, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.UserStats{}, ErrNotFound
		}
		return model.UserStats{}, err
	}
	return statsFromRow(userID, st), nil
}

// Events implements Store.Events.
func (s *GormStore) Events(ctx context.Context, userID string) ([]model.PointsEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var rows []pointsEventRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.PointsEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, eventFromRow(r))
	}
	return out, nil
}

// Progress implements Store.Progress.
func (s *GormStore) Progress(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	var rows []progressRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("course_id ASC, chapter_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.ProgressRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ProgressRecord{
			UserID:       r.UserID,
			CourseID:     r.CourseID,
			ChapterIndex: r.ChapterIndex,
			ChapterName:  r.ChapterName,
			ChapterScore: r.ChapterScore,
			IsCompleted:  r.IsCompleted,
			CompletedAt:  r.CompletedAt,
		})
	}
	return out, nil
}

// Courses implements Store.Courses.
func (s *GormStore) Courses(ctx context.Context) ([]model.CourseRecord, error) {
	var rows []courseRow
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.CourseRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, courseFromRow(r))
	}
	return out, nil
}

// Course implements Store.Course.
func (s *GormStore) Course(ctx context.Context, id int64) (model.CourseRecord, error) {
	var row courseRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.CourseRecord{}, ErrCourseNotFound
		}
		return model.CourseRecord{}, err
	}
	return courseFromRow(row), nil
}

// TopN implements Store.TopN.
func (s *GormStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	var rows []statsRow
	if err := s.db.WithContext(ctx).
		Order("points DESC, chapters_completed DESC, user_id ASC").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.Entry, 0, len(rows))
	for i, r := range rows {
		out = append(out, entryFromStats(i+1, statsFromRow(r.UserID, r)))
	}
	return out, nil
}

// Rank implements Store.Rank.
func (s *GormStore) Rank(ctx context.Context, userID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var st statsRow
	if err := s.db.WithContext(ctx).First(&st, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return types.Entry{}, ErrNotFound
		}
		return types.Entry{}, err
	}

	// Rank is 1 plus the number of users that sort strictly earlier.
	var ahead int64
	if err := s.db.WithContext(ctx).Model(&statsRow{}).
		Where(
			"points > ? OR (points = ? AND chapters_completed > ?) OR (points = ? AND chapters_completed = ? AND user_id < ?)",
			st.Points, st.Points, st.ChaptersCompleted, st.Points, st.ChaptersCompleted, userID,
		).
		Count(&ahead).Error; err != nil {
		return types.Entry{}, err
	}

	return entryFromStats(int(ahead)+1, statsFromRow(userID, st)), nil
}

// Count implements Store.Count.
func (s *GormStore) Count(ctx context.Context) int {
	var n int64
	if err := s.db.WithContext(ctx).Model(&statsRow{}).Count(&n).Error; err != nil {
		return 0
	}
	return int(n)
}

func statsFromRow(userID string, st statsRow) model.UserStats {
	return model.UserStats{
		UserID:                 userID,
		Points:                 st.Points,
		TotalChaptersCompleted: st.ChaptersCompleted,
		TotalCoursesCompleted:  st.CoursesCompleted,
		LastUpdated:            st.LastUpdated,
	}
}

func eventFromRow(r pointsEventRow) model.PointsEvent {
	return model.PointsEvent{
		ID:           r.SubmissionID,
		UserID:       r.UserID,
		PointsEarned: r.Points,
		Reason:       r.Reason,
		CourseID:     r.CourseID,
		ChapterIndex: r.ChapterIndex,
		EarnedAt:     r.EarnedAt,
	}
}

func courseFromRow(r courseRow) model.CourseRecord {
	return model.CourseRecord{
		ID:            r.ID,
		CID:           r.CID,
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Level:         r.Level,
		TotalChapters: r.TotalChapters,
		CourseJSON:    r.CourseJSON,
		OwnerID:       r.OwnerID,
	}
}
