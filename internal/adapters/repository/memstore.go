package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/domain/gamify"
	"github.com/padhaku/eduverse-analytics/internal/domain/model"
	"github.com/padhaku/eduverse-analytics/internal/domain/types"
	"github.com/padhaku/eduverse-analytics/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: points DESC, chapters completed DESC, then user ID ASC
// (deterministic). The BST comparator treats "less" as ranks-earlier, so
// an in-order traversal produces the leaderboard from best to worst and
// the subtree size fields give a rank in O(log n).

// rankKey is the composite leaderboard sort key for one user.
type rankKey struct {
	points   int
	chapters int
}

// keyLess reports whether (a, aID) ranks earlier than (b, bID).
func keyLess(a rankKey, aID string, b rankKey, bID string) bool {
	if a.points != b.points {
		return a.points > b.points
	}
	if a.chapters != b.chapters {
		return a.chapters > b.chapters
	}
	return aID < bID
}

// treap node
type node struct {
	id    string
	key   rankKey
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, key rankKey) *node {
	if n == nil {
		return &node{id: id, key: key, prio: rand.Uint64(), size: 1}
	}
	if keyLess(key, id, n.key, n.id) {
		n.left = insert(n.left, id, key)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, key)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, key rankKey) *node {
	if n == nil {
		return nil
	}
	if key == n.key && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, key)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, key)
		}
	} else if keyLess(key, id, n.key, n.id) {
		n.left = deleteNode(n.left, id, key)
	} else {
		n.right = deleteNode(n.right, id, key)
	}
	fix(n)
	return n
}

// rankOf returns the 1-based in-order position of (id, key), or 0 if absent.
func rankOf(n *node, id string, key rankKey) int {
	pos := 1
	for n != nil {
		if key == n.key && id == n.id {
			return pos + nsize(n.left)
		}
		if keyLess(key, id, n.key, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit user IDs in rank order.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// progressKey identifies one chapter of one course for a user.
type progressKey struct {
	courseID     int64
	chapterIndex int
}

// userState is everything the store tracks per user.
type userState struct {
	stats        model.UserStats
	events       []model.PointsEvent
	progress     []model.ProgressRecord
	progressIdx  map[progressKey]int // key -> index into progress
	bonusGranted map[int64]struct{}  // course IDs whose completion bonus was awarded
}

// Snapshot is an immutable view of the leaderboard state.
type Snapshot struct {
	RankByUser   map[string]int
	PointsByUser map[string]int
	TopCache     []types.Entry // sorted best first, at most topCacheSize
	TakenAt      time.Time
}

// MemStore keeps the full analytics state in memory: per-user stats,
// event and progress logs, the course catalog, and a treap ordering users
// for leaderboard queries.
type MemStore struct {
	mu        sync.RWMutex
	root      *node
	users     map[string]*userState
	courses   map[int64]model.CourseRecord
	courseIDs []int64 // catalog insertion order

	snapshotInterval time.Duration
	topCacheSize     int
	snapshot         atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*MemStore)(nil)

// NewMemStore constructs an in-memory store with configuration options.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		snapshotInterval: 1 * time.Second,
		topCacheSize:     500,
		users:            make(map[string]*userState),
		courses:          make(map[int64]model.CourseRecord),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startPeriodicSnapshots(ctx)

	return s
}

func (s *MemStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

// publishSnapshot rebuilds and publishes the leaderboard snapshot.
func (s *MemStore) publishSnapshot() {
	start := time.Now()

	s.mu.RLock()
	ids := make([]string, 0, len(s.users))
	collectTopN(s.root, len(s.users), &ids)

	rankByUser := make(map[string]int, len(ids))
	pointsByUser := make(map[string]int, len(ids))
	topCache := make([]types.Entry, 0, min(s.topCacheSize, len(ids)))
	for i, id := range ids {
		st := s.users[id].stats
		rankByUser[id] = i + 1
		pointsByUser[id] = st.Points
		if i < s.topCacheSize {
			topCache = append(topCache, entryFromStats(i+1, st))
		}
	}
	s.mu.RUnlock()

	s.snapshot.Store(&Snapshot{
		RankByUser:   rankByUser,
		PointsByUser: pointsByUser,
		TopCache:     topCache,
		TakenAt:      time.Now(),
	})

	metrics.RecordStoreSnapshot(float64(time.Since(start).Milliseconds()))
	metrics.UpdateStoreUsersTracked(len(rankByUser))
}

// LatestSnapshot returns the most recent published snapshot, or nil when
// none has been taken yet.
func (s *MemStore) LatestSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// Close stops the snapshot goroutine.
func (s *MemStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// RecordCompletion implements Store.RecordCompletion.
func (s *MemStore) RecordCompletion(ctx context.Context, c model.Completion, points, bonus int) (CompletionResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	when := c.SubmittedAt
	if when.IsZero() {
		when = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[c.CourseID]
	if !ok {
		return CompletionResult{}, ErrCourseNotFound
	}

	u := s.users[c.UserID]
	isNew := u == nil
	if isNew {
		u = &userState{
			stats:        model.UserStats{UserID: c.UserID},
			progressIdx:  make(map[progressKey]int),
			bonusGranted: make(map[int64]struct{}),
		}
		s.users[c.UserID] = u
	}

	pk := progressKey{courseID: c.CourseID, chapterIndex: c.ChapterIndex}
	if idx, exists := u.progressIdx[pk]; exists && u.progress[idx].IsCompleted {
		return CompletionResult{Duplicate: true, Stats: u.stats}, nil
	}

	oldKey := rankKey{points: u.stats.Points, chapters: u.stats.TotalChaptersCompleted}

	rec := model.ProgressRecord{
		UserID:       c.UserID,
		CourseID:     c.CourseID,
		ChapterIndex: c.ChapterIndex,
		ChapterName:  c.ChapterName,
		ChapterScore: c.QuizScore,
		IsCompleted:  true,
		CompletedAt:  &when,
	}
	if idx, exists := u.progressIdx[pk]; exists {
		u.progress[idx] = rec
	} else {
		u.progressIdx[pk] = len(u.progress)
		u.progress = append(u.progress, rec)
	}

	courseID := c.CourseID
	chapterIdx := c.ChapterIndex
	applied := []model.PointsEvent{{
		ID:           c.SubmissionID,
		UserID:       c.UserID,
		PointsEarned: points,
		Reason:       gamify.ChapterReason(c.ChapterName),
		CourseID:     &courseID,
		ChapterIndex: &chapterIdx,
		EarnedAt:     when,
	}}

	u.stats.Points += points
	u.stats.TotalChaptersCompleted++

	result := CompletionResult{}
	_, bonusDone := u.bonusGranted[c.CourseID]
	if course.TotalChapters > 0 && !bonusDone && s.completedInCourseLocked(u, c.CourseID) == course.TotalChapters {
		bonusCourseID := c.CourseID
		u.bonusGranted[c.CourseID] = struct{}{}
		applied = append(applied, model.PointsEvent{
			ID:           c.SubmissionID + ":bonus",
			UserID:       c.UserID,
			PointsEarned: bonus,
			Reason:       gamify.ReasonCourseBonus,
			CourseID:     &bonusCourseID,
			EarnedAt:     when,
		})
		u.stats.Points += bonus
		u.stats.TotalCoursesCompleted++
		result.CourseCompleted = true
	}
	u.stats.LastUpdated = when
	u.events = append(u.events, applied...)

	newKey := rankKey{points: u.stats.Points, chapters: u.stats.TotalChaptersCompleted}
	if !isNew {
		s.root = deleteNode(s.root, c.UserID, oldKey)
	}
	s.root = insert(s.root, c.UserID, newKey)
	if isNew {
		metrics.UpdateStoreUsersTracked(len(s.users))
	}

	result.Events = applied
	result.Stats = u.stats
	return result, nil
}

// completedInCourseLocked counts a user's completed chapters in one course.
// Must be called with s.mu held.
func (s *MemStore) completedInCourseLocked(u *userState, courseID int64) int {
	n := 0
	for _, p := range u.progress {
		if p.CourseID == courseID && p.IsCompleted {
			n++
		}
	}
	return n
}

// PutCourse implements Store.PutCourse.
func (s *MemStore) PutCourse(ctx context.Context, course model.CourseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[course.ID]; !exists {
		s.courseIDs = append(s.courseIDs, course.ID)
	}
	s.courses[course.ID] = course
	return nil
}

// DeleteCourse implements Store.DeleteCourse.
func (s *MemStore) DeleteCourse(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[id]; !exists {
		return ErrCourseNotFound
	}
	delete(s.courses, id)
	for i, cid := range s.courseIDs {
		if cid == id {
			s.courseIDs = append(s.courseIDs[:i], s.courseIDs[i+1:]...)
			break
		}
	}
	return nil
}

// Stats implements Store.Stats.
func (s *MemStore) Stats(ctx context.Context, userID string) (model.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return model.UserStats{}, ErrNotFound
	}
	return u.stats, nil
}

// Events implements Store.Events.
func (s *MemStore) Events(ctx context.Context, userID string) ([]model.PointsEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return []model.PointsEvent{}, nil
	}
	out := make([]model.PointsEvent, len(u.events))
	copy(out, u.events)
	return out, nil
}

// Progress implements Store.Progress.
func (s *MemStore) Progress(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return []model.ProgressRecord{}, nil
	}
	out := make([]model.ProgressRecord, len(u.progress))
	copy(out, u.progress)
	return out, nil
}

// Courses implements Store.Courses.
func (s *MemStore) Courses(ctx context.Context) ([]model.CourseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CourseRecord, 0, len(s.courseIDs))
	for _, id := range s.courseIDs {
		out = append(out, s.courses[id])
	}
	return out, nil
}

// Course implements Store.Course.
func (s *MemStore) Course(ctx context.Context, id int64) (model.CourseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.courses[id]
	if !ok {
		return model.CourseRecord{}, ErrCourseNotFound
	}
	return course, nil
}

// TopN implements Store.TopN.
func (s *MemStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, n)
	collectTopN(s.root, n, &ids)

	out := make([]types.Entry, 0, len(ids))
	for i, id := range ids {
		out = append(out, entryFromStats(i+1, s.users[id].stats))
	}
	return out, nil
}

// Rank implements Store.Rank.
func (s *MemStore) Rank(ctx context.Context, userID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}

	key := rankKey{points: u.stats.Points, chapters: u.stats.TotalChaptersCompleted}
	pos := rankOf(s.root, userID, key)
	if pos == 0 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	return entryFromStats(pos, u.stats), nil
}

// Count implements Store.Count.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func entryFromStats(rank int, st model.UserStats) types.Entry {
	return types.Entry{
		Rank:                   rank,
		UserID:                 st.UserID,
		Points:                 st.Points,
		TotalChaptersCompleted: st.TotalChaptersCompleted,
		TotalCoursesCompleted:  st.TotalCoursesCompleted,
	}
}
