// Package memory implements the repository contracts on top of process
// memory. It backs the "memory" database driver and the service tests.
//
// Every method hands out copies, so callers can never mutate stored rows
// without going through the repository.
package memory

import (
	"sort"
	"sync"
	"time"

	"lovebox-backend/internal/models"
)

type follow struct {
	followerID  int64
	followingID int64
	createdAt   time.Time
}

// DB holds every table behind a single mutex
type DB struct {
	mu sync.Mutex

	users    map[int64]*models.User
	follows  []follow
	pairs    map[int64]*models.BffPair
	requests map[int64]*models.BffRequest
	couple   map[int64]*models.CoupleQuestion
	single   map[int64]*models.SingleQuestion

	userSeq    int64
	pairSeq    int64
	requestSeq int64
	coupleSeq  int64
	singleSeq  int64
	now        func() time.Time
}

// New creates an empty database
func New() *DB {
	return &DB{
		users:    make(map[int64]*models.User),
		pairs:    make(map[int64]*models.BffPair),
		requests: make(map[int64]*models.BffRequest),
		couple:   make(map[int64]*models.CoupleQuestion),
		single:   make(map[int64]*models.SingleQuestion),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for created_at stamps
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

// Users returns the user repository
func (db *DB) Users() *UserRepository { return &UserRepository{db: db} }

// Pairs returns the pair repository
func (db *DB) Pairs() *PairRepository { return &PairRepository{db: db} }

// BffRequests returns the BFF request repository
func (db *DB) BffRequests() *BffRequestRepository { return &BffRequestRepository{db: db} }

// CoupleQuestions returns the couple question repository
func (db *DB) CoupleQuestions() *CoupleQuestionRepository { return &CoupleQuestionRepository{db: db} }

// SingleQuestions returns the single question repository
func (db *DB) SingleQuestions() *SingleQuestionRepository { return &SingleQuestionRepository{db: db} }

// nextID honours a preset id and keeps the sequence ahead of it
func nextID(seq *int64, preset int64) int64 {
	if preset > 0 {
		if preset > *seq {
			*seq = preset
		}
		return preset
	}
	*seq++
	return *seq
}

func (db *DB) stamp(preset time.Time) time.Time {
	if !preset.IsZero() {
		return preset
	}
	return db.now()
}

// newestFirst orders by created_at DESC, id DESC
func newestFirst(created func(i int) time.Time, id func(i int) int64) func(i, j int) bool {
	return func(i, j int) bool {
		ci, cj := created(i), created(j)
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(i) > id(j)
	}
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	c.AvatarURL = cloneString(u.AvatarURL)
	c.PushToken = cloneString(u.PushToken)
	return &c
}

func clonePair(p *models.BffPair) *models.BffPair {
	c := *p
	return &c
}

func cloneRequest(r *models.BffRequest) *models.BffRequest {
	c := *r
	return &c
}

func cloneCouple(q *models.CoupleQuestion) *models.CoupleQuestion {
	c := *q
	c.AnswerText = cloneString(q.AnswerText)
	c.AnsweredAt = cloneTime(q.AnsweredAt)
	if q.AnsweredBy != nil {
		by := *q.AnsweredBy
		c.AnsweredBy = &by
	}
	c.LovedBy = append([]int64{}, q.LovedBy...)
	return &c
}

func cloneSingle(q *models.SingleQuestion) *models.SingleQuestion {
	c := *q
	c.AnswerText = cloneString(q.AnswerText)
	c.AnsweredAt = cloneTime(q.AnsweredAt)
	return &c
}

func sortUsers(users []*models.User) {
	sort.SliceStable(users, newestFirst(
		func(i int) time.Time { return users[i].CreatedAt },
		func(i int) int64 { return users[i].ID },
	))
}
