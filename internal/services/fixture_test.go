package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"lovebox-backend/internal/models"
	"lovebox-backend/internal/permission"
	"lovebox-backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type publishedEvent struct {
	userIDs []int64
	event   Event
}

type recordingEvents struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (r *recordingEvents) Publish(_ context.Context, userIDs []int64, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, publishedEvent{userIDs: append([]int64(nil), userIDs...), event: ev})
}

func (r *recordingEvents) last() publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.published) == 0 {
		return publishedEvent{}
	}
	return r.published[len(r.published)-1]
}

func (r *recordingEvents) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.published)
}

type fixture struct {
	db     *memory.DB
	events *recordingEvents
	users  *UserService
	pairs  *PairService
	couple *CoupleQuestionService
	single *SingleQuestionService
}

func newFixture(t *testing.T, policy permission.Policy) *fixture {
	t.Helper()
	db := memory.New()
	events := &recordingEvents{}
	users := NewUserService(db.Users(), db.Pairs(), nil, UserServiceConfig{
		JWTSecret:  "test-secret",
		BcryptCost: bcrypt.MinCost,
	})
	return &fixture{
		db:     db,
		events: events,
		users:  users,
		pairs:  NewPairService(db.Users(), db.Pairs(), db.BffRequests(), nil, events),
		couple: NewCoupleQuestionService(db.CoupleQuestions(), users, events, policy),
		single: NewSingleQuestionService(db.SingleQuestions(), users, events),
	}
}

func (f *fixture) seedUsers(t *testing.T, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		err := f.db.Users().Create(context.Background(), &models.User{
			ID:       id,
			Username: fmt.Sprintf("user%d", id),
			Email:    fmt.Sprintf("user%d@example.com", id),
			Roles:    []string{models.RoleUser},
		})
		require.NoError(t, err)
	}
}

func (f *fixture) seedPair(t *testing.T, first, second int64) *models.BffPair {
	t.Helper()
	pair := &models.BffPair{FirstUserID: first, SecondUserID: second}
	require.NoError(t, f.db.Pairs().Create(context.Background(), pair))
	return pair
}

func page(t *testing.T, number, size int) models.PageRequest {
	t.Helper()
	req, err := models.NewPageRequest(number, size)
	require.NoError(t, err)
	return req
}
