package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"lovebox-backend/internal/database"
	"lovebox-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to DATABASE_URL and migrates it, skipping when unset
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	require.NoError(t, database.Migrate(dsn, "../../migrations"))

	pool, err := database.Connect(context.Background(), dsn, database.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createUsers(t *testing.T, users *UserRepository, n int) []*models.User {
	t.Helper()
	suffix := time.Now().UnixNano()
	out := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u := &models.User{
			Username:     fmt.Sprintf("u%d%d", suffix%1e9, i),
			Email:        fmt.Sprintf("u%d_%d@example.com", suffix, i),
			FullName:     "Test User",
			PasswordHash: "hash",
			Roles:        []string{models.RoleUser},
		}
		require.NoError(t, users.Create(context.Background(), u))
		out = append(out, u)
	}
	return out
}

func TestUserRepository(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	u := createUsers(t, users, 2)

	dup := *u[0]
	err := users.Create(ctx, &dup)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = users.GetByID(ctx, -1)
	assert.True(t, errors.Is(err, ErrNotFound))

	byLogin, err := users.GetByLogin(ctx, u[1].Email)
	require.NoError(t, err)
	assert.Equal(t, u[1].ID, byLogin.ID)

	following, err := users.ToggleFollow(ctx, u[0].ID, u[1].ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, total, err := users.Followers(ctx, u[1].ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, followers, 1)
	assert.Equal(t, u[0].ID, followers[0].ID)

	following, err = users.ToggleFollow(ctx, u[0].ID, u[1].ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestAcceptAndCoupleQuestionUpdate(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	requests := NewBffRequestRepository(pool)
	pairs := NewPairRepository(pool)
	questions := NewCoupleQuestionRepository(pool)
	u := createUsers(t, users, 3)

	req := &models.BffRequest{FromUserID: u[0].ID, ToUserID: u[1].ID, Text: "hi"}
	require.NoError(t, requests.Create(ctx, req))

	pair, err := requests.Accept(ctx, req.ID, func(*models.BffRequest) error { return nil })
	require.NoError(t, err)
	assert.True(t, pair.HasMember(u[0].ID))
	assert.True(t, pair.HasMember(u[1].ID))
	t.Cleanup(func() { _ = pairs.Delete(context.Background(), pair.ID) })

	_, err = requests.GetByID(ctx, req.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "accepted request is cleared")

	q := &models.CoupleQuestion{
		Text:             "Favorite color?",
		QuestionerID:     u[2].ID,
		FirstAnswererID:  pair.FirstUserID,
		SecondAnswererID: pair.SecondUserID,
	}
	require.NoError(t, questions.Create(ctx, q))

	updated, err := questions.Update(ctx, q.ID, func(q *models.CoupleQuestion) error {
		q.SetAnswer("Blue", pair.FirstUserID, time.Now())
		q.ToggleLove(u[2].ID)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Answered)

	stored, err := questions.GetByID(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AnswerText)
	assert.Equal(t, "Blue", *stored.AnswerText)
	assert.Equal(t, []int64{u[2].ID}, stored.LovedBy)

	answered := true
	list, total, err := questions.ListByAnswerer(ctx, pair.SecondUserID, &answered, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)

	errStop := errors.New("stop")
	_, err = questions.Update(ctx, q.ID, func(q *models.CoupleQuestion) error {
		q.ClearAnswer()
		return errStop
	})
	assert.ErrorIs(t, err, errStop)
	stored, err = questions.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, stored.Answered, "failed mutation rolls back")

	require.NoError(t, questions.Delete(ctx, q.ID, func(*models.CoupleQuestion) error { return nil }))
	_, err = questions.GetByID(ctx, q.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
