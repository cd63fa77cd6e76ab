package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lovebox-backend/internal/models"
	"lovebox-backend/internal/permission"
	"lovebox-backend/internal/repository/memory"
	"lovebox-backend/internal/services"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePresigner struct{}

func (fakePresigner) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

type testServer struct {
	t       *testing.T
	db      *memory.DB
	users   *services.UserService
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := memory.New()
	hub := services.NewWSHub()
	events := services.NewDispatcher(hub, nil, db.Users())

	users := services.NewUserService(db.Users(), db.Pairs(), nil, services.UserServiceConfig{
		JWTSecret:  "handler-secret",
		BcryptCost: bcrypt.MinCost,
	})

	handler := NewRouter(RouterConfig{
		Users:   users,
		Pairs:   services.NewPairService(db.Users(), db.Pairs(), db.BffRequests(), nil, events),
		Couple:  services.NewCoupleQuestionService(db.CoupleQuestions(), users, events, permission.Policy{}),
		Single:  services.NewSingleQuestionService(db.SingleQuestions(), users, events),
		Avatars: services.NewAvatarService(db.Users(), fakePresigner{}, "https://cdn.example.com"),
		Hub:     hub,
	})

	return &testServer{t: t, db: db, users: users, handler: handler}
}

func (s *testServer) seedUsers(ids ...int64) {
	s.t.Helper()
	for _, id := range ids {
		require.NoError(s.t, s.db.Users().Create(context.Background(), &models.User{
			ID:       id,
			Username: fmt.Sprintf("user%d", id),
			Email:    fmt.Sprintf("user%d@example.com", id),
			FullName: fmt.Sprintf("User %d", id),
			Roles:    []string{models.RoleUser},
		}))
	}
}

func (s *testServer) seedPair(first, second int64) *models.BffPair {
	s.t.Helper()
	pair := &models.BffPair{FirstUserID: first, SecondUserID: second}
	require.NoError(s.t, s.db.Pairs().Create(context.Background(), pair))
	return pair
}

func (s *testServer) token(userID int64) string {
	s.t.Helper()
	user, err := s.db.Users().GetByID(context.Background(), userID)
	require.NoError(s.t, err)
	token, err := s.users.GenerateJWT(user)
	require.NoError(s.t, err)
	return token
}

// do sends a request as userID (0 for anonymous) and returns the recorder
func (s *testServer) do(userID int64, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(userID))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
