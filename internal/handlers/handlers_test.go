package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"lovebox-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpSignInAndMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(0, http.MethodPost, "/api/auth/signup", SignUpRequest{
		FullName: "Alice Liddell",
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "wonderland",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[UserResponse](t, rec)
	assert.Equal(t, "alice@example.com", created.Email)

	rec = s.do(0, http.MethodPost, "/api/auth/signup", SignUpRequest{
		FullName: "Alice Again",
		Username: "alice",
		Email:    "other@example.com",
		Password: "wonderland",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[ErrorResponse](t, rec).Kind)

	rec = s.do(0, http.MethodPost, "/api/auth/signin", SignInRequest{UsernameOrEmail: "alice", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(0, http.MethodPost, "/api/auth/signin", SignInRequest{UsernameOrEmail: "alice@example.com", Password: "wonderland"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[TokenResponse](t, rec)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)

	rec = s.do(created.ID, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[UserResponse](t, rec)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestSignUpValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(0, http.MethodPost, "/api/auth/signup", SignUpRequest{
		FullName: "Al",
		Username: "a",
		Email:    "not-an-email",
		Password: "123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "bad_request", body.Kind)
	for _, field := range []string{"full_name", "username", "email", "password"} {
		assert.Contains(t, body.Details, field)
	}

	rec = s.do(0, http.MethodPost, "/api/auth/signin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "is required", decode[ErrorResponse](t, rec).Details["payload"])
}

func TestAvailabilityChecks(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(1)

	rec := s.do(0, http.MethodGet, "/api/users/check-username-availability?username=user1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[AvailabilityResponse](t, rec).Available)

	rec = s.do(0, http.MethodGet, "/api/users/check-email-availability?email=fresh@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[AvailabilityResponse](t, rec).Available)

	rec = s.do(0, http.MethodGet, "/api/users/check-email-availability", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(0, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, rec).Kind)
}

func TestInvalidPathID(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(1)

	rec := s.do(1, http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowAndProfile(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(1, 2)

	rec := s.do(1, http.MethodPost, "/api/users/2/follow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[FollowResponse](t, rec).Following)

	rec = s.do(1, http.MethodGet, "/api/users/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[UserResponse](t, rec)
	require.NotNil(t, profile.Following)
	assert.True(t, *profile.Following)
	assert.Empty(t, profile.Email, "email is private to its owner")

	rec = s.do(2, http.MethodGet, "/api/users/2/followers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	followers := decode[models.Page[UserResponse]](t, rec)
	require.Len(t, followers.Content, 1)
	assert.Equal(t, int64(1), followers.Content[0].ID)

	rec = s.do(1, http.MethodGet, "/api/users?username=user&size=101", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(1, http.MethodGet, "/api/users?username=user&page=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(2, http.MethodGet, "/api/users/2/followers?page=461168601842738791&size=20", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(1, http.MethodGet, "/api/users?username=USER", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[models.Page[UserResponse]](t, rec).TotalElements)

	rec = s.do(1, http.MethodPost, "/api/users/1/follow", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPushTokenAndAvatar(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(1)

	rec := s.do(1, http.MethodPut, "/api/users/me/push-token", PushTokenRequest{PushToken: "device"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(1, http.MethodPost, "/api/users/me/avatar", UploadRequest{ContentType: "image/gif"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(1, http.MethodPost, "/api/users/me/avatar", UploadRequest{ContentType: "image/jpeg"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	upload := decode[map[string]any](t, rec)
	key, _ := upload["key"].(string)
	assert.True(t, strings.HasPrefix(key, "avatars/1/"))

	rec = s.do(1, http.MethodPut, "/api/users/me/avatar", ConfirmRequest{Key: "avatars/2/x.jpg"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(1, http.MethodPut, "/api/users/me/avatar", ConfirmRequest{Key: key})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.example.com/"+key, decode[AvatarResponse](t, rec).AvatarURL)
}

func TestBffRequestFlow(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(1, 2)

	rec := s.do(1, http.MethodPost, "/api/users/2/bff-requests", BffRequestBody{Text: "bff?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[BffRequestResponse](t, rec)
	assert.Equal(t, "user1", sent.FromUser.Username)
	assert.Equal(t, int64(2), sent.ToUser.ID)

	rec = s.do(2, http.MethodGet, "/api/bff-requests?direction=incoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	incoming := decode[[]BffRequestResponse](t, rec)
	require.Len(t, incoming, 1)

	rec = s.do(2, http.MethodGet, "/api/bff-requests?direction=up", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(1, http.MethodPost, fmt.Sprintf("/api/bff-requests/%d/accept", sent.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(2, http.MethodPost, fmt.Sprintf("/api/bff-requests/%d/accept", sent.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decode[BffDetailResponse](t, rec)
	assert.Equal(t, int64(1), pair.FirstUser.ID)
	assert.Equal(t, int64(2), pair.SecondUser.ID)

	rec = s.do(1, http.MethodPut, "/api/bff/description", DescriptionRequest{Description: "since school"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "since school", decode[BffDetailResponse](t, rec).Description)

	rec = s.do(2, http.MethodGet, "/api/users/1/bff", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(2, http.MethodDelete, fmt.Sprintf("/api/bff/%d", pair.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(2, http.MethodGet, "/api/users/1/bff", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoupleQuestionScenario(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(10, 11, 99)
	s.seedPair(10, 11)

	rec := s.do(99, http.MethodPost, "/api/users/11/couple-questions", AskQuestionRequest{Text: "Favorite color?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	q := decode[CoupleQuestionResponse](t, rec)
	assert.Equal(t, int64(10), q.FirstAnswerer.ID)
	assert.Equal(t, int64(11), q.SecondAnswerer.ID)
	assert.Equal(t, "user99", q.Questioner.Username)
	assert.False(t, q.Answered)

	path := fmt.Sprintf("/api/users/10/couple-questions/%d", q.ID)

	rec = s.do(99, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "pending questions are private to the pair")

	rec = s.do(99, http.MethodGet, "/api/users/10/couple-questions?answered=false", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(10, http.MethodPost, path+"/answer", AnswerQuestionRequest{AnswerText: "Blue"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q = decode[CoupleQuestionResponse](t, rec)
	assert.True(t, q.Answered)
	require.NotNil(t, q.AnswerText)
	assert.Equal(t, "Blue", *q.AnswerText)
	require.NotNil(t, q.AnsweredBy)
	assert.Equal(t, int64(10), q.AnsweredBy.ID)

	rec = s.do(11, http.MethodPost, path+"/answer", AnswerQuestionRequest{AnswerText: "Red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(11, http.MethodPost, path+"/love", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q = decode[CoupleQuestionResponse](t, rec)
	assert.Equal(t, 1, q.LoveCount)
	assert.True(t, q.LovedByMe)

	rec = s.do(11, http.MethodPost, path+"/love", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[CoupleQuestionResponse](t, rec).LoveCount)

	rec = s.do(99, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(99, http.MethodGet, "/api/users/10/couple-questions?answered=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[models.Page[CoupleQuestionResponse]](t, rec).TotalElements)

	rec = s.do(10, http.MethodGet, fmt.Sprintf("/api/users/99/couple-questions/%d", q.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "mismatch", decode[ErrorResponse](t, rec).Kind)

	rec = s.do(99, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(11, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[APIResponse](t, rec).Success)

	rec = s.do(10, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Kind)
}

func TestCoupleQuestionNewsFeed(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(1, 2, 3)
	s.seedPair(1, 2)

	for i := 0; i < 3; i++ {
		rec := s.do(3, http.MethodPost, "/api/users/1/couple-questions", AskQuestionRequest{Text: fmt.Sprintf("q%d", i)})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(3, http.MethodGet, "/api/users/1/couple-questions/news-feed", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(2, http.MethodGet, "/api/users/2/couple-questions/news-feed?page=0&size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[models.Page[CoupleQuestionResponse]](t, rec)
	assert.Len(t, feed.Content, 2)
	assert.EqualValues(t, 3, feed.TotalElements)
	assert.Equal(t, 2, feed.TotalPages)

	rec = s.do(2, http.MethodGet, "/api/users/2/couple-questions/news-feed?size=101", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(1, http.MethodPost, "/api/users/2/couple-questions", AskQuestionRequest{Text: "self?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(1, http.MethodPost, "/api/users/3/couple-questions", AskQuestionRequest{Text: "no bff?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSingleQuestionsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.seedUsers(1, 2)

	var first SingleQuestionResponse
	for i := 0; i < 3; i++ {
		rec := s.do(1, http.MethodPost, "/api/users/2/single-questions", AskQuestionRequest{Text: fmt.Sprintf("q%d", i)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		if i == 0 {
			first = decode[SingleQuestionResponse](t, rec)
		}
	}
	assert.Equal(t, "user2", first.Answerer.Username)

	rec := s.do(1, http.MethodGet, "/api/users/2/single-questions", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(2, http.MethodGet, "/api/users/2/single-questions?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p1 := decode[models.Page[SingleQuestionResponse]](t, rec)
	assert.Equal(t, 0, p1.Page)
	assert.Len(t, p1.Content, 2)

	rec = s.do(2, http.MethodGet, "/api/users/2/single-questions?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.Page[SingleQuestionResponse]](t, rec).Content, 1)

	path := fmt.Sprintf("/api/users/2/single-questions/%d", first.ID)
	rec = s.do(1, http.MethodPost, path+"/answer", AnswerQuestionRequest{AnswerText: "no"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(2, http.MethodPost, path+"/answer", AnswerQuestionRequest{AnswerText: "yes"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[SingleQuestionResponse](t, rec).Answered)

	rec = s.do(2, http.MethodGet, "/api/users/2/single-questions?answered=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[models.Page[SingleQuestionResponse]](t, rec).TotalElements)

	rec = s.do(1, http.MethodGet, fmt.Sprintf("/api/users/1/single-questions/%d", first.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(2, http.MethodPost, "/api/users/2/single-questions", AskQuestionRequest{Text: "me?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProbes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(0, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(0, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lovebox_http_requests_total")
}
