package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens map[string]services.Principal

func (s stubTokens) ValidateJWT(token string) (services.Principal, error) {
	p, ok := s[token]
	if !ok {
		return services.Principal{}, apperr.Unauthorized("invalid token")
	}
	return p, nil
}

func echoUserID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int64{"user_id": GetUserID(r.Context())})
	})
}

func TestAuthMiddleware(t *testing.T) {
	tokens := stubTokens{
		"good":    {UserID: 7, Roles: []string{models.RoleUser}},
		"noroles": {UserID: 8},
	}
	h := AuthMiddleware(tokens)(RequireRole(models.RoleUser)(echoUserID()))

	tests := []struct {
		name   string
		header string
		status int
		kind   string
	}{
		{"missing header", "", http.StatusUnauthorized, "unauthorized"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "unauthorized"},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, "unauthorized"},
		{"missing role", "Bearer noroles", http.StatusForbidden, "forbidden"},
		{"ok", "Bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.kind != "" {
				assert.Equal(t, tt.kind, body["kind"])
			} else {
				assert.EqualValues(t, 7, body["user_id"])
			}
		})
	}
}

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole(models.RoleUser)(echoUserID()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateWebSocketToken(t *testing.T) {
	tokens := stubTokens{"good": {UserID: 3}}

	_, err := ValidateWebSocketToken("", tokens)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	p, err := ValidateWebSocketToken("good", tokens)
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.UserID)
}

func TestRateLimiterPerUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Handler(echoUserID())

	call := func(userID int64) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), services.Principal{UserID: userID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(1))
	assert.Equal(t, http.StatusOK, call(1))
	assert.Equal(t, http.StatusTooManyRequests, call(1))
	assert.Equal(t, http.StatusOK, call(2), "buckets are per user")
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	h := rl.Handler(echoUserID())
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.getLimiter("ip:1.2.3.4")
	rl.idle = -time.Second
	rl.Cleanup()
	assert.Empty(t, rl.limiters)
}
