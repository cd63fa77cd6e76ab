package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/services"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenValidator turns a bearer token into the caller's identity
type TokenValidator interface {
	ValidateJWT(token string) (services.Principal, error)
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, apperr.Unauthorized("authorization header required"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				respondError(w, apperr.Unauthorized("invalid authorization header format"))
				return
			}

			principal, err := tokens.ValidateJWT(parts[1])
			if err != nil {
				respondError(w, apperr.Unauthorized("invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects authenticated callers that lack role
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				respondError(w, apperr.Unauthorized("authentication required"))
				return
			}
			if !principal.HasRole(role) {
				respondError(w, apperr.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal stores the caller in ctx
func WithPrincipal(ctx context.Context, p services.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the caller stored by AuthMiddleware
func PrincipalFrom(ctx context.Context) (services.Principal, bool) {
	p, ok := ctx.Value(principalKey).(services.Principal)
	return p, ok
}

// GetUserID returns the caller's id, or 0 when the request is anonymous
func GetUserID(ctx context.Context) int64 {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return 0
	}
	return p.UserID
}

// ValidateWebSocketToken validates JWT token from WebSocket query parameter
func ValidateWebSocketToken(token string, tokens TokenValidator) (services.Principal, error) {
	if token == "" {
		return services.Principal{}, apperr.Unauthorized("token required")
	}
	return tokens.ValidateJWT(token)
}

func respondError(w http.ResponseWriter, e *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(e.Kind))
	json.NewEncoder(w).Encode(map[string]string{
		"error": e.Message,
		"kind":  string(e.Kind),
	})
}
