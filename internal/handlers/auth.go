package handlers

import (
	"net/http"
	"strings"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles sign-up, sign-in and availability checks
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// SignUpRequest represents the request body for creating an account
type SignUpRequest struct {
	FullName string `json:"full_name" validate:"required,min=4,max=40"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=15"`
	Email    string `json:"email" validate:"required,email,max=40"`
	Password string `json:"password" validate:"required,min=6,max=20"`
}

// SignInRequest represents the request body for obtaining a token
type SignInRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly issued access token
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// AvailabilityResponse answers the availability checks
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("User registered")

	respondJSON(w, http.StatusCreated, toUserResponse(user, true))
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	token, user, err := h.userService.Authenticate(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthorized {
			log.Warn().Str("login", req.UsernameOrEmail).Msg("Sign-in rejected")
		}
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        toUserResponse(user, true),
	})
}

// CheckUsernameAvailability handles GET /api/users/check-username-availability
func (h *AuthHandler) CheckUsernameAvailability(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondError(w, r, apperr.BadRequest("username is required"))
		return
	}

	available, err := h.userService.CheckUsernameAvailability(r.Context(), username)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AvailabilityResponse{Available: available})
}

// CheckEmailAvailability handles GET /api/users/check-email-availability
func (h *AuthHandler) CheckEmailAvailability(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, r, apperr.BadRequest("email is required"))
		return
	}

	available, err := h.userService.CheckEmailAvailability(r.Context(), strings.ToLower(email))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AvailabilityResponse{Available: available})
}
