package handlers

import (
	"context"
	"net/http"

	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// PushTokenRequest represents the request body for registering a device
type PushTokenRequest struct {
	PushToken string `json:"push_token" validate:"max=200"`
}

// FollowResponse reports the follow state after a toggle
type FollowResponse struct {
	Following bool `json:"following"`
}

func usersPage(p models.Page[*models.User]) models.Page[UserResponse] {
	return models.MapPage(p, func(u *models.User) UserResponse {
		return toUserResponse(u, false)
	})
}

// FindUsers handles GET /api/users
func (h *UserHandler) FindUsers(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	users, err := h.userService.FindUsers(r.Context(), r.URL.Query().Get("username"), page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, usersPage(users))
}

// GetMe handles GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user, true))
}

// GetUser handles GET /api/users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := toUserResponse(user, userID == callerID)
	if userID != callerID {
		following, err := h.userService.IsFollowing(ctx, callerID, userID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		resp.Following = &following
	}
	respondJSON(w, http.StatusOK, resp)
}

// FollowOrUnfollow handles POST /api/users/{userId}/follow
func (h *UserHandler) FollowOrUnfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	following, err := h.userService.FollowOrUnfollow(ctx, callerID, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", callerID).
		Int64("target_id", userID).
		Bool("following", following).
		Msg("Follow toggled")

	respondJSON(w, http.StatusOK, FollowResponse{Following: following})
}

// GetFollowing handles GET /api/users/{userId}/following
func (h *UserHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.followPage(w, r, h.userService.GetFollowing)
}

// GetFollowers handles GET /api/users/{userId}/followers
func (h *UserHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.followPage(w, r, h.userService.GetFollowers)
}

func (h *UserHandler) followPage(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, id int64, page, size int) (models.Page[*models.User], error),
) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, size, err := pageParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	users, err := fetch(r.Context(), userID, page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, usersPage(users))
}

// UpdatePushToken handles PUT /api/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, callerID, req.PushToken); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", callerID).
		Bool("cleared", req.PushToken == "").
		Msg("Push token updated")

	w.WriteHeader(http.StatusNoContent)
}
