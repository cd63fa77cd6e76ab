package handlers

import (
	"net/http"

	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AvatarHandler handles avatar uploads through pre-signed URLs
type AvatarHandler struct {
	avatarService *services.AvatarService
}

// NewAvatarHandler creates a new avatar handler
func NewAvatarHandler(avatarService *services.AvatarService) *AvatarHandler {
	return &AvatarHandler{
		avatarService: avatarService,
	}
}

// UploadRequest represents the request body for requesting an upload URL
type UploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// ConfirmRequest represents the request body sent once the object is uploaded
type ConfirmRequest struct {
	Key string `json:"key" validate:"required"`
}

// AvatarResponse carries the public avatar URL
type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

// CreateUploadURL handles POST /api/users/me/avatar
func (h *AvatarHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	upload, err := h.avatarService.CreateUploadURL(ctx, userID, req.ContentType)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", userID).
		Str("key", upload.Key).
		Msg("Pre-signed URL generated")

	respondJSON(w, http.StatusOK, upload)
}

// ConfirmUpload handles PUT /api/users/me/avatar
func (h *AvatarHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	url, err := h.avatarService.ConfirmUpload(ctx, userID, req.Key)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", userID).
		Str("key", req.Key).
		Msg("Avatar updated")

	respondJSON(w, http.StatusOK, AvatarResponse{AvatarURL: url})
}
