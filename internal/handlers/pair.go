package handlers

import (
	"net/http"

	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PairHandler handles BFF requests and pairs
type PairHandler struct {
	pairService *services.PairService
	out         assembler
}

// NewPairHandler creates a new pair handler
func NewPairHandler(pairService *services.PairService, users UserLookup) *PairHandler {
	return &PairHandler{
		pairService: pairService,
		out:         assembler{users: users},
	}
}

// BffRequestBody represents the request body for sending a BFF request
type BffRequestBody struct {
	Text string `json:"text" validate:"max=300"`
}

// DescriptionRequest represents the request body for describing a pair
type DescriptionRequest struct {
	Description string `json:"description" validate:"max=300"`
}

// SendRequest handles POST /api/users/{userId}/bff-requests
func (h *PairHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	targetID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body BffRequestBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	req, err := h.pairService.SendRequest(ctx, callerID, targetID, body.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.out.bffRequests(ctx, []*models.BffRequest{req})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp[0])
}

// ListRequests handles GET /api/bff-requests
func (h *PairHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reqs, err := h.pairService.ListRequests(ctx, middleware.GetUserID(ctx), r.URL.Query().Get("direction"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.out.bffRequests(ctx, reqs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// AcceptRequest handles POST /api/bff-requests/{id}/accept
func (h *PairHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	requestID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	pair, err := h.pairService.AcceptRequest(ctx, callerID, requestID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.out.bffDetail(ctx, pair)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// DeclineRequest handles DELETE /api/bff-requests/{id}
func (h *PairHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	requestID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.pairService.DeclineRequest(ctx, callerID, requestID); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", callerID).
		Int64("request_id", requestID).
		Msg("BFF request deleted")

	w.WriteHeader(http.StatusNoContent)
}

// GetPair handles GET /api/users/{userId}/bff
func (h *PairHandler) GetPair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	pair, err := h.pairService.GetPair(ctx, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.out.bffDetail(ctx, pair)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateDescription handles PUT /api/bff/description
func (h *PairHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	var body DescriptionRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	pair, err := h.pairService.UpdateDescription(ctx, callerID, body.Description)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.out.bffDetail(ctx, pair)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// BreakUp handles DELETE /api/bff/{id}
func (h *PairHandler) BreakUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	pairID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.pairService.BreakUp(ctx, callerID, pairID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
