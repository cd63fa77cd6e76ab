package handlers

import (
	"net/http"

	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// CoupleQuestionHandler handles /api/users/{userId}/couple-questions
type CoupleQuestionHandler struct {
	questions *services.CoupleQuestionService
	out       assembler
}

// NewCoupleQuestionHandler creates a new couple question handler
func NewCoupleQuestionHandler(questions *services.CoupleQuestionService, users UserLookup) *CoupleQuestionHandler {
	return &CoupleQuestionHandler{
		questions: questions,
		out:       assembler{users: users},
	}
}

// AskQuestionRequest represents the request body for asking a question
type AskQuestionRequest struct {
	Text string `json:"text" validate:"required,max=255"`
}

// AnswerQuestionRequest represents the request body for answering a question
type AnswerQuestionRequest struct {
	AnswerText string `json:"answer_text" validate:"required,max=2000"`
}

// target reads the caller and the {userId} and {id} path parameters
func target(r *http.Request) (callerID, userID, questionID int64, err error) {
	callerID = middleware.GetUserID(r.Context())
	if userID, err = pathID(r, "userId"); err != nil {
		return 0, 0, 0, err
	}
	if questionID, err = pathID(r, "id"); err != nil {
		return 0, 0, 0, err
	}
	return callerID, userID, questionID, nil
}

// NewsFeed handles GET /api/users/{userId}/couple-questions/news-feed
func (h *CoupleQuestionHandler) NewsFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := h.pageRequest(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	questions, err := h.questions.ListNewsFeed(ctx, callerID, userID, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondPage(w, r, callerID, questions)
}

// List handles GET /api/users/{userId}/couple-questions
func (h *CoupleQuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	answered, err := queryBool(r, "answered", false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := h.pageRequest(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	questions, err := h.questions.ListForUser(ctx, callerID, userID, answered, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondPage(w, r, callerID, questions)
}

// Ask handles POST /api/users/{userId}/couple-questions
func (h *CoupleQuestionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req AskQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.questions.Ask(ctx, callerID, userID, req.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondOne(w, r, http.StatusCreated, callerID, q)
}

// Get handles GET /api/users/{userId}/couple-questions/{id}
func (h *CoupleQuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, userID, questionID, err := target(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.questions.Get(r.Context(), callerID, userID, questionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondOne(w, r, http.StatusOK, callerID, q)
}

// Answer handles POST /api/users/{userId}/couple-questions/{id}/answer
func (h *CoupleQuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	callerID, userID, questionID, err := target(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req AnswerQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.questions.Answer(r.Context(), callerID, userID, questionID, req.AnswerText)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondOne(w, r, http.StatusOK, callerID, q)
}

// Unanswer handles POST /api/users/{userId}/couple-questions/{id}/unanswer
func (h *CoupleQuestionHandler) Unanswer(w http.ResponseWriter, r *http.Request) {
	callerID, userID, questionID, err := target(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.questions.Unanswer(r.Context(), callerID, userID, questionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondOne(w, r, http.StatusOK, callerID, q)
}

// Love handles POST /api/users/{userId}/couple-questions/{id}/love
func (h *CoupleQuestionHandler) Love(w http.ResponseWriter, r *http.Request) {
	callerID, userID, questionID, err := target(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.questions.LoveOrUnlove(r.Context(), callerID, userID, questionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondOne(w, r, http.StatusOK, callerID, q)
}

// Delete handles DELETE /api/users/{userId}/couple-questions/{id}
func (h *CoupleQuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, userID, questionID, err := target(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.questions.Delete(r.Context(), callerID, userID, questionID); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", callerID).
		Int64("question_id", questionID).
		Msg("Couple question deleted")

	respondJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Delete couple question successfully"})
}

func (h *CoupleQuestionHandler) pageRequest(r *http.Request) (models.PageRequest, error) {
	page, size, err := pageParams(r)
	if err != nil {
		return models.PageRequest{}, err
	}
	return models.NewPageRequest(page, size)
}

func (h *CoupleQuestionHandler) respondOne(w http.ResponseWriter, r *http.Request, status int, callerID int64, q *models.CoupleQuestion) {
	resp, err := h.out.coupleQuestion(r.Context(), callerID, q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, status, resp)
}

func (h *CoupleQuestionHandler) respondPage(w http.ResponseWriter, r *http.Request, callerID int64, p models.Page[*models.CoupleQuestion]) {
	resp, err := h.out.coupleQuestionPage(r.Context(), callerID, p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
