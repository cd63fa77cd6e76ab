package handlers

import (
	"net/http"

	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/services"
)

// SingleQuestionHandler handles /api/users/{userId}/single-questions
type SingleQuestionHandler struct {
	questions *services.SingleQuestionService
	out       assembler
}

// NewSingleQuestionHandler creates a new single question handler
func NewSingleQuestionHandler(questions *services.SingleQuestionService, users UserLookup) *SingleQuestionHandler {
	return &SingleQuestionHandler{
		questions: questions,
		out:       assembler{users: users},
	}
}

// List handles GET /api/users/{userId}/single-questions.
// page is 1-based here; 0 and 1 both select the first page.
func (h *SingleQuestionHandler) List(w http.ResponseWriter, r *http.Request) {
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
	page, err := queryInt(r, "page", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", models.DefaultPageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if page > 0 {
		page--
	}
	pageReq, err := models.NewPageRequest(page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	questions, err := h.questions.List(ctx, callerID, userID, answered, pageReq)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.out.singleQuestionPage(ctx, questions)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Ask handles POST /api/users/{userId}/single-questions
func (h *SingleQuestionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserID(ctx)

	answererID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req AskQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.questions.Ask(ctx, callerID, answererID, req.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondOne(w, r, http.StatusCreated, q)
}

// Get handles GET /api/users/{userId}/single-questions/{id}
func (h *SingleQuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	h.respondOne(w, r, http.StatusOK, q)
}

// Answer handles POST /api/users/{userId}/single-questions/{id}/answer
func (h *SingleQuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
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
	h.respondOne(w, r, http.StatusOK, q)
}

func (h *SingleQuestionHandler) respondOne(w http.ResponseWriter, r *http.Request, status int, q *models.SingleQuestion) {
	resp, err := h.out.singleQuestion(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, status, resp)
}
