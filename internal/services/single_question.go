package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/metrics"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/permission"

	"github.com/rs/zerolog/log"
)

const singleKind = "single"

// SingleQuestionService handles questions addressed to one user
type SingleQuestionService struct {
	questions SingleQuestionStore
	dir       Directory
	events    Events
	now       func() time.Time
}

// NewSingleQuestionService creates a new single question service
func NewSingleQuestionService(questions SingleQuestionStore, dir Directory, events Events) *SingleQuestionService {
	if events == nil {
		events = NopEvents{}
	}
	return &SingleQuestionService{
		questions: questions,
		dir:       dir,
		events:    events,
		now:       time.Now,
	}
}

// Ask creates an unanswered question for answererID
func (s *SingleQuestionService) Ask(ctx context.Context, askerID, answererID int64, text string) (*models.SingleQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.BadRequest("question text must not be blank")
	}
	if askerID == answererID {
		return nil, apperr.BadRequest("cannot ask yourself a question")
	}
	if _, err := s.dir.GetUserByID(ctx, answererID); err != nil {
		return nil, err
	}

	q := &models.SingleQuestion{
		Text:         text,
		QuestionerID: askerID,
		AnswererID:   answererID,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, storeErr(err, "single question")
	}

	metrics.RecordQuestion(singleKind, "asked")
	s.events.Publish(ctx, []int64{answererID}, Event{
		Type:  EventSingleQuestionAsked,
		Data:  q,
		Alert: "You have a new question",
	})
	log.Info().Int64("question_id", q.ID).Int64("questioner_id", askerID).Int64("answerer_id", answererID).Msg("Single question asked")
	return q, nil
}

// List returns the target's questions in the given state, newest first.
// Only the target may list, whatever the state.
func (s *SingleQuestionService) List(ctx context.Context, callerID, targetUserID int64, answered bool, page models.PageRequest) (models.Page[*models.SingleQuestion], error) {
	if !permission.CanListSingle(callerID, targetUserID) {
		return models.Page[*models.SingleQuestion]{}, apperr.Forbidden("cannot get questions of this user")
	}
	questions, total, err := s.questions.ListByAnswerer(ctx, targetUserID, answered, page.Limit(), page.Offset())
	if err != nil {
		return models.Page[*models.SingleQuestion]{}, fmt.Errorf("failed to list single questions: %w", err)
	}
	return models.NewPage(questions, page, total), nil
}

// Get returns one question. Only the two parties see it before it is answered.
func (s *SingleQuestionService) Get(ctx context.Context, callerID, targetUserID, questionID int64) (*models.SingleQuestion, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, storeErr(err, "single question")
	}
	if q.AnswererID != targetUserID {
		return nil, errMismatch()
	}
	if !permission.CanViewSingle(q.QuestionerID, q.AnswererID, callerID, q.Answered) {
		return nil, apperr.Forbidden("question has not been answered")
	}
	return q, nil
}

// Answer records the answer. Only the designated answerer may do it, once.
func (s *SingleQuestionService) Answer(ctx context.Context, callerID, targetUserID, questionID int64, text string) (*models.SingleQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.BadRequest("answer text must not be blank")
	}
	q, err := s.questions.Update(ctx, questionID, func(q *models.SingleQuestion) error {
		if q.AnswererID != targetUserID {
			return errMismatch()
		}
		if !permission.CanAnswerSingle(q.AnswererID, callerID) {
			return apperr.Forbidden("cannot answer this question")
		}
		if q.Answered {
			return apperr.BadRequest("question has already been answered")
		}
		now := s.now()
		q.AnswerText = &text
		q.Answered = true
		q.AnsweredAt = &now
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "single question")
	}

	metrics.RecordQuestion(singleKind, "answered")
	s.events.Publish(ctx, []int64{q.QuestionerID}, Event{
		Type:  EventSingleQuestionAnswered,
		Data:  q,
		Alert: "Your question has been answered",
	})
	log.Info().Int64("question_id", q.ID).Int64("answerer_id", callerID).Msg("Single question answered")
	return q, nil
}
