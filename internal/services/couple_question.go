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

const coupleKind = "couple"

// CoupleQuestionService enforces who may ask, read, answer, love and delete
// questions addressed to a BFF pair
type CoupleQuestionService struct {
	questions CoupleQuestionStore
	dir       Directory
	events    Events
	policy    permission.Policy
	now       func() time.Time
}

// NewCoupleQuestionService creates a new couple question service
func NewCoupleQuestionService(questions CoupleQuestionStore, dir Directory, events Events, policy permission.Policy) *CoupleQuestionService {
	if events == nil {
		events = NopEvents{}
	}
	return &CoupleQuestionService{
		questions: questions,
		dir:       dir,
		events:    events,
		policy:    policy,
		now:       time.Now,
	}
}

func parties(q *models.CoupleQuestion) permission.Parties {
	return permission.Parties{First: q.FirstAnswererID, Second: q.SecondAnswererID}
}

func errMismatch() error {
	return apperr.Mismatch("user ID and question ID do not match")
}

// Ask creates an unanswered question for the pair targetUserID belongs to
func (s *CoupleQuestionService) Ask(ctx context.Context, askerID, targetUserID int64, text string) (*models.CoupleQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.BadRequest("question text must not be blank")
	}
	if _, err := s.dir.GetUserByID(ctx, targetUserID); err != nil {
		return nil, err
	}
	pair, err := s.dir.GetBffPair(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, apperr.BadRequest("this user does not have BFF")
	}
	p := permission.Parties{First: pair.FirstUserID, Second: pair.SecondUserID}
	if !permission.CanAskCouple(p, askerID) {
		return nil, apperr.BadRequest("cannot ask question")
	}

	q := &models.CoupleQuestion{
		Text:             text,
		QuestionerID:     askerID,
		FirstAnswererID:  pair.FirstUserID,
		SecondAnswererID: pair.SecondUserID,
		LovedBy:          []int64{},
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, storeErr(err, "couple question")
	}

	metrics.RecordQuestion(coupleKind, "asked")
	s.events.Publish(ctx, []int64{q.FirstAnswererID, q.SecondAnswererID}, Event{
		Type:  EventCoupleQuestionAsked,
		Data:  q,
		Alert: "Someone asked you and your BFF a question",
	})
	log.Info().Int64("question_id", q.ID).Int64("questioner_id", askerID).Int64("pair_id", pair.ID).Msg("Couple question asked")
	return q, nil
}

// ListNewsFeed returns every question addressed to userID, newest first. Only the user may read it.
func (s *CoupleQuestionService) ListNewsFeed(ctx context.Context, callerID, userID int64, page models.PageRequest) (models.Page[*models.CoupleQuestion], error) {
	if callerID != userID {
		return models.Page[*models.CoupleQuestion]{}, apperr.Forbidden("cannot get news feed of this user")
	}
	return s.list(ctx, userID, nil, page)
}

// ListForUser returns the target's questions in the given state, newest first.
// Callers other than the target may only list answered questions.
func (s *CoupleQuestionService) ListForUser(ctx context.Context, callerID, targetUserID int64, answered bool, page models.PageRequest) (models.Page[*models.CoupleQuestion], error) {
	if !permission.CanListCouple(callerID, targetUserID, answered) {
		return models.Page[*models.CoupleQuestion]{}, apperr.Forbidden("cannot get questions of this user")
	}
	return s.list(ctx, targetUserID, &answered, page)
}

func (s *CoupleQuestionService) list(ctx context.Context, userID int64, answered *bool, page models.PageRequest) (models.Page[*models.CoupleQuestion], error) {
	questions, total, err := s.questions.ListByAnswerer(ctx, userID, answered, page.Limit(), page.Offset())
	if err != nil {
		return models.Page[*models.CoupleQuestion]{}, fmt.Errorf("failed to list couple questions: %w", err)
	}
	return models.NewPage(questions, page, total), nil
}

// Get returns one question. Non-answerers only see it once it is answered.
func (s *CoupleQuestionService) Get(ctx context.Context, callerID, targetUserID, questionID int64) (*models.CoupleQuestion, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, storeErr(err, "couple question")
	}
	p := parties(q)
	if !permission.MatchesTarget(p, targetUserID) {
		return nil, errMismatch()
	}
	if !permission.CanView(p, callerID, q.Answered) {
		return nil, apperr.Forbidden("question has not been answered")
	}
	return q, nil
}

// Answer records the caller's answer on behalf of the pair
func (s *CoupleQuestionService) Answer(ctx context.Context, callerID, targetUserID, questionID int64, text string) (*models.CoupleQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.BadRequest("answer text must not be blank")
	}
	q, err := s.questions.Update(ctx, questionID, func(q *models.CoupleQuestion) error {
		p := parties(q)
		if !permission.MatchesTarget(p, targetUserID) {
			return errMismatch()
		}
		if !permission.CanAnswer(s.policy, p, callerID, targetUserID) {
			return apperr.Forbidden("cannot answer this question")
		}
		if q.Answered {
			return apperr.BadRequest("question has already been answered")
		}
		q.SetAnswer(text, callerID, s.now())
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "couple question")
	}

	metrics.RecordQuestion(coupleKind, "answered")
	s.events.Publish(ctx, []int64{q.QuestionerID}, Event{
		Type:  EventCoupleQuestionAnswered,
		Data:  q,
		Alert: "Your question has been answered",
	})
	log.Info().Int64("question_id", q.ID).Int64("answered_by", callerID).Msg("Couple question answered")
	return q, nil
}

// Unanswer retracts the answer and clears the loved-by set
func (s *CoupleQuestionService) Unanswer(ctx context.Context, callerID, targetUserID, questionID int64) (*models.CoupleQuestion, error) {
	q, err := s.questions.Update(ctx, questionID, func(q *models.CoupleQuestion) error {
		p := parties(q)
		if !permission.MatchesTarget(p, targetUserID) {
			return errMismatch()
		}
		if !permission.CanUnanswer(p, callerID) {
			return apperr.Forbidden("cannot unanswer this question")
		}
		if !q.Answered {
			return apperr.BadRequest("question has not been answered")
		}
		q.ClearAnswer()
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "couple question")
	}

	metrics.RecordQuestion(coupleKind, "unanswered")
	log.Info().Int64("question_id", q.ID).Int64("user_id", callerID).Msg("Couple question unanswered")
	return q, nil
}

// LoveOrUnlove toggles the caller in the loved-by set of an answered question
func (s *CoupleQuestionService) LoveOrUnlove(ctx context.Context, callerID, targetUserID, questionID int64) (*models.CoupleQuestion, error) {
	var loved bool
	q, err := s.questions.Update(ctx, questionID, func(q *models.CoupleQuestion) error {
		p := parties(q)
		if !permission.MatchesTarget(p, targetUserID) {
			return errMismatch()
		}
		if !q.Answered {
			return apperr.BadRequest("question has not been answered")
		}
		if !permission.CanLove(s.policy, p, callerID) {
			return apperr.Forbidden("cannot love this question")
		}
		loved = q.ToggleLove(callerID)
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "couple question")
	}

	action := "unloved"
	if loved {
		action = "loved"
	}
	metrics.RecordQuestion(coupleKind, action)
	return q, nil
}

// Delete removes the question. Either answerer may do it.
func (s *CoupleQuestionService) Delete(ctx context.Context, callerID, targetUserID, questionID int64) error {
	err := s.questions.Delete(ctx, questionID, func(q *models.CoupleQuestion) error {
		p := parties(q)
		if !permission.MatchesTarget(p, targetUserID) {
			return errMismatch()
		}
		if !permission.CanDelete(p, callerID) {
			return apperr.Forbidden("cannot delete this question")
		}
		return nil
	})
	if err != nil {
		return storeErr(err, "couple question")
	}

	metrics.RecordQuestion(coupleKind, "deleted")
	log.Info().Int64("question_id", questionID).Int64("user_id", callerID).Msg("Couple question deleted")
	return nil
}
