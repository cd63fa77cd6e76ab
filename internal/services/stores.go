package services

import (
	"context"
	"errors"
	"fmt"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository"
)

// UserStore persists users and the follow graph
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FindByUsernamePrefix(ctx context.Context, prefix string, limit, offset int) ([]*models.User, int64, error)
	Following(ctx context.Context, id int64, limit, offset int) ([]*models.User, int64, error)
	Followers(ctx context.Context, id int64, limit, offset int) ([]*models.User, int64, error)
	IsFollowing(ctx context.Context, id, otherID int64) (bool, error)
	ToggleFollow(ctx context.Context, id, otherID int64) (bool, error)
	UpdatePushToken(ctx context.Context, userID int64, pushToken *string) error
	UpdateAvatarURL(ctx context.Context, userID int64, avatarURL *string) error
}

// PairStore persists BFF pairs
type PairStore interface {
	GetByID(ctx context.Context, id int64) (*models.BffPair, error)
	GetByUserID(ctx context.Context, userID int64) (*models.BffPair, error)
	UserHasPair(ctx context.Context, userID int64) (bool, error)
	UpdateDescription(ctx context.Context, id int64, description string) error
	Delete(ctx context.Context, id int64) error
}

// BffRequestStore persists pending BFF requests
type BffRequestStore interface {
	Create(ctx context.Context, req *models.BffRequest) error
	GetByID(ctx context.Context, id int64) (*models.BffRequest, error)
	ExistsBetween(ctx context.Context, a, b int64) (bool, error)
	ListIncoming(ctx context.Context, userID int64) ([]*models.BffRequest, error)
	ListOutgoing(ctx context.Context, userID int64) ([]*models.BffRequest, error)
	Delete(ctx context.Context, id int64) error
	Accept(ctx context.Context, id int64, check func(*models.BffRequest) error) (*models.BffPair, error)
}

// CoupleQuestionStore persists couple questions. Update and Delete run their
// callback and the write atomically.
type CoupleQuestionStore interface {
	Create(ctx context.Context, q *models.CoupleQuestion) error
	GetByID(ctx context.Context, id int64) (*models.CoupleQuestion, error)
	ListByAnswerer(ctx context.Context, userID int64, answered *bool, limit, offset int) ([]*models.CoupleQuestion, int64, error)
	Update(ctx context.Context, id int64, mutate func(*models.CoupleQuestion) error) (*models.CoupleQuestion, error)
	Delete(ctx context.Context, id int64, check func(*models.CoupleQuestion) error) error
}

// SingleQuestionStore persists single questions
type SingleQuestionStore interface {
	Create(ctx context.Context, q *models.SingleQuestion) error
	GetByID(ctx context.Context, id int64) (*models.SingleQuestion, error)
	ListByAnswerer(ctx context.Context, answererID int64, answered bool, limit, offset int) ([]*models.SingleQuestion, int64, error)
	Update(ctx context.Context, id int64, mutate func(*models.SingleQuestion) error) (*models.SingleQuestion, error)
}

// Directory resolves users and their BFF pair for the question workflows.
// GetBffPair returns nil without error when the user has no pair.
type Directory interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetBffPair(ctx context.Context, userID int64) (*models.BffPair, error)
}

// storeErr turns repository sentinels into API error kinds and wraps everything else.
// what names the resource, e.g. "couple question".
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict(what + " already exists")
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
