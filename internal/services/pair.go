package services

import (
	"context"
	"errors"
	"fmt"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/cache"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// Request list directions
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// PairService handles BFF requests and pairs
type PairService struct {
	users     UserStore
	pairs     PairStore
	requests  BffRequestStore
	pairCache *cache.PairCache
	events    Events
}

// NewPairService creates a new pair service
func NewPairService(users UserStore, pairs PairStore, requests BffRequestStore, pairCache *cache.PairCache, events Events) *PairService {
	if events == nil {
		events = NopEvents{}
	}
	return &PairService{
		users:     users,
		pairs:     pairs,
		requests:  requests,
		pairCache: pairCache,
		events:    events,
	}
}

// SendRequest invites toID to become fromID's BFF
func (s *PairService) SendRequest(ctx context.Context, fromID, toID int64, text string) (*models.BffRequest, error) {
	if fromID == toID {
		return nil, apperr.BadRequest("cannot send a BFF request to yourself")
	}
	if _, err := s.users.GetByID(ctx, toID); err != nil {
		return nil, storeErr(err, "user")
	}

	for _, userID := range []int64{fromID, toID} {
		hasPair, err := s.pairs.UserHasPair(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check if user has pair: %w", err)
		}
		if hasPair {
			if userID == fromID {
				return nil, apperr.Conflict("you already have a BFF")
			}
			return nil, apperr.Conflict("this user already has a BFF")
		}
	}

	exists, err := s.requests.ExistsBetween(ctx, fromID, toID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("a BFF request between these users already exists")
	}

	req := &models.BffRequest{FromUserID: fromID, ToUserID: toID, Text: text}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, storeErr(err, "bff request")
	}

	s.events.Publish(ctx, []int64{toID}, Event{
		Type:  EventBffRequestReceived,
		Data:  req,
		Alert: "You have a new BFF request",
	})
	log.Info().Int64("from_user_id", fromID).Int64("to_user_id", toID).Msg("BFF request sent")
	return req, nil
}

// ListRequests lists the caller's pending requests in one direction
func (s *PairService) ListRequests(ctx context.Context, userID int64, direction string) ([]*models.BffRequest, error) {
	var (
		reqs []*models.BffRequest
		err  error
	)
	switch direction {
	case "", DirectionIncoming:
		reqs, err = s.requests.ListIncoming(ctx, userID)
	case DirectionOutgoing:
		reqs, err = s.requests.ListOutgoing(ctx, userID)
	default:
		return nil, apperr.BadRequest("direction must be incoming or outgoing")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bff requests: %w", err)
	}
	if reqs == nil {
		reqs = []*models.BffRequest{}
	}
	return reqs, nil
}

// AcceptRequest turns the request into a pair. Only the addressee may accept.
func (s *PairService) AcceptRequest(ctx context.Context, callerID, requestID int64) (*models.BffPair, error) {
	pair, err := s.requests.Accept(ctx, requestID, func(req *models.BffRequest) error {
		if req.ToUserID != callerID {
			return apperr.Forbidden("cannot accept this BFF request")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("one of the users already has a BFF")
		}
		return nil, storeErr(err, "bff request")
	}

	s.invalidate(ctx, pair.FirstUserID, pair.SecondUserID)
	s.events.Publish(ctx, []int64{pair.FirstUserID, pair.SecondUserID}, Event{
		Type:  EventBffCreated,
		Data:  pair,
		Alert: "You have a new BFF",
	})
	log.Info().Int64("pair_id", pair.ID).Int64("first_user_id", pair.FirstUserID).Int64("second_user_id", pair.SecondUserID).Msg("BFF pair created")
	return pair, nil
}

// DeclineRequest deletes the request. Either side may do it.
func (s *PairService) DeclineRequest(ctx context.Context, callerID, requestID int64) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return storeErr(err, "bff request")
	}
	if req.FromUserID != callerID && req.ToUserID != callerID {
		return apperr.Forbidden("cannot delete this BFF request")
	}
	if err := s.requests.Delete(ctx, requestID); err != nil {
		return storeErr(err, "bff request")
	}
	return nil
}

// GetPair returns the pair userID belongs to
func (s *PairService) GetPair(ctx context.Context, userID int64) (*models.BffPair, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, storeErr(err, "user")
	}
	pair, err := s.pairs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("this user does not have BFF")
		}
		return nil, fmt.Errorf("failed to load pair: %w", err)
	}
	return pair, nil
}

// UpdateDescription sets the description of the caller's pair
func (s *PairService) UpdateDescription(ctx context.Context, callerID int64, description string) (*models.BffPair, error) {
	pair, err := s.pairs.GetByUserID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("you do not have BFF")
		}
		return nil, fmt.Errorf("failed to load pair: %w", err)
	}
	if err := s.pairs.UpdateDescription(ctx, pair.ID, description); err != nil {
		return nil, storeErr(err, "pair")
	}
	pair.Description = description
	s.invalidate(ctx, pair.FirstUserID, pair.SecondUserID)
	return pair, nil
}

// BreakUp deletes the pair. Only members may do it.
func (s *PairService) BreakUp(ctx context.Context, callerID, pairID int64) error {
	pair, err := s.pairs.GetByID(ctx, pairID)
	if err != nil {
		return storeErr(err, "pair")
	}
	if !pair.HasMember(callerID) {
		return apperr.Forbidden("user is not a member of this pair")
	}
	if err := s.pairs.Delete(ctx, pairID); err != nil {
		return storeErr(err, "pair")
	}

	s.invalidate(ctx, pair.FirstUserID, pair.SecondUserID)
	s.events.Publish(ctx, []int64{pair.FirstUserID, pair.SecondUserID}, Event{
		Type:  EventBffDeleted,
		Data:  map[string]int64{"pair_id": pair.ID, "user_id": callerID},
		Alert: "Your BFF ended the pair",
	})
	log.Info().Int64("pair_id", pair.ID).Int64("user_id", callerID).Msg("BFF pair deleted")
	return nil
}

func (s *PairService) invalidate(ctx context.Context, userIDs ...int64) {
	if err := s.pairCache.Invalidate(ctx, userIDs...); err != nil {
		log.Warn().Err(err).Msg("Pair cache invalidation failed")
	}
}
