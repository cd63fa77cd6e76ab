package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository"
)

// BffRequestRepository stores pending BFF requests
type BffRequestRepository struct {
	db *DB
}

func (r *BffRequestRepository) Create(ctx context.Context, req *models.BffRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.requests {
		if existing.FromUserID == req.FromUserID && existing.ToUserID == req.ToUserID {
			return fmt.Errorf("bff request %d->%d: %w", req.FromUserID, req.ToUserID, repository.ErrConflict)
		}
	}
	req.ID = nextID(&r.db.requestSeq, req.ID)
	req.CreatedAt = r.db.stamp(req.CreatedAt)
	r.db.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *BffRequestRepository) GetByID(ctx context.Context, id int64) (*models.BffRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req, ok := r.db.requests[id]
	if !ok {
		return nil, fmt.Errorf("bff request %d: %w", id, repository.ErrNotFound)
	}
	return cloneRequest(req), nil
}

func (r *BffRequestRepository) ExistsBetween(ctx context.Context, a, b int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, req := range r.db.requests {
		if (req.FromUserID == a && req.ToUserID == b) || (req.FromUserID == b && req.ToUserID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BffRequestRepository) ListIncoming(ctx context.Context, userID int64) ([]*models.BffRequest, error) {
	return r.list(func(req *models.BffRequest) bool { return req.ToUserID == userID }), nil
}

func (r *BffRequestRepository) ListOutgoing(ctx context.Context, userID int64) ([]*models.BffRequest, error) {
	return r.list(func(req *models.BffRequest) bool { return req.FromUserID == userID }), nil
}

func (r *BffRequestRepository) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.requests[id]; !ok {
		return fmt.Errorf("bff request %d: %w", id, repository.ErrNotFound)
	}
	delete(r.db.requests, id)
	return nil
}

// Accept creates the pair and drops every request involving either user
func (r *BffRequestRepository) Accept(ctx context.Context, id int64, check func(*models.BffRequest) error) (*models.BffPair, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req, ok := r.db.requests[id]
	if !ok {
		return nil, fmt.Errorf("bff request %d: %w", id, repository.ErrNotFound)
	}
	if err := check(cloneRequest(req)); err != nil {
		return nil, err
	}
	for _, userID := range []int64{req.FromUserID, req.ToUserID} {
		if r.db.pairOf(userID) != nil {
			return nil, fmt.Errorf("user %d already has a pair: %w", userID, repository.ErrConflict)
		}
	}

	pair := &models.BffPair{
		ID:           nextID(&r.db.pairSeq, 0),
		FirstUserID:  req.FromUserID,
		SecondUserID: req.ToUserID,
		CreatedAt:    r.db.now(),
	}
	r.db.pairs[pair.ID] = pair

	for reqID, other := range r.db.requests {
		if pair.HasMember(other.FromUserID) || pair.HasMember(other.ToUserID) {
			delete(r.db.requests, reqID)
		}
	}
	return clonePair(pair), nil
}

func (r *BffRequestRepository) list(keep func(*models.BffRequest) bool) []*models.BffRequest {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*models.BffRequest
	for _, req := range r.db.requests {
		if keep(req) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.SliceStable(out, newestFirst(
		func(i int) time.Time { return out[i].CreatedAt },
		func(i int) int64 { return out[i].ID },
	))
	return out
}
