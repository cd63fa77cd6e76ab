package memory

import (
	"context"
	"fmt"

	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository"
)

// PairRepository stores BFF pairs
type PairRepository struct {
	db *DB
}

// Create inserts a pair directly, bypassing the request flow. It is used to seed data.
func (r *PairRepository) Create(ctx context.Context, pair *models.BffPair) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.pairOf(pair.FirstUserID) != nil || r.db.pairOf(pair.SecondUserID) != nil {
		return fmt.Errorf("pair %d/%d: %w", pair.FirstUserID, pair.SecondUserID, repository.ErrConflict)
	}
	pair.ID = nextID(&r.db.pairSeq, pair.ID)
	pair.CreatedAt = r.db.stamp(pair.CreatedAt)
	r.db.pairs[pair.ID] = clonePair(pair)
	return nil
}

func (r *PairRepository) GetByID(ctx context.Context, id int64) (*models.BffPair, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.pairs[id]
	if !ok {
		return nil, fmt.Errorf("pair %d: %w", id, repository.ErrNotFound)
	}
	return clonePair(p), nil
}

func (r *PairRepository) GetByUserID(ctx context.Context, userID int64) (*models.BffPair, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p := r.db.pairOf(userID)
	if p == nil {
		return nil, fmt.Errorf("pair of user %d: %w", userID, repository.ErrNotFound)
	}
	return clonePair(p), nil
}

func (r *PairRepository) UserHasPair(ctx context.Context, userID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.pairOf(userID) != nil, nil
}

func (r *PairRepository) UpdateDescription(ctx context.Context, id int64, description string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.pairs[id]
	if !ok {
		return fmt.Errorf("pair %d: %w", id, repository.ErrNotFound)
	}
	p.Description = description
	return nil
}

func (r *PairRepository) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.pairs[id]; !ok {
		return fmt.Errorf("pair %d: %w", id, repository.ErrNotFound)
	}
	delete(r.db.pairs, id)
	return nil
}

// pairOf must be called with mu held
func (db *DB) pairOf(userID int64) *models.BffPair {
	for _, p := range db.pairs {
		if p.HasMember(userID) {
			return p
		}
	}
	return nil
}
