package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository"
)

// CoupleQuestionRepository stores couple questions
type CoupleQuestionRepository struct {
	db *DB
}

func (r *CoupleQuestionRepository) Create(ctx context.Context, q *models.CoupleQuestion) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q.ID = nextID(&r.db.coupleSeq, q.ID)
	q.CreatedAt = r.db.stamp(q.CreatedAt)
	if q.LovedBy == nil {
		q.LovedBy = []int64{}
	}
	r.db.couple[q.ID] = cloneCouple(q)
	return nil
}

func (r *CoupleQuestionRepository) GetByID(ctx context.Context, id int64) (*models.CoupleQuestion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q, ok := r.db.couple[id]
	if !ok {
		return nil, fmt.Errorf("couple question %d: %w", id, repository.ErrNotFound)
	}
	return cloneCouple(q), nil
}

func (r *CoupleQuestionRepository) ListByAnswerer(ctx context.Context, userID int64, answered *bool, limit, offset int) ([]*models.CoupleQuestion, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var matched []*models.CoupleQuestion
	for _, q := range r.db.couple {
		if q.FirstAnswererID != userID && q.SecondAnswererID != userID {
			continue
		}
		if answered != nil && q.Answered != *answered {
			continue
		}
		matched = append(matched, q)
	}
	sort.SliceStable(matched, newestFirst(
		func(i int) time.Time { return matched[i].CreatedAt },
		func(i int) int64 { return matched[i].ID },
	))

	page := window(matched, limit, offset)
	out := make([]*models.CoupleQuestion, 0, len(page))
	for _, q := range page {
		out = append(out, cloneCouple(q))
	}
	return out, int64(len(matched)), nil
}

// Update applies mutate to a copy and stores it only when mutate succeeds
func (r *CoupleQuestionRepository) Update(ctx context.Context, id int64, mutate func(*models.CoupleQuestion) error) (*models.CoupleQuestion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.couple[id]
	if !ok {
		return nil, fmt.Errorf("couple question %d: %w", id, repository.ErrNotFound)
	}
	q := cloneCouple(stored)
	if err := mutate(q); err != nil {
		return nil, err
	}
	r.db.couple[id] = cloneCouple(q)
	return q, nil
}

func (r *CoupleQuestionRepository) Delete(ctx context.Context, id int64, check func(*models.CoupleQuestion) error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.couple[id]
	if !ok {
		return fmt.Errorf("couple question %d: %w", id, repository.ErrNotFound)
	}
	if err := check(cloneCouple(stored)); err != nil {
		return err
	}
	delete(r.db.couple, id)
	return nil
}

// SingleQuestionRepository stores single questions
type SingleQuestionRepository struct {
	db *DB
}

func (r *SingleQuestionRepository) Create(ctx context.Context, q *models.SingleQuestion) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q.ID = nextID(&r.db.singleSeq, q.ID)
	q.CreatedAt = r.db.stamp(q.CreatedAt)
	r.db.single[q.ID] = cloneSingle(q)
	return nil
}

func (r *SingleQuestionRepository) GetByID(ctx context.Context, id int64) (*models.SingleQuestion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q, ok := r.db.single[id]
	if !ok {
		return nil, fmt.Errorf("single question %d: %w", id, repository.ErrNotFound)
	}
	return cloneSingle(q), nil
}

func (r *SingleQuestionRepository) ListByAnswerer(ctx context.Context, answererID int64, answered bool, limit, offset int) ([]*models.SingleQuestion, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var matched []*models.SingleQuestion
	for _, q := range r.db.single {
		if q.AnswererID == answererID && q.Answered == answered {
			matched = append(matched, q)
		}
	}
	sort.SliceStable(matched, newestFirst(
		func(i int) time.Time { return matched[i].CreatedAt },
		func(i int) int64 { return matched[i].ID },
	))

	page := window(matched, limit, offset)
	out := make([]*models.SingleQuestion, 0, len(page))
	for _, q := range page {
		out = append(out, cloneSingle(q))
	}
	return out, int64(len(matched)), nil
}

func (r *SingleQuestionRepository) Update(ctx context.Context, id int64, mutate func(*models.SingleQuestion) error) (*models.SingleQuestion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.single[id]
	if !ok {
		return nil, fmt.Errorf("single question %d: %w", id, repository.ErrNotFound)
	}
	q := cloneSingle(stored)
	if err := mutate(q); err != nil {
		return nil, err
	}
	r.db.single[id] = cloneSingle(q)
	return q, nil
}
