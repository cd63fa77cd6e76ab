package repository

import (
	"context"
	"fmt"

	"lovebox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pairColumns = `id, first_user_id, second_user_id, description, created_at`

// PairRepository handles database operations for BFF pairs
type PairRepository struct {
	db *pgxpool.Pool
}

// NewPairRepository creates a new pair repository
func NewPairRepository(db *pgxpool.Pool) *PairRepository {
	return &PairRepository{db: db}
}

func scanPair(row scanner) (*models.BffPair, error) {
	var pair models.BffPair
	err := row.Scan(&pair.ID, &pair.FirstUserID, &pair.SecondUserID, &pair.Description, &pair.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetByID retrieves a pair by ID
func (r *PairRepository) GetByID(ctx context.Context, id int64) (*models.BffPair, error) {
	query := `SELECT ` + pairColumns + ` FROM bff_pairs WHERE id = $1`
	pair, err := scanPair(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "failed to get pair %d", id)
	}
	return pair, nil
}

// GetByUserID retrieves the pair a user belongs to
func (r *PairRepository) GetByUserID(ctx context.Context, userID int64) (*models.BffPair, error) {
	query := `
		SELECT ` + pairColumns + `
		FROM bff_pairs
		WHERE first_user_id = $1 OR second_user_id = $1
		LIMIT 1
	`
	pair, err := scanPair(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, wrapErr(err, "failed to get pair by user id")
	}
	return pair, nil
}

// UserHasPair checks if a user is already in a pair
func (r *PairRepository) UserHasPair(ctx context.Context, userID int64) (bool, error) {
	return userHasPair(ctx, r.db, userID)
}

// UpdateDescription sets the pair's description
func (r *PairRepository) UpdateDescription(ctx context.Context, id int64, description string) error {
	result, err := r.db.Exec(ctx, `UPDATE bff_pairs SET description = $1 WHERE id = $2`, description, id)
	if err != nil {
		return fmt.Errorf("failed to update pair description: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pair %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete deletes a pair by ID
func (r *PairRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM bff_pairs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pair: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pair %d: %w", id, ErrNotFound)
	}
	return nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func userHasPair(ctx context.Context, q queryRower, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bff_pairs WHERE first_user_id = $1 OR second_user_id = $1)`
	var exists bool
	if err := q.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check if user has pair: %w", err)
	}
	return exists, nil
}
