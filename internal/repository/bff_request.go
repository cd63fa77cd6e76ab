package repository

import (
	"context"
	"fmt"

	"lovebox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bffRequestColumns = `id, from_user_id, to_user_id, text, created_at`

// BffRequestRepository handles database operations for BFF requests
type BffRequestRepository struct {
	db *pgxpool.Pool
}

// NewBffRequestRepository creates a new BFF request repository
func NewBffRequestRepository(db *pgxpool.Pool) *BffRequestRepository {
	return &BffRequestRepository{db: db}
}

func scanBffRequest(row scanner) (*models.BffRequest, error) {
	var req models.BffRequest
	if err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Text, &req.CreatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a request and fills in its ID and CreatedAt
func (r *BffRequestRepository) Create(ctx context.Context, req *models.BffRequest) error {
	query := `
		INSERT INTO bff_requests (from_user_id, to_user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, req.FromUserID, req.ToUserID, req.Text).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return wrapErr(err, "failed to create bff request")
	}
	return nil
}

// GetByID retrieves a request by ID
func (r *BffRequestRepository) GetByID(ctx context.Context, id int64) (*models.BffRequest, error) {
	query := `SELECT ` + bffRequestColumns + ` FROM bff_requests WHERE id = $1`
	req, err := scanBffRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "failed to get bff request %d", id)
	}
	return req, nil
}

// ExistsBetween checks for a pending request in either direction
func (r *BffRequestRepository) ExistsBetween(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bff_requests
			WHERE (from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1)
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check bff request existence: %w", err)
	}
	return exists, nil
}

// ListIncoming retrieves requests addressed to userID, newest first
func (r *BffRequestRepository) ListIncoming(ctx context.Context, userID int64) ([]*models.BffRequest, error) {
	query := `SELECT ` + bffRequestColumns + ` FROM bff_requests WHERE to_user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

// ListOutgoing retrieves requests sent by userID, newest first
func (r *BffRequestRepository) ListOutgoing(ctx context.Context, userID int64) ([]*models.BffRequest, error) {
	query := `SELECT ` + bffRequestColumns + ` FROM bff_requests WHERE from_user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

// Delete deletes a request by ID
func (r *BffRequestRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM bff_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bff request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bff request %d: %w", id, ErrNotFound)
	}
	return nil
}

// Accept turns a request into a pair inside one transaction. check runs
// against the locked request and aborts the accept if it returns an error.
// ErrConflict is returned when either user already belongs to a pair.
func (r *BffRequestRepository) Accept(ctx context.Context, id int64, check func(*models.BffRequest) error) (*models.BffPair, error) {
	var pair *models.BffPair
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := `SELECT ` + bffRequestColumns + ` FROM bff_requests WHERE id = $1 FOR UPDATE`
		req, err := scanBffRequest(tx.QueryRow(ctx, query, id))
		if err != nil {
			return wrapErr(err, "failed to lock bff request %d", id)
		}
		if err := check(req); err != nil {
			return err
		}

		for _, userID := range []int64{req.FromUserID, req.ToUserID} {
			taken, err := userHasPair(ctx, tx, userID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("user %d already has a pair: %w", userID, ErrConflict)
			}
		}

		insert := `
			INSERT INTO bff_pairs (first_user_id, second_user_id)
			VALUES ($1, $2)
			RETURNING ` + pairColumns
		pair, err = scanPair(tx.QueryRow(ctx, insert, req.FromUserID, req.ToUserID))
		if err != nil {
			return wrapErr(err, "failed to create pair")
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM bff_requests
			WHERE from_user_id = ANY($1) OR to_user_id = ANY($1)
		`, []int64{req.FromUserID, req.ToUserID})
		if err != nil {
			return fmt.Errorf("failed to clear bff requests: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (r *BffRequestRepository) list(ctx context.Context, query string, args ...any) ([]*models.BffRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bff requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.BffRequest
	for rows.Next() {
		req, err := scanBffRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bff request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bff requests: %w", err)
	}
	return reqs, nil
}
