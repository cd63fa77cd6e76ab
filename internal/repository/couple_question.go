package repository

import (
	"context"
	"fmt"

	"lovebox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const coupleQuestionColumns = `id, text, questioner_id, first_answerer_id, second_answerer_id,
	answer_text, answered, answered_by, answered_at, loved_by, created_at`

// CoupleQuestionRepository handles database operations for couple questions
type CoupleQuestionRepository struct {
	db *pgxpool.Pool
}

// NewCoupleQuestionRepository creates a new couple question repository
func NewCoupleQuestionRepository(db *pgxpool.Pool) *CoupleQuestionRepository {
	return &CoupleQuestionRepository{db: db}
}

func scanCoupleQuestion(row scanner) (*models.CoupleQuestion, error) {
	var q models.CoupleQuestion
	err := row.Scan(
		&q.ID, &q.Text, &q.QuestionerID, &q.FirstAnswererID, &q.SecondAnswererID,
		&q.AnswerText, &q.Answered, &q.AnsweredBy, &q.AnsweredAt, &q.LovedBy, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a question and fills in its ID and CreatedAt
func (r *CoupleQuestionRepository) Create(ctx context.Context, q *models.CoupleQuestion) error {
	query := `
		INSERT INTO couple_questions (text, questioner_id, first_answerer_id, second_answerer_id, loved_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	q.LovedBy = nonNil(q.LovedBy)
	err := r.db.QueryRow(ctx, query,
		q.Text, q.QuestionerID, q.FirstAnswererID, q.SecondAnswererID, q.LovedBy,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return wrapErr(err, "failed to create couple question")
	}
	return nil
}

// GetByID retrieves a question by ID
func (r *CoupleQuestionRepository) GetByID(ctx context.Context, id int64) (*models.CoupleQuestion, error) {
	query := `SELECT ` + coupleQuestionColumns + ` FROM couple_questions WHERE id = $1`
	q, err := scanCoupleQuestion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "failed to get couple question %d", id)
	}
	return q, nil
}

// ListByAnswerer retrieves questions where userID is an answerer, newest first.
// A nil answered returns both states.
func (r *CoupleQuestionRepository) ListByAnswerer(ctx context.Context, userID int64, answered *bool, limit, offset int) ([]*models.CoupleQuestion, int64, error) {
	where := `(first_answerer_id = $1 OR second_answerer_id = $1) AND ($2::boolean IS NULL OR answered = $2)`

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM couple_questions WHERE `+where, userID, answered).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count couple questions: %w", err)
	}

	query := `
		SELECT ` + coupleQuestionColumns + `
		FROM couple_questions
		WHERE ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, userID, answered, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get couple questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.CoupleQuestion
	for rows.Next() {
		q, err := scanCoupleQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan couple question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating couple questions: %w", err)
	}

	return questions, total, nil
}

// Update locks the question, applies mutate and writes the result back in one
// transaction. An error from mutate rolls back and is returned unchanged.
func (r *CoupleQuestionRepository) Update(ctx context.Context, id int64, mutate func(*models.CoupleQuestion) error) (*models.CoupleQuestion, error) {
	var q *models.CoupleQuestion
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		q, err = lockCoupleQuestion(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(q); err != nil {
			return err
		}
		query := `
			UPDATE couple_questions
			SET answer_text = $1, answered = $2, answered_by = $3, answered_at = $4, loved_by = $5
			WHERE id = $6
		`
		_, err = tx.Exec(ctx, query, q.AnswerText, q.Answered, q.AnsweredBy, q.AnsweredAt, nonNil(q.LovedBy), id)
		if err != nil {
			return fmt.Errorf("failed to update couple question: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Delete locks the question, runs check and deletes it in one transaction
func (r *CoupleQuestionRepository) Delete(ctx context.Context, id int64, check func(*models.CoupleQuestion) error) error {
	return pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q, err := lockCoupleQuestion(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := check(q); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM couple_questions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete couple question: %w", err)
		}
		return nil
	})
}

func lockCoupleQuestion(ctx context.Context, tx pgx.Tx, id int64) (*models.CoupleQuestion, error) {
	query := `SELECT ` + coupleQuestionColumns + ` FROM couple_questions WHERE id = $1 FOR UPDATE`
	q, err := scanCoupleQuestion(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "failed to lock couple question %d", id)
	}
	return q, nil
}
