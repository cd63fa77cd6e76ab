package repository

import (
	"context"
	"fmt"

	"lovebox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const singleQuestionColumns = `id, text, questioner_id, answerer_id, answer_text, answered, answered_at, created_at`

// SingleQuestionRepository handles database operations for single questions
type SingleQuestionRepository struct {
	db *pgxpool.Pool
}

// NewSingleQuestionRepository creates a new single question repository
func NewSingleQuestionRepository(db *pgxpool.Pool) *SingleQuestionRepository {
	return &SingleQuestionRepository{db: db}
}

func scanSingleQuestion(row scanner) (*models.SingleQuestion, error) {
	var q models.SingleQuestion
	err := row.Scan(
		&q.ID, &q.Text, &q.QuestionerID, &q.AnswererID,
		&q.AnswerText, &q.Answered, &q.AnsweredAt, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a question and fills in its ID and CreatedAt
func (r *SingleQuestionRepository) Create(ctx context.Context, q *models.SingleQuestion) error {
	query := `
		INSERT INTO single_questions (text, questioner_id, answerer_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, q.Text, q.QuestionerID, q.AnswererID).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return wrapErr(err, "failed to create single question")
	}
	return nil
}

// GetByID retrieves a question by ID
func (r *SingleQuestionRepository) GetByID(ctx context.Context, id int64) (*models.SingleQuestion, error) {
	query := `SELECT ` + singleQuestionColumns + ` FROM single_questions WHERE id = $1`
	q, err := scanSingleQuestion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "failed to get single question %d", id)
	}
	return q, nil
}

// ListByAnswerer retrieves questions addressed to answererID with the given state, newest first
func (r *SingleQuestionRepository) ListByAnswerer(ctx context.Context, answererID int64, answered bool, limit, offset int) ([]*models.SingleQuestion, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM single_questions WHERE answerer_id = $1 AND answered = $2`
	if err := r.db.QueryRow(ctx, countQuery, answererID, answered).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count single questions: %w", err)
	}

	query := `
		SELECT ` + singleQuestionColumns + `
		FROM single_questions
		WHERE answerer_id = $1 AND answered = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, answererID, answered, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get single questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.SingleQuestion
	for rows.Next() {
		q, err := scanSingleQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan single question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating single questions: %w", err)
	}

	return questions, total, nil
}

// Update locks the question, applies mutate and writes the answer fields back in one transaction
func (r *SingleQuestionRepository) Update(ctx context.Context, id int64, mutate func(*models.SingleQuestion) error) (*models.SingleQuestion, error) {
	var q *models.SingleQuestion
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := `SELECT ` + singleQuestionColumns + ` FROM single_questions WHERE id = $1 FOR UPDATE`
		var err error
		q, err = scanSingleQuestion(tx.QueryRow(ctx, query, id))
		if err != nil {
			return wrapErr(err, "failed to lock single question %d", id)
		}
		if err := mutate(q); err != nil {
			return err
		}
		update := `UPDATE single_questions SET answer_text = $1, answered = $2, answered_at = $3 WHERE id = $4`
		if _, err := tx.Exec(ctx, update, q.AnswerText, q.Answered, q.AnsweredAt, id); err != nil {
			return fmt.Errorf("failed to update single question: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}
