package repository

import (
	"context"
	"fmt"

	"lovebox-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, full_name, bio, password_hash, roles, avatar_url, push_token, created_at`

// UserRepository handles database operations for users and the follow graph
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Bio,
		&user.PasswordHash, &user.Roles, &user.AvatarURL, &user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a user and fills in its ID and CreatedAt
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, full_name, bio, password_hash, roles)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Username, user.Email, user.FullName, user.Bio, user.PasswordHash, user.Roles,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return wrapErr(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "failed to get user %d", id)
	}
	return user, nil
}

// GetByIDs retrieves every user whose ID is in ids. Missing IDs are skipped.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	return r.queryUsers(ctx, query, ids)
}

// GetByLogin retrieves a user by username or email
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 LIMIT 1`
	user, err := scanUser(r.db.QueryRow(ctx, query, login))
	if err != nil {
		return nil, wrapErr(err, "failed to get user by login")
	}
	return user, nil
}

// UsernameExists checks if a username is already taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// FindByUsernamePrefix retrieves users whose username starts with prefix, newest first
func (r *UserRepository) FindByUsernamePrefix(ctx context.Context, prefix string, limit, offset int) ([]*models.User, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM users WHERE starts_with(lower(username), lower($1))`
	if err := r.db.QueryRow(ctx, countQuery, prefix).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE starts_with(lower(username), lower($1))
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	users, err := r.queryUsers(ctx, query, prefix, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Following retrieves the users that id follows, most recent follow first
func (r *UserRepository) Following(ctx context.Context, id int64, limit, offset int) ([]*models.User, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM user_follows WHERE follower_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, id).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count following: %w", err)
	}

	query := `
		SELECT u.id, u.username, u.email, u.full_name, u.bio, u.password_hash, u.roles, u.avatar_url, u.push_token, u.created_at
		FROM user_follows f
		JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3
	`
	users, err := r.queryUsers(ctx, query, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Followers retrieves the users following id, most recent follow first
func (r *UserRepository) Followers(ctx context.Context, id int64, limit, offset int) ([]*models.User, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM user_follows WHERE following_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, id).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count followers: %w", err)
	}

	query := `
		SELECT u.id, u.username, u.email, u.full_name, u.bio, u.password_hash, u.roles, u.avatar_url, u.push_token, u.created_at
		FROM user_follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3
	`
	users, err := r.queryUsers(ctx, query, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// IsFollowing checks if id follows otherID
func (r *UserRepository) IsFollowing(ctx context.Context, id, otherID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_follows WHERE follower_id = $1 AND following_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, id, otherID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

// ToggleFollow follows otherID if id does not follow it yet, otherwise unfollows.
// It returns whether id follows otherID afterwards.
func (r *UserRepository) ToggleFollow(ctx context.Context, id, otherID int64) (bool, error) {
	var following bool
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM user_follows WHERE follower_id = $1 AND following_id = $2`, id, otherID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			following = false
			return nil
		}
		_, err = tx.Exec(ctx, `INSERT INTO user_follows (follower_id, following_id) VALUES ($1, $2)`, id, otherID)
		if err != nil {
			return err
		}
		following = true
		return nil
	})
	if err != nil {
		return false, wrapErr(err, "failed to toggle follow")
	}
	return following, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID int64, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// UpdateAvatarURL updates the avatar URL for a user
func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID int64, avatarURL *string) error {
	query := `UPDATE users SET avatar_url = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
