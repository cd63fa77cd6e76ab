package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository"
)

// UserRepository stores users and the follow graph
type UserRepository struct {
	db *DB
}

// Create inserts a user. A preset ID or CreatedAt is kept.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user %q: %w", user.Username, repository.ErrConflict)
		}
	}
	if _, taken := r.db.users[user.ID]; taken && user.ID > 0 {
		return fmt.Errorf("user %d: %w", user.ID, repository.ErrConflict)
	}

	user.ID = nextID(&r.db.userSeq, user.ID)
	user.CreatedAt = r.db.stamp(user.CreatedAt)
	r.db.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var users []*models.User
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == login || u.Email == login {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", login, repository.ErrNotFound)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) FindByUsernamePrefix(ctx context.Context, prefix string, limit, offset int) ([]*models.User, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	prefix = strings.ToLower(prefix)
	var matched []*models.User
	for _, u := range r.db.users {
		if strings.HasPrefix(strings.ToLower(u.Username), prefix) {
			matched = append(matched, u)
		}
	}
	sortUsers(matched)
	return r.cloneAll(window(matched, limit, offset)), int64(len(matched)), nil
}

func (r *UserRepository) Following(ctx context.Context, id int64, limit, offset int) ([]*models.User, int64, error) {
	return r.edges(id, limit, offset, func(f follow) (int64, bool) {
		return f.followingID, f.followerID == id
	})
}

func (r *UserRepository) Followers(ctx context.Context, id int64, limit, offset int) ([]*models.User, int64, error) {
	return r.edges(id, limit, offset, func(f follow) (int64, bool) {
		return f.followerID, f.followingID == id
	})
}

func (r *UserRepository) IsFollowing(ctx context.Context, id, otherID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, f := range r.db.follows {
		if f.followerID == id && f.followingID == otherID {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) ToggleFollow(ctx context.Context, id, otherID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, f := range r.db.follows {
		if f.followerID == id && f.followingID == otherID {
			r.db.follows = append(r.db.follows[:i], r.db.follows[i+1:]...)
			return false, nil
		}
	}
	r.db.follows = append(r.db.follows, follow{followerID: id, followingID: otherID, createdAt: r.db.now()})
	return true, nil
}

func (r *UserRepository) UpdatePushToken(ctx context.Context, userID int64, pushToken *string) error {
	return r.update(userID, func(u *models.User) { u.PushToken = cloneString(pushToken) })
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID int64, avatarURL *string) error {
	return r.update(userID, func(u *models.User) { u.AvatarURL = cloneString(avatarURL) })
}

func (r *UserRepository) update(userID int64, fn func(*models.User)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, repository.ErrNotFound)
	}
	fn(u)
	return nil
}

// edges walks the follow list, most recent follow first
func (r *UserRepository) edges(id int64, limit, offset int, pick func(follow) (int64, bool)) ([]*models.User, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	type hit struct {
		user *models.User
		at   time.Time
	}
	var hits []hit
	for _, f := range r.db.follows {
		otherID, ok := pick(f)
		if !ok {
			continue
		}
		if u, exists := r.db.users[otherID]; exists {
			hits = append(hits, hit{user: u, at: f.createdAt})
		}
	}
	sort.SliceStable(hits, newestFirst(
		func(i int) time.Time { return hits[i].at },
		func(i int) int64 { return hits[i].user.ID },
	))

	users := make([]*models.User, 0, len(hits))
	for _, h := range hits {
		users = append(users, h.user)
	}
	return r.cloneAll(window(users, limit, offset)), int64(len(hits)), nil
}

func (r *UserRepository) cloneAll(users []*models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, cloneUser(u))
	}
	return out
}
