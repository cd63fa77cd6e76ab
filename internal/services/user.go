package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/cache"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 365 * 24 * time.Hour

// Claims is the JWT payload issued on sign-in
type Claims struct {
	UserID int64    `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller
type Principal struct {
	UserID int64
	Roles  []string
}

// HasRole reports whether the principal carries role
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserServiceConfig tunes credentials handling
type UserServiceConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// RegisterInput is the data needed to open an account
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// UserService handles accounts, tokens and the follow graph
type UserService struct {
	users      UserStore
	pairs      PairStore
	pairCache  *cache.PairCache
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// NewUserService creates a new user service. pairCache may be nil.
func NewUserService(users UserStore, pairs PairStore, pairCache *cache.PairCache, cfg UserServiceConfig) *UserService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		users:      users,
		pairs:      pairs,
		pairCache:  pairCache,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   ttl,
		bcryptCost: cost,
	}
}

// Register creates an account with the USER role
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	available, err := s.CheckUsernameAvailability(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperr.Conflict("username is already taken")
	}
	available, err = s.CheckEmailAvailability(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperr.Conflict("email address is already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Roles:        []string{models.RoleUser},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("username or email is already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Authenticate checks the credentials and issues an access token
func (s *UserService) Authenticate(ctx context.Context, login, password string) (string, *models.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperr.Unauthorized("invalid username or password")
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Unauthorized("invalid username or password")
	}

	token, err := s.GenerateJWT(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the caller it identifies
func (s *UserService) ValidateJWT(tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return Principal{}, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "invalid token", Err: err}
	}
	if !token.Valid || claims.UserID == 0 {
		return Principal{}, apperr.Unauthorized("invalid token")
	}

	return Principal{UserID: claims.UserID, Roles: claims.Roles}, nil
}

// GetUserByID returns the user or NotFound
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}

// GetUsersByIDs loads users keyed by id. Unknown ids are left out.
func (s *UserService) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users, err := s.users.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	out := make(map[int64]*models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// GetBffPair returns the user's pair, or nil when the user has none
func (s *UserService) GetBffPair(ctx context.Context, userID int64) (*models.BffPair, error) {
	if pair, ok, err := s.pairCache.Get(ctx, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Pair cache read failed")
	} else if ok {
		return pair, nil
	}

	version, err := s.pairCache.Version(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Pair cache read failed")
	}
	cacheable := err == nil

	pair, err := s.pairs.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load pair: %w", err)
	}
	if err != nil {
		pair = nil
	}

	if cacheable {
		if err := s.pairCache.Set(ctx, userID, pair, version); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Pair cache write failed")
		}
	}
	return pair, nil
}

// FollowOrUnfollow toggles the follow edge and returns whether id follows otherID afterwards
func (s *UserService) FollowOrUnfollow(ctx context.Context, id, otherID int64) (bool, error) {
	if id == otherID {
		return false, apperr.BadRequest("cannot follow yourself")
	}
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return false, err
	}
	if _, err := s.GetUserByID(ctx, otherID); err != nil {
		return false, err
	}

	following, err := s.users.ToggleFollow(ctx, id, otherID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle follow: %w", err)
	}
	return following, nil
}

// IsFollowing reports whether id follows otherID
func (s *UserService) IsFollowing(ctx context.Context, id, otherID int64) (bool, error) {
	following, err := s.users.IsFollowing(ctx, id, otherID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return following, nil
}

// FindUsers searches usernames by prefix
func (s *UserService) FindUsers(ctx context.Context, prefix string, page, size int) (models.Page[*models.User], error) {
	req, err := models.NewPageRequest(page, size)
	if err != nil {
		return models.Page[*models.User]{}, err
	}
	users, total, err := s.users.FindByUsernamePrefix(ctx, strings.TrimSpace(prefix), req.Limit(), req.Offset())
	if err != nil {
		return models.Page[*models.User]{}, fmt.Errorf("failed to find users: %w", err)
	}
	return models.NewPage(users, req, total), nil
}

// GetFollowing lists the users id follows
func (s *UserService) GetFollowing(ctx context.Context, id int64, page, size int) (models.Page[*models.User], error) {
	return s.followPage(ctx, id, page, size, s.users.Following)
}

// GetFollowers lists the users following id
func (s *UserService) GetFollowers(ctx context.Context, id int64, page, size int) (models.Page[*models.User], error) {
	return s.followPage(ctx, id, page, size, s.users.Followers)
}

func (s *UserService) followPage(
	ctx context.Context,
	id int64,
	page, size int,
	fetch func(ctx context.Context, id int64, limit, offset int) ([]*models.User, int64, error),
) (models.Page[*models.User], error) {
	req, err := models.NewPageRequest(page, size)
	if err != nil {
		return models.Page[*models.User]{}, err
	}
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return models.Page[*models.User]{}, err
	}
	users, total, err := fetch(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return models.Page[*models.User]{}, fmt.Errorf("failed to load follow list: %w", err)
	}
	return models.NewPage(users, req, total), nil
}

// CheckUsernameAvailability reports whether username is still free
func (s *UserService) CheckUsernameAvailability(ctx context.Context, username string) (bool, error) {
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !exists, nil
}

// CheckEmailAvailability reports whether email is still free
func (s *UserService) CheckEmailAvailability(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return !exists, nil
}

// UpdatePushToken stores the APNs device token. An empty token clears it.
func (s *UserService) UpdatePushToken(ctx context.Context, userID int64, pushToken string) error {
	var value *string
	if pushToken != "" {
		value = &pushToken
	}
	if err := s.users.UpdatePushToken(ctx, userID, value); err != nil {
		return storeErr(err, "user")
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
