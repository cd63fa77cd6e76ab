package handlers

import (
	"context"
	"time"

	"lovebox-backend/internal/models"
)

// UserLookup resolves user ids for response assembly
type UserLookup interface {
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
}

// UserBrief is the short form of a user embedded in other resources
type UserBrief struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UserResponse is a user profile. Email is only filled for the caller's own profile.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name"`
	Bio       string    `json:"bio"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Following *bool     `json:"following,omitempty"`
}

type CoupleQuestionResponse struct {
	ID             int64      `json:"id"`
	Text           string     `json:"text"`
	Questioner     UserBrief  `json:"questioner"`
	FirstAnswerer  UserBrief  `json:"first_answerer"`
	SecondAnswerer UserBrief  `json:"second_answerer"`
	AnswerText     *string    `json:"answer_text"`
	Answered       bool       `json:"answered"`
	AnsweredBy     *UserBrief `json:"answered_by,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	LoveCount      int        `json:"love_count"`
	LovedByMe      bool       `json:"loved_by_me"`
	CreatedAt      time.Time  `json:"created_at"`
}

type SingleQuestionResponse struct {
	ID         int64      `json:"id"`
	Text       string     `json:"text"`
	Questioner UserBrief  `json:"questioner"`
	Answerer   UserBrief  `json:"answerer"`
	AnswerText *string    `json:"answer_text"`
	Answered   bool       `json:"answered"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type BffRequestResponse struct {
	ID        int64     `json:"id"`
	FromUser  UserBrief `json:"from_user"`
	ToUser    UserBrief `json:"to_user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type BffDetailResponse struct {
	ID          int64     `json:"id"`
	FirstUser   UserBrief `json:"first_user"`
	SecondUser  UserBrief `json:"second_user"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserBrief(u *models.User) UserBrief {
	return UserBrief{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

func toUserResponse(u *models.User, self bool) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
	if self {
		resp.Email = u.Email
	}
	return resp
}

// assembler turns models into responses, resolving user ids in one lookup per response
type assembler struct {
	users UserLookup
}

type briefs map[int64]*models.User

func (b briefs) of(id int64) UserBrief {
	if u, ok := b[id]; ok {
		return toUserBrief(u)
	}
	return UserBrief{ID: id}
}

func (a assembler) lookup(ctx context.Context, ids []int64) (briefs, error) {
	users, err := a.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return briefs(users), nil
}

func coupleQuestionIDs(qs ...*models.CoupleQuestion) []int64 {
	ids := make([]int64, 0, len(qs)*3)
	for _, q := range qs {
		ids = append(ids, q.QuestionerID, q.FirstAnswererID, q.SecondAnswererID)
	}
	return ids
}

func (b briefs) coupleQuestion(q *models.CoupleQuestion, callerID int64) CoupleQuestionResponse {
	resp := CoupleQuestionResponse{
		ID:             q.ID,
		Text:           q.Text,
		Questioner:     b.of(q.QuestionerID),
		FirstAnswerer:  b.of(q.FirstAnswererID),
		SecondAnswerer: b.of(q.SecondAnswererID),
		AnswerText:     q.AnswerText,
		Answered:       q.Answered,
		AnsweredAt:     q.AnsweredAt,
		LoveCount:      len(q.LovedBy),
		LovedByMe:      q.IsLovedBy(callerID),
		CreatedAt:      q.CreatedAt,
	}
	if q.AnsweredBy != nil {
		by := b.of(*q.AnsweredBy)
		resp.AnsweredBy = &by
	}
	return resp
}

func (a assembler) coupleQuestion(ctx context.Context, callerID int64, q *models.CoupleQuestion) (CoupleQuestionResponse, error) {
	b, err := a.lookup(ctx, coupleQuestionIDs(q))
	if err != nil {
		return CoupleQuestionResponse{}, err
	}
	return b.coupleQuestion(q, callerID), nil
}

func (a assembler) coupleQuestionPage(ctx context.Context, callerID int64, p models.Page[*models.CoupleQuestion]) (models.Page[CoupleQuestionResponse], error) {
	b, err := a.lookup(ctx, coupleQuestionIDs(p.Content...))
	if err != nil {
		return models.Page[CoupleQuestionResponse]{}, err
	}
	return models.MapPage(p, func(q *models.CoupleQuestion) CoupleQuestionResponse {
		return b.coupleQuestion(q, callerID)
	}), nil
}

func singleQuestionIDs(qs ...*models.SingleQuestion) []int64 {
	ids := make([]int64, 0, len(qs)*2)
	for _, q := range qs {
		ids = append(ids, q.QuestionerID, q.AnswererID)
	}
	return ids
}

func (b briefs) singleQuestion(q *models.SingleQuestion) SingleQuestionResponse {
	return SingleQuestionResponse{
		ID:         q.ID,
		Text:       q.Text,
		Questioner: b.of(q.QuestionerID),
		Answerer:   b.of(q.AnswererID),
		AnswerText: q.AnswerText,
		Answered:   q.Answered,
		AnsweredAt: q.AnsweredAt,
		CreatedAt:  q.CreatedAt,
	}
}

func (a assembler) singleQuestion(ctx context.Context, q *models.SingleQuestion) (SingleQuestionResponse, error) {
	b, err := a.lookup(ctx, singleQuestionIDs(q))
	if err != nil {
		return SingleQuestionResponse{}, err
	}
	return b.singleQuestion(q), nil
}

func (a assembler) singleQuestionPage(ctx context.Context, p models.Page[*models.SingleQuestion]) (models.Page[SingleQuestionResponse], error) {
	b, err := a.lookup(ctx, singleQuestionIDs(p.Content...))
	if err != nil {
		return models.Page[SingleQuestionResponse]{}, err
	}
	return models.MapPage(p, b.singleQuestion), nil
}

func (a assembler) bffRequests(ctx context.Context, reqs []*models.BffRequest) ([]BffRequestResponse, error) {
	ids := make([]int64, 0, len(reqs)*2)
	for _, req := range reqs {
		ids = append(ids, req.FromUserID, req.ToUserID)
	}
	b, err := a.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]BffRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, BffRequestResponse{
			ID:        req.ID,
			FromUser:  b.of(req.FromUserID),
			ToUser:    b.of(req.ToUserID),
			Text:      req.Text,
			CreatedAt: req.CreatedAt,
		})
	}
	return out, nil
}

func (a assembler) bffDetail(ctx context.Context, pair *models.BffPair) (BffDetailResponse, error) {
	b, err := a.lookup(ctx, []int64{pair.FirstUserID, pair.SecondUserID})
	if err != nil {
		return BffDetailResponse{}, err
	}
	return BffDetailResponse{
		ID:          pair.ID,
		FirstUser:   b.of(pair.FirstUserID),
		SecondUser:  b.of(pair.SecondUserID),
		Description: pair.Description,
		CreatedAt:   pair.CreatedAt,
	}, nil
}
