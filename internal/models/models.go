package models

import "time"

// RoleUser is granted to every registered account
const RoleUser = "USER"

// User represents a registered account
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Bio          string    `json:"bio"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user carries the given role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// BffPair represents two users in a best-friend-forever relationship.
// The slots are fixed at creation; the relationship itself is unordered.
type BffPair struct {
	ID           int64     `json:"id"`
	FirstUserID  int64     `json:"first_user_id"`
	SecondUserID int64     `json:"second_user_id"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasMember reports whether userID occupies either slot
func (p *BffPair) HasMember(userID int64) bool {
	return p.FirstUserID == userID || p.SecondUserID == userID
}

// PartnerOf returns the other member of the pair
func (p *BffPair) PartnerOf(userID int64) int64 {
	if p.FirstUserID == userID {
		return p.SecondUserID
	}
	return p.FirstUserID
}

// BffRequest is a pending invitation to form a pair
type BffRequest struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// CoupleQuestion is a question addressed to both members of a pair
type CoupleQuestion struct {
	ID               int64      `json:"id"`
	Text             string     `json:"text"`
	QuestionerID     int64      `json:"questioner_id"`
	FirstAnswererID  int64      `json:"first_answerer_id"`
	SecondAnswererID int64      `json:"second_answerer_id"`
	AnswerText       *string    `json:"answer_text,omitempty"`
	Answered         bool       `json:"answered"`
	AnsweredBy       *int64     `json:"answered_by,omitempty"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
	LovedBy          []int64    `json:"loved_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsLovedBy reports whether userID is in the loved-by set
func (q *CoupleQuestion) IsLovedBy(userID int64) bool {
	for _, id := range q.LovedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLove adds userID to the loved-by set, or removes it if present.
// It returns true when the question is loved by userID afterwards.
func (q *CoupleQuestion) ToggleLove(userID int64) bool {
	for i, id := range q.LovedBy {
		if id == userID {
			q.LovedBy = append(q.LovedBy[:i], q.LovedBy[i+1:]...)
			return false
		}
	}
	q.LovedBy = append(q.LovedBy, userID)
	return true
}

// SetAnswer moves the question into the answered state
func (q *CoupleQuestion) SetAnswer(text string, by int64, at time.Time) {
	q.AnswerText = &text
	q.Answered = true
	q.AnsweredBy = &by
	q.AnsweredAt = &at
}

// ClearAnswer reverts the question to the unanswered state
func (q *CoupleQuestion) ClearAnswer() {
	q.AnswerText = nil
	q.Answered = false
	q.AnsweredBy = nil
	q.AnsweredAt = nil
	q.LovedBy = []int64{}
}

// SingleQuestion is a question addressed to one user
type SingleQuestion struct {
	ID           int64      `json:"id"`
	Text         string     `json:"text"`
	QuestionerID int64      `json:"questioner_id"`
	AnswererID   int64      `json:"answerer_id"`
	AnswerText   *string    `json:"answer_text,omitempty"`
	Answered     bool       `json:"answered"`
	AnsweredAt   *time.Time `json:"answered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
