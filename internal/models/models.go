package models

import "time"

// Link is the single persisted entity: one row per short link.
type Link struct {
	ShortCode string    `json:"short_code"`
	LongURL   string    `json:"long_url"`
	Clicks    int64     `json:"clicks"`
	Owner     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type ShortenRequest struct {
	URL string `json:"url" validate:"required"`
}

type ShortenResponse struct {
	Result    string `json:"result"`
	ShortCode string `json:"short_code"`
	Clicks    int64  `json:"clicks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserURL struct {
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	Clicks      int64  `json:"clicks"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type AuthEventType string

const (
	EventUserCreated AuthEventType = "USER_CREATED"
	EventSignedIn    AuthEventType = "SIGNED_IN"
	EventSignedOut   AuthEventType = "SIGNED_OUT"
)

// AuthEvent is delivered to auth subscribers on every session change.
type AuthEvent struct {
	Type   AuthEventType `json:"type"`
	UserID string        `json:"user_id"`
	At     time.Time     `json:"at"`
}
