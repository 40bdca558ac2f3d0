package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a clinician authenticated through the external identity provider.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Picture   *string   `json:"picture" db:"picture"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Session binds an opaque token to a user until ExpiresAt.
type Session struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	SessionToken string    `json:"session_token" db:"session_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// SessionData is returned by a successful session exchange.
type SessionData struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      *string   `json:"picture"`
	SessionToken string    `json:"session_token"`
}
