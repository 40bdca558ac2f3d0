package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/repository"
)

type sessionRepository struct {
	BaseRepository
}

func NewSessionRepository(base BaseRepository) repository.SessionRepository {
	return &sessionRepository{base}
}

// Create stores the session, replacing any row with the same token.
func (r *sessionRepository) Create(ctx context.Context, session *model.Session) (err error) {
	defer func(start time.Time) { r.observe("session_create", start, err) }(time.Now())

	query := `
		INSERT INTO user_sessions (session_token, user_id, expires_at, created_at)
		VALUES (:session_token, :user_id, :expires_at, :created_at)
		ON CONFLICT (session_token) DO UPDATE
		SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
	`
	if _, err = r.GetDB().NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, token string) (session *model.Session, err error) {
	defer func(start time.Time) { r.observe("session_get", start, err) }(time.Now())

	session = &model.Session{}
	query := `SELECT session_token, user_id, expires_at, created_at FROM user_sessions WHERE session_token = $1`
	if err = r.GetDB().GetContext(ctx, session, query, token); err != nil {
		return nil, notFound(err)
	}
	return session, nil
}

// Delete removes the session if it exists. Deleting an unknown token is not an error.
func (r *sessionRepository) Delete(ctx context.Context, token string) (err error) {
	defer func(start time.Time) { r.observe("session_delete", start, err) }(time.Now())

	if _, err = r.GetDB().ExecContext(ctx, `DELETE FROM user_sessions WHERE session_token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
