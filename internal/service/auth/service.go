package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/repository"
	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	provider    Provider
	sessionTTL  time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, provider Provider, opts ...Option) *Service {
	s := &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		provider:    provider,
		sessionTTL:  DefaultSessionTTL,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve maps a session token to its user. It returns (nil, nil) when the
// token is unknown, expired or points at a missing user. An expired session
// is deleted on the way out.
func (s *Service) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Expired(s.now()) {
		if err := s.sessionRepo.Delete(ctx, token); err != nil {
			s.logger.Warn().Err(err).Str("user_id", session.UserID.String()).Msg("failed to delete expired session")
			return nil, nil
		}
		s.logger.Debug().Str("user_id", session.UserID.String()).Msg("expired session removed")
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// RequireAuthenticated is Resolve with an authentication error instead of a nil user.
func (s *Service) RequireAuthenticated(ctx context.Context, token string) (*model.User, error) {
	user, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthorized(nil)
	}
	return user, nil
}

// ExchangeSession trades an external session id for a local session. The user
// is created on first sign-in and matched by email afterwards.
func (s *Service) ExchangeSession(ctx context.Context, sessionID string) (*model.SessionData, error) {
	if sessionID == "" {
		return nil, apperrors.BadRequest("X-Session-ID header required", nil)
	}

	identity, err := s.provider.SessionData(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.upsertUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.Session{
		UserID:       user.ID,
		SessionToken: identity.SessionToken,
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("session created")

	return &model.SessionData{
		ID:           user.ID,
		Email:        identity.Email,
		Name:         identity.Name,
		Picture:      identity.Picture,
		SessionToken: identity.SessionToken,
	}, nil
}

func (s *Service) upsertUser(ctx context.Context, identity *ProviderSession) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, identity.Email)
	if errors.Is(err, repository.ErrNotFound) {
		user = &model.User{
			ID:        uuid.New(),
			Email:     identity.Email,
			Name:      identity.Name,
			Picture:   identity.Picture,
			CreatedAt: s.now(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !samePicture(user.Picture, identity.Picture) {
		if err := s.userRepo.UpdatePicture(ctx, user.ID, identity.Picture); err != nil {
			return nil, fmt.Errorf("failed to update user picture: %w", err)
		}
		user.Picture = identity.Picture
	}
	return user, nil
}

// Logout deletes the session behind token, if any.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func samePicture(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
