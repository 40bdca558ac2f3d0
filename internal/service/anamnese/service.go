package anamnese

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
	"github.com/jwalitptl/anamnese-api/pkg/messaging"
)

const resource = "anamnese"

type Service struct {
	repo      repository.AnamneseRepository
	publisher messaging.Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(repo repository.AnamneseRepository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: messaging.NopPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now exposes the service clock so validation defaults share it.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) Create(ctx context.Context, user *model.User, input *model.AnamneseInput) (*model.Anamnese, error) {
	record := model.NewAnamnese(user.ID, input, s.now())
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create anamnese: %w", err)
	}

	s.publish(ctx, messaging.EventAnamneseCreated, record.ID, user.ID)
	return record, nil
}

// List returns the caller's records, newest first. search is matched literally.
func (s *Service) List(ctx context.Context, user *model.User, search string) ([]*model.Anamnese, error) {
	list, err := s.repo.List(ctx, model.AnamneseFilter{UserID: user.ID, Search: search})
	if err != nil {
		return nil, fmt.Errorf("failed to list anamneses: %w", err)
	}
	return list, nil
}

// Get accepts the raw id from the request; ids that do not parse are simply not found.
func (s *Service) Get(ctx context.Context, user *model.User, rawID string) (*model.Anamnese, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Get(ctx, id, user.ID)
	if err != nil {
		return nil, mapError("get", err)
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, user *model.User, rawID string, patch *model.AnamnesePatch) (*model.Anamnese, error) {
	existing, err := s.Get(ctx, user, rawID)
	if err != nil {
		return nil, err
	}

	merged := model.MergePartial(existing, patch, s.now())
	if err := s.repo.Update(ctx, merged); err != nil {
		return nil, mapError("update", err)
	}

	s.publish(ctx, messaging.EventAnamneseUpdated, merged.ID, user.ID)
	return merged, nil
}

func (s *Service) Delete(ctx context.Context, user *model.User, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, user.ID); err != nil {
		return mapError("delete", err)
	}

	s.publish(ctx, messaging.EventAnamneseDeleted, id, user.ID)
	return nil
}

// publish is best effort: the record change has already been committed.
func (s *Service) publish(ctx context.Context, eventType string, id, userID uuid.UUID) {
	event := messaging.LifecycleEvent{AnamneseID: id, UserID: userID, OccurredAt: s.now()}
	if err := s.publisher.Publish(ctx, eventType, event); err != nil {
		s.logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("anamnese_id", id.String()).
			Msg("failed to publish lifecycle event")
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NotFound(resource, err)
	}
	return id, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to %s anamnese: %w", op, err)
}
