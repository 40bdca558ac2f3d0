package summary

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
	"github.com/jwalitptl/anamnese-api/pkg/llm"
	"github.com/jwalitptl/anamnese-api/pkg/messaging"
	"github.com/jwalitptl/anamnese-api/pkg/metrics"
)

const providerName = "summary provider"

type Service struct {
	repo      repository.AnamneseRepository
	generator llm.Generator
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    zerolog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(repo repository.AnamneseRepository, generator llm.Generator, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		generator: generator,
		publisher: messaging.NopPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate asks the provider for a narrative summary of the caller's record and
// stores it on the record. Nothing is stored when the provider fails.
func (s *Service) Generate(ctx context.Context, user *model.User, rawID string) (string, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", apperrors.NotFound("anamnese", err)
	}

	record, err := s.repo.Get(ctx, id, user.ID)
	if err != nil {
		return "", mapError("get", err)
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, llm.Request{
		System:     SystemMessage,
		Prompt:     BuildPrompt(record),
		SessionKey: "anamnese_" + id.String(),
	})
	s.metrics.ObserveSummary(err, time.Since(start))
	if err != nil {
		s.logger.Error().Err(err).Str("anamnese_id", id.String()).Msg("failed to generate summary")
		return "", apperrors.NewExternalService(providerName, 0, err)
	}

	updatedAt := s.now()
	if record.UpdatedAt.After(updatedAt) {
		updatedAt = record.UpdatedAt
	}
	if err := s.repo.SetSummary(ctx, id, user.ID, text, updatedAt); err != nil {
		return "", mapError("store summary for", err)
	}

	event := messaging.LifecycleEvent{AnamneseID: id, UserID: user.ID, OccurredAt: updatedAt}
	if err := s.publisher.Publish(ctx, messaging.EventSummaryGenerated, event); err != nil {
		s.logger.Warn().Err(err).Str("anamnese_id", id.String()).Msg("failed to publish lifecycle event")
	}
	return text, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("anamnese", err)
	}
	return fmt.Errorf("failed to %s anamnese: %w", op, err)
}
