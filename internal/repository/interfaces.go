package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/anamnese-api/internal/model"
)

// ErrNotFound is returned when a row does not exist, or does not belong to the caller.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// AnamneseRepository stores records. Every read and write is scoped to the owner.
	AnamneseRepository interface {
		Create(ctx context.Context, anamnese *model.Anamnese) error
		Get(ctx context.Context, id, userID uuid.UUID) (*model.Anamnese, error)
		List(ctx context.Context, filter model.AnamneseFilter) ([]*model.Anamnese, error)
		Update(ctx context.Context, anamnese *model.Anamnese) error
		Delete(ctx context.Context, id, userID uuid.UUID) error
		SetSummary(ctx context.Context, id, userID uuid.UUID, summary string, updatedAt time.Time) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdatePicture(ctx context.Context, id uuid.UUID, picture *string) error
	}

	SessionRepository interface {
		Create(ctx context.Context, session *model.Session) error
		Get(ctx context.Context, token string) (*model.Session, error)
		Delete(ctx context.Context, token string) error
	}

	// Pinger reports whether the backing store is reachable.
	Pinger interface {
		PingContext(ctx context.Context) error
	}
)
