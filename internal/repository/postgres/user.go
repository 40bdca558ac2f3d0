package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (err error) {
	defer func(start time.Time) { r.observe("user_create", start, err) }(time.Now())

	query := `
		INSERT INTO users (id, email, name, picture, created_at)
		VALUES (:id, :email, :name, :picture, :created_at)
	`
	if _, err = r.GetDB().NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (user *model.User, err error) {
	defer func(start time.Time) { r.observe("user_get", start, err) }(time.Now())

	user = &model.User{}
	query := `SELECT id, email, name, picture, created_at FROM users WHERE id = $1`
	if err = r.GetDB().GetContext(ctx, user, query, id); err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user *model.User, err error) {
	defer func(start time.Time) { r.observe("user_get_by_email", start, err) }(time.Now())

	user = &model.User{}
	query := `SELECT id, email, name, picture, created_at FROM users WHERE email = $1`
	if err = r.GetDB().GetContext(ctx, user, query, email); err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *userRepository) UpdatePicture(ctx context.Context, id uuid.UUID, picture *string) (err error) {
	defer func(start time.Time) { r.observe("user_update_picture", start, err) }(time.Now())

	result, err := r.GetDB().ExecContext(ctx, `UPDATE users SET picture = $2 WHERE id = $1`, id, picture)
	if err != nil {
		return fmt.Errorf("failed to update user picture: %w", err)
	}
	return expectOne(result)
}
