// Package memory implements the repository contracts in process memory. It backs
// the "memory" storage driver and the service tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/repository"
)

const defaultListLimit = 1000

// Store holds every table behind one lock.
type Store struct {
	mu        sync.RWMutex
	anamneses map[uuid.UUID][]byte
	users     map[uuid.UUID]model.User
	sessions  map[string]model.Session
}

func NewStore() *Store {
	return &Store{
		anamneses: make(map[uuid.UUID][]byte),
		users:     make(map[uuid.UUID]model.User),
		sessions:  make(map[string]model.Session),
	}
}

// PingContext always succeeds.
func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Anamneses() repository.AnamneseRepository { return (*anamneseRepository)(s) }
func (s *Store) Users() repository.UserRepository         { return (*userRepository)(s) }
func (s *Store) Sessions() repository.SessionRepository   { return (*sessionRepository)(s) }

// Records are kept encoded so callers never share memory with the store.
type anamneseRepository Store

func (r *anamneseRepository) Create(ctx context.Context, a *model.Anamnese) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode anamnese: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.anamneses[a.ID]; exists {
		return fmt.Errorf("anamnese %s already exists", a.ID)
	}
	r.anamneses[a.ID] = doc
	return nil
}

func (r *anamneseRepository) Get(ctx context.Context, id, userID uuid.UUID) (*model.Anamnese, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(id, userID)
}

func (r *anamneseRepository) load(id, userID uuid.UUID) (*model.Anamnese, error) {
	doc, ok := r.anamneses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	var a model.Anamnese
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("failed to decode anamnese: %w", err)
	}
	if a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *anamneseRepository) List(ctx context.Context, filter model.AnamneseFilter) ([]*model.Anamnese, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*model.Anamnese, 0)
	for id := range r.anamneses {
		a, err := r.load(id, filter.UserID)
		if err == repository.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if a.MatchesSearch(filter.Search) {
			list = append(list, a)
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *anamneseRepository) Update(ctx context.Context, a *model.Anamnese) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode anamnese: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.load(a.ID, a.UserID); err != nil {
		return err
	}
	r.anamneses[a.ID] = doc
	return nil
}

func (r *anamneseRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.load(id, userID); err != nil {
		return err
	}
	delete(r.anamneses, id)
	return nil
}

func (r *anamneseRepository) SetSummary(ctx context.Context, id, userID uuid.UUID, summary string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.load(id, userID)
	if err != nil {
		return err
	}
	a.ResumoClinicoIA = &summary
	a.UpdatedAt = updatedAt

	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode anamnese: %w", err)
	}
	r.anamneses[id] = doc
	return nil
}

type userRepository Store

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s already exists", user.Email)
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) UpdatePicture(ctx context.Context, id uuid.UUID, picture *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Picture = picture
	r.users[id] = u
	return nil
}

type sessionRepository Store

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.SessionToken] = *session
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, token string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}
