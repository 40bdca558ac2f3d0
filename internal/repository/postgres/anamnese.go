package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/repository"
)

// DefaultListLimit caps a listing when the filter sets no limit.
const DefaultListLimit = 1000

// anamneseRepository keeps each record as a single JSONB document. The key
// columns are duplicated out of the document for ownership checks and ordering.
type anamneseRepository struct {
	BaseRepository
}

func NewAnamneseRepository(base BaseRepository) repository.AnamneseRepository {
	return &anamneseRepository{base}
}

func (r *anamneseRepository) Create(ctx context.Context, a *model.Anamnese) (err error) {
	defer func(start time.Time) { r.observe("anamnese_create", start, err) }(time.Now())

	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode anamnese: %w", err)
	}

	query := `
		INSERT INTO anamneses (id, user_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err = r.GetDB().ExecContext(ctx, query, a.ID, a.UserID, doc, a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert anamnese: %w", err)
	}
	return nil
}

func (r *anamneseRepository) Get(ctx context.Context, id, userID uuid.UUID) (a *model.Anamnese, err error) {
	defer func(start time.Time) { r.observe("anamnese_get", start, err) }(time.Now())

	var doc []byte
	query := `SELECT document FROM anamneses WHERE id = $1 AND user_id = $2`
	if err = r.GetDB().GetContext(ctx, &doc, query, id, userID); err != nil {
		return nil, notFound(err)
	}
	return decodeAnamnese(doc)
}

func (r *anamneseRepository) List(ctx context.Context, filter model.AnamneseFilter) (list []*model.Anamnese, err error) {
	defer func(start time.Time) { r.observe("anamnese_list", start, err) }(time.Now())

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	// strpos keeps the search literal: no pattern characters are interpreted.
	query := `
		SELECT document FROM anamneses
		WHERE user_id = $1
		AND (
			$2 = ''
			OR strpos(lower(document->'identificacao'->>'nome_completo'), lower($2)) > 0
			OR strpos(lower(document->'queixa_principal'->>'texto_entre_aspas'), lower($2)) > 0
		)
		ORDER BY created_at DESC, id
		LIMIT $3
	`
	var docs [][]byte
	if err = r.GetDB().SelectContext(ctx, &docs, query, filter.UserID, filter.Search, limit); err != nil {
		return nil, fmt.Errorf("failed to list anamneses: %w", err)
	}

	list = make([]*model.Anamnese, 0, len(docs))
	for _, doc := range docs {
		a, err := decodeAnamnese(doc)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, nil
}

func (r *anamneseRepository) Update(ctx context.Context, a *model.Anamnese) (err error) {
	defer func(start time.Time) { r.observe("anamnese_update", start, err) }(time.Now())

	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode anamnese: %w", err)
	}

	query := `
		UPDATE anamneses
		SET document = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.GetDB().ExecContext(ctx, query, a.ID, a.UserID, doc, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update anamnese: %w", err)
	}
	return expectOne(result)
}

func (r *anamneseRepository) Delete(ctx context.Context, id, userID uuid.UUID) (err error) {
	defer func(start time.Time) { r.observe("anamnese_delete", start, err) }(time.Now())

	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM anamneses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete anamnese: %w", err)
	}
	return expectOne(result)
}

func (r *anamneseRepository) SetSummary(ctx context.Context, id, userID uuid.UUID, summary string, updatedAt time.Time) (err error) {
	defer func(start time.Time) { r.observe("anamnese_set_summary", start, err) }(time.Now())

	stamp, err := json.Marshal(updatedAt)
	if err != nil {
		return fmt.Errorf("failed to encode timestamp: %w", err)
	}

	query := `
		UPDATE anamneses
		SET document = jsonb_set(
				jsonb_set(document, '{resumo_clinico_ia}', to_jsonb($3::text)),
				'{updated_at}', $4::jsonb
			),
			updated_at = $5
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.GetDB().ExecContext(ctx, query, id, userID, summary, string(stamp), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return expectOne(result)
}

func decodeAnamnese(doc []byte) (*model.Anamnese, error) {
	var a model.Anamnese
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("failed to decode anamnese: %w", err)
	}
	return &a, nil
}
