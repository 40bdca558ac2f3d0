package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/model/modeltest"
)

func TestNewAnamnese(t *testing.T) {
	owner := uuid.New()
	rec := model.NewAnamnese(owner, modeltest.Input(t), now)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, owner, rec.UserID)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, now, rec.UpdatedAt)
	assert.Equal(t, now, rec.Auditoria.DataHoraAnamnese)
	assert.Equal(t, model.RecordFormatVersion, rec.Auditoria.VersaoRegistro)
	assert.Nil(t, rec.ResumoClinicoIA)
}

func TestMergePartialReplacesOnlyPresentSections(t *testing.T) {
	existing := model.NewAnamnese(uuid.New(), modeltest.Input(t), now)
	summary := "resumo anterior"
	existing.ResumoClinicoIA = &summary

	patch, err := model.ValidatePatch([]byte(`{"habitos":{"etilismo":{"doses_semana":7}}}`), now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	merged := model.MergePartial(existing, patch, later)

	assert.Equal(t, 7, merged.Habitos.Etilismo.DosesSemana)
	assert.Equal(t, "nunca", merged.Habitos.Tabagismo.Status)
	assert.Equal(t, existing.Identificacao, merged.Identificacao)
	assert.Equal(t, existing.QueixaPrincipal, merged.QueixaPrincipal)
	assert.Equal(t, existing.HDA, merged.HDA)
	assert.Equal(t, existing.Antecedentes, merged.Antecedentes)
	assert.Equal(t, existing.Psicossocial, merged.Psicossocial)
	assert.Equal(t, existing.Meta, merged.Meta)
	assert.Equal(t, existing.ID, merged.ID)
	assert.Equal(t, existing.UserID, merged.UserID)
	assert.Equal(t, existing.CreatedAt, merged.CreatedAt)
	assert.Equal(t, existing.Auditoria, merged.Auditoria)
	assert.Equal(t, &summary, merged.ResumoClinicoIA)
	assert.Equal(t, later, merged.UpdatedAt)

	// the input record is left as it was
	assert.Equal(t, 2, existing.Habitos.Etilismo.DosesSemana)
	assert.Equal(t, now, existing.UpdatedAt)
}

func TestMergePartialNeverMovesUpdatedAtBackwards(t *testing.T) {
	existing := model.NewAnamnese(uuid.New(), modeltest.Input(t), now)

	merged := model.MergePartial(existing, &model.AnamnesePatch{}, now.Add(-time.Minute))
	assert.Equal(t, now, merged.UpdatedAt)
	assert.False(t, merged.UpdatedAt.Before(merged.CreatedAt))
}

func TestMatchesSearch(t *testing.T) {
	rec := model.NewAnamnese(uuid.New(), modeltest.Named(t, "José Tosse Lima", "dor lombar"), now)

	assert.True(t, rec.MatchesSearch(""))
	assert.True(t, rec.MatchesSearch("tosse"))
	assert.True(t, rec.MatchesSearch("LOMBAR"))
	assert.False(t, rec.MatchesSearch("febre"))
	assert.False(t, rec.MatchesSearch("a.*"))
}

func TestSessionExpired(t *testing.T) {
	s := model.Session{ExpiresAt: now}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Second)))
}
