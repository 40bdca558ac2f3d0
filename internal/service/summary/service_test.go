package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/model/modeltest"
	"github.com/jwalitptl/anamnese-api/internal/repository"
	"github.com/jwalitptl/anamnese-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
	"github.com/jwalitptl/anamnese-api/pkg/llm"
	"github.com/jwalitptl/anamnese-api/pkg/metrics"
)

type mockGenerator struct {
	GenerateFn func(ctx context.Context, req llm.Request) (string, error)
}

var _ llm.Generator = (*mockGenerator)(nil)

func (m *mockGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	return m.GenerateFn(ctx, req)
}

var now = time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo repository.AnamneseRepository) (*model.User, *model.Anamnese) {
	t.Helper()
	user := &model.User{ID: uuid.New(), Email: "a@b.com"}
	rec := model.NewAnamnese(user.ID, modeltest.Input(t), now.Add(-time.Hour))
	require.NoError(t, repo.Create(context.Background(), rec))
	return user, rec
}

func TestGenerateStoresSummary(t *testing.T) {
	repo := memory.NewStore().Anamneses()
	user, rec := seed(t, repo)

	var got llm.Request
	gen := &mockGenerator{GenerateFn: func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return "Paciente feminina, 54 anos, com tosse seca.", nil
	}}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	svc := NewService(repo, gen, WithClock(func() time.Time { return now }), WithMetrics(m))

	text, err := svc.Generate(context.Background(), user, rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Paciente feminina, 54 anos, com tosse seca.", text)
	assert.Equal(t, SystemMessage, got.System)
	assert.Equal(t, "anamnese_"+rec.ID.String(), got.SessionKey)
	assert.Equal(t, BuildPrompt(rec), got.Prompt)

	stored, err := repo.Get(context.Background(), rec.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResumoClinicoIA)
	assert.Equal(t, text, *stored.ResumoClinicoIA)
	assert.True(t, stored.UpdatedAt.Equal(now))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryRequests.WithLabelValues("success")))
}

func TestGenerateProviderFailureStoresNothing(t *testing.T) {
	repo := memory.NewStore().Anamneses()
	user, rec := seed(t, repo)

	gen := &mockGenerator{GenerateFn: func(context.Context, llm.Request) (string, error) {
		return "", context.DeadlineExceeded
	}}
	svc := NewService(repo, gen)

	_, err := svc.Generate(context.Background(), user, rec.ID.String())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrExternalService, appErr.Code)
	assert.Zero(t, appErr.Status)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	stored, err := repo.Get(context.Background(), rec.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResumoClinicoIA)
	assert.True(t, stored.UpdatedAt.Equal(rec.UpdatedAt))
}

func TestGenerateUnknownRecord(t *testing.T) {
	repo := memory.NewStore().Anamneses()
	_, rec := seed(t, repo)
	called := false
	gen := &mockGenerator{GenerateFn: func(context.Context, llm.Request) (string, error) {
		called = true
		return "x", nil
	}}
	svc := NewService(repo, gen)

	stranger := &model.User{ID: uuid.New()}
	_, err := svc.Generate(context.Background(), stranger, rec.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	_, err = svc.Generate(context.Background(), stranger, "bogus")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.False(t, called)
}

func TestBuildPrompt(t *testing.T) {
	rec := model.NewAnamnese(uuid.New(), modeltest.Input(t), now)
	prompt := BuildPrompt(rec)

	assert.Contains(t, prompt, "Nome: Maria Aparecida Souza")
	assert.Contains(t, prompt, "Idade: 54 anos")
	assert.Contains(t, prompt, "Início: há 3 semanas")
	assert.Contains(t, prompt, "Crônicos: hipertensão")
	assert.Contains(t, prompt, "Alergias: Nenhuma")
	assert.Contains(t, prompt, "Medicações: Nenhuma")
	assert.Contains(t, prompt, "Tabagismo: ex (carga tabágica: 12.5 pack-years)")
	assert.Contains(t, prompt, "Etilismo: 2 doses/semana")
	assert.Contains(t, prompt, "Atividade física: Nenhuma")
	assert.True(t, strings.HasSuffix(prompt, "diagnóstico e conduta."))
	assert.Equal(t, prompt, BuildPrompt(rec))

	rec.Antecedentes.Pessoais.Cronicos = nil
	rec.Antecedentes.Pessoais.Alergias = []model.Alergia{{Agente: "dipirona", Reacao: "urticária"}, {Agente: "látex", Reacao: "prurido"}}
	rec.Antecedentes.Pessoais.MedicacoesUso = []model.Medicacao{{Nome: "losartana", Dose: "50mg", Posologia: "1x/dia"}}
	prompt = BuildPrompt(rec)
	assert.Contains(t, prompt, "Crônicos: Nenhum")
	assert.Contains(t, prompt, "Alergias: dipirona (urticária), látex (prurido)")
	assert.Contains(t, prompt, "Medicações: losartana 50mg 1x/dia")

	rec.Habitos.AtividadeFisica.Tipo = "caminhada"
	assert.Contains(t, BuildPrompt(rec), "Atividade física: caminhada")
}
