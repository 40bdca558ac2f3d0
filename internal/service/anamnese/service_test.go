package anamnese

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/anamnese-api/internal/model"
	"github.com/jwalitptl/anamnese-api/internal/model/modeltest"
	"github.com/jwalitptl/anamnese-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
	"github.com/jwalitptl/anamnese-api/pkg/messaging"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService() (*Service, *recordingPublisher, *clock) {
	pub := &recordingPublisher{}
	c := &clock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	return NewService(memory.NewStore().Anamneses(), WithPublisher(pub), WithClock(c.now)), pub, c
}

func newUser() *model.User {
	return &model.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "Dr. Teste"}
}

func TestCreateAssignsOwnerAndAudit(t *testing.T) {
	svc, pub, c := newTestService()
	ctx := context.Background()
	user := newUser()

	created, err := svc.Create(ctx, user, modeltest.Input(t))
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.UserID)
	assert.True(t, created.CreatedAt.Equal(c.t))
	assert.True(t, created.UpdatedAt.Equal(c.t))
	assert.Equal(t, 1, created.Auditoria.VersaoRegistro)
	assert.Equal(t, []string{messaging.EventAnamneseCreated}, pub.events)

	got, err := svc.Get(ctx, user, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, created.Identificacao, got.Identificacao)
}

func TestCreateIgnoresOwnerInPayload(t *testing.T) {
	svc, _, c := newTestService()
	body := modeltest.Body()
	body["user_id"] = uuid.NewString()
	body["id"] = uuid.NewString()
	in, err := model.ValidateInput(modeltest.JSON(t, body), c.t)
	require.NoError(t, err)

	user := newUser()
	created, err := svc.Create(context.Background(), user, in)
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.UserID)
	assert.NotEqual(t, body["id"], created.ID.String())
}

func TestOtherOwnersRecordsAreNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner, intruder := newUser(), newUser()

	created, err := svc.Create(ctx, owner, modeltest.Input(t))
	require.NoError(t, err)
	id := created.ID.String()

	_, err = svc.Get(ctx, intruder, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Update(ctx, intruder, id, &model.AnamnesePatch{})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = svc.Delete(ctx, intruder, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	list, err := svc.List(ctx, intruder, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	// the owner still sees it untouched
	_, err = svc.Get(ctx, owner, id)
	assert.NoError(t, err)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Get(context.Background(), newUser(), "not-a-uuid")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	err = svc.Delete(context.Background(), newUser(), "../../etc")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateMergesSections(t *testing.T) {
	svc, pub, c := newTestService()
	ctx := context.Background()
	user := newUser()

	created, err := svc.Create(ctx, user, modeltest.Input(t))
	require.NoError(t, err)

	c.advance(time.Minute)
	patch, err := model.ValidatePatch([]byte(`{"habitos":{"tabagismo":{"status":"atual","macos_dia":1,"anos":30,"carga_tabagica_packyears":30}}}`), c.t)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, user, created.ID.String(), patch)
	require.NoError(t, err)
	assert.Equal(t, "atual", updated.Habitos.Tabagismo.Status)
	assert.Equal(t, created.Identificacao, updated.Identificacao)
	assert.Equal(t, created.HDA, updated.HDA)
	assert.True(t, updated.UpdatedAt.Equal(c.t))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	got, err := svc.Get(ctx, user, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Habitos.Tabagismo.CargaTabagicaPackyears)
	assert.Equal(t, []string{messaging.EventAnamneseCreated, messaging.EventAnamneseUpdated}, pub.events)
}

func TestDeleteIsPermanent(t *testing.T) {
	svc, pub, _ := newTestService()
	ctx := context.Background()
	user := newUser()

	created, err := svc.Create(ctx, user, modeltest.Input(t))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user, created.ID.String()))
	_, err = svc.Get(ctx, user, created.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	err = svc.Delete(ctx, user, created.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, []string{messaging.EventAnamneseCreated, messaging.EventAnamneseDeleted}, pub.events)
}

func TestListSearchAndOrder(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()
	user := newUser()

	cough, err := svc.Create(ctx, user, modeltest.Named(t, "Pedro Alves", "Tosse seca"))
	require.NoError(t, err)
	c.advance(time.Hour)
	named, err := svc.Create(ctx, user, modeltest.Named(t, "Tossenildo Ramos", "dor no peito"))
	require.NoError(t, err)
	c.advance(time.Hour)
	_, err = svc.Create(ctx, user, modeltest.Named(t, "Joana Dias", "febre"))
	require.NoError(t, err)

	all, err := svc.List(ctx, user, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Joana Dias", all[0].Identificacao.NomeCompleto)

	found, err := svc.List(ctx, user, "tosse")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, named.ID, found[0].ID)
	assert.Equal(t, cough.ID, found[1].ID)

	none, err := svc.List(ctx, user, "t.*e")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPublishFailureDoesNotFailTheWrite(t *testing.T) {
	svc, pub, _ := newTestService()
	pub.err = errors.New("broker down")

	created, err := svc.Create(context.Background(), newUser(), modeltest.Input(t))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}
