package validator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
)

type item struct {
	Name  string `json:"name" schema:"required"`
	Notes string `json:"notes"`
}

type document struct {
	Title  string                 `json:"title" schema:"required"`
	Level  string                 `json:"level" default:"low" validate:"oneof=low high"`
	Items  []item                 `json:"items"`
	Extras map[string]interface{} `json:"extras"`
	Seen   time.Time              `json:"seen" default:"now"`
}

func TestCheckRequiredDropsUndeclaredKeys(t *testing.T) {
	body := []byte(`{"title":"a","Title":"b","items":[{"name":"x","NAME":"y","other":1}],"extras":{"Free":2.5},"unknown":true}`)

	out, err := CheckRequired(body, &document{})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, map[string]interface{}{
		"title":  "a",
		"items":  []interface{}{map[string]interface{}{"name": "x"}},
		"extras": map[string]interface{}{"Free": 2.5},
	}, raw)

	var doc document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "a", doc.Title)
	assert.Equal(t, "x", doc.Items[0].Name)
}

func TestCheckRequiredIsCaseSensitive(t *testing.T) {
	_, err := CheckRequired([]byte(`{"TITLE":"a"}`), &document{})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "title", appErr.Field)
	assert.Equal(t, "required", appErr.Constraint)

	_, err = CheckRequired([]byte(`{"title":"a","items":[{"Name":"x"}]}`), &document{})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "items[0].name", appErr.Field)
}

func TestCheckRequiredMalformed(t *testing.T) {
	_, err := CheckRequired([]byte(`{"title":`), &document{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "json", appErr.Constraint)

	_, err = CheckRequired([]byte(`null`), &document{})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "body", appErr.Field)
}

func TestApplyDefaultsAndValidate(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	doc := document{Title: "a"}
	require.NoError(t, ApplyDefaults(&doc, now))
	assert.Equal(t, "low", doc.Level)
	assert.Equal(t, now, doc.Seen)
	assert.NotNil(t, doc.Items)
	assert.NoError(t, New().Validate(&doc))

	doc.Level = "medium"
	err := New().Validate(&doc)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "level", appErr.Field)
	assert.Equal(t, "oneof=low high", appErr.Constraint)
}
