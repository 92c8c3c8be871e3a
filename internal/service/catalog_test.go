package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/apperror"
)

func TestCatalogService_CreateTag(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewCatalogService(catalog, catalog, testLogger())

	tag, err := svc.CreateTag(context.Background(), TagInput{Name: " Breakfast ", Color: "#e26c2d", Slug: "breakfast"})

	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)
	assert.Equal(t, "Breakfast", tag.Name)
	assert.Equal(t, "#E26C2D", tag.Color)

	_, err = svc.CreateTag(context.Background(), TagInput{Name: "Again", Color: "#000000", Slug: "breakfast"})
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestCatalogService_CreateTag_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		in        TagInput
		wantField string
	}{
		{"no name", TagInput{Color: "#FFFFFF", Slug: "x"}, "name"},
		{"short colour", TagInput{Name: "X", Color: "#FFF", Slug: "x"}, "color"},
		{"not a colour", TagInput{Name: "X", Color: "orange", Slug: "x"}, "color"},
		{"bad slug", TagInput{Name: "X", Color: "#FFFFFF", Slug: "two words"}, "slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newFakeCatalog()
			svc := NewCatalogService(catalog, catalog, testLogger())

			_, err := svc.CreateTag(context.Background(), tt.in)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr), "got %v", err)
			require.NotEmpty(t, appErr.Violations)
			assert.Equal(t, tt.wantField, appErr.Violations[0].Field)
			assert.Empty(t, catalog.tags)
		})
	}
}

func TestCatalogService_ImportIngredients(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewCatalogService(catalog, catalog, testLogger())
	csv := "абрикосовое варенье,г\n" +
		"\n" +
		"\"соль, морская\",г\n" +
		"соль,щепотка\n"

	res, err := svc.ImportIngredients(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 3}, res)

	res, err = svc.ImportIngredients(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Existing: 3}, res, "second run is idempotent")

	found, err := svc.SearchIngredients(context.Background(), "Соль")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestCatalogService_ImportIngredients_BadRow(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewCatalogService(catalog, catalog, testLogger())

	res, err := svc.ImportIngredients(context.Background(), strings.NewReader("мука,г\nсахар\nмолоко,мл\n"))

	require.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, res.Created, "rows before the bad one are kept")
}

func TestCatalogService_ImportIngredients_StorageError(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.failAfter = 1
	svc := NewCatalogService(catalog, catalog, testLogger())

	_, err := svc.ImportIngredients(context.Background(), strings.NewReader("мука,г\nсахар,г\n"))

	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrValidation))
}

func TestCatalogService_Lookups(t *testing.T) {
	catalog := newFakeCatalog("flour")
	svc := NewCatalogService(catalog, catalog, testLogger())

	ing, err := svc.GetIngredient(context.Background(), "flour")
	require.NoError(t, err)
	assert.Equal(t, "g", ing.Unit)

	_, err = svc.GetIngredient(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = svc.GetTag(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	tags, err := svc.ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}
