package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

// CatalogService serves tags and ingredients. Both are read-only over HTTP;
// the CLI fills them.
type CatalogService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	logger      *slog.Logger
}

func NewCatalogService(
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		tags:        tags,
		ingredients: ingredients,
		logger:      logger,
	}
}

// TagInput describes a new tag.
type TagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"required,slug,max=200"`
}

func (s *CatalogService) CreateTag(ctx context.Context, in TagInput) (*model.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.ToUpper(strings.TrimSpace(in.Color))
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}

	tag := &model.Tag{Name: in.Name, Color: in.Color, Slug: in.Slug}
	if err := s.tags.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("service/catalog: creating tag: %w", err)
	}

	s.logger.Info("tag created", slog.String("id", tag.ID), slog.String("slug", tag.Slug))
	return tag, nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: %w", err)
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	tag, err := s.tags.GetTag(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: %w", err)
	}
	return tag, nil
}

// SearchIngredients returns catalog entries whose name starts with prefix,
// ignoring case. An empty prefix returns the whole catalog.
func (s *CatalogService) SearchIngredients(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	out, err := s.ingredients.SearchIngredients(ctx, strings.TrimSpace(prefix))
	if err != nil {
		return nil, fmt.Errorf("service/catalog: %w", err)
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	ing, err := s.ingredients.GetIngredient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: %w", err)
	}
	return ing, nil
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// ImportIngredients reads "name,unit" CSV rows and adds every pair not yet
// in the catalog. Running it twice on the same file creates nothing the
// second time. Blank rows are skipped; a row with another field count stops
// the import with its line number. Rows before the bad one stay imported.
func (s *CatalogService) ImportIngredients(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("service/catalog: reading csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) != 2 {
			return res, apperror.ValidationFailed("file",
				fmt.Sprintf("line %d: want 2 fields (name, unit), got %d", line, len(record)))
		}

		ing := &model.Ingredient{
			Name: strings.TrimSpace(record[0]),
			Unit: strings.TrimSpace(record[1]),
		}
		if ing.Name == "" || ing.Unit == "" {
			return res, apperror.ValidationFailed("file",
				fmt.Sprintf("line %d: name and unit must not be empty", line))
		}

		created, err := s.ingredients.GetOrCreateIngredient(ctx, ing)
		if err != nil {
			return res, fmt.Errorf("service/catalog: line %d: %w", line, err)
		}
		if created {
			res.Created++
		} else {
			res.Existing++
		}
	}

	s.logger.Info("ingredients imported",
		slog.Int("created", res.Created),
		slog.Int("existing", res.Existing),
	)
	return res, nil
}
