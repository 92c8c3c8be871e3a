package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/metrics"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/policy"
	"github.com/sakif/foodgram/internal/repository"
)

// RelationService creates and removes follows, favourites and cart entries.
//
// Each write checks that the target exists, asks policy whether the change is
// allowed given the current state, then writes. Storage constraints catch
// the race where two identical requests both pass the check.
type RelationService struct {
	relations repository.RelationRepository
	users     repository.UserRepository
	recipes   repository.RecipeRepository
	logger    *slog.Logger
}

func NewRelationService(
	relations repository.RelationRepository,
	users repository.UserRepository,
	recipes repository.RecipeRepository,
	logger *slog.Logger,
) *RelationService {
	return &RelationService{
		relations: relations,
		users:     users,
		recipes:   recipes,
		logger:    logger,
	}
}

// Create adds rel. Following yourself is rejected before anything else.
func (s *RelationService) Create(ctx context.Context, rel model.Relation) error {
	if rel.Kind == model.Follow && rel.SubjectID == rel.ObjectID {
		return policy.CheckFollow(rel.SubjectID, rel.ObjectID, false)
	}
	if err := s.targetExists(ctx, rel); err != nil {
		return err
	}

	exists, err := s.relations.RelationExists(ctx, rel)
	if err != nil {
		return fmt.Errorf("service/relation: %w", err)
	}
	if err := policy.CheckCreate(rel, exists); err != nil {
		return err
	}

	if err := s.relations.CreateRelation(ctx, rel); err != nil {
		return fmt.Errorf("service/relation: creating %s: %w", rel.Kind, err)
	}

	metrics.RecordRelationChange(string(rel.Kind), "create")
	s.logger.Info("relation created",
		slog.String("kind", string(rel.Kind)),
		slog.String("subject", rel.SubjectID),
		slog.String("object", rel.ObjectID),
	)
	return nil
}

// Delete removes rel. Removing a relation that does not exist is an error,
// never a silent success.
func (s *RelationService) Delete(ctx context.Context, rel model.Relation) error {
	if err := s.targetExists(ctx, rel); err != nil {
		return err
	}

	exists, err := s.relations.RelationExists(ctx, rel)
	if err != nil {
		return fmt.Errorf("service/relation: %w", err)
	}
	if err := policy.CheckDelete(rel.Kind, exists); err != nil {
		return err
	}

	if err := s.relations.DeleteRelation(ctx, rel); err != nil {
		return fmt.Errorf("service/relation: deleting %s: %w", rel.Kind, err)
	}

	metrics.RecordRelationChange(string(rel.Kind), "delete")
	s.logger.Info("relation deleted",
		slog.String("kind", string(rel.Kind)),
		slog.String("subject", rel.SubjectID),
		slog.String("object", rel.ObjectID),
	)
	return nil
}

func (s *RelationService) targetExists(ctx context.Context, rel model.Relation) error {
	var err error
	switch rel.Kind {
	case model.Follow:
		_, err = s.users.GetUserByID(ctx, rel.ObjectID)
	case model.Favourite, model.Purchase:
		_, err = s.recipes.GetRecipe(ctx, rel.ObjectID, "")
	default:
		return apperror.ValidationFailed("kind", "unknown relation kind "+string(rel.Kind))
	}
	if err != nil {
		return fmt.Errorf("service/relation: %w", err)
	}
	return nil
}
