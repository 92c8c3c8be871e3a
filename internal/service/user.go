package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// UserService renders users as seen by a viewer: profiles with the
// is_subscribed flag and the subscriptions page.
type UserService struct {
	users     repository.UserRepository
	relations repository.RelationRepository
	recipes   repository.RecipeRepository
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	relations repository.RelationRepository,
	recipes repository.RecipeRepository,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		relations: relations,
		recipes:   recipes,
		logger:    logger,
	}
}

// Profile returns user id with is_subscribed set for viewerID. An empty
// viewerID (anonymous caller) is never subscribed.
func (s *UserService) Profile(ctx context.Context, viewerID, id string) (*model.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching %s: %w", id, err)
	}
	subscribed, err := s.isSubscribed(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{User: *user, IsSubscribed: subscribed}, nil
}

// List pages through all users in sign-up order.
func (s *UserService) List(ctx context.Context, viewerID string, opts repository.ListOptions) ([]model.UserProfile, error) {
	users, err := s.users.ListUsers(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}

	out := make([]model.UserProfile, 0, len(users))
	for _, u := range users {
		subscribed, err := s.isSubscribed(ctx, viewerID, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.UserProfile{User: u, IsSubscribed: subscribed})
	}
	return out, nil
}

// Subscriptions lists the authors followerID follows, in follow order, each
// with up to recipesLimit of their newest recipes. recipesLimit <= 0 means
// the default page size.
func (s *UserService) Subscriptions(ctx context.Context, followerID string, opts repository.ListOptions, recipesLimit int) ([]model.Subscription, error) {
	ids, err := s.relations.ListFollowedIDs(ctx, followerID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing subscriptions: %w", err)
	}

	out := make([]model.Subscription, 0, len(ids))
	for _, id := range ids {
		sub, err := s.subscription(ctx, followerID, id, recipesLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, nil
}

// Subscription renders a single followed author, as returned after a
// successful subscribe.
func (s *UserService) Subscription(ctx context.Context, followerID, authorID string, recipesLimit int) (*model.Subscription, error) {
	return s.subscription(ctx, followerID, authorID, recipesLimit)
}

func (s *UserService) subscription(ctx context.Context, followerID, authorID string, recipesLimit int) (*model.Subscription, error) {
	profile, err := s.Profile(ctx, followerID, authorID)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.ListRecipes(ctx, repository.RecipeFilter{
		ListOptions: repository.ListOptions{Limit: recipesLimit},
		AuthorID:    authorID,
		ViewerID:    followerID,
	})
	if err != nil {
		return nil, fmt.Errorf("service/user: listing recipes of %s: %w", authorID, err)
	}
	count, err := s.recipes.CountRecipesByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("service/user: counting recipes of %s: %w", authorID, err)
	}

	summaries := make([]model.RecipeSummary, len(recipes))
	for i := range recipes {
		summaries[i] = recipes[i].Summary()
	}
	return &model.Subscription{
		UserProfile:  *profile,
		Recipes:      summaries,
		RecipesCount: count,
	}, nil
}

func (s *UserService) isSubscribed(ctx context.Context, viewerID, authorID string) (bool, error) {
	if viewerID == "" || viewerID == authorID {
		return false, nil
	}
	ok, err := s.relations.RelationExists(ctx, model.Relation{
		Kind:      model.Follow,
		SubjectID: viewerID,
		ObjectID:  authorID,
	})
	if err != nil {
		return false, fmt.Errorf("service/user: checking subscription: %w", err)
	}
	return ok, nil
}
