package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// In-memory implementations of the repository interfaces. They mimic the
// storage constraints the services rely on (unique fields, duplicate
// relations) and nothing more.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =========================================================================
// USERS
// =========================================================================

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
	// set to a non-nil error to simulate a database failure
	upsertErr  error
	getByIDErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) conflict(u *model.User, skipID string) error {
	for _, other := range f.users {
		if other.ID == skipID {
			continue
		}
		switch {
		case u.Email != "" && other.Email == u.Email:
			return apperror.AlreadyExists("user", "email", u.Email)
		case other.Username == u.Username:
			return apperror.AlreadyExists("user", "username", u.Username)
		case u.GitHubID != 0 && other.GitHubID == u.GitHubID:
			return apperror.AlreadyExists("user", "github account", fmt.Sprint(u.GitHubID))
		}
	}
	return nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if err := f.conflict(user, ""); err != nil {
		return err
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, existing := range f.users {
		if existing.GitHubID != 0 && existing.GitHubID == user.GitHubID {
			if user.Email != "" {
				probe := *existing
				probe.Email = user.Email
				if err := f.conflict(&probe, existing.ID); err != nil {
					return err
				}
				existing.Email = user.Email
			}
			*user = *existing
			return nil
		}
	}
	return f.CreateUser(ctx, user)
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// =========================================================================
// RELATIONS
// =========================================================================

type fakeRelationRepo struct {
	rels      []model.Relation
	createErr error
}

var _ repository.RelationRepository = (*fakeRelationRepo)(nil)

func (f *fakeRelationRepo) index(rel model.Relation) int {
	return slices.Index(f.rels, rel)
}

func (f *fakeRelationRepo) RelationExists(ctx context.Context, rel model.Relation) (bool, error) {
	return f.index(rel) >= 0, nil
}

func (f *fakeRelationRepo) CreateRelation(ctx context.Context, rel model.Relation) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.index(rel) >= 0 {
		return apperror.DuplicateRelation(rel.Kind.Label())
	}
	f.rels = append(f.rels, rel)
	return nil
}

func (f *fakeRelationRepo) DeleteRelation(ctx context.Context, rel model.Relation) error {
	i := f.index(rel)
	if i < 0 {
		return apperror.RelationNotFound(rel.Kind.Label())
	}
	f.rels = slices.Delete(f.rels, i, i+1)
	return nil
}

func (f *fakeRelationRepo) ListFollowedIDs(ctx context.Context, followerID string, opts repository.ListOptions) ([]string, error) {
	ids := []string{}
	for _, r := range f.rels {
		if r.Kind == model.Follow && r.SubjectID == followerID {
			ids = append(ids, r.ObjectID)
		}
	}
	return ids, nil
}

// =========================================================================
// RECIPES
// =========================================================================

type fakeRecipeRepo struct {
	recipes []*model.Recipe // creation order
	tags    map[string]bool
	nextID  int

	lastFilter repository.RecipeFilter
	replaced   int
}

var _ repository.RecipeRepository = (*fakeRecipeRepo)(nil)

func newFakeRecipeRepo(tagIDs ...string) *fakeRecipeRepo {
	f := &fakeRecipeRepo{tags: make(map[string]bool), nextID: 1}
	for _, id := range tagIDs {
		f.tags[id] = true
	}
	return f
}

func (f *fakeRecipeRepo) find(id string) *model.Recipe {
	for _, r := range f.recipes {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func apply(r *model.Recipe, d model.RecipeDraft) {
	r.Name = d.Name
	r.Text = d.Text
	if d.Image != "" {
		r.Image = d.Image
	}
	r.CookingTime = d.CookingTime
	r.Tags = make([]model.Tag, 0, len(d.TagIDs))
	for _, id := range d.TagIDs {
		r.Tags = append(r.Tags, model.Tag{ID: id})
	}
	r.Ingredients = make([]model.RecipeIngredient, 0, len(d.Ingredients))
	for _, l := range d.Ingredients {
		r.Ingredients = append(r.Ingredients, model.RecipeIngredient{IngredientID: l.IngredientID, Amount: l.Amount})
	}
}

func (f *fakeRecipeRepo) CreateRecipe(ctx context.Context, authorID string, draft model.RecipeDraft) (*model.Recipe, error) {
	r := &model.Recipe{ID: fmt.Sprintf("recipe-%d", f.nextID), AuthorID: authorID, CreatedAt: time.Now()}
	f.nextID++
	apply(r, draft)
	f.recipes = append(f.recipes, r)
	copied := *r
	return &copied, nil
}

func (f *fakeRecipeRepo) ReplaceRecipe(ctx context.Context, id string, draft model.RecipeDraft) error {
	r := f.find(id)
	if r == nil {
		return apperror.NotFound("recipe", id)
	}
	apply(r, draft)
	f.replaced++
	return nil
}

func (f *fakeRecipeRepo) GetRecipe(ctx context.Context, id, viewerID string) (*model.Recipe, error) {
	r := f.find(id)
	if r == nil {
		return nil, apperror.NotFound("recipe", id)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRecipeRepo) ListRecipes(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	f.lastFilter = filter
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	out := []model.Recipe{}
	for i := len(f.recipes) - 1; i >= 0 && len(out) < limit; i-- {
		r := f.recipes[i]
		if filter.AuthorID != "" && r.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRecipeRepo) CountRecipesByAuthor(ctx context.Context, authorID string) (int, error) {
	n := 0
	for _, r := range f.recipes {
		if r.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRecipeRepo) DeleteRecipe(ctx context.Context, id string) error {
	for i, r := range f.recipes {
		if r.ID == id {
			f.recipes = slices.Delete(f.recipes, i, i+1)
			return nil
		}
	}
	return apperror.NotFound("recipe", id)
}

func (f *fakeRecipeRepo) ExistingTags(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if f.tags[id] {
			out[id] = true
		}
	}
	return out, nil
}

// =========================================================================
// CATALOG
// =========================================================================

type fakeCatalog struct {
	tags        []model.Tag
	ingredients []model.Ingredient
	failAfter   int // GetOrCreateIngredient fails once this many calls succeeded; 0 never
	calls       int
}

var (
	_ repository.TagRepository        = (*fakeCatalog)(nil)
	_ repository.IngredientRepository = (*fakeCatalog)(nil)
)

func newFakeCatalog(ingredientIDs ...string) *fakeCatalog {
	f := &fakeCatalog{}
	for _, id := range ingredientIDs {
		f.ingredients = append(f.ingredients, model.Ingredient{ID: id, Name: id, Unit: "g"})
	}
	return f
}

func (f *fakeCatalog) CreateTag(ctx context.Context, tag *model.Tag) error {
	for _, t := range f.tags {
		if t.Slug == tag.Slug {
			return apperror.AlreadyExists("tag", "slug", tag.Slug)
		}
	}
	tag.ID = fmt.Sprintf("tag-%d", len(f.tags)+1)
	f.tags = append(f.tags, *tag)
	return nil
}

func (f *fakeCatalog) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	for _, t := range f.tags {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, apperror.NotFound("tag", id)
}

func (f *fakeCatalog) ListTags(ctx context.Context) ([]model.Tag, error) {
	return slices.Clone(f.tags), nil
}

func (f *fakeCatalog) GetOrCreateIngredient(ctx context.Context, ing *model.Ingredient) (bool, error) {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return false, fmt.Errorf("disk full")
	}
	for _, existing := range f.ingredients {
		if existing.Name == ing.Name && existing.Unit == ing.Unit {
			ing.ID = existing.ID
			return false, nil
		}
	}
	ing.ID = fmt.Sprintf("ing-%d", len(f.ingredients)+1)
	f.ingredients = append(f.ingredients, *ing)
	return true, nil
}

func (f *fakeCatalog) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	for _, i := range f.ingredients {
		if i.ID == id {
			return &i, nil
		}
	}
	return nil, apperror.NotFound("ingredient", id)
}

func (f *fakeCatalog) SearchIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	out := []model.Ingredient{}
	for _, i := range f.ingredients {
		if strings.HasPrefix(strings.ToLower(i.Name), strings.ToLower(namePrefix)) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ExistingIngredients(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		for _, i := range f.ingredients {
			if i.ID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

// =========================================================================
// CART
// =========================================================================

type fakeCart struct {
	lines map[string][]model.CartLine
	err   error
}

func (f *fakeCart) CartLines(ctx context.Context, userID string) ([]model.CartLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lines[userID], nil
}
