package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/model"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

const testPassword = "correct-horse"

// env is a full handler stack over an in-memory database.
type env struct {
	db       *sqliteRepo.DB
	auth     *service.AuthService
	authH    *handler.AuthHandler
	users    *handler.UserHandler
	recipes  *handler.RecipeHandler
	catalog  *handler.CatalogHandler
	tagIDs   []string
	ingIDs   []string
	testUser *model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	authService := service.NewAuthService(db, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost), logger)
	userService := service.NewUserService(db, db, db, logger)
	relationService := service.NewRelationService(db, db, db, logger)
	recipeService := service.NewRecipeService(db, db, db, logger)
	catalogService := service.NewCatalogService(db, db, logger)
	shoppingService := service.NewShoppingService(db, logger)

	e := &env{
		db:      db,
		auth:    authService,
		authH:   handler.NewAuthHandler(authService, nil, logger),
		users:   handler.NewUserHandler(userService, relationService, logger),
		recipes: handler.NewRecipeHandler(recipeService, relationService, shoppingService, logger),
		catalog: handler.NewCatalogHandler(catalogService),
	}

	ctx := context.Background()
	for _, tag := range []model.Tag{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Dinner", Color: "#49B64E", Slug: "dinner"},
	} {
		require.NoError(t, db.CreateTag(ctx, &tag))
		e.tagIDs = append(e.tagIDs, tag.ID)
	}
	for _, ing := range []model.Ingredient{
		{Name: "flour", Unit: "g"},
		{Name: "milk", Unit: "ml"},
	} {
		_, err := db.GetOrCreateIngredient(ctx, &ing)
		require.NoError(t, err)
		e.ingIDs = append(e.ingIDs, ing.ID)
	}

	e.testUser = e.register(t, "alice")
	return e
}

func (e *env) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), service.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  testPassword,
	})
	require.NoError(t, err)
	return u
}

// request describes one call against a handler.
type request struct {
	method string
	target string
	body   any
	userID string            // empty for anonymous
	params map[string]string // chi URL params
}

// do runs h on the request, filling in the chi route context and the
// authenticated user the way the router and auth middleware would.
func do(t *testing.T, h http.HandlerFunc, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := r.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(r.method, r.target, body)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range r.params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if r.userID != "" {
		ctx = auth.WithUserID(ctx, r.userID)
	}

	rr := httptest.NewRecorder()
	h(rr, req.WithContext(ctx))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

// recipeBody is a valid create request using the seeded catalog.
func (e *env) recipeBody(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"text":         "Mix and bake.",
		"image":        "data:image/png;base64,AAAA",
		"cooking_time": 25,
		"tags":         []string{e.tagIDs[0]},
		"ingredients": []map[string]any{
			{"id": e.ingIDs[0], "amount": 200},
			{"id": e.ingIDs[1], "amount": 300},
		},
	}
}

func (e *env) createRecipe(t *testing.T, userID, name string) model.Recipe {
	t.Helper()
	rr := do(t, e.recipes.HandleCreate, request{
		method: http.MethodPost, target: "/api/recipes", body: e.recipeBody(name), userID: userID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[model.Recipe](t, rr)
}
