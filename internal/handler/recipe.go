package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/service"
	"github.com/sakif/foodgram/internal/shopping"
)

// RecipeHandler serves recipes, favourites, the shopping cart and its
// download.
type RecipeHandler struct {
	recipes   *service.RecipeService
	relations *service.RelationService
	shopping  *service.ShoppingService
	logger    *slog.Logger
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	relations *service.RelationService,
	shopping *service.ShoppingService,
	logger *slog.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		relations: relations,
		shopping:  shopping,
		logger:    logger,
	}
}

// recipeRequest is the body of create and update. Both replace everything:
// fields left out are stored empty, except image, which is kept on update.
type recipeRequest struct {
	Name        string                 `json:"name"`
	Text        string                 `json:"text"`
	Image       string                 `json:"image"`
	CookingTime int                    `json:"cooking_time"`
	Tags        []string               `json:"tags"`
	Ingredients []model.IngredientLine `json:"ingredients"`
}

func (req recipeRequest) draft() model.RecipeDraft {
	return model.RecipeDraft{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: req.Ingredients,
	}
}

// HandleList lists recipes newest first.
//
// HTTP: GET /api/recipes?author=&tags=&is_favorited=&is_in_shopping_cart=&limit=&offset=
//
// tags may repeat (?tags=lunch&tags=dinner) or be comma-separated; a recipe
// matches when it carries any of them.
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())

	q := r.URL.Query()
	var slugs []string
	for _, v := range q["tags"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				slugs = append(slugs, s)
			}
		}
	}

	recipes, err := h.recipes.List(r.Context(), repository.RecipeFilter{
		ListOptions:   opts,
		AuthorID:      q.Get("author"),
		TagSlugs:      slugs,
		ViewerID:      viewerID,
		OnlyFavorited: queryFlag(r, "is_favorited"),
		OnlyInCart:    queryFlag(r, "is_in_shopping_cart"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// HTTP: GET /api/recipes/{id}
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	recipe, err := h.recipes.Get(r.Context(), chi.URLParam(r, "id"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// HTTP: POST /api/recipes → 201
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), userID, req.draft())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// HTTP: PATCH /api/recipes/{id}
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), userID, chi.URLParam(r, "id"), req.draft())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// HTTP: DELETE /api/recipes/{id} → 204
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.recipes.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdd returns a handler that stars the recipe or puts it in the cart,
// depending on kind, and responds with the recipe summary.
//
// HTTP: POST /api/recipes/{id}/favorite, POST /api/recipes/{id}/shopping_cart → 201
func (h *RecipeHandler) HandleAdd(kind model.RelationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserIDFromContext(r.Context())
		recipeID := chi.URLParam(r, "id")

		rel := model.Relation{Kind: kind, SubjectID: userID, ObjectID: recipeID}
		if err := h.relations.Create(r.Context(), rel); err != nil {
			writeError(w, err)
			return
		}

		recipe, err := h.recipes.Get(r.Context(), recipeID, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, recipe.Summary())
	}
}

// HandleRemove is the DELETE counterpart of HandleAdd.
//
// HTTP: DELETE /api/recipes/{id}/favorite, DELETE /api/recipes/{id}/shopping_cart → 204
func (h *RecipeHandler) HandleRemove(kind model.RelationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserIDFromContext(r.Context())

		rel := model.Relation{Kind: kind, SubjectID: userID, ObjectID: chi.URLParam(r, "id")}
		if err := h.relations.Delete(r.Context(), rel); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDownloadShoppingCart sends the aggregated shopping list as a text
// file. The list is rendered into memory first so a storage error can still
// be reported as JSON.
//
// HTTP: GET /api/recipes/download_shopping_cart
func (h *RecipeHandler) HandleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var buf bytes.Buffer
	if err := h.shopping.Export(r.Context(), userID, &buf); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+shopping.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("shopping list download interrupted", slog.String("error", err.Error()))
	}
}
