package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/service"
)

// CatalogHandler serves the read-only tag and ingredient catalogs. Neither
// list is paginated.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// HTTP: GET /api/tags
func (h *CatalogHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// HTTP: GET /api/tags/{id}
func (h *CatalogHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.catalog.GetTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// HandleListIngredients searches by name prefix.
//
// HTTP: GET /api/ingredients?name=
func (h *CatalogHandler) HandleListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.catalog.SearchIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

// HTTP: GET /api/ingredients/{id}
func (h *CatalogHandler) HandleGetIngredient(w http.ResponseWriter, r *http.Request) {
	ing, err := h.catalog.GetIngredient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ing)
}
