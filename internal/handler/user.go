package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

// UserHandler serves profiles, subscriptions and subscribe/unsubscribe.
type UserHandler struct {
	users     *service.UserService
	relations *service.RelationService
	logger    *slog.Logger
}

func NewUserHandler(users *service.UserService, relations *service.RelationService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:     users,
		relations: relations,
		logger:    logger,
	}
}

// HandleList pages through users.
//
// HTTP: GET /api/users?limit=&offset=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())

	users, err := h.users.List(r.Context(), viewerID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), viewerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleMe returns the caller's own profile.
//
// HTTP: GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), userID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleSubscriptions lists the authors the caller follows.
//
// HTTP: GET /api/users/subscriptions?limit=&offset=&recipes_limit=
func (h *UserHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recipesLimit, err := queryInt(r, "recipes_limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	subs, err := h.users.Subscriptions(r.Context(), userID, opts, recipesLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// HandleSubscribe follows an author and returns the new subscription.
//
// HTTP: POST /api/users/{id}/subscribe?recipes_limit= → 201
func (h *UserHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	authorID := chi.URLParam(r, "id")

	recipesLimit, err := queryInt(r, "recipes_limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	rel := model.Relation{Kind: model.Follow, SubjectID: userID, ObjectID: authorID}
	if err := h.relations.Create(r.Context(), rel); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.users.Subscription(r.Context(), userID, authorID, recipesLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// HandleUnsubscribe stops following an author.
//
// HTTP: DELETE /api/users/{id}/subscribe → 204
func (h *UserHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	rel := model.Relation{Kind: model.Follow, SubjectID: userID, ObjectID: chi.URLParam(r, "id")}
	if err := h.relations.Delete(r.Context(), rel); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
