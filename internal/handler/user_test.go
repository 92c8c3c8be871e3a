package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/model"
)

func TestUserHandler_HandleGetAndMe(t *testing.T) {
	e := newEnv(t)

	rr := do(t, e.users.HandleMe, request{method: http.MethodGet, target: "/api/users/me", userID: e.testUser.ID})
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[model.UserProfile](t, rr)
	assert.Equal(t, "alice", me.Username)
	assert.False(t, me.IsSubscribed)

	rr = do(t, e.users.HandleGet, request{
		method: http.MethodGet, target: "/api/users/" + e.testUser.ID,
		params: map[string]string{"id": e.testUser.ID},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, e.testUser.ID, decode[model.UserProfile](t, rr).ID)

	rr = do(t, e.users.HandleGet, request{
		method: http.MethodGet, target: "/api/users/nobody",
		params: map[string]string{"id": "nobody"},
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUserHandler_HandleList(t *testing.T) {
	e := newEnv(t)
	e.register(t, "bob")
	e.register(t, "carol")

	rr := do(t, e.users.HandleList, request{method: http.MethodGet, target: "/api/users?limit=2"})
	require.Equal(t, http.StatusOK, rr.Code)

	users := decode[[]model.UserProfile](t, rr)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestUserHandler_Subscriptions(t *testing.T) {
	e := newEnv(t)
	bob := e.register(t, "bob")
	for _, name := range []string{"Stew", "Soup", "Pie"} {
		e.createRecipe(t, bob.ID, name)
	}
	params := map[string]string{"id": bob.ID}

	rr := do(t, e.users.HandleSubscribe, request{
		method: http.MethodPost, target: "/api/users/" + e.testUser.ID + "/subscribe",
		userID: e.testUser.ID, params: map[string]string{"id": e.testUser.ID},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apperror.CodeSelfReference, decode[handler.ErrorResponse](t, rr).Code)

	rr = do(t, e.users.HandleSubscribe, request{
		method: http.MethodPost, target: "/api/users/" + bob.ID + "/subscribe?recipes_limit=2",
		userID: e.testUser.ID, params: params,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	sub := decode[model.Subscription](t, rr)
	assert.Equal(t, bob.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Len(t, sub.Recipes, 2)
	assert.Equal(t, 3, sub.RecipesCount)

	rr = do(t, e.users.HandleSubscribe, request{
		method: http.MethodPost, target: "/api/users/" + bob.ID + "/subscribe",
		userID: e.testUser.ID, params: params,
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, e.users.HandleSubscriptions, request{
		method: http.MethodGet, target: "/api/users/subscriptions?recipes_limit=1", userID: e.testUser.ID,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	subs := decode[[]model.Subscription](t, rr)
	require.Len(t, subs, 1)
	assert.Len(t, subs[0].Recipes, 1)
	assert.Equal(t, "Pie", subs[0].Recipes[0].Name)

	rr = do(t, e.users.HandleGet, request{
		method: http.MethodGet, target: "/api/users/" + bob.ID, userID: e.testUser.ID, params: params,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[model.UserProfile](t, rr).IsSubscribed)

	rr = do(t, e.users.HandleUnsubscribe, request{
		method: http.MethodDelete, target: "/api/users/" + bob.ID + "/subscribe", userID: e.testUser.ID, params: params,
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, e.users.HandleUnsubscribe, request{
		method: http.MethodDelete, target: "/api/users/" + bob.ID + "/subscribe", userID: e.testUser.ID, params: params,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
