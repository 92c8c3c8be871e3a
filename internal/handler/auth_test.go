package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/handler"
)

func TestAuthHandler_HandleRegister(t *testing.T) {
	e := newEnv(t)

	t.Run("created", func(t *testing.T) {
		rr := do(t, e.authH.HandleRegister, request{
			method: http.MethodPost,
			target: "/api/users",
			body: map[string]string{
				"email": "Bob@Example.com", "username": "bob",
				"first_name": "Bob", "last_name": "Builder", "password": testPassword,
			},
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		body := decode[map[string]any](t, rr)
		assert.Equal(t, "bob@example.com", body["email"])
		assert.NotEmpty(t, body["id"])
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "password_hash")
	})

	t.Run("duplicate email", func(t *testing.T) {
		rr := do(t, e.authH.HandleRegister, request{
			method: http.MethodPost,
			target: "/api/users",
			body: map[string]string{
				"email": "alice@example.com", "username": "alice2",
				"first_name": "A", "last_name": "B", "password": testPassword,
			},
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "email", decode[handler.ErrorResponse](t, rr).Field)
	})

	t.Run("invalid fields", func(t *testing.T) {
		rr := do(t, e.authH.HandleRegister, request{
			method: http.MethodPost,
			target: "/api/users",
			body:   map[string]string{"email": "nope", "username": "carol", "password": "short"},
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)

		resp := decode[handler.ErrorResponse](t, rr)
		assert.Equal(t, "validation_error", resp.Error)
		fields := make([]string, 0, len(resp.Violations))
		for _, v := range resp.Violations {
			fields = append(fields, v.Field)
		}
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "first_name")
	})

	t.Run("malformed json", func(t *testing.T) {
		rr := do(t, e.authH.HandleRegister, request{method: http.MethodPost, target: "/api/users", body: `{"email":`})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	e := newEnv(t)

	rr := do(t, e.authH.HandleLogin, request{
		method: http.MethodPost,
		target: "/api/auth/token/login",
		body:   map[string]string{"email": "alice@example.com", "password": testPassword},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	token := decode[map[string]string](t, rr)["auth_token"]
	require.NotEmpty(t, token)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	userID, err := e.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, e.testUser.ID, userID)

	for _, body := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": testPassword},
	} {
		rr := do(t, e.authH.HandleLogin, request{method: http.MethodPost, target: "/api/auth/token/login", body: body})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid email or password", decode[handler.ErrorResponse](t, rr).Message)
	}
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	e := newEnv(t)

	rr := do(t, e.authH.HandleLogout, request{method: http.MethodPost, target: "/api/auth/token/logout", userID: e.testUser.ID})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthHandler_HandleSetPassword(t *testing.T) {
	e := newEnv(t)

	rr := do(t, e.authH.HandleSetPassword, request{
		method: http.MethodPost,
		target: "/api/users/set_password",
		userID: e.testUser.ID,
		body:   map[string]string{"current_password": "not-it", "new_password": "brand-new-pass"},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "current_password", decode[handler.ErrorResponse](t, rr).Field)

	rr = do(t, e.authH.HandleSetPassword, request{
		method: http.MethodPost,
		target: "/api/users/set_password",
		userID: e.testUser.ID,
		body:   map[string]string{"current_password": testPassword, "new_password": "brand-new-pass"},
	})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = do(t, e.authH.HandleLogin, request{
		method: http.MethodPost,
		target: "/api/auth/token/login",
		body:   map[string]string{"email": "alice@example.com", "password": "brand-new-pass"},
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthHandler_HandleGitHubCallback_State(t *testing.T) {
	e := newEnv(t)

	t.Run("no state cookie", func(t *testing.T) {
		rr := do(t, e.authH.HandleGitHubCallback, request{method: http.MethodGet, target: "/api/auth/github/callback?code=abc&state=xyz"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("user denied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?error=access_denied&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
		rr := httptest.NewRecorder()

		e.authH.HandleGitHubCallback(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
	})

	t.Run("missing code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?state=s1", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
		rr := httptest.NewRecorder()

		e.authH.HandleGitHubCallback(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "code", decode[handler.ErrorResponse](t, rr).Field)
	})
}
