package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags", "200"))

	RecordAPIRequest("GET", "/api/tags", http.StatusOK, 5*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags", "200"))
	assert.Equal(t, before+1, after)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := HTTPRequestsTotal.WithLabelValues("GET", "/api/recipes/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
	assert.Equal(t, float64(0), testutil.ToFloat64(HTTPActiveRequests))
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	counter := HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestDomainCounters(t *testing.T) {
	beforeFollow := testutil.ToFloat64(RelationChanges.WithLabelValues("follow", "create"))
	beforeDownloads := testutil.ToFloat64(ShoppingListDownloads)
	beforeCreate := testutil.ToFloat64(RecipeWrites.WithLabelValues("create"))

	RecordRelationChange("follow", "create")
	RecordShoppingExport(4)
	RecordRecipeWrite("create")

	assert.Equal(t, beforeFollow+1, testutil.ToFloat64(RelationChanges.WithLabelValues("follow", "create")))
	assert.Equal(t, beforeDownloads+1, testutil.ToFloat64(ShoppingListDownloads))
	assert.Equal(t, beforeCreate+1, testutil.ToFloat64(RecipeWrites.WithLabelValues("create")))
}

func TestHandler_ServesMetrics(t *testing.T) {
	RecordRecipeWrite("delete")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "foodgram_recipe_writes_total"))
}
