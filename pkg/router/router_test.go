package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestGroupTrailingSlashServesBothPaths(t *testing.T) {
	r := router.New()
	r.Group("/orders").Get("/", "orders.index", ok)

	for _, path := range []string{"/orders", "/orders/"} {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestGroupMiddlewareOrder(t *testing.T) {
	var seen []string
	tag := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := router.New()
	r.Group("/api", tag("group")).Group("/v1", tag("nested")).Get("/x", "x", ok, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"group", "nested", "route"}, seen)
}

func TestURLFillsParameters(t *testing.T) {
	r := router.New()
	r.Group("/products").Get("/{id}", "products.show", ok)

	u, err := r.URL("products.show", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/products/abc", u)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesSortedByPathThenMethod(t *testing.T) {
	r := router.New()
	g := r.Group("/b")
	g.Post("/", "b.store", ok)
	g.Get("/", "b.index", ok)
	r.Get("/a", "a", ok)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/a", routes[0].Path)
	assert.Equal(t, router.RouteInfo{Method: http.MethodGet, Path: "/b", Name: "b.index"}, routes[1])
	assert.Equal(t, http.MethodPost, routes[2].Method)
}
