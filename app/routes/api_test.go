package routes_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/souq/app/routes"
	"github.com/shashiranjanraj/souq/pkg/router"
)

func TestRouteTable(t *testing.T) {
	r := router.New()
	routes.RegisterAPI(r, routes.API{Files: http.NotFoundHandler()})

	var b strings.Builder
	for _, ri := range r.Routes() {
		fmt.Fprintf(&b, "%s %s %s\n", ri.Method, ri.Path, ri.Name)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "routes", []byte(b.String()))
}

func TestNamedRouteURL(t *testing.T) {
	r := router.New()
	routes.RegisterAPI(r, routes.API{})

	u, err := r.URL("products.update", map[string]string{"id": "65f0"})
	assert.NoError(t, err)
	assert.Equal(t, "/products/update-product/65f0", u)

	_, ok := r.Path("storage")
	assert.False(t, ok, "storage is only mounted with a file handler")
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	r := router.New()
	routes.RegisterAPI(r, routes.API{})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route not found")
}

func TestAdminRouteRejectsAnonymous(t *testing.T) {
	r := router.New()
	routes.RegisterAPI(r, routes.API{})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/products/update-product/1", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
