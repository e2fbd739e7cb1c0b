// Package kernel builds the HTTP handler: the global middleware stack
// followed by the API routes.
package kernel

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/souq/app/routes"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/pkg/metrics"
	"github.com/shashiranjanraj/souq/pkg/middleware"
	"github.com/shashiranjanraj/souq/pkg/reqid"
	"github.com/shashiranjanraj/souq/pkg/router"
)

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel wires the middleware and routes. ctx bounds the rate
// limiter's eviction loop.
func NewHTTPKernel(ctx context.Context, app config.AppSettings, api routes.API) *HTTPKernel {
	r := router.New()

	// Outermost first: metrics see total latency, recovery guards the rest,
	// the request id exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(app.CORSOrigins...)))
	if app.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(ctx, app.RateLimit, time.Minute).Middleware)
	}

	routes.RegisterAPI(r, api)
	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

// Routes lists the registered routes for route:list.
func (k *HTTPKernel) Routes() []router.RouteInfo { return k.router.Routes() }
