// Package routes declares the HTTP surface.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/souq/app/controllers"
	"github.com/shashiranjanraj/souq/pkg/ctx"
	"github.com/shashiranjanraj/souq/pkg/metrics"
	"github.com/shashiranjanraj/souq/pkg/middleware"
	"github.com/shashiranjanraj/souq/pkg/rbac"
	"github.com/shashiranjanraj/souq/pkg/response"
	"github.com/shashiranjanraj/souq/pkg/router"
)

// API holds the controllers the routes dispatch to.
type API struct {
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Checkout *controllers.CheckoutController
	Uploads  *controllers.UploadController
	Auth     *controllers.AuthController
	Health   *controllers.HealthController

	Tokens middleware.TokenValidator

	// Files serves the local storage disk under /storage; nil when uploads
	// go to S3.
	Files http.Handler
}

func RegisterAPI(r *router.Router, api API) {
	requireAuth := middleware.Auth(api.Tokens)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", "health", ctx.Wrap(api.Health.Check))
	r.Get("/metrics", "metrics", metrics.Handler())
	if api.Files != nil {
		r.Mount("/storage", "storage", http.StripPrefix("/storage", api.Files))
	}

	authGroup := r.Group("/auth")
	authGroup.Post("/register", "auth.register", ctx.Wrap(api.Auth.Register))
	authGroup.Post("/login", "auth.login", ctx.Wrap(api.Auth.Login))
	authGroup.Get("/me", "auth.me", ctx.Wrap(api.Auth.Me), requireAuth)

	orders := r.Group("/orders")
	orders.Post("/create-checkout-session", "orders.checkout", ctx.Wrap(api.Checkout.CreateSession))
	orders.Post("/confirm-payment", "orders.confirm", ctx.Wrap(api.Checkout.ConfirmPayment))
	orders.Get("/", "orders.index", ctx.Wrap(api.Orders.Index))
	orders.Get("/order/{id}", "orders.show", ctx.Wrap(api.Orders.Show))
	orders.Get("/{email}", "orders.by_email", ctx.Wrap(api.Orders.ByEmail))
	orders.Patch("/update-order-status/{id}", "orders.update_status", ctx.Wrap(api.Orders.UpdateStatus))
	orders.Delete("/delete-order/{id}", "orders.destroy", ctx.Wrap(api.Orders.Destroy))

	products := r.Group("/products")
	products.Get("/", "products.index", ctx.Wrap(api.Products.Index))
	products.Post("/create-product", "products.store", ctx.Wrap(api.Products.Store))
	products.Post("/uploadImages", "products.upload_images", ctx.Wrap(api.Uploads.UploadImages))
	products.Get("/related/{id}", "products.related", ctx.Wrap(api.Products.Related))
	products.Patch("/update-product/{id}", "products.update", ctx.Wrap(api.Products.Update),
		requireAuth, rbac.AdminOnly())
	products.Get("/{id}", "products.show", ctx.Wrap(api.Products.Show))
	products.Delete("/{id}", "products.destroy", ctx.Wrap(api.Products.Destroy))
}
