// Package ctx provides the request context handed to controllers:
//
//	func (c *OrderController) Show(x *ctx.Context) {
//	    order, err := c.orders.Get(x.Context(), x.Param("id"))
//	    ...
//	    x.OK(order)
//	}
//
//	r.Get("/orders/order/{id}", "orders.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/souq/pkg/bind"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/middleware"
	"github.com/shashiranjanraj/souq/pkg/response"
)

// HandlerFunc is the controller signature.
type HandlerFunc func(c *Context)

// Wrap adapts a HandlerFunc to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps one request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{New: func() any { return &Context{} }}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W, c.R, c.status = w, r, 0
	return c
}

func release(c *Context) {
	c.W, c.R = nil, nil
	pool.Put(c)
}

// Param returns a chi URL parameter.
func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

func (c *Context) Query(key string) string { return c.R.URL.Query().Get(key) }

func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// QueryInt parses a query value, returning def when absent or malformed.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func (c *Context) Header(key string) string { return c.R.Header.Get(key) }

func (c *Context) Context() context.Context { return c.R.Context() }

// UserID returns the authenticated user id, if auth middleware ran.
func (c *Context) UserID() (string, bool) { return middleware.UserIDFromCtx(c.R) }

// BindJSON decodes and validates the body into dest. On failure it writes a
// 400 response and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if errs != nil {
		c.ValidationError("", errs)
		return false
	}
	return true
}

// SetCookie writes an HttpOnly cookie scoped to the whole site.
func (c *Context) SetCookie(name, value string, maxAge int, secure bool) {
	http.SetCookie(c.W, &http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

func (c *Context) OK(v any) { c.JSON(http.StatusOK, v) }

func (c *Context) Created(v any) { c.JSON(http.StatusCreated, v) }

func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

// ServerError logs err and writes a 500 carrying its text.
func (c *Context) ServerError(message string, err error) {
	logger.WithCtx(c.Context()).Error(message, "error", err)
	c.status = http.StatusInternalServerError
	response.ErrorDetail(c.W, http.StatusInternalServerError, message, err)
}

func (c *Context) ValidationError(message string, errs map[string]string) {
	c.status = http.StatusBadRequest
	response.ValidationError(c.W, message, errs)
}

func (c *Context) NotFound(message string) { c.Error(http.StatusNotFound, message) }

func (c *Context) Unauthorized(message string) { c.Error(http.StatusUnauthorized, message) }

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
