// Package controllers adapts the services to HTTP: decode the request, call
// one service method, map the result onto the response envelope.
package controllers

import (
	"errors"

	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

// fail maps a service error to 400, 404 (with notFound) or 500 (with
// failure and the error detail).
func fail(x *ctx.Context, err error, notFound, failure string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		x.ValidationError(verr.Message, verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		x.NotFound(notFound)
	default:
		x.ServerError(failure, err)
	}
}
