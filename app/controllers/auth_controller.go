package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
	"github.com/shashiranjanraj/souq/pkg/middleware"
)

type AuthController struct {
	auth         *services.AuthService
	tokenTTL     time.Duration
	secureCookie bool
}

func NewAuthController(auth *services.AuthService, tokenTTL time.Duration, secureCookie bool) *AuthController {
	return &AuthController{auth: auth, tokenTTL: tokenTTL, secureCookie: secureCookie}
}

func (c *AuthController) Register(x *ctx.Context) {
	var in services.RegisterInput
	if !x.BindJSON(&in) {
		return
	}
	u, err := c.auth.Register(x.Context(), in)
	if errors.Is(err, services.ErrConflict) {
		x.Error(http.StatusConflict, "Email is already registered")
		return
	}
	if err != nil {
		fail(x, err, "", "Failed to register user")
		return
	}
	x.Created(map[string]any{"user": u})
}

// Login issues a token in the body and as the HttpOnly token cookie.
func (c *AuthController) Login(x *ctx.Context) {
	var in services.LoginInput
	if !x.BindJSON(&in) {
		return
	}
	token, u, err := c.auth.Login(x.Context(), in)
	if errors.Is(err, services.ErrInvalidCredentials) {
		x.Unauthorized("Invalid email or password")
		return
	}
	if err != nil {
		fail(x, err, "", "Failed to log in")
		return
	}

	x.SetCookie(middleware.TokenCookie, token, int(c.tokenTTL.Seconds()), c.secureCookie)
	x.OK(map[string]any{"token": token, "user": u})
}

func (c *AuthController) Me(x *ctx.Context) {
	id, ok := x.UserID()
	if !ok {
		x.Unauthorized("Unauthorized: No token provided")
		return
	}
	u, err := c.auth.Me(x.Context(), id)
	if err != nil {
		fail(x, err, "User not found", "Failed to load user")
		return
	}
	x.OK(map[string]any{"user": u})
}
