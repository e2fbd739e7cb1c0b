package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

type CheckoutController struct {
	payments *services.PaymentService
}

func NewCheckoutController(payments *services.PaymentService) *CheckoutController {
	return &CheckoutController{payments: payments}
}

// CreateSession handles POST /orders/create-checkout-session.
func (c *CheckoutController) CreateSession(x *ctx.Context) {
	var body struct {
		Products json.RawMessage `json:"products"`
		Email    string          `json:"email" validate:"nullable,email"`
	}
	if !x.BindJSON(&body) {
		return
	}

	var items []services.CheckoutItem
	if len(body.Products) == 0 || json.Unmarshal(body.Products, &items) != nil {
		x.ValidationError("Invalid or empty products array", map[string]string{"products": "The products field must be a non-empty array."})
		return
	}

	session, err := c.payments.CreateCheckoutSession(x.Context(), items, body.Email)
	if err != nil {
		fail(x, err, "", "Failed to create checkout session")
		return
	}
	x.OK(session)
}

// ConfirmPayment handles POST /orders/confirm-payment.
func (c *CheckoutController) ConfirmPayment(x *ctx.Context) {
	var body struct {
		ClientReferenceID string `json:"client_reference_id"`
	}
	if !x.BindJSON(&body) {
		return
	}

	order, err := c.payments.ConfirmPayment(x.Context(), body.ClientReferenceID)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		x.NotFound("Session not found")
	case errors.Is(err, services.ErrPaymentNotSuccessful):
		x.Error(http.StatusBadRequest, "Payment not successful")
	case err != nil:
		fail(x, err, "", "Failed to confirm payment")
	default:
		x.OK(map[string]any{"order": order})
	}
}
