package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/app/gateway"
	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/config"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateSession(ctx context.Context, req gateway.CreateSessionRequest) (*gateway.Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*gateway.Session)
	return s, args.Error(1)
}

func (m *mockGateway) GetSession(ctx context.Context, id string) (*gateway.Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*gateway.Session)
	return s, args.Error(1)
}

func (m *mockGateway) FindByReference(ctx context.Context, ref string) (*gateway.Session, error) {
	args := m.Called(ctx, ref)
	s, _ := args.Get(0).(*gateway.Session)
	return s, args.Error(1)
}

func (m *mockGateway) PaymentLink(id string) string {
	return "https://checkout.example.com/pay/" + id + "?key=pk_test"
}

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newPayments(t *testing.T) (*services.PaymentService, *mockGateway, *repositories.Store) {
	t.Helper()
	gw := &mockGateway{}
	t.Cleanup(func() { gw.AssertExpectations(t) })

	store := newStore()
	svc := services.NewPaymentService(gw, store.Orders, nil, config.GatewaySettings{
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cancel",
		MinorUnit:  1000,
	}).WithClock(func() time.Time { return fixedNow })
	return svc, gw, store
}

func TestCheckoutPersistsPendingOrderWithMajorUnitAmount(t *testing.T) {
	svc, gw, store := newPayments(t)
	ctx := context.Background()
	ref := "1709283600000"

	gw.On("CreateSession", mock.Anything, mock.MatchedBy(func(req gateway.CreateSessionRequest) bool {
		return req.ClientReferenceID == ref &&
			req.Mode == "payment" &&
			req.SuccessURL == "https://shop.example.com/success?client_reference_id="+ref &&
			req.CancelURL == "https://shop.example.com/cancel" &&
			req.Metadata["customer_email"] == "buyer@example.com" &&
			len(req.Products) == 2 &&
			req.Products[0].UnitAmount == 1100 &&
			req.Products[1].UnitAmount == 2250 &&
			req.Products[1].ProductID == "p2"
	})).Return(&gateway.Session{SessionID: "sess_1"}, nil).Once()

	out, err := svc.CreateCheckoutSession(ctx, []services.CheckoutItem{
		{ID: "p1", Name: "Dates", Price: &services.Amount{Value: 1.1, Valid: true}, Quantity: 3},
		{ID: "p2", Name: "Halwa", Price: &services.Amount{Value: 2.25, Valid: true}, Quantity: 2},
	}, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sess_1", out.ID)
	assert.Equal(t, "https://checkout.example.com/pay/sess_1?key=pk_test", out.PaymentLink)

	orders, err := store.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "sess_1", o.OrderID)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, 7.8, o.Amount)
	assert.Equal(t, "buyer@example.com", o.Email)
	assert.Equal(t, []models.OrderItem{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 2}}, o.Products)
}

func TestCheckoutRejectsBadCarts(t *testing.T) {
	svc, _, store := newPayments(t)
	ctx := context.Background()

	carts := map[string][]services.CheckoutItem{
		"empty":         nil,
		"zero quantity": {{Name: "Dates", Price: &services.Amount{Value: 1, Valid: true}}},
		"no price":      {{Name: "Dates", Quantity: 1}},
		"no name":       {{Price: &services.Amount{Value: 1, Valid: true}, Quantity: 1}},
	}
	for name, cart := range carts {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateCheckoutSession(ctx, cart, "")
			var verr *services.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	orders, err := store.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutGatewayFailureSavesNothing(t *testing.T) {
	svc, gw, store := newPayments(t)
	ctx := context.Background()

	gw.On("CreateSession", mock.Anything, mock.Anything).Return(nil, errors.New("gateway down")).Once()

	_, err := svc.CreateCheckoutSession(ctx, []services.CheckoutItem{
		{Name: "Dates", Price: &services.Amount{Value: 1, Valid: true}, Quantity: 1},
	}, "")
	require.Error(t, err)

	orders, err := store.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func paidSession() *gateway.Session {
	return &gateway.Session{
		SessionID:         "sess_1",
		ClientReferenceID: "1709283600000",
		Products:          []gateway.LineItem{{Name: "Dates", ProductID: "p1", Quantity: 2, UnitAmount: 3900}},
		TotalAmount:       7800,
		PaymentStatus:     "paid",
		Metadata:          map[string]any{"customer_email": "buyer@example.com"},
	}
}

func TestConfirmTwiceLeavesOneCompletedOrder(t *testing.T) {
	svc, gw, store := newPayments(t)
	ctx := context.Background()

	gw.On("FindByReference", mock.Anything, "1709283600000").Return(&gateway.Session{SessionID: "sess_1"}, nil).Twice()
	gw.On("GetSession", mock.Anything, "sess_1").Return(paidSession(), nil).Twice()

	first, err := svc.ConfirmPayment(ctx, "1709283600000")
	require.NoError(t, err)
	second, err := svc.ConfirmPayment(ctx, "1709283600000")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	orders, err := store.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusCompleted, orders[0].Status)
	assert.Equal(t, 7.8, orders[0].Amount)
	assert.Equal(t, "buyer@example.com", orders[0].Email)
}

func TestConfirmCompletesExistingPendingOrder(t *testing.T) {
	svc, gw, store := newPayments(t)
	ctx := context.Background()
	pending := seedOrder(t, store.Orders, "sess_1", "buyer@example.com")

	gw.On("FindByReference", mock.Anything, "ref").Return(&gateway.Session{SessionID: "sess_1"}, nil).Once()
	gw.On("GetSession", mock.Anything, "sess_1").Return(paidSession(), nil).Once()

	o, err := svc.ConfirmPayment(ctx, "ref")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, o.ID)
	assert.Equal(t, models.StatusCompleted, o.Status)
	assert.Equal(t, pending.Amount, o.Amount, "an existing order keeps its amount")
}

func TestConfirmFailedPaymentMarksOrderFailed(t *testing.T) {
	svc, gw, store := newPayments(t)
	ctx := context.Background()
	pending := seedOrder(t, store.Orders, "sess_1", "buyer@example.com")

	failed := paidSession()
	failed.PaymentStatus = "cancelled"
	gw.On("FindByReference", mock.Anything, "ref").Return(&gateway.Session{SessionID: "sess_1"}, nil).Once()
	gw.On("GetSession", mock.Anything, "sess_1").Return(failed, nil).Once()

	_, err := svc.ConfirmPayment(ctx, "ref")
	assert.ErrorIs(t, err, services.ErrPaymentNotSuccessful)

	o, err := store.Orders.FindByID(ctx, pending.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, o.Status)
}

func TestConfirmUnpaidLeavesOrderAlone(t *testing.T) {
	svc, gw, store := newPayments(t)
	ctx := context.Background()
	pending := seedOrder(t, store.Orders, "sess_1", "buyer@example.com")

	unpaid := paidSession()
	unpaid.PaymentStatus = "unpaid"
	gw.On("FindByReference", mock.Anything, "ref").Return(&gateway.Session{SessionID: "sess_1"}, nil).Once()
	gw.On("GetSession", mock.Anything, "sess_1").Return(unpaid, nil).Once()

	_, err := svc.ConfirmPayment(ctx, "ref")
	assert.ErrorIs(t, err, services.ErrPaymentNotSuccessful)

	o, err := store.Orders.FindByID(ctx, pending.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, o.Status)
}

func TestConfirmUnknownReference(t *testing.T) {
	svc, gw, _ := newPayments(t)
	ctx := context.Background()

	gw.On("FindByReference", mock.Anything, "nope").Return(nil, gateway.ErrSessionNotFound).Once()

	_, err := svc.ConfirmPayment(ctx, "nope")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	_, err = svc.ConfirmPayment(ctx, "")
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
}
