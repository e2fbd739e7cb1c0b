package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/souq/app/gateway"
	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/pkg/event"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/metrics"
)

const paymentStatusPaid = "paid"

// Gateway is the part of the checkout API the payment flow uses.
type Gateway interface {
	CreateSession(ctx context.Context, req gateway.CreateSessionRequest) (*gateway.Session, error)
	GetSession(ctx context.Context, sessionID string) (*gateway.Session, error)
	FindByReference(ctx context.Context, ref string) (*gateway.Session, error)
	PaymentLink(sessionID string) string
}

// CheckoutItem is one cart line as sent by the storefront.
type CheckoutItem struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    *Amount `json:"price"`
	Quantity int     `json:"quantity"`
}

type CheckoutSession struct {
	ID          string `json:"id"`
	PaymentLink string `json:"paymentLink"`
}

type PaymentService struct {
	gw         Gateway
	orders     repositories.OrderRepository
	events     *event.Dispatcher
	factor     decimal.Decimal
	successURL string
	cancelURL  string
	now        func() time.Time
}

func NewPaymentService(gw Gateway, orders repositories.OrderRepository, events *event.Dispatcher, s config.GatewaySettings) *PaymentService {
	factor := s.MinorUnit
	if factor <= 0 {
		factor = 1000
	}
	return &PaymentService{
		gw:         gw,
		orders:     orders,
		events:     events,
		factor:     decimal.NewFromInt(factor),
		successURL: s.SuccessURL,
		cancelURL:  s.CancelURL,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for reference ids and event times.
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// CreateCheckoutSession opens a gateway session for the cart and records a
// pending order keyed by the session id.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, items []CheckoutItem, email string) (_ *CheckoutSession, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.CheckoutSessions.WithLabelValues(result).Inc()
	}()

	if len(items) == 0 {
		return nil, invalid("Invalid or empty products array", nil)
	}

	lines := make([]gateway.LineItem, 0, len(items))
	orderItems := make([]models.OrderItem, 0, len(items))
	total := decimal.Zero
	errs := map[string]string{}
	for i, it := range items {
		key := "products." + strconv.Itoa(i)
		switch {
		case strings.TrimSpace(it.Name) == "":
			errs[key+".name"] = "The name field is required."
		case it.Price == nil || !it.Price.Valid || it.Price.Value <= 0:
			errs[key+".price"] = "The price must be a number greater than 0."
		case it.Quantity < 1:
			errs[key+".quantity"] = "The quantity must be at least 1."
		}
		if len(errs) > 0 {
			continue
		}

		price := decimal.NewFromFloat(it.Price.Value)
		lines = append(lines, gateway.LineItem{
			Name:       it.Name,
			ProductID:  it.ID,
			Quantity:   it.Quantity,
			UnitAmount: price.Mul(s.factor).Round(0).IntPart(),
		})
		orderItems = append(orderItems, models.OrderItem{ProductID: it.ID, Quantity: it.Quantity})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if len(errs) > 0 {
		return nil, invalid("Invalid or empty products array", errs)
	}

	ref := strconv.FormatInt(s.now().UnixMilli(), 10)
	req := gateway.CreateSessionRequest{
		ClientReferenceID: ref,
		Mode:              "payment",
		Products:          lines,
		SuccessURL:        withQuery(s.successURL, "client_reference_id", ref),
		CancelURL:         s.cancelURL,
	}
	if email != "" {
		req.Metadata = map[string]any{"customer_email": email}
	}

	session, err := s.gw.CreateSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	amount, _ := total.Float64()
	order := &models.Order{
		OrderID:  session.SessionID,
		Products: orderItems,
		Amount:   amount,
		Email:    email,
		Status:   models.StatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("save pending order for session %s: %w", session.SessionID, err)
	}

	logger.WithCtx(ctx).Info("checkout: session created",
		"session", session.SessionID, "reference", ref, "amount", total.String())
	s.events.Fire(ctx, EventOrderCreated, newOrderEvent(EventOrderCreated, order, s.now()))

	return &CheckoutSession{ID: session.SessionID, PaymentLink: s.gw.PaymentLink(session.SessionID)}, nil
}

// ConfirmPayment reconciles the local order with the gateway's view of the
// session created under ref.
func (s *PaymentService) ConfirmPayment(ctx context.Context, ref string) (_ *models.Order, err error) {
	outcome := "error"
	defer func() { metrics.PaymentReconciliations.WithLabelValues(outcome).Inc() }()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		outcome = "invalid"
		return nil, invalid("client_reference_id is required",
			map[string]string{"client_reference_id": "The client_reference_id field is required."})
	}

	found, err := s.gw.FindByReference(ctx, ref)
	if errors.Is(err, gateway.ErrSessionNotFound) {
		outcome = "not_found"
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session for reference %s: %w", ref, err)
	}

	session, err := s.gw.GetSession(ctx, found.SessionID)
	if errors.Is(err, gateway.ErrSessionNotFound) {
		outcome = "not_found"
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session %s: %w", found.SessionID, err)
	}

	log := logger.WithCtx(ctx).With("session", session.SessionID, "reference", ref)

	switch session.PaymentStatus {
	case paymentStatusPaid:
	case "cancelled", "failed", "expired":
		o, err := s.orders.SetStatusBySession(ctx, session.SessionID, models.StatusFailed)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("mark order failed for session %s: %w", session.SessionID, err)
		}
		if o != nil {
			s.events.Fire(ctx, EventOrderStatusUpdated, newOrderEvent(EventOrderStatusUpdated, o, s.now()))
		}
		outcome = "failed"
		log.Warn("checkout: payment failed", "payment_status", session.PaymentStatus)
		return nil, ErrPaymentNotSuccessful
	default:
		outcome = "unpaid"
		log.Info("checkout: payment not settled", "payment_status", session.PaymentStatus)
		return nil, ErrPaymentNotSuccessful
	}

	order, err := s.orders.UpsertBySession(ctx, s.orderFromSession(session))
	if err != nil {
		return nil, fmt.Errorf("complete order for session %s: %w", session.SessionID, err)
	}

	outcome = "completed"
	log.Info("checkout: payment confirmed", "order", order.ID.Hex())
	s.events.Fire(ctx, EventOrderStatusUpdated, newOrderEvent(EventOrderStatusUpdated, order, s.now()))
	return order, nil
}

// orderFromSession builds the completed order inserted when no pending order
// exists for the session.
func (s *PaymentService) orderFromSession(session *gateway.Session) *models.Order {
	items := make([]models.OrderItem, 0, len(session.Products))
	for _, p := range session.Products {
		items = append(items, models.OrderItem{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	amount, _ := decimal.NewFromInt(session.TotalAmount).Div(s.factor).Float64()

	email, _ := session.Metadata["customer_email"].(string)
	return &models.Order{
		OrderID:  session.SessionID,
		Products: items,
		Amount:   amount,
		Email:    email,
		Status:   models.StatusCompleted,
	}
}

func withQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
