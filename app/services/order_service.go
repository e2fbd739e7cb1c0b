package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/event"
	"github.com/shashiranjanraj/souq/pkg/logger"
)

// Order lifecycle events, published through the dispatcher.
const (
	EventOrderCreated       = "order-created"
	EventOrderStatusUpdated = "order-status-updated"
	EventOrderDeleted       = "order-deleted"
)

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	Event   string             `json:"event"`
	ID      string             `json:"id"`
	OrderID string             `json:"orderId"`
	Status  models.OrderStatus `json:"status"`
	Email   string             `json:"email,omitempty"`
	Amount  float64            `json:"amount"`
	At      time.Time          `json:"at"`
}

func newOrderEvent(name string, o *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Event:   name,
		ID:      o.ID.Hex(),
		OrderID: o.OrderID,
		Status:  o.Status,
		Email:   o.Email,
		Amount:  o.Amount,
		At:      at,
	}
}

// OrderEventKey partitions order events by payment session.
func OrderEventKey(payload any) string {
	if e, ok := payload.(OrderEvent); ok {
		return e.OrderID
	}
	return ""
}

type OrderService struct {
	orders repositories.OrderRepository
	events *event.Dispatcher
	now    func() time.Time
}

// NewOrderService wires order management. events may be nil.
func NewOrderService(orders repositories.OrderRepository, events *event.Dispatcher) *OrderService {
	return &OrderService{orders: orders, events: events, now: time.Now}
}

// ByEmail returns the customer's orders; an empty result is ErrNotFound.
func (s *OrderService) ByEmail(ctx context.Context, email string) ([]models.Order, error) {
	orders, err := s.orders.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("orders for %s: %w", email, err)
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return o, nil
}

// List returns every order newest first; an empty store is ErrNotFound.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return orders, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, invalid("Status is required", map[string]string{"status": "The status field is required."})
	}
	st := models.OrderStatus(status)
	if !st.Valid() {
		return nil, invalid("Invalid status", map[string]string{
			"status": fmt.Sprintf("The status must be one of %s.", joinStatuses()),
		})
	}

	o, err := s.orders.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}

	logger.WithCtx(ctx).Info("orders: status updated", "order", id, "status", st)
	s.events.Fire(ctx, EventOrderStatusUpdated, newOrderEvent(EventOrderStatusUpdated, o, s.now()))
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.orders.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete order %s: %w", id, err)
	}
	s.events.Fire(ctx, EventOrderDeleted, newOrderEvent(EventOrderDeleted, o, s.now()))
	return o, nil
}

func joinStatuses() string {
	names := make([]string, len(models.OrderStatuses))
	for i, st := range models.OrderStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
