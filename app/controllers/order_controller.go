package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Index returns every order newest first, or 404 with an empty list.
func (c *OrderController) Index(x *ctx.Context) {
	orders, err := c.orders.List(x.Context())
	if errors.Is(err, services.ErrNotFound) {
		x.JSON(http.StatusNotFound, map[string]any{"message": "No orders found", "orders": []models.Order{}})
		return
	}
	if err != nil {
		fail(x, err, "", "Failed to fetch all orders")
		return
	}
	x.OK(orders)
}

func (c *OrderController) ByEmail(x *ctx.Context) {
	orders, err := c.orders.ByEmail(x.Context(), x.Param("email"))
	if err != nil {
		fail(x, err, "No orders found for this email", "Failed to fetch orders by email")
		return
	}
	x.OK(map[string]any{"orders": orders})
}

func (c *OrderController) Show(x *ctx.Context) {
	order, err := c.orders.Get(x.Context(), x.Param("id"))
	if err != nil {
		fail(x, err, "Order not found", "Failed to fetch order")
		return
	}
	x.OK(order)
}

func (c *OrderController) UpdateStatus(x *ctx.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if !x.BindJSON(&body) {
		return
	}
	order, err := c.orders.UpdateStatus(x.Context(), x.Param("id"), body.Status)
	if err != nil {
		fail(x, err, "Order not found", "Failed to update order status")
		return
	}
	x.OK(map[string]any{"message": "Order status updated successfully", "order": order})
}

func (c *OrderController) Destroy(x *ctx.Context) {
	order, err := c.orders.Delete(x.Context(), x.Param("id"))
	if err != nil {
		fail(x, err, "Order not found", "Failed to delete order")
		return
	}
	x.OK(map[string]any{"message": "Order deleted successfully", "order": order})
}
