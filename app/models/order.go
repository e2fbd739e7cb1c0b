package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusCompleted  OrderStatus = "completed"
	StatusFailed     OrderStatus = "failed"
)

// OrderStatuses lists every accepted status.
var OrderStatuses = []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusFailed}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID string `bson:"productId" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// Order is one checkout. OrderID holds the payment session id and is unique.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderID    string             `bson:"orderId" json:"orderId"`
	Products   []OrderItem        `bson:"products" json:"products"`
	Amount     float64            `bson:"amount" json:"amount"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Status     OrderStatus        `bson:"status" json:"status"`
	OrderNotes string             `bson:"orderNotes,omitempty" json:"orderNotes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
