// Package repositories persists the domain models. Orders, products and
// reviews live in MongoDB (or the in-memory driver); users live in SQL.
package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/souq/app/models"
)

var (
	// ErrNotFound covers missing documents and malformed ids alike.
	ErrNotFound  = errors.New("repositories: not found")
	ErrDuplicate = errors.New("repositories: duplicate key")
)

// ProductFilter holds equality filters plus an inclusive price range that
// applies only when both bounds are set.
type ProductFilter struct {
	Category    string
	SubCategory string
	Brand       string
	MinPrice    *float64
	MaxPrice    *float64
}

// ProductUpdate maps document field names to already validated values.
type ProductUpdate map[string]any

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// List returns one page sorted newest first plus the total match count.
	List(ctx context.Context, f ProductFilter, skip, limit int64) ([]models.Product, int64, error)
	Update(ctx context.Context, id string, set ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
	// Related returns products other than p whose name matches the
	// case-insensitive pattern or whose category equals p's. An empty
	// pattern matches on category alone.
	Related(ctx context.Context, p *models.Product, pattern string) ([]models.Product, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	ByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) (int64, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	// FindByEmail returns the customer's orders newest first.
	FindByEmail(ctx context.Context, email string) ([]models.Order, error)
	// List returns every order newest first.
	List(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id string) (*models.Order, error)
	// SetStatusBySession updates the order for a payment session.
	SetStatusBySession(ctx context.Context, sessionID string, status models.OrderStatus) (*models.Order, error)
	// UpsertBySession atomically sets o.Status on the order for o.OrderID,
	// inserting o when none exists. Concurrent calls yield one document.
	UpsertBySession(ctx context.Context, o *models.Order) (*models.Order, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Store groups the document repositories selected by DATA_DRIVER.
type Store struct {
	Orders   OrderRepository
	Products ProductRepository
	Reviews  ReviewRepository
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}
