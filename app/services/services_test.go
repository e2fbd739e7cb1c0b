package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
)

// tickClock advances one second per call so documents get distinct,
// increasing timestamps.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTickClock() *tickClock {
	return &tickClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore() *repositories.Store {
	return repositories.NewMemoryStore(newTickClock().Now)
}

func seedProduct(store *repositories.Store, name, category string, price float64) *models.Product {
	p := &models.Product{
		Name:        name,
		Category:    category,
		SubCategory: "general",
		Description: name + " description",
		Price:       price,
		Image:       []string{"https://cdn.example.com/" + category + ".jpg"},
		Author:      "seed",
	}
	if err := store.Products.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func ptr[T any](v T) *T { return &v }
