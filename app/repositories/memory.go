package repositories

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/souq/app/models"
)

// memory is the DATA_DRIVER=memory backend shared by the three repositories.
// Documents carry an insertion sequence so equal timestamps still sort
// newest first.
type memory struct {
	mu       sync.RWMutex
	now      func() time.Time
	seq      uint64
	orders   map[primitive.ObjectID]memOrder
	products map[primitive.ObjectID]memProduct
	reviews  map[primitive.ObjectID]memReview
}

type memOrder struct {
	seq uint64
	doc models.Order
}

type memProduct struct {
	seq uint64
	doc models.Product
}

type memReview struct {
	seq uint64
	doc models.Review
}

// NewMemoryStore returns repositories backed by process memory. now may be
// nil.
func NewMemoryStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	m := &memory{
		now:      now,
		orders:   map[primitive.ObjectID]memOrder{},
		products: map[primitive.ObjectID]memProduct{},
		reviews:  map[primitive.ObjectID]memReview{},
	}
	return &Store{
		Orders:   &MemoryOrders{m: m},
		Products: &MemoryProducts{m: m},
		Reviews:  &MemoryReviews{m: m},
	}
}

func (m *memory) next() uint64 {
	m.seq++
	return m.seq
}

type MemoryOrders struct{ m *memory }

func (r *MemoryOrders) Create(_ context.Context, o *models.Order) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.orders {
		if o.OrderID != "" && existing.doc.OrderID == o.OrderID {
			return fmt.Errorf("insert order %s: %w", o.OrderID, ErrDuplicate)
		}
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := m.now()
	o.CreatedAt, o.UpdatedAt = now, now
	m.orders[o.ID] = memOrder{seq: m.next(), doc: cloneOrder(*o)}
	return nil
}

func (r *MemoryOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	rec, ok := r.m.orders[oid]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneOrder(rec.doc)
	return &out, nil
}

func (r *MemoryOrders) FindByEmail(_ context.Context, email string) ([]models.Order, error) {
	return r.collect(func(o models.Order) bool { return o.Email == email }), nil
}

func (r *MemoryOrders) List(context.Context) ([]models.Order, error) {
	return r.collect(func(models.Order) bool { return true }), nil
}

func (r *MemoryOrders) collect(match func(models.Order) bool) []models.Order {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	recs := make([]memOrder, 0, len(r.m.orders))
	for _, rec := range r.m.orders {
		if match(rec.doc) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return newer(recs[i].doc.CreatedAt, recs[i].seq, recs[j].doc.CreatedAt, recs[j].seq)
	})

	out := make([]models.Order, len(recs))
	for i, rec := range recs {
		out[i] = cloneOrder(rec.doc)
	}
	return out
}

func (r *MemoryOrders) UpdateStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.mutate(func(o models.Order) bool { return o.ID == oid }, status)
}

func (r *MemoryOrders) SetStatusBySession(_ context.Context, sessionID string, status models.OrderStatus) (*models.Order, error) {
	return r.mutate(func(o models.Order) bool { return o.OrderID == sessionID }, status)
}

func (r *MemoryOrders) mutate(match func(models.Order) bool, status models.OrderStatus) (*models.Order, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.orders {
		if match(rec.doc) {
			rec.doc.Status = status
			rec.doc.UpdatedAt = m.now()
			m.orders[id] = rec
			out := cloneOrder(rec.doc)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryOrders) Delete(_ context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.orders[oid]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.m.orders, oid)
	return &rec.doc, nil
}

func (r *MemoryOrders) UpsertBySession(ctx context.Context, o *models.Order) (*models.Order, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, rec := range m.orders {
		if rec.doc.OrderID == o.OrderID {
			rec.doc.Status = o.Status
			rec.doc.UpdatedAt = now
			m.orders[id] = rec
			out := cloneOrder(rec.doc)
			return &out, nil
		}
	}

	doc := cloneOrder(*o)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt, doc.UpdatedAt = now, now
	m.orders[doc.ID] = memOrder{seq: m.next(), doc: doc}
	out := cloneOrder(doc)
	return &out, nil
}

type MemoryProducts struct{ m *memory }

func (r *MemoryProducts) Create(_ context.Context, p *models.Product) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := m.now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.products[p.ID] = memProduct{seq: m.next(), doc: cloneProduct(*p)}
	return nil
}

func (r *MemoryProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	rec, ok := r.m.products[oid]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProduct(rec.doc)
	return &out, nil
}

func (r *MemoryProducts) List(_ context.Context, f ProductFilter, skip, limit int64) ([]models.Product, int64, error) {
	all := r.collect(func(p models.Product) bool { return matchesFilter(p, f) })
	total := int64(len(all))
	if skip >= total {
		return []models.Product{}, total, nil
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	return all[skip:end], total, nil
}

func matchesFilter(p models.Product, f ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.SubCategory != "" && p.SubCategory != f.SubCategory {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.MinPrice != nil && f.MaxPrice != nil && (p.Price < *f.MinPrice || p.Price > *f.MaxPrice) {
		return false
	}
	return true
}

func (r *MemoryProducts) Related(_ context.Context, src *models.Product, pattern string) ([]models.Product, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		if re, err = regexp.Compile("(?i)" + pattern); err != nil {
			return nil, fmt.Errorf("related pattern: %w", err)
		}
	}
	return r.collect(func(p models.Product) bool {
		if p.ID == src.ID {
			return false
		}
		return p.Category == src.Category || (re != nil && re.MatchString(p.Name))
	}), nil
}

func (r *MemoryProducts) collect(match func(models.Product) bool) []models.Product {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	recs := make([]memProduct, 0, len(r.m.products))
	for _, rec := range r.m.products {
		if match(rec.doc) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return newer(recs[i].doc.CreatedAt, recs[i].seq, recs[j].doc.CreatedAt, recs[j].seq)
	})

	out := make([]models.Product, len(recs))
	for i, rec := range recs {
		out[i] = cloneProduct(rec.doc)
	}
	return out
}

func (r *MemoryProducts) Update(_ context.Context, id string, set ProductUpdate) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.products[oid]
	if !ok {
		return nil, ErrNotFound
	}
	if err := applyProductUpdate(&rec.doc, set); err != nil {
		return nil, err
	}
	rec.doc.UpdatedAt = m.now()
	m.products[oid] = rec
	out := cloneProduct(rec.doc)
	return &out, nil
}

func applyProductUpdate(p *models.Product, set ProductUpdate) error {
	for k, v := range set {
		var ok bool
		switch k {
		case "name":
			p.Name, ok = v.(string)
		case "category":
			p.Category, ok = v.(string)
		case "subCategory":
			p.SubCategory, ok = v.(string)
		case "brand":
			p.Brand, ok = v.(string)
		case "description":
			p.Description, ok = v.(string)
		case "author":
			p.Author, ok = v.(string)
		case "price":
			p.Price, ok = v.(float64)
		case "rating":
			p.Rating, ok = v.(float64)
		case "oldPrice":
			var f float64
			if f, ok = v.(float64); ok {
				p.OldPrice = &f
			}
		case "image":
			var img []string
			if img, ok = v.([]string); ok {
				p.Image = append([]string(nil), img...)
			}
		}
		if !ok {
			return fmt.Errorf("product update: unsupported value %T for %q", v, k)
		}
	}
	return nil
}

func (r *MemoryProducts) Delete(_ context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.products[oid]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.m.products, oid)
	return &rec.doc, nil
}

type MemoryReviews struct{ m *memory }

func (r *MemoryReviews) Create(_ context.Context, rv *models.Review) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	now := m.now()
	rv.CreatedAt, rv.UpdatedAt = now, now
	m.reviews[rv.ID] = memReview{seq: m.next(), doc: *rv}
	return nil
}

func (r *MemoryReviews) ByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	recs := make([]memReview, 0)
	for _, rec := range r.m.reviews {
		if rec.doc.ProductID == productID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return newer(recs[i].doc.CreatedAt, recs[i].seq, recs[j].doc.CreatedAt, recs[j].seq)
	})

	out := make([]models.Review, len(recs))
	for i, rec := range recs {
		out[i] = rec.doc
	}
	return out, nil
}

func (r *MemoryReviews) DeleteByProduct(_ context.Context, productID primitive.ObjectID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for id, rec := range r.m.reviews {
		if rec.doc.ProductID == productID {
			delete(r.m.reviews, id)
			n++
		}
	}
	return n, nil
}

func newer(at time.Time, seq uint64, bt time.Time, bseq uint64) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return seq > bseq
}

func cloneOrder(o models.Order) models.Order {
	o.Products = append([]models.OrderItem(nil), o.Products...)
	return o
}

func cloneProduct(p models.Product) models.Product {
	p.Image = append([]string(nil), p.Image...)
	if p.OldPrice != nil {
		v := *p.OldPrice
		p.OldPrice = &v
	}
	return p
}
