package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/cache"
	"github.com/shashiranjanraj/souq/pkg/logger"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	productKeySpace = "product"
)

// ProductFields is the create/update payload. Pointer fields distinguish
// "absent" from "empty" so updates stay partial.
type ProductFields struct {
	Name        *string         `json:"name"`
	Category    *string         `json:"category"`
	SubCategory *string         `json:"subCategory"`
	Brand       *string         `json:"brand"`
	Description *string         `json:"description"`
	Price       *Amount         `json:"price"`
	OldPrice    *Amount         `json:"oldPrice"`
	Image       json.RawMessage `json:"image"`
	Author      *string         `json:"author"`
}

// ListQuery holds the raw query-string values of the product listing.
type ListQuery struct {
	Category    string
	SubCategory string
	Brand       string
	MinPrice    string
	MaxPrice    string
	Page        string
	Limit       string
}

type ProductPage struct {
	Products      []models.Product `json:"products"`
	TotalPages    int64            `json:"totalPages"`
	TotalProducts int64            `json:"totalProducts"`
}

type ProductDetail struct {
	Product *models.Product `json:"product"`
	Reviews []models.Review `json:"reviews"`
}

type CatalogService struct {
	products repositories.ProductRepository
	reviews  repositories.ReviewRepository
	cache    *cache.Store
	ttl      time.Duration
}

// NewCatalogService wires the catalogue. c may be nil to disable caching.
func NewCatalogService(products repositories.ProductRepository, reviews repositories.ReviewRepository, c *cache.Store, ttl time.Duration) *CatalogService {
	return &CatalogService{products: products, reviews: reviews, cache: c, ttl: ttl}
}

func (s *CatalogService) List(ctx context.Context, q ListQuery) (*ProductPage, error) {
	page := positiveInt(q.Page, defaultPage)
	limit := positiveInt(q.Limit, defaultLimit)

	f := repositories.ProductFilter{
		Category:    filterValue(q.Category),
		SubCategory: filterValue(q.SubCategory),
		Brand:       filterValue(q.Brand),
	}
	lo, errLo := strconv.ParseFloat(q.MinPrice, 64)
	hi, errHi := strconv.ParseFloat(q.MaxPrice, 64)
	if errLo == nil && errHi == nil {
		f.MinPrice, f.MaxPrice = &lo, &hi
	}

	products, total, err := s.products.List(ctx, f, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &ProductPage{
		Products:      products,
		TotalPages:    int64(math.Ceil(float64(total) / float64(limit))),
		TotalProducts: total,
	}, nil
}

// Get returns a product with its reviews, served from cache when possible.
func (s *CatalogService) Get(ctx context.Context, id string) (*ProductDetail, error) {
	var detail ProductDetail
	if s.cache.Get(ctx, productKeySpace, productKey(id), &detail) {
		return &detail, nil
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	reviews, err := s.reviews.ByProduct(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reviews of %s: %w", id, err)
	}

	detail = ProductDetail{Product: p, Reviews: reviews}
	if err := s.cache.Set(ctx, productKey(id), detail, s.ttl); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache set failed", "product", id, "error", err)
	}
	return &detail, nil
}

// Create validates every required field, stores the product and seeds its
// rating from any reviews already pointing at the new id.
func (s *CatalogService) Create(ctx context.Context, in ProductFields) (*models.Product, error) {
	errs := map[string]string{}
	required := map[string]*string{
		"name":        in.Name,
		"category":    in.Category,
		"subCategory": in.SubCategory,
		"description": in.Description,
		"author":      in.Author,
	}
	for field, v := range required {
		if v == nil || strings.TrimSpace(*v) == "" {
			errs[field] = fmt.Sprintf("The %s field is required.", field)
		}
	}
	if in.Price == nil {
		errs["price"] = "The price field is required."
	}
	if len(in.Image) == 0 {
		errs["image"] = "The image field is required."
	}
	set := checkTypes(in, errs)
	if len(errs) > 0 {
		return nil, invalid("All required fields must be provided", errs)
	}

	p := &models.Product{
		Name:        *in.Name,
		Category:    *in.Category,
		SubCategory: *in.SubCategory,
		Description: *in.Description,
		Author:      *in.Author,
		Price:       in.Price.Value,
		Image:       set["image"].([]string),
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if v, ok := set["oldPrice"].(float64); ok {
		p.OldPrice = &v
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	reviews, err := s.reviews.ByProduct(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reviews of new product: %w", err)
	}
	if len(reviews) > 0 {
		var sum float64
		for _, r := range reviews {
			sum += r.Rating
		}
		updated, err := s.products.Update(ctx, p.ID.Hex(), repositories.ProductUpdate{"rating": sum / float64(len(reviews))})
		if err != nil {
			return nil, fmt.Errorf("rate new product: %w", err)
		}
		p = updated
	}
	return p, nil
}

// Update applies the present fields. images, when non-empty, replaces the
// image list and wins over an image field in the payload.
func (s *CatalogService) Update(ctx context.Context, id string, in ProductFields, images []string) (*models.Product, error) {
	errs := map[string]string{}
	set := checkTypes(in, errs)
	if len(errs) > 0 {
		return nil, invalid("Invalid product fields", errs)
	}

	for field, v := range map[string]*string{
		"name":        in.Name,
		"category":    in.Category,
		"subCategory": in.SubCategory,
		"brand":       in.Brand,
		"description": in.Description,
		"author":      in.Author,
	} {
		if v != nil {
			set[field] = *v
		}
	}
	if len(images) > 0 {
		set["image"] = images
	}

	p, err := s.products.Update(ctx, id, set)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	s.forget(ctx, id)
	return p, nil
}

// Delete removes the product and every review that references it.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	p, err := s.products.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	n, err := s.reviews.DeleteByProduct(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("delete reviews of %s: %w", id, err)
	}
	s.forget(ctx, id)

	logger.WithCtx(ctx).Info("catalog: product deleted", "product", id, "reviews_deleted", n)
	return nil
}

// Related finds other products sharing the category or a word of the name.
func (s *CatalogService) Related(ctx context.Context, id string) ([]models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	related, err := s.products.Related(ctx, p, namePattern(p.Name))
	if err != nil {
		return nil, fmt.Errorf("related to %s: %w", id, err)
	}
	return related, nil
}

// namePattern is an alternation of the quoted name words longer than one
// character.
func namePattern(name string) string {
	var words []string
	for _, w := range strings.Split(name, " ") {
		if utf8.RuneCountInString(w) > 1 {
			words = append(words, regexp.QuoteMeta(w))
		}
	}
	return strings.Join(words, "|")
}

// checkTypes validates the typed fields that are present and returns them as
// update values.
func checkTypes(in ProductFields, errs map[string]string) repositories.ProductUpdate {
	set := repositories.ProductUpdate{}
	if in.Price != nil {
		switch {
		case !in.Price.Valid:
			errs["price"] = "The price field must be a number."
		case in.Price.Value <= 0:
			errs["price"] = "The price must be greater than 0."
		default:
			set["price"] = in.Price.Value
		}
	}
	if in.OldPrice != nil {
		if !in.OldPrice.Valid || in.OldPrice.Value < 0 {
			errs["oldPrice"] = "The oldPrice field must be a non-negative number."
		} else {
			set["oldPrice"] = in.OldPrice.Value
		}
	}
	if len(in.Image) > 0 {
		var img []string
		switch {
		case json.Unmarshal(in.Image, &img) != nil:
			errs["image"] = "The image field must be an array of strings."
		case len(img) == 0:
			errs["image"] = "The image field must contain at least one URL."
		default:
			set["image"] = img
		}
	}
	return set
}

func (s *CatalogService) forget(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, productKey(id)); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "product", id, "error", err)
	}
}

func productKey(id string) string { return "product:" + id }

func filterValue(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
