package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/pkg/metrics"
)

const (
	productsCollection = "products"
	reviewsCollection  = "reviews"
)

type MongoProducts struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoProducts(db *mongo.Database) *MongoProducts {
	return &MongoProducts{col: db.Collection(productsCollection), now: mongoNow}
}

func (r *MongoProducts) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery(productsCollection, "insert", time.Now())

	now := r.now()
	p.CreatedAt, p.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = insertedID(res)
	return nil
}

func (r *MongoProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery(productsCollection, "find_one", time.Now())
	return decodeOne[models.Product](r.col.FindOne(ctx, bson.M{"_id": oid}))
}

func (r *MongoProducts) List(ctx context.Context, f ProductFilter, skip, limit int64) ([]models.Product, int64, error) {
	defer metrics.ObserveDBQuery(productsCollection, "list", time.Now())

	filter := productFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := newestFirst().SetSkip(skip).SetLimit(limit)
	products, err := findAll[models.Product](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func productFilter(f ProductFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.SubCategory != "" {
		filter["subCategory"] = f.SubCategory
	}
	if f.Brand != "" {
		filter["brand"] = f.Brand
	}
	if f.MinPrice != nil && f.MaxPrice != nil {
		filter["price"] = bson.M{"$gte": *f.MinPrice, "$lte": *f.MaxPrice}
	}
	return filter
}

func (r *MongoProducts) Update(ctx context.Context, id string, set ProductUpdate) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery(productsCollection, "update", time.Now())

	fields := bson.M{"updatedAt": r.now()}
	for k, v := range set {
		fields[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeOne[models.Product](r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts))
}

func (r *MongoProducts) Delete(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery(productsCollection, "delete", time.Now())
	return decodeOne[models.Product](r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}))
}

func (r *MongoProducts) Related(ctx context.Context, p *models.Product, pattern string) ([]models.Product, error) {
	defer metrics.ObserveDBQuery(productsCollection, "related", time.Now())
	return findAll[models.Product](ctx, r.col, relatedFilter(p, pattern))
}

func relatedFilter(p *models.Product, pattern string) bson.M {
	or := bson.A{bson.M{"category": p.Category}}
	if pattern != "" {
		or = append(or, bson.M{"name": primitive.Regex{Pattern: pattern, Options: "i"}})
	}
	return bson.M{"_id": bson.M{"$ne": p.ID}, "$or": or}
}

func (r *MongoProducts) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("products indexes: %w", err)
	}
	return nil
}

type MongoReviews struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoReviews(db *mongo.Database) *MongoReviews {
	return &MongoReviews{col: db.Collection(reviewsCollection), now: mongoNow}
}

func (r *MongoReviews) Create(ctx context.Context, rv *models.Review) error {
	defer metrics.ObserveDBQuery(reviewsCollection, "insert", time.Now())

	now := r.now()
	rv.CreatedAt, rv.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, rv)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	rv.ID = insertedID(res)
	return nil
}

func (r *MongoReviews) ByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	defer metrics.ObserveDBQuery(reviewsCollection, "find", time.Now())
	return findAll[models.Review](ctx, r.col, bson.M{"productId": productID}, newestFirst())
}

func (r *MongoReviews) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) (int64, error) {
	defer metrics.ObserveDBQuery(reviewsCollection, "delete_many", time.Now())
	res, err := r.col.DeleteMany(ctx, bson.M{"productId": productID})
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoReviews) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "productId", Value: 1}}})
	if err != nil {
		return fmt.Errorf("reviews indexes: %w", err)
	}
	return nil
}

// NewMongoStore wires the Mongo-backed repositories.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Orders:   NewMongoOrders(db),
		Products: NewMongoProducts(db),
		Reviews:  NewMongoReviews(db),
	}
}

// EnsureIndexes creates indexes on every Mongo-backed repository in s.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	type indexer interface{ EnsureIndexes(context.Context) error }
	for _, r := range []any{s.Orders, s.Products, s.Reviews} {
		if ix, ok := r.(indexer); ok {
			if err := ix.EnsureIndexes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
