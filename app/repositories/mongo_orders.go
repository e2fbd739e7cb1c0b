package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/pkg/metrics"
)

const ordersCollection = "orders"

type MongoOrders struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoOrders(db *mongo.Database) *MongoOrders {
	return &MongoOrders{col: db.Collection(ordersCollection), now: mongoNow}
}

func (r *MongoOrders) Create(ctx context.Context, o *models.Order) error {
	defer metrics.ObserveDBQuery(ordersCollection, "insert", time.Now())

	now := r.now()
	o.CreatedAt, o.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert order %s: %w", o.OrderID, ErrDuplicate)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = insertedID(res)
	return nil
}

func (r *MongoOrders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery(ordersCollection, "find_one", time.Now())
	return decodeOne[models.Order](r.col.FindOne(ctx, bson.M{"_id": oid}))
}

func (r *MongoOrders) FindByEmail(ctx context.Context, email string) ([]models.Order, error) {
	defer metrics.ObserveDBQuery(ordersCollection, "find", time.Now())
	return findAll[models.Order](ctx, r.col, bson.M{"email": email}, newestFirst())
}

func (r *MongoOrders) List(ctx context.Context) ([]models.Order, error) {
	defer metrics.ObserveDBQuery(ordersCollection, "find", time.Now())
	return findAll[models.Order](ctx, r.col, bson.M{}, newestFirst())
}

func (r *MongoOrders) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery(ordersCollection, "update", time.Now())
	return r.setStatus(ctx, bson.M{"_id": oid}, status)
}

func (r *MongoOrders) SetStatusBySession(ctx context.Context, sessionID string, status models.OrderStatus) (*models.Order, error) {
	defer metrics.ObserveDBQuery(ordersCollection, "update", time.Now())
	return r.setStatus(ctx, bson.M{"orderId": sessionID}, status)
}

func (r *MongoOrders) setStatus(ctx context.Context, filter bson.M, status models.OrderStatus) (*models.Order, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": r.now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeOne[models.Order](r.col.FindOneAndUpdate(ctx, filter, update, opts))
}

func (r *MongoOrders) Delete(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery(ordersCollection, "delete", time.Now())
	return decodeOne[models.Order](r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}))
}

func (r *MongoOrders) UpsertBySession(ctx context.Context, o *models.Order) (*models.Order, error) {
	defer metrics.ObserveDBQuery(ordersCollection, "upsert", time.Now())

	now := r.now()
	update := bson.M{
		"$set": bson.M{"status": o.Status, "updatedAt": now},
		"$setOnInsert": bson.M{
			"products":  o.Products,
			"amount":    o.Amount,
			"email":     o.Email,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	res := r.col.FindOneAndUpdate(ctx, bson.M{"orderId": o.OrderID}, update, opts)
	if err := res.Err(); err != nil && mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on the unique index; the loser retries as an update.
		res = r.col.FindOneAndUpdate(ctx, bson.M{"orderId": o.OrderID}, update, opts)
	}
	return decodeOne[models.Order](res)
}

// EnsureIndexes creates the unique session index and the sort/lookup indexes.
func (r *MongoOrders) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("orderId_unique")},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("orders indexes: %w", err)
	}
	return nil
}

func mongoNow() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

func decodeOne[T any](res *mongo.SingleResult) (*T, error) {
	var out T
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", col.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", col.Name(), err)
	}
	return out, nil
}

func insertedID(res *mongo.InsertOneResult) primitive.ObjectID {
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid
}
