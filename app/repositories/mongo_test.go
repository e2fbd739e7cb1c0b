package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
)

func TestMongoOrders(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find by id decodes the order", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.orders", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "orderId", Value: "sess_1"},
			{Key: "amount", Value: 12.5},
			{Key: "status", Value: "pending"},
		}))

		o, err := repositories.NewMongoOrders(mt.DB).FindByID(ctx, id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "sess_1", o.OrderID)
		assert.Equal(mt, models.StatusPending, o.Status)
	})

	mt.Run("missing order is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.orders", mtest.FirstBatch))

		_, err := repositories.NewMongoOrders(mt.DB).FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, repositories.ErrNotFound)
	})

	mt.Run("malformed id never reaches the server", func(mt *mtest.T) {
		_, err := repositories.NewMongoOrders(mt.DB).Delete(ctx, "xyz")
		assert.ErrorIs(mt, err, repositories.ErrNotFound)
	})

	mt.Run("upsert returns the stored document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "orderId", Value: "sess_2"},
			{Key: "status", Value: "completed"},
		}}))

		o, err := repositories.NewMongoOrders(mt.DB).UpsertBySession(ctx, &models.Order{OrderID: "sess_2", Status: models.StatusCompleted})
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusCompleted, o.Status)
	})

	mt.Run("list decodes every batch", func(mt *mtest.T) {
		first := mtest.CreateCursorResponse(1, "test.orders", mtest.FirstBatch,
			bson.D{{Key: "orderId", Value: "b"}})
		next := mtest.CreateCursorResponse(0, "test.orders", mtest.NextBatch,
			bson.D{{Key: "orderId", Value: "a"}})
		mt.AddMockResponses(first, next)

		list, err := repositories.NewMongoOrders(mt.DB).List(ctx)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "b", list[0].OrderID)
	})
}

func TestMongoProducts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("list counts then pages", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}),
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
				bson.D{{Key: "name", Value: "Oud"}, {Key: "price", Value: 10.0}}),
		)

		page, total, err := repositories.NewMongoProducts(mt.DB).List(ctx, repositories.ProductFilter{Category: "perfume"}, 0, 1)
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, total)
		require.Len(mt, page, 1)
		assert.Equal(mt, "Oud", page[0].Name)
	})

	mt.Run("delete reviews reports the count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}))

		n, err := repositories.NewMongoReviews(mt.DB).DeleteByProduct(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)
	})
}
