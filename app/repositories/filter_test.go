package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/souq/app/models"
)

func TestProductFilterNeedsBothPriceBounds(t *testing.T) {
	lo := 5.0
	f := productFilter(ProductFilter{Category: "perfume", MinPrice: &lo})
	assert.Equal(t, bson.M{"category": "perfume"}, f)

	hi := 9.0
	f = productFilter(ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	assert.Equal(t, bson.M{"price": bson.M{"$gte": 5.0, "$lte": 9.0}}, f)
}

func TestRelatedFilterExcludesSource(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), Category: "perfume"}

	f := relatedFilter(p, "Oud")
	assert.Equal(t, bson.M{"$ne": p.ID}, f["_id"])
	assert.Len(t, f["$or"], 2)

	f = relatedFilter(p, "")
	assert.Len(t, f["$or"], 1)
}
