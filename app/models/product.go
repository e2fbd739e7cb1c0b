package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalogue entry. Rating is the review average captured at
// creation time.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	SubCategory string             `bson:"subCategory" json:"subCategory"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	OldPrice    *float64           `bson:"oldPrice,omitempty" json:"oldPrice,omitempty"`
	Image       []string           `bson:"image" json:"image"`
	Rating      float64            `bson:"rating" json:"rating"`
	Author      string             `bson:"author" json:"author"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
