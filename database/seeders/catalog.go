package seeders

import (
	"context"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
)

func init() {
	Register("catalog", SeedCatalog)
}

var demoProducts = []models.Product{
	{Name: "Khalas Dates 1kg", Category: "food", SubCategory: "dates", Brand: "Bahla Farms", Price: 3.5, Description: "Soft Khalas dates from the interior."},
	{Name: "Omani Halwa", Category: "food", SubCategory: "sweets", Brand: "Al Saifi", Price: 6.25, Description: "Saffron and rose water halwa."},
	{Name: "Hojari Frankincense", Category: "beauty", SubCategory: "incense", Brand: "Dhofar Gold", Price: 12, Description: "Silver-grade resin from Dhofar."},
	{Name: "Silver Khanjar", Category: "crafts", SubCategory: "silverware", Brand: "Nizwa Souq", Price: 180, Description: "Hand-engraved ceremonial dagger."},
	{Name: "Nizwa Clay Pot", Category: "crafts", SubCategory: "pottery", Brand: "Nizwa Souq", Price: 14.5, Description: "Unglazed water jar."},
}

// SeedCatalog inserts the demo products, each with one review, when the
// catalogue is empty.
func SeedCatalog(ctx context.Context, d Deps) error {
	_, total, err := d.Store.Products.List(ctx, repositories.ProductFilter{}, 0, 1)
	if err != nil || total > 0 {
		return err
	}

	for i := range demoProducts {
		p := demoProducts[i]
		p.Author = "seed"
		p.Image = []string{"/storage/demo/" + p.SubCategory + ".jpg"}
		if err := d.Store.Products.Create(ctx, &p); err != nil {
			return err
		}
		review := &models.Review{ProductID: p.ID, UserID: "seed", Rating: 4 + float64(i%2), Comment: "Great quality."}
		if err := d.Store.Reviews.Create(ctx, review); err != nil {
			return err
		}
		if _, err := d.Store.Products.Update(ctx, p.ID.Hex(), repositories.ProductUpdate{"rating": review.Rating}); err != nil {
			return err
		}
	}
	return nil
}
