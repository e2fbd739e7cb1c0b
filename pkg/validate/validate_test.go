package validate_test

import (
	"testing"

	"github.com/shashiranjanraj/souq/pkg/validate"
)

type lineItem struct {
	Name     string  `json:"name"     validate:"required"`
	Price    float64 `json:"price"    validate:"gt=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

type checkoutInput struct {
	Email    string     `json:"email"    validate:"nullable,email"`
	Status   string     `json:"status"   validate:"nullable,in=pending|completed|failed"`
	Products []lineItem `json:"products" validate:"required,dive"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(checkoutInput{
		Email:    "buyer@example.com",
		Status:   "pending",
		Products: []lineItem{{Name: "Dates", Price: 2.5, Quantity: 2}},
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredSlice(t *testing.T) {
	errs := validate.Struct(checkoutInput{})
	if _, ok := errs["products"]; !ok {
		t.Errorf("expected products to be required, got %v", errs)
	}
}

func TestDiveReportsElementPath(t *testing.T) {
	errs := validate.Struct(&checkoutInput{
		Products: []lineItem{
			{Name: "ok", Price: 1, Quantity: 1},
			{Name: "bad", Price: -5, Quantity: 1},
		},
	})
	if _, ok := errs["products[1].price"]; !ok {
		t.Errorf("expected products[1].price error, got %v", errs)
	}
	if _, ok := errs["products[0].price"]; ok {
		t.Error("did not expect an error for products[0]")
	}
}

func TestNullableSkipsEmpty(t *testing.T) {
	errs := validate.Struct(checkoutInput{
		Products: []lineItem{{Name: "x", Price: 1, Quantity: 1}},
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected nullable fields to be skipped, got %v", errs)
	}
}

func TestEmailAndInRules(t *testing.T) {
	errs := validate.Struct(checkoutInput{
		Email:    "not-an-email",
		Status:   "lost",
		Products: []lineItem{{Name: "x", Price: 1, Quantity: 1}},
	})
	if _, ok := errs["email"]; !ok {
		t.Error("expected email error")
	}
	if _, ok := errs["status"]; !ok {
		t.Error("expected status error")
	}
}

func TestObjectIDAndLength(t *testing.T) {
	type in struct {
		ID   string `json:"id"   validate:"required,objectid"`
		Name string `json:"name" validate:"min=2,max=5"`
	}

	errs := validate.Struct(in{ID: "64b7f0c2a1b2c3d4e5f60718", Name: "abc"})
	if validate.HasErrors(errs) {
		t.Errorf("unexpected errors: %v", errs)
	}

	errs = validate.Struct(in{ID: "nope", Name: "toolongname"})
	if _, ok := errs["id"]; !ok {
		t.Error("expected id error")
	}
	if _, ok := errs["name"]; !ok {
		t.Error("expected name error")
	}
}
