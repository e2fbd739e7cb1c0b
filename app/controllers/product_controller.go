package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/bind"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

type ProductController struct {
	catalog *services.CatalogService
	uploads *services.UploadService
}

func NewProductController(catalog *services.CatalogService, uploads *services.UploadService) *ProductController {
	return &ProductController{catalog: catalog, uploads: uploads}
}

// Index lists products: GET /products/?category&subCategory&brand&minPrice&maxPrice&page&limit
func (c *ProductController) Index(x *ctx.Context) {
	page, err := c.catalog.List(x.Context(), services.ListQuery{
		Category:    x.Query("category"),
		SubCategory: x.Query("subCategory"),
		Brand:       x.Query("brand"),
		MinPrice:    x.Query("minPrice"),
		MaxPrice:    x.Query("maxPrice"),
		Page:        x.Query("page"),
		Limit:       x.Query("limit"),
	})
	if err != nil {
		fail(x, err, "", "Failed to fetch products")
		return
	}
	x.OK(page)
}

func (c *ProductController) Show(x *ctx.Context) {
	detail, err := c.catalog.Get(x.Context(), x.Param("id"))
	if err != nil {
		fail(x, err, "Product not found", "Failed to fetch product")
		return
	}
	x.OK(detail)
}

func (c *ProductController) Store(x *ctx.Context) {
	var in services.ProductFields
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.catalog.Create(x.Context(), in)
	if err != nil {
		fail(x, err, "", "Failed to create product")
		return
	}
	x.Created(p)
}

// Update accepts JSON or multipart/form-data; uploaded "image" files replace
// the product's image list.
func (c *ProductController) Update(x *ctx.Context) {
	var (
		in     services.ProductFields
		images []string
	)
	if isMultipart(x.R) {
		var err error
		if in, images, err = c.readProductForm(x); err != nil {
			fail(x, err, "", "Failed to upload images")
			return
		}
	} else if !x.BindJSON(&in) {
		return
	}

	p, err := c.catalog.Update(x.Context(), x.Param("id"), in, images)
	if err != nil {
		c.uploads.Discard(x.Context(), images)
		fail(x, err, "Product not found", "Failed to update product")
		return
	}
	x.OK(map[string]any{"message": "Product updated successfully", "product": p})
}

func (c *ProductController) Destroy(x *ctx.Context) {
	if err := c.catalog.Delete(x.Context(), x.Param("id")); err != nil {
		fail(x, err, "Product not found", "Failed to delete product")
		return
	}
	x.OK(map[string]any{"message": "Product deleted successfully"})
}

func (c *ProductController) Related(x *ctx.Context) {
	products, err := c.catalog.Related(x.Context(), x.Param("id"))
	if err != nil {
		fail(x, err, "Product not found", "Failed to fetch related products")
		return
	}
	x.OK(products)
}

// readProductForm maps multipart values onto ProductFields and stores any
// uploaded image files.
func (c *ProductController) readProductForm(x *ctx.Context) (services.ProductFields, []string, error) {
	var in services.ProductFields

	x.R.Body = http.MaxBytesReader(x.W, x.R.Body, bind.MaxBodyBytes())
	if err := x.R.ParseMultipartForm(bind.MaxBodyBytes()); err != nil {
		return in, nil, &services.ValidationError{Message: "Invalid multipart form", Fields: map[string]string{"form": err.Error()}}
	}
	form := x.R.MultipartForm

	text := func(key string) *string {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	targets := map[string]**string{
		"name":        &in.Name,
		"category":    &in.Category,
		"subCategory": &in.SubCategory,
		"brand":       &in.Brand,
		"description": &in.Description,
		"author":      &in.Author,
	}
	for key, dst := range targets {
		*dst = text(key)
	}
	if v := text("price"); v != nil {
		a := services.ParseAmount(*v)
		in.Price = &a
	}
	if v := text("oldPrice"); v != nil {
		a := services.ParseAmount(*v)
		in.OldPrice = &a
	}
	if v := text("image"); v != nil {
		in.Image = json.RawMessage(*v)
	}

	files := form.File["image"]
	if len(files) == 0 {
		return in, nil, nil
	}
	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return in, nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return in, nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, services.Upload{Content: content, ContentType: http.DetectContentType(content)})
	}

	urls, err := c.uploads.Store(x.Context(), uploads)
	if err != nil {
		return in, nil, err
	}
	return in, urls, nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
