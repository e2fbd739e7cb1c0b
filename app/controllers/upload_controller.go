package controllers

import (
	"encoding/json"

	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

type UploadController struct {
	uploads *services.UploadService
}

func NewUploadController(uploads *services.UploadService) *UploadController {
	return &UploadController{uploads: uploads}
}

// UploadImages stores {images: [base64...]} and returns their URLs.
func (c *UploadController) UploadImages(x *ctx.Context) {
	var body struct {
		Images json.RawMessage `json:"images"`
	}
	if !x.BindJSON(&body) {
		return
	}

	var images []string
	if json.Unmarshal(body.Images, &images) != nil {
		x.ValidationError("Images must be a non-empty array", map[string]string{"images": "The images field must be an array of strings."})
		return
	}

	urls, err := c.uploads.UploadImages(x.Context(), images)
	if err != nil {
		fail(x, err, "", "Failed to upload images")
		return
	}
	x.OK(urls)
}
