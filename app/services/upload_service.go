package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/storage"
	"github.com/shashiranjanraj/souq/pkg/workerpool"
)

const uploadDir = "products"

var errMalformedDataURL = errors.New("malformed data URL")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Upload is one decoded file waiting to be stored.
type Upload struct {
	Content     []byte
	ContentType string
}

type UploadService struct {
	disk storage.Disk
	pool *workerpool.Pool
}

func NewUploadService(disk storage.Disk, pool *workerpool.Pool) *UploadService {
	return &UploadService{disk: disk, pool: pool}
}

// DecodeImages turns base64 strings or data URLs into uploads. Nothing is
// stored when any entry is invalid.
func DecodeImages(images []string) ([]Upload, error) {
	if len(images) == 0 {
		return nil, invalid("Images must be a non-empty array", map[string]string{"images": "The images field is required."})
	}

	out := make([]Upload, 0, len(images))
	errs := map[string]string{}
	for i, raw := range images {
		content, err := decodeDataURL(raw)
		if err != nil || len(content) == 0 {
			errs["images."+strconv.Itoa(i)] = "The image must be base64 encoded."
			continue
		}
		out = append(out, Upload{Content: content, ContentType: http.DetectContentType(content)})
	}
	if len(errs) > 0 {
		return nil, invalid("Invalid image data", errs)
	}
	return out, nil
}

// Store writes every upload under products/ and returns their public URLs in
// input order. When any write fails the ones that succeeded are removed.
func (s *UploadService) Store(ctx context.Context, uploads []Upload) ([]string, error) {
	urls := make([]string, len(uploads))
	tasks := make([]workerpool.Task, len(uploads))
	for i, up := range uploads {
		i, up := i, up
		tasks[i] = func(ctx context.Context) error {
			name := path.Join(uploadDir, uuid.NewString()+extensionFor(up.ContentType))
			if err := s.disk.Put(ctx, name, up.Content, up.ContentType); err != nil {
				return fmt.Errorf("store %s: %w", name, err)
			}
			urls[i] = s.disk.URL(name)
			return nil
		}
	}

	if err := s.pool.Run(ctx, tasks...); err != nil {
		s.Discard(ctx, urls)
		return nil, err
	}
	logger.WithCtx(ctx).Info("uploads: images stored", "count", len(urls))
	return urls, nil
}

// Discard deletes files previously returned by Store. Failures are logged,
// not returned; the caller is already on an error path.
func (s *UploadService) Discard(ctx context.Context, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, u := range urls {
		if u == "" {
			continue
		}
		name := path.Join(uploadDir, path.Base(u))
		if err := s.disk.Delete(ctx, name); err != nil {
			logger.WithCtx(ctx).Warn("uploads: discard failed", "path", name, "error", err)
		}
	}
}

// UploadImages decodes and stores base64 images.
func (s *UploadService) UploadImages(ctx context.Context, images []string) ([]string, error) {
	uploads, err := DecodeImages(images)
	if err != nil {
		return nil, err
	}
	return s.Store(ctx, uploads)
}

func decodeDataURL(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		i := strings.Index(raw, ",")
		if i < 0 || !strings.HasSuffix(raw[:i], ";base64") {
			return nil, errMalformedDataURL
		}
		raw = raw[i+1:]
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(raw)
}

func extensionFor(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	if ext, ok := imageExtensions[ct]; ok {
		return ext
	}
	return ".bin"
}
