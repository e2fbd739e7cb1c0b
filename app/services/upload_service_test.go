package services_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/storage"
	"github.com/shashiranjanraj/souq/pkg/workerpool"
)

// 1x1 transparent PNG.
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func newUploads(t *testing.T) (*services.UploadService, *storage.LocalDisk) {
	t.Helper()
	disk, err := storage.NewLocalDisk(t.TempDir(), "/storage")
	require.NoError(t, err)

	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)
	return services.NewUploadService(disk, pool), disk
}

func TestUploadImagesStoresEveryImage(t *testing.T) {
	svc, disk := newUploads(t)
	ctx := context.Background()

	urls, err := svc.UploadImages(ctx, []string{
		"data:image/png;base64," + pixelPNG,
		pixelPNG,
		base64.StdEncoding.EncodeToString([]byte("plain text")),
	})
	require.NoError(t, err)
	require.Len(t, urls, 3)

	assert.True(t, strings.HasSuffix(urls[0], ".png"))
	assert.True(t, strings.HasSuffix(urls[1], ".png"))
	assert.True(t, strings.HasSuffix(urls[2], ".bin"))
	assert.NotEqual(t, urls[0], urls[1])

	for _, u := range urls {
		require.True(t, strings.HasPrefix(u, "/storage/products/"), u)
		assert.True(t, disk.Exists(ctx, strings.TrimPrefix(u, "/storage/")), u)
	}
}

func TestUploadImagesRejectsBadInput(t *testing.T) {
	svc, _ := newUploads(t)
	ctx := context.Background()

	var verr *services.ValidationError
	_, err := svc.UploadImages(ctx, nil)
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UploadImages(ctx, []string{pixelPNG, "%%% not base64 %%%"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "images.1")

	_, err = svc.UploadImages(ctx, []string{"data:image/png," + pixelPNG})
	assert.ErrorAs(t, err, &verr)
}

func TestDiscardRemovesStoredImages(t *testing.T) {
	svc, disk := newUploads(t)
	ctx := context.Background()

	urls, err := svc.UploadImages(ctx, []string{pixelPNG, pixelPNG})
	require.NoError(t, err)

	svc.Discard(ctx, append(urls, "", "/storage/products/never-stored.png"))
	for _, u := range urls {
		assert.False(t, disk.Exists(ctx, strings.TrimPrefix(u, "/storage/")), u)
	}
}
