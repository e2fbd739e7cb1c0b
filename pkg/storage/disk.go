// Package storage stores uploaded files on a local directory or an
// S3-compatible bucket (AWS S3, MinIO, R2) behind one Disk interface.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for missing objects.
var ErrNotFound = errors.New("storage: object not found")

// Disk is implemented by every driver.
type Disk interface {
	// Put writes content to path, replacing any existing object.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// Get returns the object at path.
	Get(ctx context.Context, path string) ([]byte, error)

	Exists(ctx context.Context, path string) bool

	// Delete removes path; missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// URL is the public address of path.
	URL(path string) string
}
