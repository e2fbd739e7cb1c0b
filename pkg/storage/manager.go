package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/souq/config"
)

// Manager holds the configured disks and the name of the default one.
type Manager struct {
	mu          sync.RWMutex
	disks       map[string]Disk
	defaultDisk string
}

// NewManager boots the local disk always and the s3 disk when a bucket is
// configured.
func NewManager(ctx context.Context, s config.StorageSettings) (*Manager, error) {
	m := &Manager{disks: map[string]Disk{}, defaultDisk: s.Disk}

	local, err := NewLocalDisk(s.LocalRoot, s.LocalURL)
	if err != nil {
		return nil, err
	}
	m.disks["local"] = local

	if s.S3Bucket != "" {
		d, err := NewS3Disk(ctx, S3Options{
			Bucket:   s.S3Bucket,
			Region:   s.S3Region,
			Key:      s.S3Key,
			Secret:   s.S3Secret,
			Endpoint: s.S3Endpoint,
			BaseURL:  s.S3URL,
		})
		if err != nil {
			return nil, err
		}
		m.disks["s3"] = d
	}

	if _, err := m.Use(s.Disk); err != nil {
		return nil, err
	}
	return m, nil
}

// Register adds or replaces a named disk.
func (m *Manager) Register(name string, d Disk) {
	m.mu.Lock()
	m.disks[name] = d
	m.mu.Unlock()
}

// Use returns the named disk.
func (m *Manager) Use(name string) (Disk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the disk named by STORAGE_DISK.
func (m *Manager) Default() Disk {
	d, _ := m.Use(m.defaultDisk)
	return d
}

// Local returns the local disk, which the HTTP kernel serves under /storage.
func (m *Manager) Local() *LocalDisk {
	d, _ := m.Use("local")
	ld, _ := d.(*LocalDisk)
	return ld
}
