package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBlobs keeps blobs in process memory. Used for offline runs.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string]string
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[string]string)}
}

func (m *MemoryBlobs) UploadText(ctx context.Context, containerName, blobName, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[containerName+"/"+blobName] = content
	return nil
}

func (m *MemoryBlobs) DownloadText(ctx context.Context, containerName, blobName string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.blobs[containerName+"/"+blobName]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", containerName, blobName, ErrNotFound)
	}
	return content, nil
}
