package blobclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/go-blobstore-kit/pkg/sas"
	"github.com/yourorg/go-blobstore-kit/pkg/storeerr"
)

// MockBlobStore is an in-memory BlobStore for tests and local development.
// It reproduces the error taxonomy of the REST-backed store so callers can
// exercise their error handling without an endpoint.
type MockBlobStore struct {
	mu         sync.RWMutex
	containers map[string]map[string][]byte // container -> blob name -> data
}

// NewMockBlobStore creates an empty in-memory store.
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{containers: make(map[string]map[string][]byte)}
}

func (m *MockBlobStore) CreateContainer(ctx context.Context, container string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[container]; ok {
		return false, nil
	}
	m.containers[container] = make(map[string][]byte)
	return true, nil
}

func (m *MockBlobStore) DeleteContainer(ctx context.Context, container string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[container]; !ok {
		return false, nil
	}
	delete(m.containers, container)
	return true, nil
}

func (m *MockBlobStore) ContainerExists(ctx context.Context, container string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.containers[container]
	return ok, nil
}

func (m *MockBlobStore) ListBlobs(ctx context.Context, container, prefix string) ([]BlobItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blobs, ok := m.containers[container]
	if !ok {
		return nil, &storeerr.StorageError{Code: storeerr.CodeContainerNotFound, StatusCode: 404}
	}

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	items := make([]BlobItem, 0, len(names))
	for _, name := range names {
		items = append(items, BlobItem{
			Name: name,
			Properties: BlobItemProperties{
				ContentLength: int64(len(blobs[name])),
				ContentType:   "application/octet-stream",
			},
		})
	}
	return items, nil
}

func (m *MockBlobStore) Upload(ctx context.Context, container, blobName string, data io.Reader, contentType string) (string, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.containers[container] == nil {
		m.containers[container] = make(map[string][]byte)
	}
	m.containers[container][blobName] = content
	return fmt.Sprintf("mock://%s/%s", container, blobName), nil
}

func (m *MockBlobStore) Download(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blobs, ok := m.containers[container]
	if !ok {
		return nil, &storeerr.StorageError{Code: storeerr.CodeContainerNotFound, StatusCode: 404}
	}
	data, ok := blobs[blobName]
	if !ok {
		return nil, &storeerr.StorageError{Code: storeerr.CodeBlobNotFound, StatusCode: 404}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStore) DeleteBlob(ctx context.Context, container, blobName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if blobs, ok := m.containers[container]; ok {
		delete(blobs, blobName)
	}
	return nil
}

func (m *MockBlobStore) ContainerSASURL(ctx context.Context, container string, permissions sas.ContainerPermissions, expiry time.Time) (string, error) {
	return "", storeerr.ErrNoSharedKeyCredential
}
