package blobclient

import (
	"context"
	"io"
	"time"

	"github.com/yourorg/go-blobstore-kit/pkg/sas"
)

// BlobStore is the storage-facing interface consumed by services built on
// this kit. The REST-backed implementation talks to a real endpoint; the
// mock keeps everything in memory.
type BlobStore interface {
	// CreateContainer creates the container if absent, reporting whether
	// this call created it.
	CreateContainer(ctx context.Context, container string) (bool, error)

	// DeleteContainer removes the container if present, reporting whether
	// this call deleted it.
	DeleteContainer(ctx context.Context, container string) (bool, error)

	// ContainerExists reports whether the container is present.
	ContainerExists(ctx context.Context, container string) (bool, error)

	// ListBlobs lists every blob in the container with the given prefix.
	ListBlobs(ctx context.Context, container, prefix string) ([]BlobItem, error)

	// Upload writes a blob and returns its URL.
	Upload(ctx context.Context, container, blobName string, data io.Reader, contentType string) (string, error)

	// Download streams a blob's content.
	Download(ctx context.Context, container, blobName string) (io.ReadCloser, error)

	// DeleteBlob removes a blob if present.
	DeleteBlob(ctx context.Context, container, blobName string) error

	// ContainerSASURL returns a delegated-access URL for the container.
	ContainerSASURL(ctx context.Context, container string, permissions sas.ContainerPermissions, expiry time.Time) (string, error)
}

// restStore implements BlobStore over a Client.
type restStore struct {
	client *Client
}

// NewBlobStore wraps client as a BlobStore.
func NewBlobStore(client *Client) BlobStore {
	return &restStore{client: client}
}

func (s *restStore) CreateContainer(ctx context.Context, container string) (bool, error) {
	return s.client.NewContainerClient(container).CreateIfNotExists(ctx)
}

func (s *restStore) DeleteContainer(ctx context.Context, container string) (bool, error) {
	return s.client.NewContainerClient(container).DeleteIfExists(ctx)
}

func (s *restStore) ContainerExists(ctx context.Context, container string) (bool, error) {
	return s.client.NewContainerClient(container).Exists(ctx)
}

func (s *restStore) ListBlobs(ctx context.Context, container, prefix string) ([]BlobItem, error) {
	return s.client.NewContainerClient(container).ListBlobs(ctx, prefix)
}

func (s *restStore) Upload(ctx context.Context, container, blobName string, data io.Reader, contentType string) (string, error) {
	blob := s.client.NewContainerClient(container).NewBlobClient(blobName)
	if _, err := blob.Upload(ctx, data, &UploadOptions{ContentType: contentType}); err != nil {
		return "", err
	}
	return blob.URL(), nil
}

func (s *restStore) Download(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	resp, err := s.client.NewContainerClient(container).NewBlobClient(blobName).Download(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *restStore) DeleteBlob(ctx context.Context, container, blobName string) error {
	_, err := s.client.NewContainerClient(container).NewBlobClient(blobName).DeleteIfExists(ctx)
	return err
}

func (s *restStore) ContainerSASURL(ctx context.Context, container string, permissions sas.ContainerPermissions, expiry time.Time) (string, error) {
	return s.client.NewContainerClient(container).GenerateSASURL(permissions, expiry)
}
