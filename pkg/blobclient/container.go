package blobclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yourorg/go-blobstore-kit/pkg/logging"
	"github.com/yourorg/go-blobstore-kit/pkg/sas"
	"github.com/yourorg/go-blobstore-kit/pkg/sharedkey"
	"github.com/yourorg/go-blobstore-kit/pkg/storeerr"
	"github.com/yourorg/go-blobstore-kit/pkg/transport"
)

// ContainerClient issues container-scoped operations. Obtain one from
// Client.NewContainerClient or NewContainerClientFromURL.
type ContainerClient struct {
	u        url.URL // container URL, may carry a SAS in its query
	name     string
	cred     *sharedkey.Credential // nil when authorization rides in the URL
	pipeline transport.Transport
	logger   logging.Logger
}

// NewContainerClientFromURL creates a ContainerClient from a full container
// URL, deriving the container name from the URL path. cred may be nil when
// the URL carries a SAS token.
func NewContainerClientFromURL(containerURL string, cred *sharedkey.Credential, options *ClientOptions) (*ContainerClient, error) {
	u, err := url.Parse(containerURL)
	if err != nil {
		return nil, fmt.Errorf("blobclient: parse container URL: %w", err)
	}
	name, err := containerNameFromURL(u)
	if err != nil {
		return nil, err
	}

	endpoint := *u
	endpoint.Path = ""
	endpoint.RawPath = ""
	client, err := newClient(endpoint.String(), cred, options)
	if err != nil {
		return nil, err
	}
	return &ContainerClient{
		u:        *u,
		name:     name,
		cred:     cred,
		pipeline: client.pipeline,
		logger:   client.logger,
	}, nil
}

// URL returns the container URL.
func (c *ContainerClient) URL() string {
	return c.u.String()
}

// ContainerName returns the container name derived at construction.
func (c *ContainerClient) ContainerName() string {
	return c.name
}

// NewBlobClient returns a client scoped to the named blob in this container.
func (c *ContainerClient) NewBlobClient(blobName string) *BlobClient {
	return &BlobClient{
		u:             appendPath(c.u, blobName),
		containerName: c.name,
		blobName:      blobName,
		cred:          c.cred,
		pipeline:      c.pipeline,
		logger:        c.logger,
	}
}

// do sends req through the pipeline and translates failures into the typed
// error set. A response with a status outside ok is consumed and returned as
// a *storeerr.StorageError.
func do(pipeline transport.Transport, req *http.Request, ok ...int) (*http.Response, error) {
	resp, err := pipeline.Do(req)
	if err != nil {
		return nil, storeerr.FromTransportError(err)
	}
	for _, status := range ok {
		if resp.StatusCode == status {
			return resp, nil
		}
	}
	defer resp.Body.Close()
	return nil, storeerr.FromResponse(resp)
}

// Create creates the container. Fails with CodeContainerAlreadyExists when it
// is already present.
func (c *ContainerClient) Create(ctx context.Context) error {
	u := mergeQuery(c.u, map[string]string{"restype": "container"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := do(c.pipeline, req, http.StatusCreated)
	if err != nil {
		return err
	}
	resp.Body.Close()

	c.logger.Debug("container created", logging.NewField("container", c.name))
	return nil
}

// CreateIfNotExists creates the container, treating an already-exists
// collision as success. It reports whether the container was created by this
// call.
func (c *ContainerClient) CreateIfNotExists(ctx context.Context) (bool, error) {
	err := c.Create(ctx)
	if err == nil {
		return true, nil
	}
	if storeerr.HasCode(err, storeerr.CodeContainerAlreadyExists) {
		return false, nil
	}
	return false, err
}

// Delete removes the container. Fails with CodeContainerNotFound when it is
// absent.
func (c *ContainerClient) Delete(ctx context.Context) error {
	u := mergeQuery(c.u, map[string]string{"restype": "container"})
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := do(c.pipeline, req, http.StatusAccepted)
	if err != nil {
		return err
	}
	resp.Body.Close()

	c.logger.Debug("container deleted", logging.NewField("container", c.name))
	return nil
}

// DeleteIfExists removes the container, treating a missing container as
// success. It reports whether the container was deleted by this call.
func (c *ContainerClient) DeleteIfExists(ctx context.Context) (bool, error) {
	err := c.Delete(ctx)
	if err == nil {
		return true, nil
	}
	if storeerr.HasCode(err, storeerr.CodeContainerNotFound) {
		return false, nil
	}
	return false, err
}

// Exists reports whether the container is present. A not-found response maps
// to (false, nil); every other failure is returned to the caller.
func (c *ContainerClient) Exists(ctx context.Context) (bool, error) {
	_, err := c.GetProperties(ctx)
	if err == nil {
		return true, nil
	}
	if storeerr.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// GetProperties fetches the container's properties from the response headers
// of a HEAD request.
func (c *ContainerClient) GetProperties(ctx context.Context) (ContainerProperties, error) {
	u := mergeQuery(c.u, map[string]string{"restype": "container"})
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return ContainerProperties{}, err
	}

	resp, err := do(c.pipeline, req, http.StatusOK)
	if err != nil {
		return ContainerProperties{}, err
	}
	resp.Body.Close()

	return newContainerPropertiesFromHeaders(resp.Header), nil
}

// GenerateSASURL returns the container URL with a signed SAS query string
// appended. It requires the client to have been constructed with a shared
// key credential. On a plain-http endpoint the signature permits both http
// and https, so development emulators remain usable.
func (c *ContainerClient) GenerateSASURL(permissions sas.ContainerPermissions, expiry time.Time) (string, error) {
	if c.cred == nil {
		return "", storeerr.ErrNoSharedKeyCredential
	}

	values := sas.SignatureValues{
		ContainerName: c.name,
		Permissions:   permissions.String(),
		ExpiryTime:    expiry,
	}
	if c.u.Scheme == "http" {
		values.Protocol = sas.ProtocolHTTPSandHTTP
	}

	qp, err := values.Sign(c.cred)
	if err != nil {
		return "", err
	}
	signed := appendRawQuery(c.u, qp.Encode())
	return signed.String(), nil
}
