package blobclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yourorg/go-blobstore-kit/pkg/logging"
	"github.com/yourorg/go-blobstore-kit/pkg/sas"
	"github.com/yourorg/go-blobstore-kit/pkg/sharedkey"
	"github.com/yourorg/go-blobstore-kit/pkg/storeerr"
	"github.com/yourorg/go-blobstore-kit/pkg/transport"
)

// BlobClient issues blob-scoped operations. Obtain one from
// ContainerClient.NewBlobClient.
type BlobClient struct {
	u             url.URL
	containerName string
	blobName      string
	cred          *sharedkey.Credential
	pipeline      transport.Transport
	logger        logging.Logger
}

// URL returns the blob URL.
func (b *BlobClient) URL() string {
	return b.u.String()
}

// BlobName returns the blob name.
func (b *BlobClient) BlobName() string {
	return b.blobName
}

// UploadOptions customizes an Upload.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Upload writes body as a block blob, replacing any existing content. The
// body is buffered so the request carries an exact Content-Length, which the
// service requires for Put Blob.
func (b *BlobClient) Upload(ctx context.Context, body io.Reader, options *UploadOptions) (BlobProperties, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return BlobProperties{}, fmt.Errorf("blobclient: read upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.u.String(), bytes.NewReader(data))
	if err != nil {
		return BlobProperties{}, err
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	if options != nil {
		if options.ContentType != "" {
			req.Header.Set("Content-Type", options.ContentType)
		}
		for key, value := range options.Metadata {
			req.Header.Set("x-ms-meta-"+key, value)
		}
	}

	resp, err := do(b.pipeline, req, http.StatusCreated)
	if err != nil {
		return BlobProperties{}, err
	}
	resp.Body.Close()

	b.logger.Debug("blob uploaded",
		logging.NewField("container", b.containerName),
		logging.NewField("blob", b.blobName),
		logging.NewField("size", int64(len(data))))

	props := newBlobPropertiesFromHeaders(resp.Header)
	props.ContentLength = int64(len(data))
	return props, nil
}

// DownloadResponse is the result of a Download: the body stream plus the
// properties parsed from the response headers. The caller owns Body.
type DownloadResponse struct {
	Body       io.ReadCloser
	Properties BlobProperties
}

// Download streams the blob's content.
func (b *BlobClient) Download(ctx context.Context) (DownloadResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.u.String(), nil)
	if err != nil {
		return DownloadResponse{}, err
	}

	resp, err := do(b.pipeline, req, http.StatusOK, http.StatusPartialContent)
	if err != nil {
		return DownloadResponse{}, err
	}

	return DownloadResponse{
		Body:       resp.Body,
		Properties: newBlobPropertiesFromHeaders(resp.Header),
	}, nil
}

// GetProperties fetches the blob's properties via a HEAD request.
func (b *BlobClient) GetProperties(ctx context.Context) (BlobProperties, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.u.String(), nil)
	if err != nil {
		return BlobProperties{}, err
	}

	resp, err := do(b.pipeline, req, http.StatusOK)
	if err != nil {
		return BlobProperties{}, err
	}
	resp.Body.Close()

	return newBlobPropertiesFromHeaders(resp.Header), nil
}

// Exists reports whether the blob is present. A not-found response maps to
// (false, nil); every other failure is returned to the caller.
func (b *BlobClient) Exists(ctx context.Context) (bool, error) {
	_, err := b.GetProperties(ctx)
	if err == nil {
		return true, nil
	}
	if storeerr.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Delete removes the blob. Fails with CodeBlobNotFound when it is absent.
func (b *BlobClient) Delete(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := do(b.pipeline, req, http.StatusAccepted)
	if err != nil {
		return err
	}
	resp.Body.Close()

	b.logger.Debug("blob deleted",
		logging.NewField("container", b.containerName),
		logging.NewField("blob", b.blobName))
	return nil
}

// DeleteIfExists removes the blob, treating a missing blob as success. It
// reports whether the blob was deleted by this call.
func (b *BlobClient) DeleteIfExists(ctx context.Context) (bool, error) {
	err := b.Delete(ctx)
	if err == nil {
		return true, nil
	}
	if storeerr.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// GenerateSASURL returns the blob URL with a signed SAS query string
// appended. Requires a shared key credential; plain-http endpoints get a
// signature permitting both schemes.
func (b *BlobClient) GenerateSASURL(permissions sas.BlobPermissions, expiry time.Time) (string, error) {
	if b.cred == nil {
		return "", storeerr.ErrNoSharedKeyCredential
	}

	values := sas.SignatureValues{
		ContainerName: b.containerName,
		BlobName:      b.blobName,
		Permissions:   permissions.String(),
		ExpiryTime:    expiry,
	}
	if b.u.Scheme == "http" {
		values.Protocol = sas.ProtocolHTTPSandHTTP
	}

	qp, err := values.Sign(b.cred)
	if err != nil {
		return "", err
	}
	signed := appendRawQuery(b.u, qp.Encode())
	return signed.String(), nil
}
