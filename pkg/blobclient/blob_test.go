package blobclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/go-blobstore-kit/pkg/sas"
	"github.com/yourorg/go-blobstore-kit/pkg/storeerr"
)

func newTestBlob(t *testing.T, handler http.HandlerFunc) *BlobClient {
	t.Helper()
	container, _ := newTestContainer(t, "media", handler)
	return container.NewBlobClient("photos/cat.jpg")
}

func TestBlobUpload(t *testing.T) {
	var gotBody string
	blob := newTestBlob(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/"+testAccount+"/media/photos/cat.jpg", r.URL.Path)
		assert.Equal(t, "BlockBlob", r.Header.Get("x-ms-blob-type"))
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		assert.Equal(t, "archive", r.Header.Get("x-ms-meta-origin"))

		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusCreated)
	})

	props, err := blob.Upload(context.Background(), strings.NewReader("cat bytes"), &UploadOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"origin": "archive"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cat bytes", gotBody)
	assert.Equal(t, `"etag-1"`, props.ETag)
	assert.Equal(t, int64(len("cat bytes")), props.ContentLength)
}

func TestBlobDownload(t *testing.T) {
	blob := newTestBlob(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		_, _ = w.Write([]byte("cat bytes"))
	})

	resp, err := blob.Download(context.Background())
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "cat bytes", string(body))
	assert.Equal(t, "image/jpeg", resp.Properties.ContentType)
	assert.False(t, resp.Properties.LastModified.IsZero())
}

func TestBlobDownload_NotFound(t *testing.T) {
	blob := newTestBlob(t, func(w http.ResponseWriter, r *http.Request) {
		writeStorageError(w, http.StatusNotFound, "BlobNotFound")
	})

	_, err := blob.Download(context.Background())
	require.Error(t, err)
	assert.True(t, storeerr.HasCode(err, storeerr.CodeBlobNotFound))
}

func TestBlobGetProperties(t *testing.T) {
	blob := newTestBlob(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", "2048")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-MD5", "1B2M2Y8AsgTpgAmY7PhCfg==")
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		w.WriteHeader(http.StatusOK)
	})

	props, err := blob.GetProperties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2048), props.ContentLength)
	assert.Equal(t, "image/jpeg", props.ContentType)
	assert.Len(t, props.ContentMD5, 16)
}

func TestBlobExists(t *testing.T) {
	t.Run("absent maps to false", func(t *testing.T) {
		blob := newTestBlob(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("x-ms-error-code", "BlobNotFound")
			w.WriteHeader(http.StatusNotFound)
		})
		exists, err := blob.Exists(context.Background())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("present", func(t *testing.T) {
		blob := newTestBlob(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		exists, err := blob.Exists(context.Background())
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestBlobDeleteIfExists(t *testing.T) {
	blob := newTestBlob(t, func(w http.ResponseWriter, r *http.Request) {
		writeStorageError(w, http.StatusNotFound, "BlobNotFound")
	})

	deleted, err := blob.DeleteIfExists(context.Background())
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestBlobGenerateSASURL(t *testing.T) {
	container, err := NewContainerClientFromURL("https://devstoreaccount1.blob.example.net/media", testCredential(t), nil)
	require.NoError(t, err)
	blob := container.NewBlobClient("photos/cat.jpg")

	sasURL, err := blob.GenerateSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Contains(t, sasURL, "/media/photos/cat.jpg?")
	assert.Contains(t, sasURL, "sr=b")
}
