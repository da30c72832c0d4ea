package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/go-blobstore-kit/pkg/blobclient"
	"github.com/yourorg/go-blobstore-kit/pkg/config"
	"github.com/yourorg/go-blobstore-kit/pkg/logging"
	"github.com/yourorg/go-blobstore-kit/pkg/telemetry"
)

func newTestApp(t *testing.T) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	nr, err := telemetry.NewNewRelicClient(telemetry.NewRelicConfig{}, logging.NewNop())
	require.NoError(t, err)

	app := &App{
		config:    &config.Config{DefaultContainer: "media"},
		logger:    logging.NewNop(),
		store:     blobclient.NewMockBlobStore(),
		telemetry: nr,
	}

	router := gin.New()
	app.Register(router)
	return app, router
}

func doRequest(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGatewayContainerLifecycle(t *testing.T) {
	_, router := newTestApp(t)

	w := doRequest(router, "PUT", "/api/v1/containers/media", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"created":true`)

	// Creating again is not an error
	w = doRequest(router, "PUT", "/api/v1/containers/media", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"created":false`)

	w = doRequest(router, "HEAD", "/api/v1/containers/media", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "HEAD", "/api/v1/containers/absent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, "DELETE", "/api/v1/containers/media", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "DELETE", "/api/v1/containers/media", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGatewayBlobLifecycle(t *testing.T) {
	_, router := newTestApp(t)

	w := doRequest(router, "PUT", "/api/v1/blobs/media/photos/cat.jpg", "cat bytes")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "photos/cat.jpg")

	w = doRequest(router, "GET", "/api/v1/blobs/media/photos/cat.jpg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cat bytes", w.Body.String())

	w = doRequest(router, "DELETE", "/api/v1/blobs/media/photos/cat.jpg", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "GET", "/api/v1/blobs/media/photos/cat.jpg", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "BlobNotFound")
}

func TestGatewayListBlobs(t *testing.T) {
	_, router := newTestApp(t)

	doRequest(router, "PUT", "/api/v1/blobs/media/logs/a.txt", "aa")
	doRequest(router, "PUT", "/api/v1/blobs/media/logs/b.txt", "bb")
	doRequest(router, "PUT", "/api/v1/blobs/media/other.txt", "cc")

	w := doRequest(router, "GET", "/api/v1/containers/media/blobs?prefix=logs/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "logs/a.txt")
	assert.Contains(t, w.Body.String(), "logs/b.txt")
	assert.NotContains(t, w.Body.String(), "other.txt")
}

func TestGatewayListBlobs_MissingContainer(t *testing.T) {
	_, router := newTestApp(t)

	w := doRequest(router, "GET", "/api/v1/containers/absent/blobs", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ContainerNotFound")
}

func TestGatewayContainerSAS(t *testing.T) {
	_, router := newTestApp(t)

	// The in-memory store has no signing key, so SAS issuance fails.
	w := doRequest(router, "POST", "/api/v1/containers/media/sas", `{"permissions":"rl"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(router, "POST", "/api/v1/containers/media/sas", `{"permissions":"rx"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, "POST", "/api/v1/containers/media/sas", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
