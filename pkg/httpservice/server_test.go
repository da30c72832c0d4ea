package httpservice

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/go-blobstore-kit/pkg/logging"
)

type pingHandler struct{}

func (pingHandler) Register(router *gin.Engine) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func TestNewServerRequiresLogger(t *testing.T) {
	_, err := NewServer(ServerConfig{Port: 8080})
	assert.Error(t, err)
}

func TestServerRegistersHandlersAndHealth(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Port:   8080,
		Logger: logging.NewNop(),
	}, pingHandler{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerSetsRequestIDAndSecurityHeaders(t *testing.T) {
	srv, err := NewServer(ServerConfig{Port: 8080, Logger: logging.NewNop()})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestServerRateLimit(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Port:           8080,
		Logger:         logging.NewNop(),
		RateLimitRPS:   1,
		RateLimitBurst: 1,
	})
	require.NoError(t, err)

	first := httptest.NewRecorder()
	srv.Router().ServeHTTP(first, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	srv.Router().ServeHTTP(second, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
