package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourorg/go-blobstore-kit/pkg/blobclient"
	"github.com/yourorg/go-blobstore-kit/pkg/config"
	"github.com/yourorg/go-blobstore-kit/pkg/httpservice"
	"github.com/yourorg/go-blobstore-kit/pkg/jwt"
	"github.com/yourorg/go-blobstore-kit/pkg/logging"
	"github.com/yourorg/go-blobstore-kit/pkg/sas"
	"github.com/yourorg/go-blobstore-kit/pkg/sharedkey"
	"github.com/yourorg/go-blobstore-kit/pkg/storeerr"
	"github.com/yourorg/go-blobstore-kit/pkg/telemetry"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	store      blobclient.BlobStore
	jwtService *jwt.Service
	telemetry  *telemetry.NewRelicClient
	server     *httpservice.Server
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(logger)

	logger.Info("Starting blob gateway", logging.NewField("version", cfg.AppVersion))

	// Create blob store (use mock for local development)
	var store blobclient.BlobStore
	if cfg.StorageAccountName == "" {
		logger.Info("Using in-memory blob store (no account name configured)")
		store = blobclient.NewMockBlobStore()
	} else {
		cred, err := sharedkey.NewCredential(cfg.StorageAccountName, cfg.StorageAccountKey)
		if err != nil {
			logger.Error("Failed to create credential", logging.NewField("error", err))
			os.Exit(1)
		}
		client, err := blobclient.NewClientWithSharedKeyCredential(cfg.StorageEndpointURL(), cred, &blobclient.ClientOptions{
			Logger: logger.Named("blobclient"),
		})
		if err != nil {
			logger.Error("Failed to create blob client", logging.NewField("error", err))
			os.Exit(1)
		}
		store = blobclient.NewBlobStore(client)
	}

	// Create telemetry client
	nr, err := telemetry.NewNewRelicClient(telemetry.NewRelicConfig{
		LicenseKey: cfg.NewRelicLicenseKey,
		AppName:    cfg.AppName,
	}, logger)
	if err != nil {
		logger.Error("Failed to create telemetry client", logging.NewField("error", err))
		os.Exit(1)
	}

	// Create JWT service when a secret is configured; the gateway is open
	// otherwise, which is the local-development mode.
	var jwtService *jwt.Service
	if cfg.JWTSecret != "" {
		jwtService, err = jwt.NewService(cfg.JWTSecret, 0, logger)
		if err != nil {
			logger.Error("Failed to create JWT service", logging.NewField("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("JWT secret not configured, gateway endpoints are unauthenticated")
	}

	app := &App{
		config:     cfg,
		logger:     logger,
		store:      store,
		jwtService: jwtService,
		telemetry:  nr,
	}

	// Create HTTP server
	server, err := httpservice.NewServer(httpservice.ServerConfig{
		Port:           cfg.HTTPPort,
		ReadTimeout:    time.Duration(cfg.HTTPReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.HTTPWriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.HTTPIdleTimeout) * time.Second,
		Logger:         logger,
		RateLimitRPS:   float64(cfg.RateLimitRPS),
		RateLimitBurst: cfg.RateLimitBurst,
	}, app)
	if err != nil {
		logger.Error("Failed to create server", logging.NewField("error", err))
		os.Exit(1)
	}

	app.server = server

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", logging.NewField("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", logging.NewField("error", err))
	}
	nr.Shutdown(10 * time.Second)
}

// Register implements the httpservice.Handler interface.
func (a *App) Register(router *gin.Engine) {
	router.Use(a.telemetry.Middleware())

	api := router.Group("/api/v1")
	if a.jwtService != nil {
		api.Use(jwt.Middleware(a.jwtService, a.logger))
	}
	{
		api.PUT("/containers/:container", a.handleCreateContainer)
		api.DELETE("/containers/:container", a.handleDeleteContainer)
		api.HEAD("/containers/:container", a.handleContainerExists)
		api.GET("/containers/:container/blobs", a.handleListBlobs)
		api.POST("/containers/:container/sas", a.handleContainerSAS)

		// Blob paths may contain slashes, so they live under their own
		// prefix with a catch-all segment.
		api.PUT("/blobs/:container/*blob", a.handleUploadBlob)
		api.GET("/blobs/:container/*blob", a.handleDownloadBlob)
		api.DELETE("/blobs/:container/*blob", a.handleDeleteBlob)
	}
}

func (a *App) handleCreateContainer(c *gin.Context) {
	container := c.Param("container")
	created, err := a.store.CreateContainer(c.Request.Context(), container)
	if err != nil {
		httpservice.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"container": container, "created": created})
}

func (a *App) handleDeleteContainer(c *gin.Context) {
	container := c.Param("container")
	deleted, err := a.store.DeleteContainer(c.Request.Context(), container)
	if err != nil {
		httpservice.HandleError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Container not found", "code": "ContainerNotFound"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"container": container, "deleted": true})
}

func (a *App) handleContainerExists(c *gin.Context) {
	exists, err := a.store.ContainerExists(c.Request.Context(), c.Param("container"))
	if err != nil {
		// HEAD responses carry no body, so only the status survives.
		c.Status(storeerr.HTTPStatus(err))
		return
	}
	if !exists {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

// ListBlobsQuery are the supported listing parameters.
type ListBlobsQuery struct {
	Prefix string `form:"prefix"`
}

func (a *App) handleListBlobs(c *gin.Context) {
	var q ListBlobsQuery
	if !httpservice.ValidateQuery(c, &q) {
		return
	}

	items, err := a.store.ListBlobs(c.Request.Context(), c.Param("container"), q.Prefix)
	if err != nil {
		httpservice.HandleError(c, err)
		return
	}

	type blobEntry struct {
		Name          string    `json:"name"`
		ContentLength int64     `json:"content_length"`
		ContentType   string    `json:"content_type,omitempty"`
		LastModified  time.Time `json:"last_modified,omitempty"`
	}
	entries := make([]blobEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, blobEntry{
			Name:          item.Name,
			ContentLength: item.Properties.ContentLength,
			ContentType:   item.Properties.ContentType,
			LastModified:  item.Properties.LastModified.UTC(),
		})
	}

	httpservice.SuccessResponse(c, gin.H{
		"container": c.Param("container"),
		"prefix":    q.Prefix,
		"blobs":     entries,
	})
}

// ContainerSASRequest asks for a delegated-access URL.
type ContainerSASRequest struct {
	Permissions   string `json:"permissions" binding:"required"` // subset of "racwdl"
	ExpiryMinutes int    `json:"expiry_minutes" validate:"gte=0,lte=10080"`
}

func (a *App) handleContainerSAS(c *gin.Context) {
	var req ContainerSASRequest
	if !httpservice.ValidateJSON(c, &req) {
		return
	}

	perms := sas.ContainerPermissions{}
	for _, p := range req.Permissions {
		switch p {
		case 'r':
			perms.Read = true
		case 'a':
			perms.Add = true
		case 'c':
			perms.Create = true
		case 'w':
			perms.Write = true
		case 'd':
			perms.Delete = true
		case 'l':
			perms.List = true
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown permission %q", string(p)), "code": "InvalidInput"})
			return
		}
	}

	expiry := time.Duration(req.ExpiryMinutes) * time.Minute
	if expiry == 0 {
		expiry = time.Hour
	}

	sasURL, err := a.store.ContainerSASURL(c.Request.Context(), c.Param("container"), perms, time.Now().Add(expiry))
	if err != nil {
		httpservice.HandleError(c, err)
		return
	}

	httpservice.SuccessResponse(c, gin.H{"url": sasURL})
}

func (a *App) handleUploadBlob(c *gin.Context) {
	blobName := blobParam(c)
	if blobName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Blob name is required", "code": "InvalidInput"})
		return
	}

	contentType := c.ContentType()
	url, err := a.store.Upload(c.Request.Context(), c.Param("container"), blobName, c.Request.Body, contentType)
	if err != nil {
		httpservice.HandleError(c, err)
		return
	}

	httpservice.CreatedResponse(c, gin.H{"name": blobName, "url": url})
}

func (a *App) handleDownloadBlob(c *gin.Context) {
	blobName := blobParam(c)
	if blobName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Blob name is required", "code": "InvalidInput"})
		return
	}

	body, err := a.store.Download(c.Request.Context(), c.Param("container"), blobName)
	if err != nil {
		httpservice.HandleError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}

func (a *App) handleDeleteBlob(c *gin.Context) {
	blobName := blobParam(c)
	if blobName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Blob name is required", "code": "InvalidInput"})
		return
	}

	if err := a.store.DeleteBlob(c.Request.Context(), c.Param("container"), blobName); err != nil {
		httpservice.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": blobName, "deleted": true})
}

// blobParam returns the wildcard blob path without the leading slash gin adds.
func blobParam(c *gin.Context) string {
	name := c.Param("blob")
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	return name
}
