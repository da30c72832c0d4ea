package telemetry

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/yourorg/go-blobstore-kit/pkg/logging"
)

// NewRelicClient wraps the New Relic agent.
type NewRelicClient struct {
	app     *newrelic.Application
	logger  logging.Logger
	enabled bool
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	LicenseKey string
	AppName    string
}

// NewNewRelicClient creates a new New Relic client. Without a license key
// the client is a no-op, so callers never need to branch.
func NewNewRelicClient(cfg NewRelicConfig, logger logging.Logger) (*NewRelicClient, error) {
	if cfg.LicenseKey == "" {
		logger.Info("New Relic disabled, license key not provided")
		return &NewRelicClient{enabled: false, logger: logger}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	logger.Info("New Relic client initialized", logging.NewField("app_name", cfg.AppName))

	return &NewRelicClient{app: app, logger: logger, enabled: true}, nil
}

// Middleware instruments each request as a New Relic transaction.
func (n *NewRelicClient) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !n.enabled || n.app == nil {
			c.Next()
			return
		}

		txn := n.app.StartTransaction(c.Request.Method + " " + c.FullPath())
		defer txn.End()

		txn.SetWebRequestHTTP(c.Request)
		c.Request = c.Request.WithContext(newrelic.NewContext(c.Request.Context(), txn))

		c.Next()

		txn.AddAttribute("status_code", c.Writer.Status())
		if c.Writer.Status() >= 500 {
			txn.NoticeError(fmt.Errorf("HTTP %d", c.Writer.Status()))
		}
	}
}

// RecordCustomEvent records a custom event in New Relic.
func (n *NewRelicClient) RecordCustomEvent(eventType string, attributes map[string]interface{}) {
	if !n.enabled || n.app == nil {
		return
	}

	n.app.RecordCustomEvent(eventType, attributes)
}

// Shutdown gracefully shuts down the New Relic client.
func (n *NewRelicClient) Shutdown(timeout time.Duration) {
	if n.enabled && n.app != nil {
		n.app.Shutdown(timeout)
	}
}
