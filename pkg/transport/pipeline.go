// Package transport provides the client-side request pipeline. A pipeline is
// an ordered chain of policies ending in a terminal Transport; each policy
// may mutate the outgoing request before delegating to the next stage.
package transport

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/go-blobstore-kit/pkg/logging"
)

// Transport sends an HTTP request and returns its response.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(req *http.Request) (*http.Response, error)

// Do implements Transport.
func (f TransportFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Policy is a single stage of the pipeline. Implementations must call
// next.Do to continue the chain.
type Policy interface {
	Do(req *http.Request, next Transport) (*http.Response, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(req *http.Request, next Transport) (*http.Response, error)

// Do implements Policy.
func (f PolicyFunc) Do(req *http.Request, next Transport) (*http.Response, error) {
	return f(req, next)
}

// NewPipeline chains policies in order in front of the terminal transport.
// The first policy sees the request first. A nil terminal falls back to
// http.DefaultClient.
func NewPipeline(terminal Transport, policies ...Policy) Transport {
	if terminal == nil {
		terminal = httpClientTransport{client: http.DefaultClient}
	}
	next := terminal
	for i := len(policies) - 1; i >= 0; i-- {
		policy := policies[i]
		inner := next
		next = TransportFunc(func(req *http.Request) (*http.Response, error) {
			return policy.Do(req, inner)
		})
	}
	return next
}

type httpClientTransport struct {
	client *http.Client
}

func (t httpClientTransport) Do(req *http.Request) (*http.Response, error) {
	return t.client.Do(req)
}

// NewHTTPClientTransport wraps an *http.Client as the terminal transport.
func NewHTTPClientTransport(client *http.Client) Transport {
	if client == nil {
		client = http.DefaultClient
	}
	return httpClientTransport{client: client}
}

// NewRequestIDPolicy stamps x-ms-client-request-id with a fresh UUID unless
// the caller already set one, so every request is traceable end to end.
func NewRequestIDPolicy() Policy {
	return PolicyFunc(func(req *http.Request, next Transport) (*http.Response, error) {
		if req.Header.Get("x-ms-client-request-id") == "" {
			req.Header.Set("x-ms-client-request-id", uuid.NewString())
		}
		return next.Do(req)
	})
}

// NewVersionPolicy stamps the service version and user agent headers.
func NewVersionPolicy(serviceVersion, userAgent string) Policy {
	return PolicyFunc(func(req *http.Request, next Transport) (*http.Response, error) {
		if serviceVersion != "" {
			req.Header.Set("x-ms-version", serviceVersion)
		}
		if userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", userAgent)
		}
		return next.Do(req)
	})
}

// NewLoggingPolicy logs each request at debug level with its outcome.
func NewLoggingPolicy(logger logging.Logger) Policy {
	return PolicyFunc(func(req *http.Request, next Transport) (*http.Response, error) {
		start := time.Now()
		resp, err := next.Do(req)

		fields := []logging.Field{
			logging.NewField("method", req.Method),
			logging.NewField("url", req.URL.Redacted()),
			logging.NewField("latency_ms", time.Since(start).Milliseconds()),
		}
		if err != nil {
			logger.Debug("storage request errored", append(fields, logging.NewField("error", err))...)
			return resp, err
		}
		logger.Debug("storage request", append(fields, logging.NewField("status", resp.StatusCode))...)
		return resp, nil
	})
}
