// Package blobclient is a wire-level client for an Azure-compatible blob
// storage REST API. It signs requests with a shared key or relies on a SAS
// carried in the URL, parses XML and header responses into typed models, and
// surfaces failures as the closed error set of package storeerr.
package blobclient

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/yourorg/go-blobstore-kit/pkg/logging"
	"github.com/yourorg/go-blobstore-kit/pkg/sharedkey"
	"github.com/yourorg/go-blobstore-kit/pkg/transport"
)

// ServiceVersion is the storage REST API version sent with every request.
const ServiceVersion = "2021-12-02"

const userAgent = "go-blobstore-kit/1.0"

// ClientOptions customizes a Client.
type ClientOptions struct {
	// HTTPClient is the terminal transport. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger receives per-request debug logs. Defaults to a no-op logger.
	Logger logging.Logger
	// ExtraPolicies run after the built-in policies and before signing.
	ExtraPolicies []transport.Policy
}

// Client is the service-level entry point. It holds the endpoint, the
// optional shared key credential, and the request pipeline shared by the
// container and blob clients derived from it.
type Client struct {
	endpoint url.URL
	cred     *sharedkey.Credential
	pipeline transport.Transport
	logger   logging.Logger
}

// NewClientWithSharedKeyCredential creates a Client that signs every request
// with cred. endpoint is the account service URL, e.g.
// https://account.blob.example.net or http://127.0.0.1:10000/account.
func NewClientWithSharedKeyCredential(endpoint string, cred *sharedkey.Credential, options *ClientOptions) (*Client, error) {
	if cred == nil {
		return nil, fmt.Errorf("blobclient: shared key credential is required")
	}
	return newClient(endpoint, cred, options)
}

// NewClientWithNoCredential creates a Client for anonymous access or for an
// endpoint URL that already carries a SAS token in its query string.
func NewClientWithNoCredential(endpoint string, options *ClientOptions) (*Client, error) {
	return newClient(endpoint, nil, options)
}

func newClient(endpoint string, cred *sharedkey.Credential, options *ClientOptions) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("blobclient: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("blobclient: endpoint %q must be http or https", endpoint)
	}
	if options == nil {
		options = &ClientOptions{}
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	policies := []transport.Policy{
		transport.NewRequestIDPolicy(),
		transport.NewVersionPolicy(ServiceVersion, userAgent),
		transport.NewLoggingPolicy(logger),
	}
	policies = append(policies, options.ExtraPolicies...)
	// Signing runs last so it sees the final headers.
	if cred != nil {
		policies = append(policies, sharedkey.NewAuthPolicy(cred))
	} else {
		policies = append(policies, sharedkey.NewAnonymousPolicy())
	}

	return &Client{
		endpoint: *u,
		cred:     cred,
		pipeline: transport.NewPipeline(transport.NewHTTPClientTransport(options.HTTPClient), policies...),
		logger:   logger,
	}, nil
}

// Endpoint returns the service endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// NewContainerClient returns a client scoped to the named container. A SAS
// token present on the service endpoint's query string is inherited.
func (c *Client) NewContainerClient(containerName string) *ContainerClient {
	return &ContainerClient{
		u:        appendPath(c.endpoint, containerName),
		name:     containerName,
		cred:     c.cred,
		pipeline: c.pipeline,
		logger:   c.logger,
	}
}
