package sharedkey

import (
	"net/http"
	"time"

	"github.com/yourorg/go-blobstore-kit/pkg/transport"
)

// NewAuthPolicy returns a pipeline policy that signs every outgoing request
// with the shared key credential before delegating to the next stage. The
// policy is stateless; it stamps x-ms-date if the caller has not.
func NewAuthPolicy(cred *Credential) transport.Policy {
	return transport.PolicyFunc(func(req *http.Request, next transport.Transport) (*http.Response, error) {
		if req.Header.Get("x-ms-date") == "" {
			req.Header.Set("x-ms-date", time.Now().UTC().Format(http.TimeFormat))
		}
		auth, err := cred.AuthorizationHeader(req)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", auth)
		return next.Do(req)
	})
}

// NewAnonymousPolicy returns a pass-through policy for clients that carry
// their authorization in the URL (SAS) or talk to public containers.
func NewAnonymousPolicy() transport.Policy {
	return transport.PolicyFunc(func(req *http.Request, next transport.Transport) (*http.Response, error) {
		return next.Do(req)
	})
}
