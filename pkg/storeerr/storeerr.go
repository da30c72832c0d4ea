// Package storeerr defines the closed error taxonomy for the blob storage
// REST API. Transport-level failures are translated into *StorageError values
// carrying the service error code, so callers can branch on the kind of
// failure instead of string-matching response bodies.
package storeerr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Code is a service error code as returned by the storage endpoint, either in
// the x-ms-error-code response header or in the XML error body.
type Code string

const (
	// CodeContainerNotFound indicates the target container does not exist.
	CodeContainerNotFound Code = "ContainerNotFound"
	// CodeContainerAlreadyExists indicates a create collided with an existing container.
	CodeContainerAlreadyExists Code = "ContainerAlreadyExists"
	// CodeContainerBeingDeleted indicates the container is still being garbage collected.
	CodeContainerBeingDeleted Code = "ContainerBeingDeleted"
	// CodeBlobNotFound indicates the target blob does not exist.
	CodeBlobNotFound Code = "BlobNotFound"
	// CodeBlobAlreadyExists indicates a conditional write collided with an existing blob.
	CodeBlobAlreadyExists Code = "BlobAlreadyExists"
	// CodeAuthenticationFailed indicates the request signature was rejected.
	CodeAuthenticationFailed Code = "AuthenticationFailed"
	// CodeResourceNotFound is the generic not-found code.
	CodeResourceNotFound Code = "ResourceNotFound"
	// CodeInvalidQueryParameterValue indicates a malformed query parameter.
	CodeInvalidQueryParameterValue Code = "InvalidQueryParameterValue"
)

// ErrNoSharedKeyCredential is returned by SAS generation when the client was
// not constructed with a shared key credential.
var ErrNoSharedKeyCredential = errors.New("storeerr: SAS can only be signed with a shared key credential")

// StorageError is the typed error produced for every non-2xx response from
// the storage endpoint.
type StorageError struct {
	// Code is the service error code, empty when the response carried none.
	Code Code
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Status is the HTTP status line of the response.
	Status string
	// Message is the human-readable message from the XML error body, if any.
	Message string
	// RequestID is the service's x-ms-request-id, useful for support tickets.
	RequestID string
	// Err is an underlying cause, set when the failure happened before a
	// response was received.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage request failed: %v", e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("storage request failed: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("storage request failed: HTTP %d %s", e.StatusCode, e.Status)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// xmlErrorBody is the wire shape of a storage error response body.
type xmlErrorBody struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

// FromResponse builds a StorageError from a non-2xx response. The body is
// fully consumed so the caller may close it unconditionally. HEAD responses
// carry no body; for those the code comes from the x-ms-error-code header.
func FromResponse(resp *http.Response) *StorageError {
	se := &StorageError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Code:       Code(resp.Header.Get("x-ms-error-code")),
		RequestID:  resp.Header.Get("x-ms-request-id"),
	}

	if resp.Body != nil {
		body, err := io.ReadAll(resp.Body)
		if err == nil && len(body) > 0 {
			var xe xmlErrorBody
			if xml.NewDecoder(bytes.NewReader(body)).Decode(&xe) == nil {
				if xe.Code != "" {
					se.Code = Code(xe.Code)
				}
				se.Message = xe.Message
			}
		}
	}

	if se.Code == "" {
		// Fall back to a status-derived code so callers can still branch.
		switch resp.StatusCode {
		case http.StatusNotFound:
			se.Code = CodeResourceNotFound
		}
	}
	return se
}

// FromTransportError wraps a failure that occurred before any response was
// received (DNS, connection refused, context cancellation).
func FromTransportError(err error) *StorageError {
	return &StorageError{Err: err}
}

// HasCode reports whether err is a StorageError with one of the given codes.
func HasCode(err error, codes ...Code) bool {
	var se *StorageError
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.Code == c {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err represents a missing container or blob.
func IsNotFound(err error) bool {
	if HasCode(err, CodeContainerNotFound, CodeBlobNotFound, CodeResourceNotFound) {
		return true
	}
	var se *StorageError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsAlreadyExists reports whether err represents a create collision.
func IsAlreadyExists(err error) bool {
	return HasCode(err, CodeContainerAlreadyExists, CodeBlobAlreadyExists)
}

// HTTPStatus maps a storage error to the status a gateway should relay.
// Non-storage errors map to 500.
func HTTPStatus(err error) int {
	var se *StorageError
	if errors.As(err, &se) && se.StatusCode != 0 {
		return se.StatusCode
	}
	return http.StatusInternalServerError
}
