package storeerr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponse(status int, errorCodeHeader, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	if errorCodeHeader != "" {
		resp.Header.Set("x-ms-error-code", errorCodeHeader)
	}
	return resp
}

func TestFromResponse_XMLBody(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<Error>
  <Code>ContainerAlreadyExists</Code>
  <Message>The specified container already exists.</Message>
</Error>`

	se := FromResponse(newResponse(http.StatusConflict, "", body))

	assert.Equal(t, CodeContainerAlreadyExists, se.Code)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "The specified container already exists.", se.Message)
	assert.True(t, IsAlreadyExists(se))
	assert.False(t, IsNotFound(se))
}

func TestFromResponse_HeaderOnly(t *testing.T) {
	// HEAD responses have no body; the code comes from the header.
	se := FromResponse(newResponse(http.StatusNotFound, "ContainerNotFound", ""))

	assert.Equal(t, CodeContainerNotFound, se.Code)
	assert.True(t, IsNotFound(se))
}

func TestFromResponse_BodyCodeWinsOverHeader(t *testing.T) {
	body := `<Error><Code>BlobNotFound</Code><Message>gone</Message></Error>`
	se := FromResponse(newResponse(http.StatusNotFound, "ResourceNotFound", body))

	assert.Equal(t, CodeBlobNotFound, se.Code)
}

func TestFromResponse_NoCodeFallsBackToStatus(t *testing.T) {
	se := FromResponse(newResponse(http.StatusNotFound, "", "not xml at all"))
	assert.Equal(t, CodeResourceNotFound, se.Code)
	assert.True(t, IsNotFound(se))
}

func TestFromResponse_RequestID(t *testing.T) {
	resp := newResponse(http.StatusInternalServerError, "", "")
	resp.Header.Set("x-ms-request-id", "rid-123")

	se := FromResponse(resp)
	assert.Equal(t, "rid-123", se.RequestID)
}

func TestHasCode_WrappedError(t *testing.T) {
	se := &StorageError{Code: CodeContainerNotFound, StatusCode: http.StatusNotFound}
	wrapped := fmt.Errorf("delete container: %w", se)

	assert.True(t, HasCode(wrapped, CodeContainerNotFound))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, HasCode(wrapped, CodeContainerAlreadyExists))
}

func TestHasCode_NonStorageError(t *testing.T) {
	assert.False(t, HasCode(errors.New("plain"), CodeContainerNotFound))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestFromTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	se := FromTransportError(cause)

	require.ErrorIs(t, se, cause)
	assert.Contains(t, se.Error(), "connection refused")
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(se))
}

func TestHTTPStatus(t *testing.T) {
	se := &StorageError{Code: CodeContainerNotFound, StatusCode: http.StatusNotFound}
	assert.Equal(t, http.StatusNotFound, HTTPStatus(se))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
