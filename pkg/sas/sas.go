// Package sas builds and signs shared access signature query strings for
// containers and blobs. A SignatureValues is filled in by the caller, signed
// with the account's shared key credential, and the resulting QueryParameters
// are appended to the resource URL to grant delegated, time-bounded access.
package sas

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/yourorg/go-blobstore-kit/pkg/sharedkey"
)

// Version is the service version stamped into signatures (sv).
const Version = "2021-12-02"

// Protocol restricts the schemes a SAS may be used over (spr).
type Protocol string

const (
	// ProtocolHTTPS permits https only. This is the default.
	ProtocolHTTPS Protocol = "https"
	// ProtocolHTTPSandHTTP permits both schemes; required for plain-http
	// development endpoints such as a local emulator.
	ProtocolHTTPSandHTTP Protocol = "https,http"
)

// TimeFormat is the wire format for st and se.
const TimeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}

// IPRange bounds the source addresses a SAS may be used from (sip).
type IPRange struct {
	Start net.IP
	End   net.IP
}

// String renders the range as start or start-end.
func (r IPRange) String() string {
	if r.Start == nil {
		return ""
	}
	if r.End == nil {
		return r.Start.String()
	}
	return r.Start.String() + "-" + r.End.String()
}

// SignatureValues collects the fields of a service SAS prior to signing.
type SignatureValues struct {
	Version       string // defaults to Version
	Protocol      Protocol
	StartTime     time.Time
	ExpiryTime    time.Time
	Permissions   string // canonically ordered, see ContainerPermissions/BlobPermissions
	IPRange       IPRange
	Identifier    string // stored access policy id
	ContainerName string
	BlobName      string // empty for a container SAS

	// Response header overrides baked into the signature.
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	ContentType        string
}

// Sign computes the signature with cred and returns the encodable query
// parameters. Either an expiry with permissions or a stored access policy
// identifier must be present.
func (v SignatureValues) Sign(cred *sharedkey.Credential) (QueryParameters, error) {
	if cred == nil {
		return QueryParameters{}, fmt.Errorf("sas: credential is required")
	}
	if v.ContainerName == "" {
		return QueryParameters{}, fmt.Errorf("sas: container name is required")
	}
	if v.Identifier == "" && (v.ExpiryTime.IsZero() || v.Permissions == "") {
		return QueryParameters{}, fmt.Errorf("sas: expiry time and permissions are required unless an access policy identifier is given")
	}

	version := v.Version
	if version == "" {
		version = Version
	}
	protocol := v.Protocol
	if protocol == "" {
		protocol = ProtocolHTTPS
	}

	resource := "c"
	canonicalName := "/blob/" + cred.AccountName() + "/" + v.ContainerName
	if v.BlobName != "" {
		resource = "b"
		canonicalName += "/" + strings.TrimPrefix(v.BlobName, "/")
	}

	stringToSign := strings.Join([]string{
		v.Permissions,
		formatTime(v.StartTime),
		formatTime(v.ExpiryTime),
		canonicalName,
		v.Identifier,
		v.IPRange.String(),
		string(protocol),
		version,
		resource,
		"", // snapshot time
		"", // encryption scope
		v.CacheControl,
		v.ContentDisposition,
		v.ContentEncoding,
		v.ContentLanguage,
		v.ContentType,
	}, "\n")

	return QueryParameters{
		version:            version,
		protocol:           protocol,
		startTime:          v.StartTime,
		expiryTime:         v.ExpiryTime,
		permissions:        v.Permissions,
		ipRange:            v.IPRange,
		identifier:         v.Identifier,
		resource:           resource,
		cacheControl:       v.CacheControl,
		contentDisposition: v.ContentDisposition,
		contentEncoding:    v.ContentEncoding,
		contentLanguage:    v.ContentLanguage,
		contentType:        v.ContentType,
		signature:          cred.ComputeHMACSHA256(stringToSign),
	}, nil
}

// QueryParameters is a signed, immutable SAS ready to be rendered as a query
// string.
type QueryParameters struct {
	version            string
	protocol           Protocol
	startTime          time.Time
	expiryTime         time.Time
	permissions        string
	ipRange            IPRange
	identifier         string
	resource           string
	cacheControl       string
	contentDisposition string
	contentEncoding    string
	contentLanguage    string
	contentType        string
	signature          string
}

// Signature returns the base64 signature (sig).
func (p QueryParameters) Signature() string { return p.signature }

// Version returns the signed service version (sv).
func (p QueryParameters) Version() string { return p.version }

// Protocol returns the permitted protocols (spr).
func (p QueryParameters) Protocol() Protocol { return p.protocol }

// ExpiryTime returns the expiry (se).
func (p QueryParameters) ExpiryTime() time.Time { return p.expiryTime }

// Permissions returns the permission flags (sp).
func (p QueryParameters) Permissions() string { return p.permissions }

// Encode renders the SAS as a URL query string, omitting empty fields.
func (p QueryParameters) Encode() string {
	values := url.Values{}
	values.Set("sv", p.version)
	values.Set("sr", p.resource)
	if p.protocol != "" {
		values.Set("spr", string(p.protocol))
	}
	if !p.startTime.IsZero() {
		values.Set("st", formatTime(p.startTime))
	}
	if !p.expiryTime.IsZero() {
		values.Set("se", formatTime(p.expiryTime))
	}
	if p.permissions != "" {
		values.Set("sp", p.permissions)
	}
	if ip := p.ipRange.String(); ip != "" {
		values.Set("sip", ip)
	}
	if p.identifier != "" {
		values.Set("si", p.identifier)
	}
	if p.cacheControl != "" {
		values.Set("rscc", p.cacheControl)
	}
	if p.contentDisposition != "" {
		values.Set("rscd", p.contentDisposition)
	}
	if p.contentEncoding != "" {
		values.Set("rsce", p.contentEncoding)
	}
	if p.contentLanguage != "" {
		values.Set("rscl", p.contentLanguage)
	}
	if p.contentType != "" {
		values.Set("rsct", p.contentType)
	}
	values.Set("sig", p.signature)
	return values.Encode()
}
