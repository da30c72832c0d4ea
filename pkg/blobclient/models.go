package blobclient

import (
	"encoding/base64"
	"encoding/xml"
	"net/http"
	"strconv"
	"time"
)

// ListBlobsResponse is the deserialized XML body of a List Blobs page.
type ListBlobsResponse struct {
	XMLName         xml.Name     `xml:"EnumerationResults"`
	ServiceEndpoint string       `xml:"ServiceEndpoint,attr"`
	ContainerName   string       `xml:"ContainerName,attr"`
	Prefix          string       `xml:"Prefix"`
	Marker          string       `xml:"Marker"`
	MaxResults      int32        `xml:"MaxResults"`
	Delimiter       string       `xml:"Delimiter"`
	Blobs           []BlobItem   `xml:"Blobs>Blob"`
	BlobPrefixes    []BlobPrefix `xml:"Blobs>BlobPrefix"`
	NextMarker      string       `xml:"NextMarker"`
}

// BlobItem is a single blob entry in a listing.
type BlobItem struct {
	Name       string             `xml:"Name"`
	Snapshot   string             `xml:"Snapshot"`
	Properties BlobItemProperties `xml:"Properties"`
}

// BlobItemProperties carries the per-blob properties of a listing entry.
type BlobItemProperties struct {
	LastModified  TimeRFC1123 `xml:"Last-Modified"`
	ETag          string      `xml:"Etag"`
	ContentLength int64       `xml:"Content-Length"`
	ContentType   string      `xml:"Content-Type"`
	ContentMD5    string      `xml:"Content-MD5"`
}

// BlobPrefix is a virtual directory entry produced by hierarchical listing.
type BlobPrefix struct {
	Name string `xml:"Name"`
}

// TimeRFC1123 unmarshals the RFC 1123 timestamps the service uses in XML.
type TimeRFC1123 struct {
	time.Time
}

// UnmarshalXML implements xml.Unmarshaler. An unparsable value yields the
// zero time rather than an error.
func (t *TimeRFC1123) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC1123, raw)
	if err != nil {
		parsed = time.Time{}
	}
	t.Time = parsed
	return nil
}

// MarshalXML implements xml.Marshaler.
func (t TimeRFC1123) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if t.IsZero() {
		return e.EncodeElement("", start)
	}
	return e.EncodeElement(t.UTC().Format(time.RFC1123), start)
}

// BlobProperties is the immutable value object parsed from the response
// headers of a blob HEAD or GET.
type BlobProperties struct {
	LastModified  time.Time
	ContentLength int64
	ContentType   string
	ContentMD5    []byte
	ETag          string
}

// newBlobPropertiesFromHeaders parses h into a BlobProperties. Malformed
// timestamps and digests degrade to zero values, they never fail the call.
func newBlobPropertiesFromHeaders(h http.Header) BlobProperties {
	props := BlobProperties{
		ContentType: h.Get("Content-Type"),
		ETag:        h.Get("ETag"),
	}
	if raw := h.Get("Last-Modified"); raw != "" {
		if t, err := time.Parse(time.RFC1123, raw); err == nil {
			props.LastModified = t
		}
	}
	if raw := h.Get("Content-Length"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			props.ContentLength = n
		}
	}
	if raw := h.Get("Content-MD5"); raw != "" {
		if md5sum, err := base64.StdEncoding.DecodeString(raw); err == nil {
			props.ContentMD5 = md5sum
		}
	}
	return props
}

// ContainerProperties is parsed from the response headers of a container
// properties call.
type ContainerProperties struct {
	LastModified time.Time
	ETag         string
	LeaseState   string
	LeaseStatus  string
}

func newContainerPropertiesFromHeaders(h http.Header) ContainerProperties {
	props := ContainerProperties{
		ETag:        h.Get("ETag"),
		LeaseState:  h.Get("x-ms-lease-state"),
		LeaseStatus: h.Get("x-ms-lease-status"),
	}
	if raw := h.Get("Last-Modified"); raw != "" {
		if t, err := time.Parse(time.RFC1123, raw); err == nil {
			props.LastModified = t
		}
	}
	return props
}
