package blobclient

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
)

// ListBlobsOptions customizes a listing.
type ListBlobsOptions struct {
	// Prefix restricts results to blob names beginning with it.
	Prefix string
	// Marker resumes a listing from a continuation point.
	Marker string
	// MaxResults caps the page size; the service may return fewer.
	MaxResults int32
}

// ListBlobsPager walks a listing page by page: a page is fetched eagerly per
// NextPage call, starting from an empty marker and terminating exactly when
// the service returns an empty NextMarker. Items come back in server order.
type ListBlobsPager struct {
	container  *ContainerClient
	prefix     string
	delimiter  string
	maxResults int32
	marker     string
	started    bool
}

// NewListBlobsFlatPager returns a pager over every blob in the container.
func (c *ContainerClient) NewListBlobsFlatPager(options *ListBlobsOptions) *ListBlobsPager {
	return c.newPager("", options)
}

// NewListBlobsHierarchyPager returns a pager that groups blob names under
// delimiter into BlobPrefix entries, interleaved with the blobs at the
// current level.
func (c *ContainerClient) NewListBlobsHierarchyPager(delimiter string, options *ListBlobsOptions) *ListBlobsPager {
	return c.newPager(delimiter, options)
}

func (c *ContainerClient) newPager(delimiter string, options *ListBlobsOptions) *ListBlobsPager {
	p := &ListBlobsPager{container: c, delimiter: delimiter}
	if options != nil {
		p.prefix = options.Prefix
		p.marker = options.Marker
		p.maxResults = options.MaxResults
	}
	return p
}

// More reports whether another page is available. It is true before the
// first fetch and stays true while the service returns a continuation
// marker.
func (p *ListBlobsPager) More() bool {
	return !p.started || p.marker != ""
}

// NextPage fetches the next page of results.
func (p *ListBlobsPager) NextPage(ctx context.Context) (ListBlobsResponse, error) {
	if !p.More() {
		return ListBlobsResponse{}, fmt.Errorf("blobclient: no more pages")
	}

	params := map[string]string{
		"restype":   "container",
		"comp":      "list",
		"prefix":    p.prefix,
		"marker":    p.marker,
		"delimiter": p.delimiter,
	}
	if p.maxResults > 0 {
		params["maxresults"] = strconv.FormatInt(int64(p.maxResults), 10)
	}

	u := mergeQuery(p.container.u, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return ListBlobsResponse{}, err
	}

	resp, err := do(p.container.pipeline, req, http.StatusOK)
	if err != nil {
		return ListBlobsResponse{}, err
	}
	defer resp.Body.Close()

	var page ListBlobsResponse
	if err := xml.NewDecoder(resp.Body).Decode(&page); err != nil {
		return ListBlobsResponse{}, fmt.Errorf("blobclient: decode listing: %w", err)
	}

	p.started = true
	p.marker = page.NextMarker
	return page, nil
}

// ListBlobs drains a flat listing into a slice, following continuation
// markers until exhaustion.
func (c *ContainerClient) ListBlobs(ctx context.Context, prefix string) ([]BlobItem, error) {
	pager := c.NewListBlobsFlatPager(&ListBlobsOptions{Prefix: prefix})
	var items []BlobItem
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Blobs...)
	}
	return items, nil
}
