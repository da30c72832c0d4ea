package blobclient

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
)

// mergeQuery returns a copy of u with the operation parameters merged over
// its existing query string. Parameters with an empty value are dropped;
// pre-existing query parameters (such as a SAS token) are preserved unless
// the operation overrides the same key.
func mergeQuery(u url.URL, params map[string]string) url.URL {
	q := u.Query()
	for key, value := range params {
		if value == "" {
			continue
		}
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()
	return u
}

// appendPath returns a copy of u with name joined onto its path. The query
// string is preserved.
func appendPath(u url.URL, name string) url.URL {
	u.Path = path.Join("/", u.Path, name)
	u.RawPath = ""
	return u
}

// appendRawQuery appends an already-encoded query string (e.g. an encoded
// SAS) to u's query.
func appendRawQuery(u url.URL, rawQuery string) url.URL {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	if u.RawQuery == "" {
		u.RawQuery = rawQuery
	} else if rawQuery != "" {
		u.RawQuery = u.RawQuery + "&" + rawQuery
	}
	return u
}

// containerNameFromURL derives the container name from a container URL path.
// Host-style endpoints (account.blob.example.net/container) carry the name
// in the first path segment; IP-style endpoints used by emulators
// (127.0.0.1:10000/account/container) carry the account first.
func containerNameFromURL(u *url.URL) (string, error) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", fmt.Errorf("blobclient: no container name in URL %q", u)
	}
	if isIPStyleHost(u.Hostname()) {
		if len(segments) < 2 || segments[1] == "" {
			return "", fmt.Errorf("blobclient: no container name in URL %q", u)
		}
		return segments[1], nil
	}
	return segments[0], nil
}

func isIPStyleHost(host string) bool {
	return host == "localhost" || net.ParseIP(host) != nil
}
