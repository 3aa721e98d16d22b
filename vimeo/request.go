package vimeo

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Params is the parameter mapping submitted with a request. Values are
// serialized into the query string for GETs and into the request body for
// other verbs.
type Params map[string]any

// Request describes one API call. A Request is a plain value: the pipeline
// never mutates a request it was handed, and every retry or fallback derives
// a fresh copy with the adjusted field.
type Request struct {
	// Method is the HTTP verb. Empty means GET.
	Method string

	// Path is the endpoint path, e.g. "/me/videos". Pagination links arrive
	// with their query string embedded, which is fine: the fingerprint and
	// the transport both take the path verbatim.
	Path string

	// Parameters is the parameter mapping, or nil.
	Parameters Params

	// ModelKeyPath selects the sub-object of the response payload that the
	// mapper turns into the typed model. Empty maps the whole payload.
	ModelKeyPath string

	// CacheFetchPolicy governs cache/network ordering. The zero value is
	// replaced with DefaultCacheFetchPolicy(Method).
	CacheFetchPolicy CacheFetchPolicy

	// RetryPolicy governs behavior on network failure.
	RetryPolicy RetryPolicy

	// ShouldCacheResponse marks the parsed response payload for storage in
	// the response cache.
	ShouldCacheResponse bool

	// NoContent marks a request whose response body carries nothing of
	// interest (e.g. a DELETE). Parsing is skipped and the request succeeds
	// with an empty model regardless of payload shape.
	NoContent bool
}

// NewRequest returns a GET request for path with caching defaults applied.
func NewRequest(path string) Request {
	return Request{
		Method:              http.MethodGet,
		Path:                path,
		CacheFetchPolicy:    CacheThenNetwork,
		ShouldCacheResponse: true,
	}
}

// normalized fills zero-valued fields with their defaults.
func (r Request) normalized() Request {
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	if r.CacheFetchPolicy == PolicyDefault {
		r.CacheFetchPolicy = DefaultCacheFetchPolicy(r.Method)
	}
	return r
}

// Fingerprint returns the cache key for this request: the verb, the path and
// a canonical rendering of the parameters. Two requests that differ only in
// retry or cache policy share a fingerprint.
func (r Request) Fingerprint() string {
	r = r.normalized()

	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte(' ')
	b.WriteString(r.Path)

	if len(r.Parameters) > 0 {
		keys := make([]string, 0, len(r.Parameters))
		for k := range r.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			fmt.Fprintf(&b, "%s=%v", k, r.Parameters[k])
		}
	}

	return b.String()
}

// withRetryPolicy returns a copy of the request carrying the given policy.
func (r Request) withRetryPolicy(p RetryPolicy) Request {
	r.RetryPolicy = p
	return r
}

// withCacheFetchPolicy returns a copy of the request carrying the given
// cache policy.
func (r Request) withCacheFetchPolicy(p CacheFetchPolicy) Request {
	r.CacheFetchPolicy = p
	return r
}

// pageRequest derives the request for a pagination link: same verb, model
// key path and policies, with the link (query string included) as the path.
func (r Request) pageRequest(link string) Request {
	page := r
	page.Path = link
	page.Parameters = nil
	return page
}
