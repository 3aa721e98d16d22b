package vimeo

import "net/http"

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	transport     Transport
	cache         ResponseCache
	mapper        Mapper
	notifier      *Notifier
	authorization string
	httpClient    *http.Client
}

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithCache replaces the default in-memory response cache.
func WithCache(c ResponseCache) Option {
	return func(o *clientOptions) {
		o.cache = c
	}
}

// WithMapper replaces the default key-path mapper.
func WithMapper(m Mapper) Option {
	return func(o *clientOptions) {
		o.mapper = m
	}
}

// WithNotifier replaces the client-owned event notifier, letting several
// clients share one.
func WithNotifier(n *Notifier) Option {
	return func(o *clientOptions) {
		o.notifier = n
	}
}

// WithAuthorization pins a fixed Authorization header value instead of the
// current account's bearer token. Used for the unauthenticated client the
// authentication controller runs grant requests through (basic auth) and
// for ad-hoc clients around a constant access token (bearer).
func WithAuthorization(auth string) Option {
	return func(o *clientOptions) {
		o.authorization = auth
	}
}

// WithHTTPClient sets the http.Client of the default transport. Ignored when
// WithTransport is given.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}
