package vimeo

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/vimeokit/account"
)

// Client executes API requests, layering cache resolution, retry with
// exponential backoff, pagination extraction and error classification around
// the transport. Completions are invoked from internal goroutines; callers
// that need affinity to a particular goroutine hop themselves.
type Client struct {
	configuration AppConfiguration
	transport     Transport
	cache         ResponseCache
	mapper        Mapper
	notifier      *Notifier
	logger        zerolog.Logger

	mu      sync.RWMutex
	account *account.Account
}

// NewClient creates a client for the app described by configuration.
func NewClient(configuration AppConfiguration, logger zerolog.Logger, opts ...Option) *Client {
	options := clientOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	client := &Client{
		configuration: configuration,
		transport:     options.transport,
		cache:         options.cache,
		mapper:        options.mapper,
		notifier:      options.notifier,
		logger:        logger,
	}

	if client.cache == nil {
		client.cache = NewMemoryCache()
	}
	if client.mapper == nil {
		client.mapper = KeyPathMapper{}
	}
	if client.notifier == nil {
		client.notifier = NewNotifier()
	}
	if client.transport == nil {
		transport := NewHTTPTransport(configuration.BaseURL, logger)
		if options.httpClient != nil {
			transport.SetHTTPClient(options.httpClient)
		}
		client.transport = transport
	}

	// The default transport authenticates with the fixed header when one was
	// given, otherwise with the current account's bearer token.
	if transport, ok := client.transport.(*HTTPTransport); ok {
		if options.authorization != "" {
			auth := options.authorization
			transport.SetAuthFunc(func() string { return auth })
		} else {
			transport.SetAuthFunc(func() string {
				if acct := client.Account(); acct.IsAuthenticated() {
					return BearerAuth(acct.AccessToken)
				}
				return ""
			})
		}
	}

	return client
}

// Configuration returns the app configuration the client was built with.
func (c *Client) Configuration() AppConfiguration {
	return c.configuration
}

// Notifier returns the client's event notifier for observer registration.
func (c *Client) Notifier() *Notifier {
	return c.notifier
}

// Cache returns the client's response cache.
func (c *Client) Cache() ResponseCache {
	return c.cache
}

// Account returns the client's current account, nil when unauthenticated.
func (c *Client) Account() *account.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// SetAccount installs acct as the client's current account and publishes
// EventAccountChanged. A non-nil account without an access token is an
// integration error: it is refused with ErrAuthToken and logged loudly
// instead of panicking. Pass nil to clear the account.
func (c *Client) SetAccount(acct *account.Account) error {
	if acct != nil && !acct.IsAuthenticated() {
		c.logger.Error().Msg("Refusing to install an account without an access token")
		return ErrAuthToken
	}

	c.mu.Lock()
	c.account = acct
	c.mu.Unlock()

	c.notifier.Publish(Event{Kind: EventAccountChanged, Account: acct})
	return nil
}

// ClearCache drops every cached response. Called whenever the authenticated
// account changes so one account never sees another's cached data.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// Do resolves req per its cache fetch policy and eventually invokes
// completion with the outcome. The returned token cancels the network leg;
// canceled requests never invoke completion. Every other path invokes
// completion exactly once, except CacheThenNetwork which may deliver a
// provisional cached response before the final one.
func (c *Client) Do(req Request, completion func(*Response, error)) *RequestToken {
	req = req.normalized()
	token := &RequestToken{}

	if completion == nil {
		completion = func(*Response, error) {}
	}

	switch req.CacheFetchPolicy {
	case CacheOnly:
		go c.resolveCacheOnly(req, completion)

	case CacheThenNetwork:
		guard := &deliveryGuard{}
		go c.resolveCacheProvisional(req, guard, completion)
		c.sendNetwork(req, token, guard.wrapFinal(completion))

	case NetworkOnly, TryNetworkThenCache:
		c.sendNetwork(req, token, completion)

	default:
		go completion(nil, newError(ErrRequestMalformed, fmt.Errorf("unknown cache fetch policy %d", req.CacheFetchPolicy)))
	}

	return token
}

// resolveCacheOnly completes with the cached response or
// ErrCachedResponseNotFound. No network call is issued.
func (c *Client) resolveCacheOnly(req Request, completion func(*Response, error)) {
	fingerprint := req.Fingerprint()

	payload, ok := c.cache.Lookup(fingerprint)
	if !ok {
		completion(nil, ErrCachedResponseNotFound)
		return
	}

	resp, err := c.buildResponse(req, payload, true, true)
	if err != nil {
		c.cache.Remove(fingerprint)
		completion(nil, err)
		return
	}

	completion(resp, nil)
}

// resolveCacheProvisional looks up the cache for a CacheThenNetwork request.
// A hit is delivered as a non-final response unless the network result
// already landed; a miss is a no-op, the network leg delivers alone.
func (c *Client) resolveCacheProvisional(req Request, guard *deliveryGuard, completion func(*Response, error)) {
	fingerprint := req.Fingerprint()

	payload, ok := c.cache.Lookup(fingerprint)
	if !ok {
		return
	}

	resp, err := c.buildResponse(req, payload, true, false)
	if err != nil {
		// Stale unparseable entry; the pending network leg will refill it.
		c.cache.Remove(fingerprint)
		return
	}

	guard.deliverProvisional(resp, completion)
}

// sendNetwork issues the network leg of req and attaches the in-flight call
// to token so Cancel reaches it.
func (c *Client) sendNetwork(req Request, token *RequestToken, completion func(*Response, error)) {
	handle := c.transport.Send(req.Method, req.Path, req.Parameters, CallOptions{},
		func(payload Payload) {
			c.handleNetworkSuccess(req, token, payload, completion)
		},
		func(status int, err error) {
			c.handleNetworkFailure(req, token, transportError(status, err), completion)
		},
	)
	token.attach(handle)
}

// handleNetworkSuccess parses the payload into the response. The cache is
// written only after a successful parse; a parse failure evicts any stale
// entry and is routed through the failure handler as if the network call
// itself had failed.
func (c *Client) handleNetworkSuccess(req Request, token *RequestToken, payload Payload, completion func(*Response, error)) {
	fingerprint := req.Fingerprint()

	resp, err := c.buildResponse(req, payload, false, true)
	if err != nil {
		c.cache.Remove(fingerprint)
		c.handleNetworkFailure(req, token, err, completion)
		return
	}

	if req.ShouldCacheResponse {
		c.cache.Store(fingerprint, payload)
	}

	completion(resp, nil)
}

// handleNetworkFailure classifies err and applies the retry and fallback
// policies. Cancellation is suppressed: the caller abandoned the request and
// gets no completion.
func (c *Client) handleNetworkFailure(req Request, token *RequestToken, err error, completion func(*Response, error)) {
	if IsCanceled(err) {
		c.logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("Request canceled, dropping completion")
		return
	}

	c.publishClassified(err)

	if req.RetryPolicy.shouldRetry() {
		delay := req.RetryPolicy.InitialDelay
		next := req.withRetryPolicy(req.RetryPolicy.next())

		c.logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Dur("delay", delay).
			Int("attempts_left", next.RetryPolicy.AttemptCount).
			Msg("Retrying request")

		time.AfterFunc(delay, func() {
			if token.isCanceled() {
				return
			}
			c.sendNetwork(next, token, completion)
		})
		return
	}

	if req.CacheFetchPolicy == TryNetworkThenCache {
		c.logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("Network failed, falling back to cache")
		c.resolveCacheOnly(req.withCacheFetchPolicy(CacheOnly), completion)
		return
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Err(err).
		Msg("Request failed")

	completion(nil, err)
}

// publishClassified emits the fire-and-forget events for classified errors.
// Not part of the request's result contract.
func (c *Client) publishClassified(err error) {
	switch {
	case IsServiceUnavailable(err):
		c.notifier.Publish(Event{Kind: EventServiceUnavailable, Err: err})
	case IsInvalidToken(err):
		c.notifier.Publish(Event{Kind: EventInvalidToken, Err: err})
	}
}

// buildResponse maps the payload into the typed model and extracts the
// pagination block. A request marked NoContent short-circuits parsing and
// succeeds with an empty model regardless of payload shape.
func (c *Client) buildResponse(req Request, payload Payload, cached, final bool) (*Response, error) {
	var model any = struct{}{}
	if !req.NoContent {
		mapped, err := c.mapper.Map(payload, req.ModelKeyPath)
		if err != nil {
			return nil, newError(ErrInvalidResponseDictionary, err)
		}
		model = mapped
	}

	return &Response{
		Model:            model,
		Payload:          payload,
		IsCachedResponse: cached,
		IsFinalResponse:  final,
		Paging:           parsePaging(req, payload),
	}, nil
}

// deliveryGuard serializes the CacheThenNetwork race: the caller sees at
// most one provisional delivery strictly before the final one, and never a
// cache hit after the network result already landed. The mutex is held
// across the completion call so the orderings cannot interleave.
type deliveryGuard struct {
	mu        sync.Mutex
	finalDone bool
}

// deliverProvisional delivers a non-final cached response unless the final
// response was already delivered.
func (g *deliveryGuard) deliverProvisional(resp *Response, completion func(*Response, error)) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalDone {
		return
	}
	completion(resp, nil)
}

// wrapFinal wraps the network completion so it marks the race settled.
func (g *deliveryGuard) wrapFinal(completion func(*Response, error)) func(*Response, error) {
	return func(resp *Response, err error) {
		g.mu.Lock()
		defer g.mu.Unlock()

		g.finalDone = true
		completion(resp, err)
	}
}
