package vimeo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the API host requests are resolved against.
const DefaultBaseURL = "https://api.vimeo.com"

// DefaultTimeout is the per-request HTTP timeout of the default transport.
const DefaultTimeout = 30 * time.Second

// acceptHeader pins the API version the client speaks.
const acceptHeader = "application/vnd.vimeo.*+json; version=3.4"

// SuccessFunc receives the decoded response payload of a completed call.
type SuccessFunc func(payload Payload)

// FailureFunc receives the failure of a call. statusCode is 0 when no HTTP
// response was received (connection error, cancellation).
type FailureFunc func(statusCode int, err error)

// InFlight is the handle to a submitted call. Cancel aborts the call;
// canceled calls report a context.Canceled failure.
type InFlight interface {
	Cancel()
}

// CallOptions carries per-call overrides.
type CallOptions struct {
	// Authorization replaces the transport's default Authorization header
	// for this call. Build values with BearerAuth or BasicAuth.
	Authorization string
}

// Transport submits API calls. Implementations deliver exactly one of
// success or failure per call, from a goroutine of their choosing.
type Transport interface {
	Send(method, path string, params Params, opts CallOptions, success SuccessFunc, failure FailureFunc) InFlight
}

// BearerAuth renders an Authorization header value for an access token.
func BearerAuth(token string) string {
	return "Bearer " + token
}

// BasicAuth renders an Authorization header value for client credentials.
func BasicAuth(identifier, secret string) string {
	credentials := base64.StdEncoding.EncodeToString([]byte(identifier + ":" + secret))
	return "Basic " + credentials
}

// HTTPTransport is the default Transport over net/http.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	// authFunc supplies the default Authorization header value per call.
	// The client wires this to its current account's bearer token.
	mu       sync.RWMutex
	authFunc func() string
}

// NewHTTPTransport creates a transport against baseURL. An empty baseURL
// means DefaultBaseURL.
func NewHTTPTransport(baseURL string, logger zerolog.Logger) *HTTPTransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &HTTPTransport{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
}

// SetAuthFunc installs the default Authorization provider. A nil func or an
// empty returned value sends the request unauthenticated.
func (t *HTTPTransport) SetAuthFunc(fn func() string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.authFunc = fn
}

// SetHTTPClient replaces the underlying http.Client.
func (t *HTTPTransport) SetHTTPClient(c *http.Client) {
	t.httpClient = c
}

// call is the in-flight handle returned by Send.
type call struct {
	cancel context.CancelFunc
	once   sync.Once
}

// Cancel aborts the call. Safe to invoke more than once.
func (c *call) Cancel() {
	c.once.Do(c.cancel)
}

// Send implements Transport. The HTTP exchange runs on its own goroutine;
// exactly one of success or failure is invoked.
func (t *HTTPTransport) Send(method, path string, params Params, opts CallOptions, success SuccessFunc, failure FailureFunc) InFlight {
	ctx, cancel := context.WithCancel(context.Background())
	handle := &call{cancel: cancel}

	go func() {
		defer cancel()

		req, err := t.buildRequest(ctx, method, path, params, opts)
		if err != nil {
			failure(0, err)
			return
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			failure(0, fmt.Errorf("request failed: %w", err))
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			failure(resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
			return
		}

		if resp.StatusCode >= http.StatusBadRequest {
			t.logger.Debug().
				Str("method", method).
				Str("path", path).
				Int("status", resp.StatusCode).
				Msg("API request failed")
			failure(resp.StatusCode, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
			return
		}

		payload := Payload{}
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				failure(resp.StatusCode, fmt.Errorf("failed to decode response body: %w", err))
				return
			}
		}

		success(payload)
	}()

	return handle
}

// Get submits a GET call.
func (t *HTTPTransport) Get(path string, params Params, opts CallOptions, success SuccessFunc, failure FailureFunc) InFlight {
	return t.Send(http.MethodGet, path, params, opts, success, failure)
}

// Post submits a POST call.
func (t *HTTPTransport) Post(path string, params Params, opts CallOptions, success SuccessFunc, failure FailureFunc) InFlight {
	return t.Send(http.MethodPost, path, params, opts, success, failure)
}

// Put submits a PUT call.
func (t *HTTPTransport) Put(path string, params Params, opts CallOptions, success SuccessFunc, failure FailureFunc) InFlight {
	return t.Send(http.MethodPut, path, params, opts, success, failure)
}

// Patch submits a PATCH call.
func (t *HTTPTransport) Patch(path string, params Params, opts CallOptions, success SuccessFunc, failure FailureFunc) InFlight {
	return t.Send(http.MethodPatch, path, params, opts, success, failure)
}

// Delete submits a DELETE call.
func (t *HTTPTransport) Delete(path string, params Params, opts CallOptions, success SuccessFunc, failure FailureFunc) InFlight {
	return t.Send(http.MethodDelete, path, params, opts, success, failure)
}

// buildRequest assembles the http.Request for a call. Parameters ride the
// query string for GET and DELETE, and a JSON body otherwise. Pagination
// links arrive as absolute URLs or paths with an embedded query string; both
// are passed through untouched.
func (t *HTTPTransport) buildRequest(ctx context.Context, method, path string, params Params, opts CallOptions) (*http.Request, error) {
	target := path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		target = t.baseURL + target
	}

	var body io.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
		if len(params) > 0 {
			query := url.Values{}
			for k, v := range params {
				query.Set(k, fmt.Sprintf("%v", v))
			}
			separator := "?"
			if strings.Contains(target, "?") {
				separator = "&"
			}
			target += separator + query.Encode()
		}
	default:
		if len(params) > 0 {
			encoded, err := json.Marshal(params)
			if err != nil {
				return nil, fmt.Errorf("failed to encode parameters: %w", err)
			}
			body = bytes.NewReader(encoded)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth := t.authorization(opts); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	return req, nil
}

// authorization resolves the Authorization header for a call: the per-call
// override wins over the transport default.
func (t *HTTPTransport) authorization(opts CallOptions) string {
	if opts.Authorization != "" {
		return opts.Authorization
	}

	t.mu.RLock()
	fn := t.authFunc
	t.mu.RUnlock()

	if fn == nil {
		return ""
	}
	return fn()
}
