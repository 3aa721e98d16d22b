package vimeo

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport drives the pipeline without a network. Each Send spawns the
// configured responder on its own goroutine, mirroring the real transport.
type fakeTransport struct {
	mu      sync.Mutex
	sends   int
	respond func(attempt int, method, path string, params Params, success SuccessFunc, failure FailureFunc, canceled <-chan struct{})
}

func (t *fakeTransport) Send(method, path string, params Params, _ CallOptions, success SuccessFunc, failure FailureFunc) InFlight {
	t.mu.Lock()
	t.sends++
	attempt := t.sends
	t.mu.Unlock()

	call := &fakeCall{canceled: make(chan struct{})}
	go t.respond(attempt, method, path, params, success, failure, call.canceled)
	return call
}

func (t *fakeTransport) sendCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sends
}

type fakeCall struct {
	once     sync.Once
	canceled chan struct{}
}

func (c *fakeCall) Cancel() {
	c.once.Do(func() { close(c.canceled) })
}

// spyCache records lookups on top of a MemoryCache.
type spyCache struct {
	*MemoryCache
	mu      sync.Mutex
	lookups int
}

func (c *spyCache) Lookup(fingerprint string) (Payload, bool) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.MemoryCache.Lookup(fingerprint)
}

func (c *spyCache) lookupCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups
}

// slowCache delays lookups so the network result can win the
// CacheThenNetwork race deterministically.
type slowCache struct {
	*MemoryCache
	delay time.Duration
}

func (c *slowCache) Lookup(fingerprint string) (Payload, bool) {
	time.Sleep(c.delay)
	return c.MemoryCache.Lookup(fingerprint)
}

type delivery struct {
	resp *Response
	err  error
}

// collector buffers deliveries so completions never block.
func collector() (func(*Response, error), chan delivery) {
	ch := make(chan delivery, 4)
	return func(resp *Response, err error) {
		ch <- delivery{resp: resp, err: err}
	}, ch
}

func awaitDelivery(t *testing.T, ch chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a delivery")
		return delivery{}
	}
}

func assertNoDelivery(t *testing.T, ch chan delivery, wait time.Duration) {
	t.Helper()
	select {
	case d := <-ch:
		t.Fatalf("unexpected delivery: %+v", d)
	case <-time.After(wait):
	}
}

func newTestClient(transport Transport, opts ...Option) *Client {
	opts = append([]Option{WithTransport(transport)}, opts...)
	return NewClient(AppConfiguration{
		ClientIdentifier: "client-id",
		ClientSecret:     "client-secret",
	}, zerolog.Nop(), opts...)
}

func respondWith(payload Payload) func(int, string, string, Params, SuccessFunc, FailureFunc, <-chan struct{}) {
	return func(_ int, _, _ string, _ Params, success SuccessFunc, _ FailureFunc, _ <-chan struct{}) {
		success(payload)
	}
}

func failWith(status int, err error) func(int, string, string, Params, SuccessFunc, FailureFunc, <-chan struct{}) {
	return func(_ int, _, _ string, _ Params, _ SuccessFunc, failure FailureFunc, _ <-chan struct{}) {
		failure(status, err)
	}
}

func TestCacheOnlyMiss(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(Payload{"name": "unexpected"})}
	client := newTestClient(transport)

	completion, deliveries := collector()
	client.Do(Request{Path: "/videos/1", CacheFetchPolicy: CacheOnly}, completion)

	d := awaitDelivery(t, deliveries)
	require.Error(t, d.err)
	assert.ErrorIs(t, d.err, ErrCachedResponseNotFound)
	assert.Equal(t, 0, transport.sendCount())
}

func TestCacheOnlyHit(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(Payload{"name": "unexpected"})}
	client := newTestClient(transport)

	req := Request{Path: "/videos/1", CacheFetchPolicy: CacheOnly}
	client.Cache().Store(req.Fingerprint(), Payload{"name": "cached"})

	completion, deliveries := collector()
	client.Do(req, completion)

	d := awaitDelivery(t, deliveries)
	require.NoError(t, d.err)
	assert.True(t, d.resp.IsCachedResponse)
	assert.True(t, d.resp.IsFinalResponse)
	assert.Equal(t, 0, transport.sendCount())
}

func TestCacheThenNetworkOrdering(t *testing.T) {
	// The network responds slowly, so the cache hit must arrive first as a
	// non-final response, followed by the final network response.
	transport := &fakeTransport{
		respond: func(_ int, _, _ string, _ Params, success SuccessFunc, _ FailureFunc, _ <-chan struct{}) {
			time.Sleep(100 * time.Millisecond)
			success(Payload{"name": "network"})
		},
	}
	client := newTestClient(transport)

	req := Request{Path: "/videos/1", CacheFetchPolicy: CacheThenNetwork, ShouldCacheResponse: true}
	client.Cache().Store(req.Fingerprint(), Payload{"name": "cached"})

	completion, deliveries := collector()
	client.Do(req, completion)

	first := awaitDelivery(t, deliveries)
	require.NoError(t, first.err)
	assert.True(t, first.resp.IsCachedResponse)
	assert.False(t, first.resp.IsFinalResponse)

	second := awaitDelivery(t, deliveries)
	require.NoError(t, second.err)
	assert.False(t, second.resp.IsCachedResponse)
	assert.True(t, second.resp.IsFinalResponse)
	assert.Equal(t, "network", second.resp.Payload["name"])
}

func TestCacheThenNetworkDropsLateCacheHit(t *testing.T) {
	// The cache is slower than the network, so the stale hit must be
	// suppressed: exactly one delivery, the final one.
	transport := &fakeTransport{respond: respondWith(Payload{"name": "network"})}
	cache := &slowCache{MemoryCache: NewMemoryCache(), delay: 100 * time.Millisecond}
	client := newTestClient(transport, WithCache(cache))

	req := Request{Path: "/videos/1", CacheFetchPolicy: CacheThenNetwork}
	cache.MemoryCache.Store(req.Fingerprint(), Payload{"name": "cached"})

	completion, deliveries := collector()
	client.Do(req, completion)

	d := awaitDelivery(t, deliveries)
	require.NoError(t, d.err)
	assert.True(t, d.resp.IsFinalResponse)
	assert.False(t, d.resp.IsCachedResponse)

	assertNoDelivery(t, deliveries, 300*time.Millisecond)
}

func TestCacheThenNetworkMissAwaitsNetwork(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(Payload{"name": "network"})}
	client := newTestClient(transport)

	completion, deliveries := collector()
	client.Do(Request{Path: "/videos/1", CacheFetchPolicy: CacheThenNetwork}, completion)

	d := awaitDelivery(t, deliveries)
	require.NoError(t, d.err)
	assert.True(t, d.resp.IsFinalResponse)

	assertNoDelivery(t, deliveries, 100*time.Millisecond)
}

func TestNetworkOnlySkipsCache(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(Payload{"name": "network"})}
	cache := &spyCache{MemoryCache: NewMemoryCache()}
	client := newTestClient(transport, WithCache(cache))

	req := Request{Path: "/videos/1", CacheFetchPolicy: NetworkOnly, ShouldCacheResponse: true}

	completion, deliveries := collector()
	client.Do(req, completion)

	d := awaitDelivery(t, deliveries)
	require.NoError(t, d.err)
	assert.Equal(t, 0, cache.lookupCount())

	// The parsed response was written back for later cache policies.
	payload, ok := cache.MemoryCache.Lookup(req.Fingerprint())
	require.True(t, ok)
	assert.Equal(t, "network", payload["name"])
}

func TestRetryExhaustsAttempts(t *testing.T) {
	transport := &fakeTransport{respond: failWith(http.StatusInternalServerError, errors.New("boom"))}
	client := newTestClient(transport)

	req := Request{
		Path:             "/videos/1",
		CacheFetchPolicy: NetworkOnly,
		RetryPolicy:      MultipleAttemptsPolicy(3, 5*time.Millisecond),
	}

	completion, deliveries := collector()
	client.Do(req, completion)

	d := awaitDelivery(t, deliveries)
	require.Error(t, d.err)
	// Initial attempt plus exactly two retries.
	assert.Equal(t, 3, transport.sendCount())

	assertNoDelivery(t, deliveries, 100*time.Millisecond)
}

func TestRetryNotScheduledAfterCancel(t *testing.T) {
	firstFailure := make(chan struct{}, 1)
	transport := &fakeTransport{
		respond: func(_ int, _, _ string, _ Params, _ SuccessFunc, failure FailureFunc, _ <-chan struct{}) {
			failure(http.StatusInternalServerError, errors.New("boom"))
			firstFailure <- struct{}{}
		},
	}
	client := newTestClient(transport)

	req := Request{
		Path:             "/videos/1",
		CacheFetchPolicy: NetworkOnly,
		RetryPolicy:      MultipleAttemptsPolicy(3, 100*time.Millisecond),
	}

	completion, deliveries := collector()
	token := client.Do(req, completion)

	<-firstFailure
	token.Cancel()

	assertNoDelivery(t, deliveries, 300*time.Millisecond)
	assert.Equal(t, 1, transport.sendCount())
}

func TestTryNetworkThenCacheFallback(t *testing.T) {
	t.Run("populated cache yields success", func(t *testing.T) {
		transport := &fakeTransport{respond: failWith(http.StatusInternalServerError, errors.New("boom"))}
		client := newTestClient(transport)

		req := Request{Path: "/videos/1", CacheFetchPolicy: TryNetworkThenCache}
		client.Cache().Store(req.Fingerprint(), Payload{"name": "cached"})

		completion, deliveries := collector()
		client.Do(req, completion)

		d := awaitDelivery(t, deliveries)
		require.NoError(t, d.err)
		assert.True(t, d.resp.IsCachedResponse)
		assert.True(t, d.resp.IsFinalResponse)
	})

	t.Run("empty cache yields not found", func(t *testing.T) {
		transport := &fakeTransport{respond: failWith(http.StatusInternalServerError, errors.New("boom"))}
		client := newTestClient(transport)

		completion, deliveries := collector()
		client.Do(Request{Path: "/videos/1", CacheFetchPolicy: TryNetworkThenCache}, completion)

		d := awaitDelivery(t, deliveries)
		assert.ErrorIs(t, d.err, ErrCachedResponseNotFound)
	})
}

func TestCanceledRequestNeverCompletes(t *testing.T) {
	transport := &fakeTransport{
		respond: func(_ int, _, _ string, _ Params, _ SuccessFunc, failure FailureFunc, canceled <-chan struct{}) {
			<-canceled
			failure(0, context.Canceled)
		},
	}
	client := newTestClient(transport)

	completion, deliveries := collector()
	token := client.Do(Request{Path: "/videos/1", CacheFetchPolicy: NetworkOnly}, completion)
	token.Cancel()

	assertNoDelivery(t, deliveries, 300*time.Millisecond)
}

func TestDeadlineIsNotCancellation(t *testing.T) {
	transport := &fakeTransport{respond: failWith(0, context.DeadlineExceeded)}
	client := newTestClient(transport)

	completion, deliveries := collector()
	client.Do(Request{Path: "/videos/1", CacheFetchPolicy: NetworkOnly}, completion)

	d := awaitDelivery(t, deliveries)
	require.Error(t, d.err)
	assert.False(t, IsCanceled(d.err))
}

func TestParseFailureEvictsCache(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(Payload{"unexpected": true})}
	client := newTestClient(transport)

	req := Request{
		Path:             "/videos/1",
		CacheFetchPolicy: NetworkOnly,
		ModelKeyPath:     "data",
	}
	client.Cache().Store(req.Fingerprint(), Payload{"stale": true})

	completion, deliveries := collector()
	client.Do(req, completion)

	d := awaitDelivery(t, deliveries)
	assert.ErrorIs(t, d.err, ErrInvalidResponseDictionary)

	_, ok := client.Cache().Lookup(req.Fingerprint())
	assert.False(t, ok, "unparseable payload must evict the cache entry")
}

func TestNoContentShortCircuitsParsing(t *testing.T) {
	transport := &fakeTransport{respond: respondWith(Payload{"whatever": []any{1, 2}})}
	client := newTestClient(transport)

	req := Request{
		Method:           http.MethodDelete,
		Path:             "/videos/1",
		CacheFetchPolicy: NetworkOnly,
		ModelKeyPath:     "does.not.exist",
		NoContent:        true,
	}

	completion, deliveries := collector()
	client.Do(req, completion)

	d := awaitDelivery(t, deliveries)
	require.NoError(t, d.err)
	assert.Equal(t, struct{}{}, d.resp.Model)
}

func TestPaginationExtraction(t *testing.T) {
	payload := Payload{
		"total":    float64(53),
		"page":     float64(2),
		"per_page": float64(25),
		"paging": map[string]any{
			"next":     "/me/videos?page=3",
			"previous": "/me/videos?page=1",
			"first":    "/me/videos?page=1",
			"last":     "/me/videos?page=3",
		},
		"data": []any{"video"},
	}
	transport := &fakeTransport{respond: respondWith(payload)}
	client := newTestClient(transport)

	req := Request{
		Method:           http.MethodGet,
		Path:             "/me/videos",
		Parameters:       Params{"page": 2},
		ModelKeyPath:     "data",
		CacheFetchPolicy: NetworkOnly,
	}

	completion, deliveries := collector()
	client.Do(req, completion)

	d := awaitDelivery(t, deliveries)
	require.NoError(t, d.err)
	require.NotNil(t, d.resp.Paging)

	paging := d.resp.Paging
	assert.Equal(t, 53, paging.TotalCount)
	assert.Equal(t, 2, paging.Page)
	assert.Equal(t, 25, paging.ItemsPerPage)

	require.NotNil(t, paging.Next)
	assert.Equal(t, "/me/videos?page=3", paging.Next.Path)
	assert.Equal(t, req.Method, paging.Next.Method)
	assert.Equal(t, req.ModelKeyPath, paging.Next.ModelKeyPath)
	require.NotNil(t, paging.Previous)
	require.NotNil(t, paging.First)
	require.NotNil(t, paging.Last)
}

func TestClassifiedErrorEvents(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   EventKind
	}{
		{name: "service unavailable", status: http.StatusServiceUnavailable, want: EventServiceUnavailable},
		{name: "invalid token", status: http.StatusUnauthorized, want: EventInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{respond: failWith(tt.status, errors.New("boom"))}
			client := newTestClient(transport)

			events := make(chan Event, 1)
			unsubscribe := client.Notifier().Subscribe(func(e Event) {
				events <- e
			})
			defer unsubscribe()

			completion, deliveries := collector()
			client.Do(Request{Path: "/videos/1", CacheFetchPolicy: NetworkOnly}, completion)

			d := awaitDelivery(t, deliveries)
			require.Error(t, d.err)

			select {
			case e := <-events:
				assert.Equal(t, tt.want, e.Kind)
			case <-time.After(time.Second):
				t.Fatal("expected a classified error event")
			}
		})
	}
}
