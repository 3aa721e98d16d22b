package vimeo

import (
	"net/http"
	"time"
)

// CacheFetchPolicy governs how a request resolves between the response cache
// and the network.
type CacheFetchPolicy int

const (
	// PolicyDefault is the zero value: the client substitutes
	// DefaultCacheFetchPolicy for the request's method.
	PolicyDefault CacheFetchPolicy = iota

	// CacheOnly consults the cache and never touches the network.
	CacheOnly

	// CacheThenNetwork consults cache and network concurrently. A cache hit
	// is delivered immediately as a non-final response; the network result
	// follows as the final response. A cache hit that loses the race against
	// the network result is dropped.
	CacheThenNetwork

	// NetworkOnly skips the cache entirely.
	NetworkOnly

	// TryNetworkThenCache attempts the network and falls back to a
	// cache-only lookup when the network leg fails.
	TryNetworkThenCache
)

// String returns the policy name for logging.
func (p CacheFetchPolicy) String() string {
	switch p {
	case PolicyDefault:
		return "default"
	case CacheOnly:
		return "cache_only"
	case CacheThenNetwork:
		return "cache_then_network"
	case NetworkOnly:
		return "network_only"
	case TryNetworkThenCache:
		return "try_network_then_cache"
	default:
		return "unknown"
	}
}

// DefaultCacheFetchPolicy returns the policy used when a request does not
// specify one: GETs consult the cache, everything else goes straight to the
// network.
func DefaultCacheFetchPolicy(method string) CacheFetchPolicy {
	if method == http.MethodGet {
		return CacheThenNetwork
	}
	return NetworkOnly
}

// RetryPolicyKind discriminates the retry policy variants.
type RetryPolicyKind int

const (
	// NoRetry fails immediately on the first network error.
	NoRetry RetryPolicyKind = iota

	// MultipleAttempts retries with exponential backoff.
	MultipleAttempts
)

// RetryPolicy describes how a request behaves when its network leg fails.
// A policy value is immutable; each retry derives a new value via next()
// rather than mutating shared state.
type RetryPolicy struct {
	Kind         RetryPolicyKind
	AttemptCount int
	InitialDelay time.Duration
}

// MultipleAttemptsPolicy builds a retry policy that attempts the request up
// to attemptCount times, waiting initialDelay before the first retry and
// doubling the delay on each subsequent one.
func MultipleAttemptsPolicy(attemptCount int, initialDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		Kind:         MultipleAttempts,
		AttemptCount: attemptCount,
		InitialDelay: initialDelay,
	}
}

// shouldRetry reports whether another attempt remains.
func (p RetryPolicy) shouldRetry() bool {
	return p.Kind == MultipleAttempts && p.AttemptCount > 1
}

// next returns the policy for the following attempt: one fewer attempt,
// doubled delay.
func (p RetryPolicy) next() RetryPolicy {
	return RetryPolicy{
		Kind:         p.Kind,
		AttemptCount: p.AttemptCount - 1,
		InitialDelay: p.InitialDelay * 2,
	}
}
