package vimeo

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		a    Request
		b    Request
		same bool
	}{
		{
			name: "identical requests",
			a:    Request{Path: "/videos/1"},
			b:    Request{Path: "/videos/1"},
			same: true,
		},
		{
			name: "parameter order does not matter",
			a:    Request{Path: "/videos", Parameters: Params{"page": 2, "per_page": 25}},
			b:    Request{Path: "/videos", Parameters: Params{"per_page": 25, "page": 2}},
			same: true,
		},
		{
			name: "different methods differ",
			a:    Request{Method: http.MethodGet, Path: "/videos/1"},
			b:    Request{Method: http.MethodDelete, Path: "/videos/1"},
			same: false,
		},
		{
			name: "different parameters differ",
			a:    Request{Path: "/videos", Parameters: Params{"page": 1}},
			b:    Request{Path: "/videos", Parameters: Params{"page": 2}},
			same: false,
		},
		{
			name: "policies do not affect identity",
			a:    Request{Path: "/videos", CacheFetchPolicy: CacheOnly, RetryPolicy: MultipleAttemptsPolicy(3, time.Second)},
			b:    Request{Path: "/videos", CacheFetchPolicy: NetworkOnly},
			same: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.same {
				assert.Equal(t, tt.a.Fingerprint(), tt.b.Fingerprint())
			} else {
				assert.NotEqual(t, tt.a.Fingerprint(), tt.b.Fingerprint())
			}
		})
	}
}

func TestRetryPolicyNext(t *testing.T) {
	policy := MultipleAttemptsPolicy(3, 100*time.Millisecond)
	assert.True(t, policy.shouldRetry())

	second := policy.next()
	assert.Equal(t, 2, second.AttemptCount)
	assert.Equal(t, 200*time.Millisecond, second.InitialDelay)
	assert.True(t, second.shouldRetry())

	third := second.next()
	assert.Equal(t, 1, third.AttemptCount)
	assert.Equal(t, 400*time.Millisecond, third.InitialDelay)
	assert.False(t, third.shouldRetry())

	assert.False(t, RetryPolicy{}.shouldRetry())
}

func TestDefaultCacheFetchPolicy(t *testing.T) {
	assert.Equal(t, CacheThenNetwork, DefaultCacheFetchPolicy(http.MethodGet))
	assert.Equal(t, NetworkOnly, DefaultCacheFetchPolicy(http.MethodPost))
	assert.Equal(t, NetworkOnly, DefaultCacheFetchPolicy(http.MethodDelete))
}

func TestPageRequest(t *testing.T) {
	original := Request{
		Method:              http.MethodGet,
		Path:                "/me/videos",
		Parameters:          Params{"per_page": 25},
		ModelKeyPath:        "data",
		CacheFetchPolicy:    CacheThenNetwork,
		ShouldCacheResponse: true,
	}

	page := original.pageRequest("/me/videos?page=2&per_page=25")

	assert.Equal(t, "/me/videos?page=2&per_page=25", page.Path)
	assert.Equal(t, original.Method, page.Method)
	assert.Equal(t, original.ModelKeyPath, page.ModelKeyPath)
	assert.Equal(t, original.CacheFetchPolicy, page.CacheFetchPolicy)
	assert.Nil(t, page.Parameters)
}
