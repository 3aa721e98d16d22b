package vimeo

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()

	_, ok := cache.Lookup("missing")
	assert.False(t, ok)

	cache.Store("a", Payload{"name": "first"})
	cache.Store("b", Payload{"name": "second"})

	payload, ok := cache.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "first", payload["name"])
	assert.Equal(t, 2, cache.Size())

	cache.Store("a", Payload{"name": "replaced"})
	payload, ok = cache.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "replaced", payload["name"])
	assert.Equal(t, 2, cache.Size())

	cache.Remove("a")
	_, ok = cache.Lookup("a")
	assert.False(t, ok)

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCacheConcurrent(t *testing.T) {
	cache := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%4)
			for j := 0; j < 100; j++ {
				cache.Store(key, Payload{"n": n})
				cache.Lookup(key)
				if j%10 == 0 {
					cache.Remove(key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestKeyPathMapper(t *testing.T) {
	mapper := KeyPathMapper{}
	payload := Payload{
		"data": []any{"a", "b"},
		"user": map[string]any{
			"metadata": map[string]any{"total": float64(3)},
		},
	}

	model, err := mapper.Map(payload, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any(payload), model)

	model, err = mapper.Map(payload, "data")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, model)

	model, err = mapper.Map(payload, "user.metadata.total")
	require.NoError(t, err)
	assert.Equal(t, float64(3), model)

	_, err = mapper.Map(payload, "missing")
	assert.Error(t, err)

	_, err = mapper.Map(payload, "data.inner")
	assert.Error(t, err)
}
