package vimeo

import (
	"fmt"
	"strings"
)

// Mapper turns a raw response payload into the typed model a request asked
// for. The client owns no model types itself; it hands the payload and the
// request's model key path to the mapper and stores whatever comes back on
// the response.
type Mapper interface {
	// Map resolves keyPath within payload and returns the model found there.
	// It fails when the key path does not resolve to a value.
	Map(payload Payload, keyPath string) (any, error)
}

// KeyPathMapper is the default Mapper: it walks a dot-separated key path
// through nested JSON objects and returns the value at the end. An empty key
// path returns the payload itself.
type KeyPathMapper struct{}

// Map implements Mapper.
func (KeyPathMapper) Map(payload Payload, keyPath string) (any, error) {
	if keyPath == "" {
		return map[string]any(payload), nil
	}

	var current any = map[string]any(payload)
	for _, key := range strings.Split(keyPath, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key path %q: %q is not an object", keyPath, key)
		}
		current, ok = object[key]
		if !ok {
			return nil, fmt.Errorf("key path %q: missing key %q", keyPath, key)
		}
	}

	return current, nil
}
